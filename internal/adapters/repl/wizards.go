package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"production-ledger/internal/adapters/cli"
	"production-ledger/internal/app"
	"production-ledger/internal/core"

	"github.com/shopspring/decimal"
)

type wizard struct {
	ctx    context.Context
	svc    app.ApplicationService
	reader *bufio.Reader
	out    io.Writer
}

func (w *wizard) prompt(label string) string {
	fmt.Fprint(w.out, label)
	s, _ := w.reader.ReadString('\n')
	return strings.TrimSpace(s)
}

// lines collects entries until "done". It returns false on "cancel".
func (w *wizard) lines(format string, parse func(parts []string) error) bool {
	fmt.Fprintln(w.out, "Enter one line per entry. Type 'done' when finished, 'cancel' to abort.")
	fmt.Fprintf(w.out, "Format per line: %s\n", format)
	n := 1
	for {
		raw := w.prompt(fmt.Sprintf("  Line %d: ", n))
		switch strings.ToLower(raw) {
		case "cancel":
			fmt.Fprintln(w.out, "Cancelled.")
			return false
		case "done":
			return true
		case "":
			continue
		}
		if err := parse(strings.Fields(raw)); err != nil {
			fmt.Fprintf(w.out, "  %v\n", err)
			continue
		}
		n++
	}
}

func positive(s, what string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid %s: %s", what, s)
	}
	return d, nil
}

func id(s, what string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %s", what, s)
	}
	return n, nil
}

// receive builds a purchase order with any number of lots.
func (w *wizard) receive(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(w.out, "Usage: /receive <supplier-id>")
		return nil
	}
	supplier, err := id(args[0], "supplier id")
	if err != nil {
		return err
	}

	var lines []app.PurchaseLineInput
	ok := w.lines("<material-id> <quantity> <unit> <batch-label>", func(parts []string) error {
		if len(parts) < 4 {
			return fmt.Errorf("invalid format")
		}
		material, err := id(parts[0], "material id")
		if err != nil {
			return err
		}
		qty, err := positive(parts[1], "quantity")
		if err != nil {
			return err
		}
		lines = append(lines, app.PurchaseLineInput{
			MaterialID: material,
			Quantity:   qty,
			Unit:       parts[2],
			BatchLabel: strings.Join(parts[3:], " "),
		})
		return nil
	})
	if !ok {
		return nil
	}
	if len(lines) == 0 {
		fmt.Fprintln(w.out, "No lines entered. Nothing received.")
		return nil
	}

	date := w.prompt("Date (YYYY-MM-DD, leave blank for today): ")
	order, err := w.svc.Purchase(w.ctx, app.PurchaseRequest{SupplierID: supplier, Date: date, Lines: lines})
	if err != nil {
		return err
	}
	fmt.Fprintf(w.out, "\nPurchase order %d (%s) received %d lot(s).\n", order.ID, order.Reference, len(order.Lines))
	return nil
}

// newRecipe creates or replaces a recipe from prompted lines.
func (w *wizard) newRecipe(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(w.out, "Usage: /new-recipe <product-id>")
		return nil
	}
	product, err := id(args[0], "product id")
	if err != nil {
		return err
	}
	output, err := positive(w.prompt("Output quantity per run: "), "output quantity")
	if err != nil {
		return err
	}
	method := w.prompt("Method (optional): ")

	var lines []app.RecipeLineRequest
	ok := w.lines("<material|product> <item-id> <quantity> <unit>", func(parts []string) error {
		if len(parts) < 4 {
			return fmt.Errorf("invalid format")
		}
		item, err := id(parts[1], "item id")
		if err != nil {
			return err
		}
		qty, err := positive(parts[2], "quantity")
		if err != nil {
			return err
		}
		lines = append(lines, app.RecipeLineRequest{Kind: parts[0], ItemID: item, Quantity: qty, Unit: parts[3]})
		return nil
	})
	if !ok {
		return nil
	}

	r, err := w.svc.SaveRecipe(w.ctx, app.SaveRecipeRequest{
		ProductID:      product,
		Method:         method,
		OutputQuantity: output,
		Lines:          lines,
	})
	if err != nil {
		return err
	}
	return cli.Exec(w.ctx, w.svc, []string{"recipe", strconv.Itoa(r.ProductID)}, strings.NewReader(""), w.out)
}

// pick collects lot amounts for one requirement.
func (w *wizard) pick() ([]app.LotChoiceInput, bool) {
	var picks []app.LotChoiceInput
	ok := w.lines("<lot-id> <amount>", func(parts []string) error {
		if len(parts) < 2 {
			return fmt.Errorf("invalid format")
		}
		lot, err := id(parts[0], "lot id")
		if err != nil {
			return err
		}
		amount, err := positive(parts[1], "amount")
		if err != nil {
			return err
		}
		picks = append(picks, app.LotChoiceInput{LotID: lot, Amount: amount})
		return nil
	})
	return picks, ok
}

// allocate shows the lots offered to every recipe line and lets the user
// pick amounts before committing the production order.
func (w *wizard) allocate(args []string) error {
	if w.svc.Policy() != core.PolicyManual {
		fmt.Fprintf(w.out, "Lots are picked automatically under the %s policy. Use /produce instead.\n", w.svc.Policy())
		return nil
	}
	if len(args) < 3 {
		fmt.Fprintln(w.out, "Usage: /allocate <product-id> <quantity> <batch-label> [date]")
		return nil
	}
	product, err := id(args[0], "product id")
	if err != nil {
		return err
	}
	qty, err := positive(args[1], "quantity")
	if err != nil {
		return err
	}
	req := app.ProduceRequest{ProductID: product, Quantity: qty, BatchLabel: args[2]}
	if len(args) > 3 {
		req.Date = args[3]
	}

	plan, err := w.svc.PlanProduction(w.ctx, req)
	if err != nil {
		return err
	}
	req.Allocations = make(map[int][]app.LotChoiceInput, len(plan.Lines))
	for _, pl := range plan.Lines {
		printOffered(w.out, pl)
		picks, ok := w.pick()
		if !ok {
			return nil
		}
		req.Allocations[pl.Line.ID] = picks
	}

	order, err := w.svc.Produce(w.ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(w.out, "\nProduction order %d committed. Batch %s is product lot %d.\n",
		order.ID, order.BatchLabel, order.OutputLotID)
	return nil
}

// allocateSale shows the product lots in the sale unit and sells from the
// amounts the user picks.
func (w *wizard) allocateSale(args []string) error {
	if w.svc.Policy() != core.PolicyManual {
		fmt.Fprintf(w.out, "Lots are picked automatically under the %s policy. Use /sell instead.\n", w.svc.Policy())
		return nil
	}
	if len(args) < 4 {
		fmt.Fprintln(w.out, "Usage: /allocate-sale <customer-id> <product-id> <quantity> <unit> [date]")
		return nil
	}
	customer, err := id(args[0], "customer id")
	if err != nil {
		return err
	}
	product, err := id(args[1], "product id")
	if err != nil {
		return err
	}
	qty, err := positive(args[2], "quantity")
	if err != nil {
		return err
	}
	unit, err := core.ParseUnit(args[3])
	if err != nil {
		return err
	}
	req := app.SellRequest{CustomerID: customer, ProductID: product, Quantity: qty, Unit: string(unit)}
	if len(args) > 4 {
		req.Date = args[4]
	}

	lots, err := w.svc.ListLots(w.ctx, "product", product, false)
	if err != nil {
		return err
	}
	offered, err := core.Availability(lots.Lots, unit)
	if err != nil {
		return err
	}
	printLots(w.out, lots.Item.Name, qty, unit, offered)
	picks, ok := w.pick()
	if !ok {
		return nil
	}
	req.Allocations = picks

	order, err := w.svc.Sell(w.ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(w.out, "\nSales order %d (%s): %s %s from %d lot(s).\n",
		order.ID, order.Reference, order.Quantity.String(), order.Unit, len(order.Lots))
	return nil
}
