package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"production-ledger/internal/app"
	"production-ledger/internal/core"

	"github.com/shopspring/decimal"
)

const usage = `Usage: app <command> [args]

Catalog:
  materials | mat                      list materials
  products | prod                      list products
  add-material NAME UNIT               create a material
  add-product NAME UNIT                create a product
  rename KIND ID NAME                  rename a material or product
  delete KIND ID                       delete a material, product, customer or supplier
  lots KIND ITEM_ID [--all]            list lots, used-up ones with --all
  recipe PRODUCT_ID                    show a recipe
  save-recipe                          create or replace a recipe (JSON on stdin)
  delete-recipe PRODUCT_ID             remove a recipe

Parties:
  customers | suppliers                list parties
  add-customer | add-supplier          create a party (JSON on stdin)

Orders:
  plan PRODUCT_ID QTY                  show the allocation without committing
  produce PRODUCT_ID QTY LABEL [DATE]  commit a production order (or JSON on stdin)
  purchase SUPPLIER_ID MATERIAL_ID QTY UNIT LABEL [DATE]
  sell CUSTOMER_ID PRODUCT_ID QTY UNIT [DATE]  (or JSON on stdin)
  dispose KIND LOT_ID QTY REASON       write stock off a lot
  reverse KIND ORDER_ID                undo a production, sale, disposal or purchase
  orders KIND                          list production, sale, purchase or disposal records
  status KIND ORDER_ID STATUS          relabel a production or sales order

Inventory:
  stock                                all items with their lots
  reconcile                            check aggregates against lot sums
  snapshot FILE                        write the ledger state to FILE
  check-snapshot FILE                  compare the ledger with FILE
  migrate                              create missing tables`

// Run executes a one-shot CLI command against the process's stdin and stdout.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) error {
	return Exec(ctx, svc, args, os.Stdin, os.Stdout)
}

// Exec runs one command, reading JSON input from in and writing tables to out.
func Exec(ctx context.Context, svc app.ApplicationService, args []string, in io.Reader, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprintln(out, usage)
		return nil
	}
	p := &printer{w: out}

	switch args[0] {
	case "migrate":
		if err := svc.Migrate(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Schema up to date.")

	// ── Catalog ──────────────────────────────────────────────────────────────
	case "materials", "mat", "products", "prod":
		res, err := svc.ListItems(ctx, args[0])
		if err != nil {
			return err
		}
		p.items(res)

	case "add-material", "add-product":
		if err := need(args, 3, args[0]+" NAME UNIT"); err != nil {
			return err
		}
		item, err := svc.CreateItem(ctx, app.CreateItemRequest{
			Kind: strings.TrimPrefix(args[0], "add-"),
			Name: args[1],
			Unit: args[2],
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %s %q (%s).\n", item.Ref, item.Name, item.Unit)

	case "rename":
		if err := need(args, 4, "rename KIND ID NAME"); err != nil {
			return err
		}
		id, err := atoi(args[2], "ID")
		if err != nil {
			return err
		}
		name := strings.Join(args[3:], " ")
		if err := svc.RenameItem(ctx, args[1], id, name); err != nil {
			return err
		}
		fmt.Fprintf(out, "Renamed %s %d to %q.\n", strings.ToLower(args[1]), id, name)

	case "delete", "del":
		if err := need(args, 3, "delete KIND ID"); err != nil {
			return err
		}
		id, err := atoi(args[2], "ID")
		if err != nil {
			return err
		}
		switch strings.ToLower(args[1]) {
		case "customer":
			err = svc.DeleteParty(ctx, core.PartyCustomer, id)
		case "supplier":
			err = svc.DeleteParty(ctx, core.PartySupplier, id)
		default:
			err = svc.DeleteItem(ctx, args[1], id)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %s %d.\n", strings.ToLower(args[1]), id)

	case "lots":
		if err := need(args, 3, "lots KIND ITEM_ID [--all]"); err != nil {
			return err
		}
		id, err := atoi(args[2], "ITEM_ID")
		if err != nil {
			return err
		}
		all := len(args) > 3 && args[3] == "--all"
		res, err := svc.ListLots(ctx, args[1], id, all)
		if err != nil {
			return err
		}
		p.lots(res)

	case "recipe":
		if err := need(args, 2, "recipe PRODUCT_ID"); err != nil {
			return err
		}
		id, err := atoi(args[1], "PRODUCT_ID")
		if err != nil {
			return err
		}
		r, err := svc.GetRecipe(ctx, id)
		if err != nil {
			return err
		}
		p.recipe(r)

	case "save-recipe":
		var req app.SaveRecipeRequest
		if err := decode(in, &req); err != nil {
			return err
		}
		r, err := svc.SaveRecipe(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved recipe %d for product %d.\n", r.ID, r.ProductID)

	case "delete-recipe":
		if err := need(args, 2, "delete-recipe PRODUCT_ID"); err != nil {
			return err
		}
		id, err := atoi(args[1], "PRODUCT_ID")
		if err != nil {
			return err
		}
		if err := svc.DeleteRecipe(ctx, id); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted recipe of product %d.\n", id)

	// ── Parties ──────────────────────────────────────────────────────────────
	case "customers", "suppliers":
		kind := partyKind(args[0])
		parties, err := svc.ListParties(ctx, kind)
		if err != nil {
			return err
		}
		p.parties(kind, parties)

	case "add-customer", "add-supplier":
		var req app.CreatePartyRequest
		if err := decode(in, &req); err != nil {
			return err
		}
		party, err := svc.CreateParty(ctx, partyKind(args[0]), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Created %s %d %q.\n", strings.ToLower(string(party.Kind)), party.ID, party.Name)

	// ── Orders ───────────────────────────────────────────────────────────────
	case "plan":
		if err := need(args, 3, "plan PRODUCT_ID QTY"); err != nil {
			return err
		}
		req, err := produceArgs(args[1], args[2], "plan")
		if err != nil {
			return err
		}
		plan, err := svc.PlanProduction(ctx, req)
		if err != nil {
			return err
		}
		p.plan(plan)

	case "produce":
		var req app.ProduceRequest
		if len(args) == 1 {
			if err := decode(in, &req); err != nil {
				return err
			}
		} else {
			if err := need(args, 4, "produce PRODUCT_ID QTY LABEL [DATE]"); err != nil {
				return err
			}
			var err error
			if req, err = produceArgs(args[1], args[2], args[3]); err != nil {
				return err
			}
			req.Date = optional(args, 4)
		}
		order, err := svc.Produce(ctx, req)
		if err != nil {
			return err
		}
		p.production(order)

	case "purchase", "po":
		if err := need(args, 6, "purchase SUPPLIER_ID MATERIAL_ID QTY UNIT LABEL [DATE]"); err != nil {
			return err
		}
		supplier, err := atoi(args[1], "SUPPLIER_ID")
		if err != nil {
			return err
		}
		material, err := atoi(args[2], "MATERIAL_ID")
		if err != nil {
			return err
		}
		qty, err := quantity(args[3])
		if err != nil {
			return err
		}
		order, err := svc.Purchase(ctx, app.PurchaseRequest{
			SupplierID: supplier,
			Date:       optional(args, 6),
			Lines: []app.PurchaseLineInput{
				{MaterialID: material, Quantity: qty, Unit: args[4], BatchLabel: args[5]},
			},
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Purchase order %d (%s) received %d lot(s).\n", order.ID, order.Reference, len(order.Lines))

	case "sell", "sale":
		var req app.SellRequest
		if len(args) == 1 {
			if err := decode(in, &req); err != nil {
				return err
			}
		} else {
			if err := need(args, 5, "sell CUSTOMER_ID PRODUCT_ID QTY UNIT [DATE]"); err != nil {
				return err
			}
			customer, err := atoi(args[1], "CUSTOMER_ID")
			if err != nil {
				return err
			}
			product, err := atoi(args[2], "PRODUCT_ID")
			if err != nil {
				return err
			}
			qty, err := quantity(args[3])
			if err != nil {
				return err
			}
			req = app.SellRequest{
				CustomerID: customer,
				ProductID:  product,
				Quantity:   qty,
				Unit:       args[4],
				Date:       optional(args, 5),
			}
		}
		order, err := svc.Sell(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Sales order %d (%s): %s %s from %d lot(s).\n",
			order.ID, order.Reference, order.Quantity.String(), order.Unit, len(order.Lots))

	case "dispose":
		if err := need(args, 5, "dispose KIND LOT_ID QTY REASON"); err != nil {
			return err
		}
		lot, err := atoi(args[2], "LOT_ID")
		if err != nil {
			return err
		}
		qty, err := quantity(args[3])
		if err != nil {
			return err
		}
		rec, err := svc.Dispose(ctx, app.DisposeRequest{
			Kind:     args[1],
			LotID:    lot,
			Quantity: qty,
			Reason:   strings.Join(args[4:], " "),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Disposal %d: %s %s written off %s.\n", rec.ID, rec.Quantity.String(), rec.Unit, rec.Lot)

	case "reverse", "rev":
		if err := need(args, 3, "reverse KIND ORDER_ID"); err != nil {
			return err
		}
		id, err := atoi(args[2], "ORDER_ID")
		if err != nil {
			return err
		}
		rev, err := svc.Reverse(ctx, args[1], id)
		if err != nil {
			return err
		}
		p.reversal(rev)

	case "orders":
		if err := need(args, 2, "orders KIND"); err != nil {
			return err
		}
		res, err := svc.ListOrders(ctx, args[1])
		if err != nil {
			return err
		}
		p.orders(res)

	case "status":
		if err := need(args, 4, "status KIND ORDER_ID STATUS"); err != nil {
			return err
		}
		id, err := atoi(args[2], "ORDER_ID")
		if err != nil {
			return err
		}
		if err := svc.UpdateOrderStatus(ctx, args[1], id, args[3]); err != nil {
			return err
		}
		fmt.Fprintf(out, "Order %d is now %s.\n", id, strings.ToUpper(args[3]))

	// ── Inventory ────────────────────────────────────────────────────────────
	case "stock", "inv":
		res, err := svc.GetStockLevels(ctx)
		if err != nil {
			return err
		}
		p.stock(res)

	case "reconcile":
		res, err := svc.Reconcile(ctx)
		if err != nil {
			return err
		}
		p.reconcile(res)
		if len(res.Discrepancies) > 0 {
			return fmt.Errorf("%d item(s) out of balance", len(res.Discrepancies))
		}

	case "snapshot":
		if err := need(args, 2, "snapshot FILE"); err != nil {
			return err
		}
		b, err := svc.Snapshot(ctx)
		if err != nil {
			return err
		}
		if err := os.WriteFile(args[1], b, 0o644); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		fmt.Fprintf(out, "Wrote %d bytes to %s.\n", len(b), args[1])

	case "check-snapshot":
		if err := need(args, 2, "check-snapshot FILE"); err != nil {
			return err
		}
		b, err := os.ReadFile(args[1])
		if err != nil {
			return fmt.Errorf("read snapshot: %w", err)
		}
		res, err := svc.CheckSnapshot(ctx, b)
		if err != nil {
			return err
		}
		if len(res.Diff) == 0 {
			fmt.Fprintln(out, "Ledger matches the snapshot.")
			return nil
		}
		for _, line := range res.Diff {
			fmt.Fprintln(out, line)
		}
		return fmt.Errorf("ledger differs from %s in %d place(s)", args[1], len(res.Diff))

	case "help", "-h", "--help":
		fmt.Fprintln(out, usage)

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], usage)
	}
	return nil
}

// ── argument helpers ──────────────────────────────────────────────────────────

func need(args []string, n int, form string) error {
	if len(args) < n {
		return fmt.Errorf("usage: app %s", form)
	}
	return nil
}

func optional(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

func atoi(s, name string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, &core.ValidationError{Field: name, Message: fmt.Sprintf("%q is not a positive id", s)}
	}
	return n, nil
}

func quantity(s string) (decimal.Decimal, error) {
	q, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &core.ValidationError{Field: "quantity", Message: fmt.Sprintf("%q is not a number", s)}
	}
	return q, nil
}

func produceArgs(productID, qty, label string) (app.ProduceRequest, error) {
	id, err := atoi(productID, "PRODUCT_ID")
	if err != nil {
		return app.ProduceRequest{}, err
	}
	q, err := quantity(qty)
	if err != nil {
		return app.ProduceRequest{}, err
	}
	return app.ProduceRequest{ProductID: id, Quantity: q, BatchLabel: label}, nil
}

func decode(in io.Reader, v any) error {
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func partyKind(cmd string) core.PartyKind {
	if strings.Contains(cmd, "supplier") {
		return core.PartySupplier
	}
	return core.PartyCustomer
}
