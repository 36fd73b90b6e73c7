package repl

import (
	"fmt"
	"io"
	"strings"

	"production-ledger/internal/core"

	"github.com/shopspring/decimal"
)

func printHelp(out io.Writer) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Every one-shot command works here with a leading slash, for example:")
	fmt.Fprintln(out, "  /materials  /products  /stock  /reconcile  /orders production")
	fmt.Fprintln(out, "  /produce 1 4 BR-7  /sell 1 1 2 stk  /reverse sale 3")
	fmt.Fprintln(out, "  /add-customer {\"name\": \"Corner Shop\"}   (JSON may follow the command)")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Wizards:")
	fmt.Fprintln(out, "  /receive SUPPLIER_ID                     receive several lots in one purchase")
	fmt.Fprintln(out, "  /new-recipe PRODUCT_ID                   enter a recipe line by line")
	fmt.Fprintln(out, "  /allocate PRODUCT_ID QTY LABEL [DATE]    produce with hand-picked lots (manual policy)")
	fmt.Fprintln(out, "  /allocate-sale CUSTOMER_ID PRODUCT_ID QTY UNIT [DATE]")
	fmt.Fprintln(out, "                                           sell from hand-picked lots (manual policy)")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  /help  /exit")
}

func printOffered(out io.Writer, pl core.PlannedLine) {
	printLots(out, fmt.Sprintf("Line %d: %s", pl.Line.ID, pl.Component.Name), pl.Required, pl.Line.Unit, pl.Offered)
}

func printLots(out io.Writer, title string, required decimal.Decimal, unit core.Unit, offered []core.LotAvailability) {
	fmt.Fprintln(out, strings.Repeat("-", 70))
	fmt.Fprintf(out, "  %s, %s %s required\n", title, required.String(), unit)
	if len(offered) == 0 {
		fmt.Fprintln(out, "    no lots available")
		return
	}
	for _, o := range offered {
		fmt.Fprintf(out, "    lot %-6d %-20s %-10s %14s %s\n",
			o.Lot.Ref.ID, o.Lot.Label, o.Lot.Date, o.Available.String(), unit)
	}
}
