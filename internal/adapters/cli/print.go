package cli

import (
	"fmt"
	"io"
	"strings"

	"production-ledger/internal/app"
	"production-ledger/internal/core"

	"github.com/shopspring/decimal"
)

type printer struct {
	w io.Writer
}

func (p *printer) f(format string, a ...any) { fmt.Fprintf(p.w, format, a...) }

func (p *printer) rule(c string) { fmt.Fprintln(p.w, strings.Repeat(c, 62)) }

func (p *printer) title(t string) {
	fmt.Fprintln(p.w)
	p.rule("=")
	p.f("  %-58s\n", t)
	p.rule("=")
}

func qty(d decimal.Decimal, u core.Unit) string { return d.String() + " " + string(u) }

func (p *printer) items(res *app.ItemListResult) {
	p.title(strings.ToUpper(string(res.Kind)) + "S")
	p.f("  %-6s %-30s %-6s %15s\n", "ID", "NAME", "UNIT", "QUANTITY")
	p.rule("-")
	for _, it := range res.Items {
		p.f("  %-6d %-30s %-6s %15s\n", it.Ref.ID, it.Name, it.Unit, it.Quantity.String())
	}
	p.rule("=")
}

func (p *printer) lots(res *app.LotListResult) {
	p.title(fmt.Sprintf("LOTS OF %s", strings.ToUpper(res.Item.Name)))
	p.f("  Item     : %s\n", res.Item.Ref)
	p.f("  On hand  : %s\n", qty(res.Item.Quantity, res.Item.Unit))
	p.rule("-")
	p.f("  %-6s %-22s %-10s %20s\n", "LOT", "LABEL", "DATE", "QUANTITY")
	p.rule("-")
	for _, l := range res.Lots {
		p.f("  %-6d %-22s %-10s %20s\n", l.Ref.ID, l.Label, l.Date, qty(l.Quantity, l.Unit))
	}
	p.rule("=")
}

func (p *printer) recipe(r *core.Recipe) {
	p.title(fmt.Sprintf("RECIPE %d", r.ID))
	p.f("  Product  : %d\n", r.ProductID)
	p.f("  Output   : %s per run\n", r.OutputQuantity.String())
	if r.Method != "" {
		p.f("  Method   : %s\n", r.Method)
	}
	p.rule("-")
	p.f("  %-6s %-30s %20s\n", "LINE", "COMPONENT", "REQUIRED")
	p.rule("-")
	for _, l := range r.Lines {
		p.f("  %-6d %-30s %20s\n", l.ID, l.Component, qty(l.QuantityRequired, l.Unit))
	}
	p.rule("=")
}

func (p *printer) parties(kind core.PartyKind, parties []core.Party) {
	p.title(string(kind) + "S")
	p.f("  %-6s %-26s %-26s\n", "ID", "NAME", "EMAIL")
	p.rule("-")
	for _, party := range parties {
		p.f("  %-6d %-26s %-26s\n", party.ID, party.Name, party.ContactEmail)
	}
	p.rule("=")
}

func (p *printer) plan(plan *core.ProductionPlan) {
	p.title("PRODUCTION PLAN")
	p.f("  Product  : %s (%s)\n", plan.Product.Name, plan.Product.Ref)
	p.f("  Runs     : %s\n", plan.ScalingFactor.String())
	p.f("  State    : %s\n", plan.State)
	for _, l := range plan.Lines {
		p.rule("-")
		status := "ok"
		if !l.Result.Sufficient {
			status = "SHORT " + qty(l.Result.Shortfall, l.Line.Unit)
		}
		p.f("  %-30s %-16s %12s\n", l.Component.Name, qty(l.Required, l.Line.Unit), status)
		for _, a := range l.Result.Allocations {
			p.f("    lot %-6d %-20s %-10s %16s\n", a.Lot.Ref.ID, a.Lot.Label, a.Lot.Date, qty(a.Amount, l.Line.Unit))
		}
	}
	p.rule("=")
}

func (p *printer) production(o *core.ProductionOrder) {
	p.title(fmt.Sprintf("PRODUCTION ORDER %d", o.ID))
	p.f("  Reference: %s\n", o.Reference)
	p.f("  Batch    : %s (product lot %d)\n", o.BatchLabel, o.OutputLotID)
	p.f("  Quantity : %s\n", o.Quantity.String())
	p.f("  Date     : %s\n", o.Date)
	p.rule("-")
	p.f("  %-30s %20s\n", "CONSUMED FROM", "QUANTITY")
	p.rule("-")
	for _, c := range o.Components {
		p.f("  %-30s %20s\n", c.Lot, qty(c.QuantityUsed, c.Unit))
	}
	p.rule("=")
}

func (p *printer) reversal(r *core.Reversal) {
	p.title(fmt.Sprintf("REVERSED %s %d", r.Order.Kind, r.Order.ID))
	for _, d := range r.Deltas {
		target := d.Item.String()
		if d.Lot != nil {
			target = d.Lot.String()
		}
		p.f("  %-40s %18s\n", target, qty(d.Delta, d.Unit))
	}
	p.rule("=")
}

func (p *printer) orders(res *app.OrderListResult) {
	p.title(string(res.Kind) + " RECORDS")
	switch res.Kind {
	case core.OrderProduction:
		p.f("  %-5s %-10s %-8s %-14s %10s %-10s\n", "ID", "DATE", "PRODUCT", "BATCH", "QTY", "STATUS")
		p.rule("-")
		for _, o := range res.Production {
			p.f("  %-5d %-10s %-8d %-14s %10s %-10s\n", o.ID, o.Date, o.ProductID, o.BatchLabel, o.Quantity.String(), o.Status)
		}
	case core.OrderSale:
		p.f("  %-5s %-10s %-8s %-8s %14s %-10s\n", "ID", "DATE", "CUSTOMER", "PRODUCT", "QTY", "STATUS")
		p.rule("-")
		for _, o := range res.Sales {
			p.f("  %-5d %-10s %-8d %-8d %14s %-10s\n", o.ID, o.Date, o.CustomerID, o.ProductID, qty(o.Quantity, o.Unit), o.Status)
		}
	case core.OrderPurchase:
		p.f("  %-5s %-10s %-8s %-36s\n", "ID", "DATE", "SUPPLIER", "REFERENCE")
		p.rule("-")
		for _, o := range res.Purchases {
			p.f("  %-5d %-10s %-8d %-36s\n", o.ID, o.Date, o.SupplierID, o.Reference)
			for _, l := range o.Lines {
				p.f("        %-20s material %-4d lot %-5d %10s\n", l.BatchLabel, l.MaterialID, l.LotID, qty(l.Quantity, l.Unit))
			}
		}
	case core.OrderDisposal:
		p.f("  %-5s %-10s %-18s %12s %-10s\n", "ID", "DATE", "LOT", "QTY", "REASON")
		p.rule("-")
		for _, d := range res.Disposals {
			p.f("  %-5d %-10s %-18s %12s %-10s\n", d.ID, d.Date, d.Lot, qty(d.Quantity, d.Unit), d.Reason)
		}
	}
	p.rule("=")
}

func (p *printer) stock(res *app.StockResult) {
	p.title("STOCK LEVELS")
	p.f("  %-10s %-30s %18s\n", "ITEM", "NAME", "ON HAND")
	for _, lvl := range res.Levels {
		p.rule("-")
		p.f("  %-10s %-30s %18s\n", lvl.Item.Ref, lvl.Item.Name, qty(lvl.Item.Quantity, lvl.Item.Unit))
		for _, l := range lvl.Lots {
			p.f("    lot %-6d %-20s %-10s %14s\n", l.Ref.ID, l.Label, l.Date, qty(l.Quantity, l.Unit))
		}
	}
	p.rule("=")
}

func (p *printer) reconcile(res *app.ReconcileResult) {
	p.title("RECONCILIATION")
	p.f("  Items checked : %d\n", res.Items)
	p.f("  Out of balance: %d\n", len(res.Discrepancies))
	if len(res.Discrepancies) == 0 {
		p.rule("=")
		return
	}
	p.rule("-")
	p.f("  %-10s %-20s %13s %13s\n", "ITEM", "NAME", "AGGREGATE", "LOT TOTAL")
	p.rule("-")
	for _, d := range res.Discrepancies {
		p.f("  %-10s %-20s %13s %13s\n", d.Item.Ref, d.Item.Name, d.Aggregate.String(), d.LotTotal.String())
	}
	p.rule("=")
}
