package checkout

import (
	"github.com/shopspring/decimal"
)

// Totals is the full monetary breakdown of a checkout. All fields are
// non-negative except NetProfit and the per-line Profit, which go negative
// when an override price is set below cost.
type Totals struct {
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	GrossProfit decimal.Decimal
	NetProfit   decimal.Decimal
	Lines       []LineTotals
}

// LineTotals carries the per-line amounts persisted with each sale record.
// The checkout discount is apportioned across lines by their share of the
// subtotal.
type LineTotals struct {
	ProductID string
	Subtotal  decimal.Decimal
	Discount  decimal.Decimal
	Total     decimal.Decimal
	Profit    decimal.Decimal
}

// ComputeTotals derives subtotal, discount, total, and profit figures for the
// given lines and discount spec. It is a pure function: calling it twice with
// the same inputs yields identical outputs.
//
// The discount is apportioned per line as discount × lineSubtotal/subtotal,
// rounded to 2 decimal places; the last line with a positive subtotal absorbs
// the rounding remainder so the apportioned amounts sum exactly to the
// discount, and a zero-priced line never carries any discount. The discount
// is treated as a pure revenue reduction: it reduces profit one-for-one and
// is never reapportioned against cost.
func ComputeTotals(lines []Line, spec DiscountSpec) Totals {
	subtotal := Subtotal(lines)
	discount := ResolveDiscount(lines, spec).Round(2)

	grossProfit := decimal.Zero
	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		grossProfit = grossProfit.Add(l.UnitPrice.Sub(l.BuyingPrice).Mul(qty))
	}

	t := Totals{
		Subtotal:    subtotal,
		Discount:    discount,
		Total:       subtotal.Sub(discount),
		GrossProfit: grossProfit,
		NetProfit:   grossProfit.Sub(discount),
		Lines:       make([]LineTotals, len(lines)),
	}

	// The remainder goes to the last line with a positive subtotal, so a
	// zero-priced line can never end up with a negative total.
	lastCharged := -1
	for i, l := range lines {
		if l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).IsPositive() {
			lastCharged = i
		}
	}

	apportioned := decimal.Zero
	for i, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		lineSubtotal := l.UnitPrice.Mul(qty)

		var lineDiscount decimal.Decimal
		switch {
		case subtotal.IsZero() || lineSubtotal.IsZero():
			lineDiscount = decimal.Zero
		case i == lastCharged:
			lineDiscount = discount.Sub(apportioned)
		default:
			lineDiscount = discount.Mul(lineSubtotal).Div(subtotal).Round(2)
			apportioned = apportioned.Add(lineDiscount)
		}

		t.Lines[i] = LineTotals{
			ProductID: l.ProductID,
			Subtotal:  lineSubtotal,
			Discount:  lineDiscount,
			Total:     lineSubtotal.Sub(lineDiscount),
			Profit:    l.UnitPrice.Sub(l.BuyingPrice).Mul(qty).Sub(lineDiscount),
		}
	}

	return t
}
