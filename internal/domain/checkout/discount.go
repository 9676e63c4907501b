package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/dukahub/dukapos/internal/domain/promo"
)

// DiscountKind tags the active discount mode. Exactly one mode is active at
// a time; constructing a new spec replaces the previous one entirely.
type DiscountKind uint8

const (
	// KindNone applies no discount.
	KindNone DiscountKind = iota
	// KindPercentage deducts a percentage of the subtotal.
	KindPercentage
	// KindFixed deducts a fixed amount, capped at the subtotal.
	KindFixed
	// KindPromo applies a previously validated promo code.
	KindPromo
)

// DiscountSpec is a closed choice between the three discount modes. The zero
// value means no discount. Promo specs carry the validated code record; an
// unvalidated promo cannot be represented.
type DiscountSpec struct {
	kind  DiscountKind
	value decimal.Decimal
	promo *promo.Code
}

// NoDiscount returns the empty spec.
func NoDiscount() DiscountSpec {
	return DiscountSpec{}
}

// PercentageDiscount returns a percentage spec. Values outside (0, 100]
// resolve to a zero discount rather than an error.
func PercentageDiscount(value decimal.Decimal) DiscountSpec {
	return DiscountSpec{kind: KindPercentage, value: value}
}

// FixedDiscount returns a fixed-amount spec. Non-positive values resolve to
// a zero discount.
func FixedDiscount(value decimal.Decimal) DiscountSpec {
	return DiscountSpec{kind: KindFixed, value: value}
}

// PromoDiscount returns a spec for a validated promo code.
func PromoDiscount(code *promo.Code) DiscountSpec {
	if code == nil {
		return DiscountSpec{}
	}
	return DiscountSpec{kind: KindPromo, promo: code}
}

// Kind returns the active discount mode.
func (s DiscountSpec) Kind() DiscountKind {
	return s.kind
}

// Promo returns the validated promo code, or nil for non-promo specs.
func (s DiscountSpec) Promo() *promo.Code {
	return s.promo
}

// Value returns the raw percentage or fixed value for non-promo specs.
func (s DiscountSpec) Value() decimal.Decimal {
	return s.value
}

var hundred = decimal.NewFromInt(100)

// ResolveDiscount computes the monetary deduction for the spec against the
// given lines. The result is always within [0, subtotal]; invalid or missing
// values yield zero rather than an error.
func ResolveDiscount(lines []Line, spec DiscountSpec) decimal.Decimal {
	subtotal := Subtotal(lines)

	var amount decimal.Decimal
	switch spec.kind {
	case KindNone:
		return decimal.Zero
	case KindPercentage:
		amount = percentageOf(subtotal, spec.value)
	case KindFixed:
		if spec.value.IsPositive() {
			amount = spec.value
		}
	case KindPromo:
		switch spec.promo.DiscountType {
		case promo.DiscountPercentage:
			amount = percentageOf(subtotal, spec.promo.DiscountValue)
		case promo.DiscountFixed:
			if spec.promo.DiscountValue.IsPositive() {
				amount = spec.promo.DiscountValue
			}
		}
	}

	return clamp(amount, subtotal)
}

// Subtotal returns Σ price × quantity over the lines, using each line's
// current (possibly overridden) unit price.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return sum
}

// percentageOf returns subtotal × value / 100 when value is in (0, 100],
// otherwise zero.
func percentageOf(subtotal, value decimal.Decimal) decimal.Decimal {
	if !value.IsPositive() || value.GreaterThan(hundred) {
		return decimal.Zero
	}
	return subtotal.Mul(value).Div(hundred)
}

// clamp bounds amount to [0, subtotal].
func clamp(amount, subtotal decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(subtotal) {
		return subtotal
	}
	return amount
}
