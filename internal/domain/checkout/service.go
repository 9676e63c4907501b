package checkout

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/dukahub/dukapos/internal/domain/auth"
	"github.com/dukahub/dukapos/internal/domain/promo"
	"github.com/dukahub/dukapos/internal/domain/sale"
)

var (
	// ErrEmptyCart is returned when commit is attempted with no lines.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrUnknownPaymentMethod is returned for a payment method outside the
	// accepted set.
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

// paymentMethods is the closed set of accepted tender types.
var paymentMethods = map[string]struct{}{
	"cash":         {},
	"card":         {},
	"mobile_money": {},
}

// CommitStore persists a finalized checkout. Implementations must write the
// sale lines, the stock decrements, and the promo usage increment as a single
// atomic unit: either every line commits or none does, and a stock decrement
// that would go negative fails the whole draft with
// catalog.ErrInsufficientStock.
type CommitStore interface {
	CommitSale(ctx context.Context, draft sale.Draft) ([]sale.Line, error)
}

// Service turns an in-memory cart into durable sale records.
type Service struct {
	store CommitStore
}

// NewService creates a checkout Service over the given commit store.
func NewService(store CommitStore) *Service {
	return &Service{store: store}
}

// CommitResult holds the outcome of a committed checkout.
type CommitResult struct {
	Totals Totals
	Lines  []sale.Line
}

// Commit validates preconditions, computes totals, and persists the checkout
// through the commit store. On success the cart is cleared; the caller is
// expected to refresh its catalog snapshot afterwards.
func (s *Service) Commit(ctx context.Context, session auth.Session, cart *Cart, spec DiscountSpec, paymentMethod string) (*CommitResult, error) {
	if session.TenantID == "" || session.OperatorID == "" {
		return nil, auth.ErrNoSession
	}
	if cart.Empty() {
		return nil, ErrEmptyCart
	}
	if _, ok := paymentMethods[paymentMethod]; !ok {
		return nil, errors.Wrapf(ErrUnknownPaymentMethod, "%q", paymentMethod)
	}

	lines := cart.Lines()
	totals := ComputeTotals(lines, spec)

	draft := sale.Draft{
		TenantID:      session.TenantID,
		CreatedBy:     session.OperatorID,
		PaymentMethod: paymentMethod,
		Lines:         make([]sale.DraftLine, len(lines)),
	}
	draft.DiscountType, draft.DiscountValue, draft.PromoCode = discountAttribution(spec)

	for i, l := range lines {
		lt := totals.Lines[i]
		draft.Lines[i] = sale.DraftLine{
			ProductID:      l.ProductID,
			ProductName:    l.Name,
			Quantity:       l.Quantity,
			UnitPrice:      l.UnitPrice,
			TotalAmount:    lt.Total,
			Profit:         lt.Profit,
			DiscountAmount: lt.Discount,
		}
	}

	committed, err := s.store.CommitSale(ctx, draft)
	if err != nil {
		return nil, errors.Wrap(err, "commit sale")
	}

	cart.Clear()

	return &CommitResult{Totals: totals, Lines: committed}, nil
}

// discountAttribution maps the spec onto the persisted attribution fields.
// Promo specs record the promo's own discount kind plus the code itself.
func discountAttribution(spec DiscountSpec) (discountType string, value decimal.Decimal, code string) {
	switch spec.Kind() {
	case KindPercentage:
		return string(promo.DiscountPercentage), spec.Value(), ""
	case KindFixed:
		return string(promo.DiscountFixed), spec.Value(), ""
	case KindPromo:
		p := spec.Promo()
		return string(p.DiscountType), p.DiscountValue, p.Code
	default:
		return "", decimal.Zero, ""
	}
}
