package sale

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Line is one committed sale record: a single product line of a checkout,
// with the discount already apportioned back onto it. Immutable once written.
type Line struct {
	ID             string
	TenantID       string
	ProductID      string
	ProductName    string
	Quantity       int
	UnitPrice      decimal.Decimal
	TotalAmount    decimal.Decimal
	Profit         decimal.Decimal
	PaymentMethod  string
	DiscountType   string
	DiscountValue  decimal.Decimal
	DiscountAmount decimal.Decimal
	PromoCode      string
	CreatedBy      string
	CreatedAt      time.Time
}

// Draft is a fully computed checkout awaiting persistence. The storage layer
// writes all of its lines, the stock decrements, and the promo usage bump as
// one atomic unit.
type Draft struct {
	TenantID      string
	CreatedBy     string
	PaymentMethod string
	DiscountType  string
	DiscountValue decimal.Decimal
	PromoCode     string
	Lines         []DraftLine
}

// DraftLine carries the per-line amounts computed by the totals engine.
type DraftLine struct {
	ProductID      string
	ProductName    string
	Quantity       int
	UnitPrice      decimal.Decimal
	TotalAmount    decimal.Decimal
	Profit         decimal.Decimal
	DiscountAmount decimal.Decimal
}

// DailyStat aggregates one day of committed sales.
type DailyStat struct {
	Date         time.Time
	Sales        decimal.Decimal
	Profit       decimal.Decimal
	Transactions int
	Items        int
}

// ProductVelocity summarizes units sold for one product over a window.
type ProductVelocity struct {
	ProductID string
	TotalSold int
}

// Repository defines read operations over the sales ledger.
type Repository interface {
	ListSince(ctx context.Context, tenantID string, since time.Time) ([]Line, error)
	// DailySummary returns one row per calendar day with sales totals,
	// ordered by date ascending.
	DailySummary(ctx context.Context, tenantID string, since time.Time) ([]DailyStat, error)
	// VelocityByProduct returns units sold per product since the given time.
	VelocityByProduct(ctx context.Context, tenantID string, since time.Time) ([]ProductVelocity, error)
}
