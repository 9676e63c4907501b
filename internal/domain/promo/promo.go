package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the discount strategies a promo code can carry.
type DiscountType string

const (
	// DiscountPercentage deducts a percentage of the cart subtotal.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed deducts a fixed amount, capped at the subtotal.
	DiscountFixed DiscountType = "fixed"
)

var (
	// ErrNotFound is returned when a code does not exist or is inactive.
	ErrNotFound = errors.New("promo code not found")
	// ErrExpired is returned when a code is outside its validity window.
	ErrExpired = errors.New("promo code expired")
	// ErrLimitReached is returned when a code has exhausted its usage limit.
	ErrLimitReached = errors.New("promo code usage limit reached")
)

// Code is a reusable discount token with usage and time constraints.
// TimesUsed is incremented exactly once per committed checkout that used the
// code; validation alone never consumes a use.
type Code struct {
	ID            string
	TenantID      string
	Code          string
	DiscountType  DiscountType
	DiscountValue decimal.Decimal
	Active        bool
	ValidFrom     time.Time
	ValidUntil    *time.Time
	// UsageLimit of 0 means unlimited.
	UsageLimit int
	TimesUsed  int
}

// Repository provides lookup and management of promo codes. Usage counting
// happens inside the checkout commit transaction, not here.
type Repository interface {
	// FindByCode looks up an active code, matched case-insensitively.
	// Returns ErrNotFound when no matching active code exists.
	FindByCode(ctx context.Context, tenantID, code string) (*Code, error)
	// ListActiveCodes returns all active codes across tenants, for filter warm-up.
	ListActiveCodes(ctx context.Context) ([]Code, error)
	Create(ctx context.Context, c Code) error
}
