package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist
	// within the tenant's catalog.
	ErrNotFound = errors.New("product not found")
	// ErrInsufficientStock is returned when a stock decrement would drop
	// the on-hand quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Product is a sellable catalog item. Stock reflects committed sales only;
// in-flight carts never reserve units.
type Product struct {
	ID                string
	TenantID          string
	Name              string
	Category          string
	Barcode           string
	BuyingPrice       decimal.Decimal
	SellingPrice      decimal.Decimal
	Stock             int
	LowStockThreshold int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Repository defines catalog persistence operations. Every operation is
// scoped to a tenant; there is no ambient tenant state.
type Repository interface {
	// ListAvailable returns the tenant's products with stock > 0, ordered by name.
	ListAvailable(ctx context.Context, tenantID string) ([]Product, error)
	// List returns all of the tenant's products, including out-of-stock ones.
	List(ctx context.Context, tenantID string) ([]Product, error)
	GetByIDs(ctx context.Context, tenantID string, ids []string) ([]Product, error)
	Create(ctx context.Context, p Product) error
	Update(ctx context.Context, p Product) error
	// ListLowStock returns products at or below their low stock threshold.
	ListLowStock(ctx context.Context, tenantID string) ([]Product, error)
}
