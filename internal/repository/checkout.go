package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukahub/dukapos/internal/domain/catalog"
	"github.com/dukahub/dukapos/internal/domain/checkout"
	"github.com/dukahub/dukapos/internal/domain/sale"
)

const (
	insertSaleLineSQL = `INSERT INTO transactions
		(id, tenant_id, product_id, product_name, quantity, unit_price,
		 total_amount, profit, payment_method,
		 discount_type, discount_value, discount_amount, promo_code, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
		        NULLIF($10, ''), $11, $12, NULLIF($13, ''), $14, $15)`

	// Conditional decrement: zero rows affected means the on-hand stock is
	// no longer sufficient and the whole checkout must roll back.
	decrementStockSQL = `UPDATE products SET stock = stock - $3, updated_at = now()
		WHERE tenant_id = $1 AND id = $2 AND stock >= $3`

	incrementPromoUsesSQL = `UPDATE promo_codes SET times_used = times_used + 1
		WHERE tenant_id = $1 AND UPPER(code) = UPPER($2)`
)

var _ checkout.CommitStore = (*CheckoutRepository)(nil)

// CheckoutRepository persists finalized checkouts. All writes for one draft
// run inside a single database transaction, so a failure on any line rolls
// back every line, every stock decrement, and the promo usage bump.
type CheckoutRepository struct {
	pool *pgxpool.Pool
}

// NewCheckoutRepository returns a CheckoutRepository that uses the given pool.
func NewCheckoutRepository(pool *pgxpool.Pool) *CheckoutRepository {
	return &CheckoutRepository{pool: pool}
}

// CommitSale writes the draft atomically: the promo usage increment, one
// transactions row per line, and a conditional stock decrement per line.
// A decrement that would push stock negative fails the transaction with
// catalog.ErrInsufficientStock.
func (r *CheckoutRepository) CommitSale(ctx context.Context, draft sale.Draft) ([]sale.Line, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin checkout transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if draft.PromoCode != "" {
		if _, err := tx.Exec(ctx, incrementPromoUsesSQL, draft.TenantID, draft.PromoCode); err != nil {
			return nil, fmt.Errorf("incrementing uses for promo %q: %w", draft.PromoCode, err)
		}
	}

	now := time.Now().UTC()
	lines := make([]sale.Line, len(draft.Lines))
	for i, dl := range draft.Lines {
		id := uuid.New().String()

		_, err := tx.Exec(ctx, insertSaleLineSQL,
			id, draft.TenantID, dl.ProductID, dl.ProductName, dl.Quantity, dl.UnitPrice,
			dl.TotalAmount, dl.Profit, draft.PaymentMethod,
			draft.DiscountType, draft.DiscountValue, dl.DiscountAmount,
			draft.PromoCode, draft.CreatedBy, now,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting sale line for product %q: %w", dl.ProductID, err)
		}

		tag, err := tx.Exec(ctx, decrementStockSQL, draft.TenantID, dl.ProductID, dl.Quantity)
		if err != nil {
			return nil, fmt.Errorf("decrementing stock for product %q: %w", dl.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("product %q: %w", dl.ProductID, catalog.ErrInsufficientStock)
		}

		lines[i] = sale.Line{
			ID:             id,
			TenantID:       draft.TenantID,
			ProductID:      dl.ProductID,
			ProductName:    dl.ProductName,
			Quantity:       dl.Quantity,
			UnitPrice:      dl.UnitPrice,
			TotalAmount:    dl.TotalAmount,
			Profit:         dl.Profit,
			PaymentMethod:  draft.PaymentMethod,
			DiscountType:   draft.DiscountType,
			DiscountValue:  draft.DiscountValue,
			DiscountAmount: dl.DiscountAmount,
			PromoCode:      draft.PromoCode,
			CreatedBy:      draft.CreatedBy,
			CreatedAt:      now,
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit checkout transaction: %w", err)
	}
	return lines, nil
}
