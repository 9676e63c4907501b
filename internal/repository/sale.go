package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukahub/dukapos/internal/domain/sale"
)

const (
	saleColumns = `id, tenant_id, product_id, product_name, quantity, unit_price,
		total_amount, profit, payment_method,
		COALESCE(discount_type, ''), COALESCE(discount_value, 0), COALESCE(discount_amount, 0),
		COALESCE(promo_code, ''), created_by, created_at`

	listSalesSinceSQL = `SELECT ` + saleColumns + `
		FROM transactions
		WHERE tenant_id = $1 AND created_at >= $2
		ORDER BY created_at`

	dailySummarySQL = `SELECT
			date_trunc('day', created_at) AS day,
			COALESCE(SUM(total_amount), 0),
			COALESCE(SUM(profit), 0),
			COUNT(*),
			COALESCE(SUM(quantity), 0)
		FROM transactions
		WHERE tenant_id = $1 AND created_at >= $2
		GROUP BY day
		ORDER BY day`

	velocityByProductSQL = `SELECT product_id, COALESCE(SUM(quantity), 0)
		FROM transactions
		WHERE tenant_id = $1 AND created_at >= $2
		GROUP BY product_id`
)

var _ sale.Repository = (*SaleRepository)(nil)

// SaleRepository implements sale.Repository backed by PostgreSQL.
type SaleRepository struct {
	pool *pgxpool.Pool
}

// NewSaleRepository returns a SaleRepository that uses the given pool.
func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{pool: pool}
}

// ListSince returns the tenant's sale lines created at or after the given time.
func (r *SaleRepository) ListSince(ctx context.Context, tenantID string, since time.Time) ([]sale.Line, error) {
	rows, err := r.pool.Query(ctx, listSalesSinceSQL, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}
	return pgx.CollectRows(rows, scanSaleLine)
}

// DailySummary aggregates sales per calendar day, ordered by date.
func (r *SaleRepository) DailySummary(ctx context.Context, tenantID string, since time.Time) ([]sale.DailyStat, error) {
	rows, err := r.pool.Query(ctx, dailySummarySQL, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("daily summary: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (sale.DailyStat, error) {
		var s sale.DailyStat
		err := row.Scan(&s.Date, &s.Sales, &s.Profit, &s.Transactions, &s.Items)
		return s, err
	})
}

// VelocityByProduct returns units sold per product since the given time.
func (r *SaleRepository) VelocityByProduct(ctx context.Context, tenantID string, since time.Time) ([]sale.ProductVelocity, error) {
	rows, err := r.pool.Query(ctx, velocityByProductSQL, tenantID, since)
	if err != nil {
		return nil, fmt.Errorf("velocity by product: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (sale.ProductVelocity, error) {
		var v sale.ProductVelocity
		err := row.Scan(&v.ProductID, &v.TotalSold)
		return v, err
	})
}

func scanSaleLine(row pgx.CollectableRow) (sale.Line, error) {
	var l sale.Line
	err := row.Scan(
		&l.ID, &l.TenantID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice,
		&l.TotalAmount, &l.Profit, &l.PaymentMethod,
		&l.DiscountType, &l.DiscountValue, &l.DiscountAmount,
		&l.PromoCode, &l.CreatedBy, &l.CreatedAt,
	)
	return l, err
}
