package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukahub/dukapos/internal/domain/promo"
)

const (
	promoColumns = `id, tenant_id, code, discount_type, discount_value, is_active,
		valid_from, valid_until, usage_limit, times_used`

	getPromoByCodeSQL = `SELECT ` + promoColumns + `
		FROM promo_codes
		WHERE tenant_id = $1 AND UPPER(code) = UPPER($2) AND is_active = TRUE`

	listActivePromosSQL = `SELECT ` + promoColumns + `
		FROM promo_codes WHERE is_active = TRUE`

	insertPromoSQL = `INSERT INTO promo_codes
		(id, tenant_id, code, discount_type, discount_value, is_active,
		 valid_from, valid_until, usage_limit, times_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
)

var _ promo.Repository = (*PromoRepository)(nil)

// PromoRepository implements promo.Repository backed by PostgreSQL.
type PromoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRepository returns a PromoRepository that uses the given pool.
func NewPromoRepository(pool *pgxpool.Pool) *PromoRepository {
	return &PromoRepository{pool: pool}
}

// FindByCode looks up an active promo code (case-insensitive) for a tenant.
// Returns promo.ErrNotFound when no matching active code exists.
func (r *PromoRepository) FindByCode(ctx context.Context, tenantID, code string) (*promo.Code, error) {
	rows, err := r.pool.Query(ctx, getPromoByCodeSQL, tenantID, code)
	if err != nil {
		return nil, fmt.Errorf("finding promo code %q: %w", code, err)
	}

	rec, err := pgx.CollectExactlyOneRow(rows, scanPromoCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, promo.ErrNotFound
		}
		return nil, fmt.Errorf("finding promo code %q: %w", code, err)
	}
	return &rec, nil
}

// ListActiveCodes returns all active codes across tenants.
func (r *PromoRepository) ListActiveCodes(ctx context.Context) ([]promo.Code, error) {
	rows, err := r.pool.Query(ctx, listActivePromosSQL)
	if err != nil {
		return nil, fmt.Errorf("listing active promo codes: %w", err)
	}
	return pgx.CollectRows(rows, scanPromoCode)
}

// Create inserts a new promo code.
func (r *PromoRepository) Create(ctx context.Context, c promo.Code) error {
	var limit *int
	if c.UsageLimit > 0 {
		limit = &c.UsageLimit
	}
	_, err := r.pool.Exec(ctx, insertPromoSQL,
		c.ID, c.TenantID, c.Code, string(c.DiscountType), c.DiscountValue,
		c.Active, c.ValidFrom, c.ValidUntil, limit, c.TimesUsed,
	)
	if err != nil {
		return fmt.Errorf("creating promo code %q: %w", c.Code, err)
	}
	return nil
}

func scanPromoCode(row pgx.CollectableRow) (promo.Code, error) {
	var (
		c            promo.Code
		discountType string
		usageLimit   *int32
	)
	err := row.Scan(
		&c.ID, &c.TenantID, &c.Code, &discountType, &c.DiscountValue,
		&c.Active, &c.ValidFrom, &c.ValidUntil, &usageLimit, &c.TimesUsed,
	)
	c.DiscountType = promo.DiscountType(discountType)
	if usageLimit != nil {
		c.UsageLimit = int(*usageLimit)
	}
	return c, err
}
