package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dukahub/dukapos/internal/domain/catalog"
)

const (
	productColumns = `id, tenant_id, name, category, barcode, buying_price, selling_price,
		stock, low_stock_threshold, created_at, updated_at`

	listAvailableProductsSQL = `SELECT ` + productColumns + `
		FROM products WHERE tenant_id = $1 AND stock > 0 ORDER BY name`

	listProductsSQL = `SELECT ` + productColumns + `
		FROM products WHERE tenant_id = $1 ORDER BY name`

	getProductsByIDsSQL = `SELECT ` + productColumns + `
		FROM products WHERE tenant_id = $1 AND id = ANY($2)`

	listLowStockSQL = `SELECT ` + productColumns + `
		FROM products WHERE tenant_id = $1 AND stock <= low_stock_threshold ORDER BY stock`

	insertProductSQL = `INSERT INTO products
		(id, tenant_id, name, category, barcode, buying_price, selling_price, stock, low_stock_threshold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	updateProductSQL = `UPDATE products SET
		name = $3, category = $4, barcode = $5, buying_price = $6, selling_price = $7,
		stock = $8, low_stock_threshold = $9, updated_at = now()
		WHERE tenant_id = $1 AND id = $2`
)

var _ catalog.Repository = (*ProductRepository)(nil)

// ProductRepository implements catalog.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// ListAvailable returns the tenant's in-stock products ordered by name.
func (r *ProductRepository) ListAvailable(ctx context.Context, tenantID string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listAvailableProductsSQL, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing available products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// List returns all of the tenant's products ordered by name.
func (r *ProductRepository) List(ctx context.Context, tenantID string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByIDs returns the tenant's products matching any of the given IDs.
func (r *ProductRepository) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Create inserts a new product.
func (r *ProductRepository) Create(ctx context.Context, p catalog.Product) error {
	_, err := r.pool.Exec(ctx, insertProductSQL,
		p.ID, p.TenantID, p.Name, p.Category, p.Barcode,
		p.BuyingPrice, p.SellingPrice, p.Stock, p.LowStockThreshold,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.Name, err)
	}
	return nil
}

// Update rewrites the mutable product fields.
func (r *ProductRepository) Update(ctx context.Context, p catalog.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.TenantID, p.ID, p.Name, p.Category, p.Barcode,
		p.BuyingPrice, p.SellingPrice, p.Stock, p.LowStockThreshold,
	)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// ListLowStock returns products at or below their low stock threshold.
func (r *ProductRepository) ListLowStock(ctx context.Context, tenantID string) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, listLowStockSQL, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing low stock products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Category, &p.Barcode,
		&p.BuyingPrice, &p.SellingPrice, &p.Stock, &p.LowStockThreshold,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
