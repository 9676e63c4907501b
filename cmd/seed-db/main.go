// Command seed-db provisions a demo tenant with a starter catalog, a couple
// of promo codes, and an operator API key. Safe to re-run: everything is
// upserted.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dukahub/dukapos/internal/repository"
)

// tenantID is the fixed demo tenant so re-runs hit the same rows.
const tenantID = "6b2a4a10-0c6e-4b9e-8f59-1d2f4f6a7b01"

type productJSON struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Category          string          `json:"category"`
	Barcode           string          `json:"barcode"`
	BuyingPrice       decimal.Decimal `json:"buyingPrice"`
	SellingPrice      decimal.Decimal `json:"sellingPrice"`
	Stock             int             `json:"stock"`
	LowStockThreshold int             `json:"lowStockThreshold"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or DUKA_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or DUKA_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("DUKA_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or DUKA_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("DUKA_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedTenant(ctx, pool); err != nil {
		return errors.Wrap(err, "seed tenant")
	}
	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedPromoCodes(ctx, pool); err != nil {
		return errors.Wrap(err, "seed promo codes")
	}
	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedTenant(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("upserting demo tenant", slog.String("id", tenantID))

	_, err := pool.Exec(ctx, `
		INSERT INTO tenants (id, name, currency)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		tenantID, "Demo Duka", "UGX")
	return err
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if _, err := pool.Exec(ctx, `
			INSERT INTO products (id, tenant_id, name, category, barcode,
			                      buying_price, selling_price, stock, low_stock_threshold)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				category = EXCLUDED.category,
				barcode = EXCLUDED.barcode,
				buying_price = EXCLUDED.buying_price,
				selling_price = EXCLUDED.selling_price,
				stock = EXCLUDED.stock,
				low_stock_threshold = EXCLUDED.low_stock_threshold,
				updated_at = now()`,
			p.ID, tenantID, p.Name, p.Category, p.Barcode,
			p.BuyingPrice, p.SellingPrice, p.Stock, p.LowStockThreshold,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("name", p.Name))
	}

	return nil
}

func seedPromoCodes(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding demo promo codes")

	promos := []struct {
		id           string
		code         string
		discountType string
		value        decimal.Decimal
		usageLimit   *int
	}{
		{
			id:           "8f0a1c22-31b4-4e7a-9d10-2a6b8c9d0e01",
			code:         "KARIBU10",
			discountType: "percentage",
			value:        decimal.NewFromInt(10),
		},
		{
			id:           "8f0a1c22-31b4-4e7a-9d10-2a6b8c9d0e02",
			code:         "SOKO500",
			discountType: "fixed",
			value:        decimal.NewFromInt(500),
			usageLimit:   intPtr(100),
		},
	}

	for _, p := range promos {
		if _, err := pool.Exec(ctx, `
			INSERT INTO promo_codes (id, tenant_id, code, discount_type, discount_value, usage_limit)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (tenant_id, code) DO UPDATE SET
				discount_type = EXCLUDED.discount_type,
				discount_value = EXCLUDED.discount_value,
				usage_limit = EXCLUDED.usage_limit,
				is_active = TRUE`,
			p.id, tenantID, p.code, p.discountType, p.value, p.usageLimit,
		); err != nil {
			return errors.Wrapf(err, "upsert promo %s", p.code)
		}

		slog.Info("upserted promo code", slog.String("code", p.code))
	}

	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding operator API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, `
		INSERT INTO api_keys (id, tenant_id, key_hash, operator_name, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (key_hash) DO UPDATE SET active = TRUE`,
		"9c1d2e30-44f5-4a6b-8c7d-3e4f5a6b7c01", tenantID, keyHash, "Demo operator",
	); err != nil {
		return errors.Wrap(err, "upsert API key")
	}

	slog.Info("upserted API key", slog.String("operator", "Demo operator"))
	return nil
}

func intPtr(v int) *int { return &v }
