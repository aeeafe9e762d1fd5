// Command seed-db creates the schema and loads a small demo data set: an
// admin user with an API key, a few categories and products, and one
// discount per type.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-catalog/internal/repository"
)

func main() {
	var (
		databaseURL  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or PROMO_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or PROMO_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("PROMO_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or PROMO_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("PROMO_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, apiKey, pepper string) error {
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

	adminID, err := seedAdmin(ctx, pool, apiKey, pepper)
	if err != nil {
		return errors.Wrap(err, "seed admin")
	}

	productIDs, categoryIDs, err := seedCatalog(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedDiscounts(ctx, pool, adminID, productIDs, categoryIDs); err != nil {
		return errors.Wrap(err, "seed discounts")
	}

	return nil
}

const (
	upsertUserSQL = `
INSERT INTO users (username, email, first_name, last_name)
VALUES ($1, $2, $3, $4)
ON CONFLICT (username) DO UPDATE SET email = EXCLUDED.email
RETURNING id`

	upsertAPIKeySQL = `
INSERT INTO api_keys (key_hash, name, user_id, active)
VALUES ($1, $2, $3, TRUE)
ON CONFLICT (key_hash) DO UPDATE SET user_id = EXCLUDED.user_id, active = TRUE`

	insertCategorySQL = `
INSERT INTO product_categories (name, description)
VALUES ($1, $2)
RETURNING id`

	upsertProductSQL = `
INSERT INTO products (name, sku, category_id, price, description)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (sku) DO UPDATE SET price = EXCLUDED.price
RETURNING id`

	insertDiscountSQL = `
INSERT INTO discounts (name, discount_type, value, start_date, end_date, status, min_quantity, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

	linkProductSQL  = `INSERT INTO discount_products (discount_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	linkCategorySQL = `INSERT INTO discount_categories (discount_id, category_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
)

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) (int64, error) {
	slog.Info("seeding admin user and API key")

	var adminID int64
	err := pool.QueryRow(ctx, upsertUserSQL, "admin", "admin@example.com", "Admin", "User").Scan(&adminID)
	if err != nil {
		return 0, errors.Wrap(err, "upsert admin user")
	}

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertAPIKeySQL, keyHash, "Default admin key", adminID); err != nil {
		return 0, errors.Wrap(err, "upsert api key")
	}

	slog.Info("seeded admin", slog.Int64("user_id", adminID))
	return adminID, nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool) (map[string]int64, map[string]int64, error) {
	slog.Info("seeding categories and products")

	categories := map[string]string{
		"Beverages":   "Hot and cold drinks",
		"Snacks":      "Chips, nuts and sweets",
		"Electronics": "Small gadgets and accessories",
	}
	categoryIDs := make(map[string]int64, len(categories))
	for name, description := range categories {
		var id int64
		if err := pool.QueryRow(ctx, insertCategorySQL, name, description).Scan(&id); err != nil {
			return nil, nil, errors.Wrapf(err, "insert category %s", name)
		}
		categoryIDs[name] = id
	}

	products := []struct {
		name     string
		sku      string
		category string
		price    string
	}{
		{"Cold Brew Coffee", "BEV-001", "Beverages", "4.50"},
		{"Green Tea", "BEV-002", "Beverages", "2.75"},
		{"Sea Salt Chips", "SNK-001", "Snacks", "1.99"},
		{"Trail Mix", "SNK-002", "Snacks", "3.25"},
		{"USB-C Cable", "ELC-001", "Electronics", "9.99"},
		{"Wireless Mouse", "ELC-002", "Electronics", "24.90"},
	}
	productIDs := make(map[string]int64, len(products))
	for _, p := range products {
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "parse price for %s", p.sku)
		}
		var id int64
		if err := pool.QueryRow(ctx, upsertProductSQL, p.name, p.sku, categoryIDs[p.category], price, "").Scan(&id); err != nil {
			return nil, nil, errors.Wrapf(err, "upsert product %s", p.sku)
		}
		productIDs[p.sku] = id
	}

	slog.Info("seeded catalog",
		slog.Int("categories", len(categoryIDs)),
		slog.Int("products", len(productIDs)),
	)
	return productIDs, categoryIDs, nil
}

func seedDiscounts(ctx context.Context, pool *pgxpool.Pool, adminID int64, productIDs, categoryIDs map[string]int64) error {
	slog.Info("seeding discounts")

	now := time.Now().UTC()

	discounts := []struct {
		name        string
		kind        string
		value       string
		start       time.Time
		end         time.Time
		status      string
		minQuantity int
		products    []string
		categories  []string
	}{
		{
			name: "Beverage happy hour", kind: "percentage", value: "20",
			start: now.AddDate(0, 0, -1), end: now.AddDate(0, 0, 14),
			status: "active", minQuantity: 1,
			categories: []string{"Beverages"},
		},
		{
			name: "Snack bundle saver", kind: "fixed", value: "1",
			start: now.AddDate(0, 0, -1), end: now.AddDate(0, 0, 30),
			status: "active", minQuantity: 3,
			products: []string{"SNK-001", "SNK-002"},
		},
		{
			name: "Gadget launch bundle", kind: "bundle", value: "0",
			start: now.AddDate(0, 0, 7), end: now.AddDate(0, 0, 37),
			status: "upcoming", minQuantity: 2,
			products: []string{"ELC-001", "ELC-002"},
		},
	}

	for _, d := range discounts {
		value, err := decimal.NewFromString(d.value)
		if err != nil {
			return errors.Wrapf(err, "parse value for %s", d.name)
		}

		var id int64
		err = pool.QueryRow(ctx, insertDiscountSQL,
			d.name, d.kind, value, d.start, d.end, d.status, d.minQuantity, adminID,
		).Scan(&id)
		if err != nil {
			return errors.Wrapf(err, "insert discount %s", d.name)
		}

		for _, sku := range d.products {
			if _, err := pool.Exec(ctx, linkProductSQL, id, productIDs[sku]); err != nil {
				return errors.Wrapf(err, "link product %s", sku)
			}
		}
		for _, name := range d.categories {
			if _, err := pool.Exec(ctx, linkCategorySQL, id, categoryIDs[name]); err != nil {
				return errors.Wrapf(err, "link category %s", name)
			}
		}

		slog.Info("seeded discount", slog.Int64("id", id), slog.String("name", d.name))
	}

	return nil
}
