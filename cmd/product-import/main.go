// Command product-import bulk-loads products from gzip-compressed CSV
// files into the catalog. Files are streamed and parsed concurrently; a
// bloom filter over already-known SKUs keeps repeated imports cheap.
//
// Each CSV row is: sku,name,description,price,category.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/promo-catalog/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	rowFields     = 5
	progressEvery = 100_000
)

// row is one parsed product line.
type row struct {
	sku         string
	name        string
	description string
	price       decimal.Decimal
	category    string
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.csv.gz product files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("product import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("product import completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.csv.gz"))
	if err != nil {
		return errors.Wrap(err, "list data files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.csv.gz files in %s", dataDir)
	}

	slog.Info("parsing product files", slog.Int("files", len(files)))

	parsed, err := parseFiles(ctx, files)
	if err != nil {
		return errors.Wrap(err, "parse files")
	}

	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	seen, err := knownSKUs(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "load known skus")
	}

	return writeProducts(ctx, pool, seen, parsed)
}

// parseFiles streams and parses every file concurrently, one goroutine per
// file, preserving per-file order in the result.
func parseFiles(ctx context.Context, files []string) ([][]row, error) {
	results := make([][]row, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(parseFile(ctx, i, f, results))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func parseFile(ctx context.Context, idx int, path string, results [][]row) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		reader := csv.NewReader(gz)
		reader.FieldsPerRecord = rowFields

		var (
			rows  []row
			count uint64
		)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}

			price, err := decimal.NewFromString(record[3])
			if err != nil || price.IsNegative() {
				// Malformed rows are logged and skipped, not fatal.
				slog.Warn("skipping row with bad price",
					slog.String("file", path),
					slog.String("sku", record[0]),
					slog.String("price", record[3]),
				)
				continue
			}

			rows = append(rows, row{
				sku:         record[0],
				name:        record[1],
				description: record[2],
				price:       price,
				category:    record[4],
			})

			count++
			if count%progressEvery == 0 {
				slog.Info("parse progress", slog.String("file", path), slog.Uint64("rows", count))
			}
		}

		slog.Info("parse complete", slog.String("file", path), slog.Int("rows", len(rows)))

		results[idx] = rows
		return nil
	}
}

// knownSKUs builds a bloom filter over SKUs already in the catalog so
// repeated imports skip most existing rows without a query per row. False
// positives only cost an unnecessary skip check; inserts stay guarded by
// the unique constraint either way.
func knownSKUs(ctx context.Context, pool *pgxpool.Pool) (*bloom.BloomFilter, error) {
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	rows, err := pool.Query(ctx, `SELECT sku FROM products`)
	if err != nil {
		return nil, errors.Wrap(err, "query skus")
	}
	defer rows.Close()

	var count int
	for rows.Next() {
		var sku string
		if err := rows.Scan(&sku); err != nil {
			return nil, errors.Wrap(err, "scan sku")
		}
		filter.AddString(sku)
		count++
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate skus")
	}

	slog.Info("known skus loaded", slog.Int("count", count))
	return filter, nil
}

const (
	selectCategoryIDSQL = `SELECT id FROM product_categories WHERE name = $1 LIMIT 1`
	insertCategorySQL   = `INSERT INTO product_categories (name) VALUES ($1) RETURNING id`
	insertProductSQL    = `
INSERT INTO products (name, sku, category_id, price, description)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (sku) DO NOTHING`
)

// writeProducts inserts all parsed rows, creating categories on first
// reference and skipping SKUs already present.
func writeProducts(ctx context.Context, pool *pgxpool.Pool, seen *bloom.BloomFilter, parsed [][]row) error {
	categories := make(map[string]int64)
	var inserted, skipped int

	for _, rows := range parsed {
		for _, r := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}

			if seen.TestString(r.sku) {
				skipped++
				continue
			}
			seen.AddString(r.sku)

			categoryID, err := categoryID(ctx, pool, categories, r.category)
			if err != nil {
				return errors.Wrapf(err, "resolve category %q", r.category)
			}

			tag, err := pool.Exec(ctx, insertProductSQL, r.name, r.sku, categoryID, r.price, r.description)
			if err != nil {
				return errors.Wrapf(err, "insert product %s", r.sku)
			}
			if tag.RowsAffected() == 0 {
				skipped++
				continue
			}
			inserted++

			if inserted%progressEvery == 0 {
				slog.Info("write progress", slog.Int("inserted", inserted))
			}
		}
	}

	slog.Info("products written", slog.Int("inserted", inserted), slog.Int("skipped", skipped))
	return nil
}

func categoryID(ctx context.Context, pool *pgxpool.Pool, cache map[string]int64, name string) (int64, error) {
	if id, ok := cache[name]; ok {
		return id, nil
	}

	var id int64
	err := pool.QueryRow(ctx, selectCategoryIDSQL, name).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		if err := pool.QueryRow(ctx, insertCategorySQL, name).Scan(&id); err != nil {
			return 0, errors.Wrap(err, "create category")
		}
	case err != nil:
		return 0, errors.Wrap(err, "select category")
	}

	cache[name] = id
	return id, nil
}
