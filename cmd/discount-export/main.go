// Command discount-export writes a CSV of discounts that are active now or
// start within the next --days days.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/promo-catalog/internal/repository"
)

func main() {
	var (
		databaseURL string
		output      string
		days        int
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&output, "output", "", "output file path (default stdout)")
	flag.IntVar(&days, "days", 30, "look-ahead window in days for upcoming discounts")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if days < 0 {
		slog.Error("--days must not be negative")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, output, days); err != nil {
		slog.Error("discount export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL, output string, days int) error {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	discounts := repository.NewDiscountRepository(pool)

	now := time.Now().UTC()
	rows, err := discounts.ListForExport(ctx, now, now.AddDate(0, 0, days))
	if err != nil {
		return errors.Wrap(err, "list discounts for export")
	}

	var out io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return errors.Wrapf(err, "create %s", output)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	w := csv.NewWriter(out)
	header := []string{
		"id", "name", "type", "value", "start_date", "end_date",
		"status", "min_quantity", "created_by", "product_count",
	}
	if err := w.Write(header); err != nil {
		return errors.Wrap(err, "write header")
	}

	for _, row := range rows {
		creator := row.CreatorUsername
		if creator == "" {
			creator = "unknown"
		}
		record := []string{
			strconv.FormatInt(row.ID, 10),
			row.Name,
			row.Type.Label(),
			row.Value.String(),
			row.StartDate.UTC().Format(time.RFC3339),
			row.EndDate.UTC().Format(time.RFC3339),
			row.Status.Label(),
			strconv.Itoa(row.MinQuantity),
			creator,
			strconv.Itoa(row.ProductCount),
		}
		if err := w.Write(record); err != nil {
			return errors.Wrap(err, "write record")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return errors.Wrap(err, "flush csv")
	}

	slog.Info("discount export completed",
		slog.Int("rows", len(rows)),
		slog.Int("days", days),
	)
	return nil
}
