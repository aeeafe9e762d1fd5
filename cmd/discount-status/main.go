// Command discount-status refreshes stored discount statuses from their
// date windows. Cancelled discounts are never touched. With --dry-run the
// pending transitions are printed without writing anything.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/promo-catalog/internal/domain/discount"
	"github.com/xenking/promo-catalog/internal/repository"
)

func main() {
	var (
		databaseURL string
		dryRun      bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.BoolVar(&dryRun, "dry-run", false, "print pending transitions without writing")
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

	if err := run(ctx, databaseURL, dryRun); err != nil {
		slog.Error("discount status refresh failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, databaseURL string, dryRun bool) error {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	discounts := repository.NewDiscountRepository(pool)

	candidates, err := discounts.ListNonCancelled(ctx)
	if err != nil {
		return errors.Wrap(err, "list discounts")
	}

	now := time.Now().UTC()
	var changes []discount.StatusChange
	for _, d := range candidates {
		next := discount.ResolveStatus(d.StartDate, d.EndDate, d.Status, now)
		if next == d.Status {
			continue
		}
		changes = append(changes, discount.StatusChange{
			ID:   d.ID,
			Name: d.Name,
			From: d.Status,
			To:   next,
		})
	}

	if len(changes) == 0 {
		slog.Info("all discount statuses up to date", slog.Int("checked", len(candidates)))
		return nil
	}

	for _, c := range changes {
		fmt.Printf("#%d %q %s -> %s\n", c.ID, c.Name, c.From, c.To)
	}

	if dryRun {
		slog.Info("dry run, no changes written", slog.Int("pending", len(changes)))
		return nil
	}

	for _, c := range changes {
		if err := discounts.UpdateStatus(ctx, c.ID, c.To); err != nil {
			return errors.Wrapf(err, "update discount %d", c.ID)
		}
	}

	slog.Info("discount statuses updated",
		slog.Int("checked", len(candidates)),
		slog.Int("updated", len(changes)),
	)
	return nil
}
