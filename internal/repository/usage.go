package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/promo-catalog/internal/domain/query"
	"github.com/xenking/promo-catalog/internal/domain/usage"
)

const (
	usageColumns = "id, discount_id, product_id, user_id, original_price, final_price, quantity, used_at"

	createUsageSQL = `INSERT INTO discount_usages
		(id, discount_id, product_id, user_id, original_price, final_price, quantity, used_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getUsageSQL = `SELECT ` + usageColumns + ` FROM discount_usages WHERE id = $1`
)

var usageListSpec = listSpec{
	filterColumns: map[string]string{
		"discount": "discount_id",
		"product":  "product_id",
		"user":     "user_id",
	},
	orderColumns: map[string]string{
		"used_at":     "used_at",
		"final_price": "final_price",
	},
	defaultOrder: "used_at DESC",
}

var _ usage.Repository = (*UsageRepository)(nil)

// UsageRepository implements usage.Repository backed by PostgreSQL.
// The table is append-only; no update or delete statements exist here.
type UsageRepository struct {
	pool *pgxpool.Pool
}

// NewUsageRepository returns a UsageRepository that uses the given pool.
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// Create inserts one immutable usage record.
func (r *UsageRepository) Create(ctx context.Context, u *usage.Usage) error {
	_, err := r.pool.Exec(ctx, createUsageSQL,
		u.ID, u.DiscountID, u.ProductID, u.UserID,
		u.OriginalPrice, u.FinalPrice, u.Quantity, u.UsedAt,
	)
	if err != nil {
		return fmt.Errorf("creating usage %s: %w", u.ID, err)
	}
	return nil
}

// GetByID returns a single usage record by its UUID.
func (r *UsageRepository) GetByID(ctx context.Context, id uuid.UUID) (*usage.Usage, error) {
	rows, err := r.pool.Query(ctx, getUsageSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting usage %s: %w", id, err)
	}
	u, err := pgx.CollectExactlyOneRow(rows, scanUsage)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, usage.ErrNotFound
		}
		return nil, fmt.Errorf("getting usage %s: %w", id, err)
	}
	return &u, nil
}

// List returns one page of usage records with the total count. The filter's
// time bounds narrow the listing by used_at.
func (r *UsageRepository) List(ctx context.Context, params query.Params, filter usage.ListFilter) (query.Result[usage.Usage], error) {
	var res query.Result[usage.Usage]
	params = params.Normalize()

	var (
		conds []string
		args  []any
	)
	if filter.UsedAfter != nil {
		args = append(args, *filter.UsedAfter)
		conds = append(conds, fmt.Sprintf("used_at >= $%d", len(args)))
	}
	if filter.UsedBefore != nil {
		args = append(args, *filter.UsedBefore)
		conds = append(conds, fmt.Sprintf("used_at <= $%d", len(args)))
	}

	where, args := usageListSpec.whereClause(params, conds, args)

	err := r.pool.QueryRow(ctx, "SELECT count(*) FROM discount_usages"+where, args...).Scan(&res.Count)
	if err != nil {
		return res, fmt.Errorf("counting usages: %w", err)
	}

	sql := "SELECT " + usageColumns + " FROM discount_usages" + where +
		usageListSpec.orderLimitClause(params)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return res, fmt.Errorf("listing usages: %w", err)
	}
	res.Items, err = pgx.CollectRows(rows, scanUsage)
	if err != nil {
		return res, fmt.Errorf("scanning usages: %w", err)
	}
	return res, nil
}

func scanUsage(row pgx.CollectableRow) (usage.Usage, error) {
	var u usage.Usage
	err := row.Scan(&u.ID, &u.DiscountID, &u.ProductID, &u.UserID,
		&u.OriginalPrice, &u.FinalPrice, &u.Quantity, &u.UsedAt)
	return u, err
}
