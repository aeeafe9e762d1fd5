package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/promo-catalog/internal/domain/discount"
	"github.com/xenking/promo-catalog/internal/domain/query"
)

const (
	discountColumns = `id, name, discount_type, value, start_date, end_date,
		status, min_quantity, created_by, created_at, updated_at`

	createDiscountSQL = `INSERT INTO discounts
		(name, discount_type, value, start_date, end_date, status, min_quantity, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	getDiscountSQL = `SELECT ` + discountColumns + ` FROM discounts WHERE id = $1`

	snapshotDiscountSQL = `INSERT INTO discount_history
		(discount_id, name, discount_type, value, start_date, end_date, status, min_quantity, change_reason)
		SELECT id, name, discount_type, value, start_date, end_date, status, min_quantity, NULLIF($2, '')
		FROM discounts WHERE id = $1`

	updateDiscountSQL = `UPDATE discounts
		SET name = $2, discount_type = $3, value = $4, start_date = $5, end_date = $6,
		    status = $7, min_quantity = $8, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	deleteDiscountSQL = `DELETE FROM discounts WHERE id = $1`

	discountHistorySQL = `SELECT id, discount_id, name, discount_type, value, start_date, end_date,
		status, min_quantity, COALESCE(change_reason, ''), recorded_at
		FROM discount_history WHERE discount_id = $1 ORDER BY recorded_at DESC, id DESC`

	listNonCancelledSQL = `SELECT ` + discountColumns + ` FROM discounts
		WHERE status <> 'cancelled' ORDER BY id`

	updateDiscountStatusSQL = `UPDATE discounts SET status = $2, updated_at = now() WHERE id = $1`

	discountProductsSQL = `SELECT discount_id, product_id FROM discount_products
		WHERE discount_id = ANY($1) ORDER BY product_id`

	discountCategoriesSQL = `SELECT discount_id, category_id FROM discount_categories
		WHERE discount_id = ANY($1) ORDER BY category_id`

	insertDiscountProductSQL   = `INSERT INTO discount_products (discount_id, product_id) VALUES ($1, $2)`
	insertDiscountCategorySQL  = `INSERT INTO discount_categories (discount_id, category_id) VALUES ($1, $2)`
	clearDiscountProductsSQL   = `DELETE FROM discount_products WHERE discount_id = $1`
	clearDiscountCategoriesSQL = `DELETE FROM discount_categories WHERE discount_id = $1`

	listForExportSQL = `SELECT d.id, d.name, d.discount_type, d.value, d.start_date, d.end_date,
		d.status, d.min_quantity, d.created_by, d.created_at, d.updated_at,
		COALESCE(u.username, ''),
		(SELECT count(*) FROM discount_products dp WHERE dp.discount_id = d.id)
		FROM discounts d
		LEFT JOIN users u ON u.id = d.created_by
		WHERE (d.status = 'active' AND d.end_date >= $1)
		   OR (d.status = 'upcoming' AND d.start_date >= $1 AND d.start_date <= $2)
		ORDER BY d.start_date`

	activeForProductSQL = `SELECT DISTINCT ` + qualifiedDiscountColumns + ` FROM discounts d
		LEFT JOIN discount_products dp ON dp.discount_id = d.id
		LEFT JOIN discount_categories dc ON dc.discount_id = d.id
		JOIN products p ON p.id = $1
		WHERE d.status = 'active' AND d.start_date <= $2 AND d.end_date >= $2
		  AND (dp.product_id = p.id OR dc.category_id = p.category_id)
		ORDER BY d.id`

	qualifiedDiscountColumns = `d.id, d.name, d.discount_type, d.value, d.start_date, d.end_date,
		d.status, d.min_quantity, d.created_by, d.created_at, d.updated_at`
)

var discountListSpec = listSpec{
	searchColumns: []string{"name"},
	filterColumns: map[string]string{
		"status":        "status",
		"discount_type": "discount_type",
		"created_by":    "created_by",
	},
	orderColumns: map[string]string{
		"start_date": "start_date",
		"end_date":   "end_date",
		"created_at": "created_at",
		"name":       "name",
	},
	defaultOrder: "start_date DESC",
}

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
//
// Both write paths run the stored status through discount.ResolveStatus,
// so statuses track the time window and cancellation stays sticky.
type DiscountRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool, now: time.Now}
}

// Create inserts a new discount with its eligible product and category sets.
func (r *DiscountRepository) Create(ctx context.Context, d *discount.Discount) error {
	if d.Status == "" {
		d.Status = discount.StatusUpcoming
	}
	d.Status = discount.ResolveStatus(d.StartDate, d.EndDate, d.Status, r.now())

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning discount create: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	err = tx.QueryRow(ctx, createDiscountSQL,
		d.Name, d.Type, d.Value, d.StartDate, d.EndDate, d.Status, d.MinQuantity, d.CreatedBy,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating discount %q: %w", d.Name, err)
	}

	if err := insertMembers(ctx, tx, insertDiscountProductSQL, d.ID, d.ProductIDs); err != nil {
		return fmt.Errorf("linking discount %d products: %w", d.ID, err)
	}
	if err := insertMembers(ctx, tx, insertDiscountCategorySQL, d.ID, d.CategoryIDs); err != nil {
		return fmt.Errorf("linking discount %d categories: %w", d.ID, err)
	}

	return tx.Commit(ctx)
}

// GetByID returns a single discount with its eligibility sets loaded.
func (r *DiscountRepository) GetByID(ctx context.Context, id int64) (*discount.Discount, error) {
	rows, err := r.pool.Query(ctx, getDiscountSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting discount %d: %w", id, err)
	}
	d, err := pgx.CollectExactlyOneRow(rows, scanDiscount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, discount.ErrNotFound
		}
		return nil, fmt.Errorf("getting discount %d: %w", id, err)
	}

	if err := r.loadMembers(ctx, []*discount.Discount{&d}); err != nil {
		return nil, err
	}
	return &d, nil
}

// Update snapshots the current state into the history trail, recomputes the
// status, rewrites the discount, and replaces its eligibility sets, all in
// one transaction.
func (r *DiscountRepository) Update(ctx context.Context, d *discount.Discount, changeReason string) error {
	d.Status = discount.ResolveStatus(d.StartDate, d.EndDate, d.Status, r.now())

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning discount update: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx, snapshotDiscountSQL, d.ID, changeReason)
	if err != nil {
		return fmt.Errorf("recording discount %d history: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}

	err = tx.QueryRow(ctx, updateDiscountSQL,
		d.ID, d.Name, d.Type, d.Value, d.StartDate, d.EndDate, d.Status, d.MinQuantity,
	).Scan(&d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating discount %d: %w", d.ID, err)
	}

	if _, err := tx.Exec(ctx, clearDiscountProductsSQL, d.ID); err != nil {
		return fmt.Errorf("clearing discount %d products: %w", d.ID, err)
	}
	if _, err := tx.Exec(ctx, clearDiscountCategoriesSQL, d.ID); err != nil {
		return fmt.Errorf("clearing discount %d categories: %w", d.ID, err)
	}
	if err := insertMembers(ctx, tx, insertDiscountProductSQL, d.ID, d.ProductIDs); err != nil {
		return fmt.Errorf("linking discount %d products: %w", d.ID, err)
	}
	if err := insertMembers(ctx, tx, insertDiscountCategorySQL, d.ID, d.CategoryIDs); err != nil {
		return fmt.Errorf("linking discount %d categories: %w", d.ID, err)
	}

	return tx.Commit(ctx)
}

// Delete removes the discount. Usage records follow by cascade.
func (r *DiscountRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteDiscountSQL, id)
	if err != nil {
		return fmt.Errorf("deleting discount %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}
	return nil
}

// List returns one page of discounts, eligibility sets included, with the
// total count.
func (r *DiscountRepository) List(ctx context.Context, params query.Params) (query.Result[discount.Discount], error) {
	var res query.Result[discount.Discount]
	params = params.Normalize()

	where, args := discountListSpec.whereClause(params, nil, nil)

	err := r.pool.QueryRow(ctx, "SELECT count(*) FROM discounts"+where, args...).Scan(&res.Count)
	if err != nil {
		return res, fmt.Errorf("counting discounts: %w", err)
	}

	sql := "SELECT " + discountColumns + " FROM discounts" + where +
		discountListSpec.orderLimitClause(params)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return res, fmt.Errorf("listing discounts: %w", err)
	}
	res.Items, err = pgx.CollectRows(rows, scanDiscount)
	if err != nil {
		return res, fmt.Errorf("scanning discounts: %w", err)
	}

	refs := make([]*discount.Discount, len(res.Items))
	for i := range res.Items {
		refs[i] = &res.Items[i]
	}
	if err := r.loadMembers(ctx, refs); err != nil {
		return res, err
	}
	return res, nil
}

// History returns the discount's audit trail, newest first.
func (r *DiscountRepository) History(ctx context.Context, discountID int64) ([]discount.Revision, error) {
	rows, err := r.pool.Query(ctx, discountHistorySQL, discountID)
	if err != nil {
		return nil, fmt.Errorf("getting discount %d history: %w", discountID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (discount.Revision, error) {
		var rev discount.Revision
		err := row.Scan(&rev.ID, &rev.DiscountID, &rev.Name, &rev.Type, &rev.Value,
			&rev.StartDate, &rev.EndDate, &rev.Status, &rev.MinQuantity,
			&rev.ChangeReason, &rev.RecordedAt)
		return rev, err
	})
}

// ListNonCancelled returns every discount not in the cancelled state.
func (r *DiscountRepository) ListNonCancelled(ctx context.Context) ([]discount.Discount, error) {
	rows, err := r.pool.Query(ctx, listNonCancelledSQL)
	if err != nil {
		return nil, fmt.Errorf("listing non-cancelled discounts: %w", err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

// UpdateStatus writes only the status and updated_at columns.
func (r *DiscountRepository) UpdateStatus(ctx context.Context, id int64, status discount.Status) error {
	tag, err := r.pool.Exec(ctx, updateDiscountStatusSQL, id, status)
	if err != nil {
		return fmt.Errorf("updating discount %d status: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrNotFound
	}
	return nil
}

// ListForExport returns discounts active at now or becoming active within
// the look-ahead window ending at until.
func (r *DiscountRepository) ListForExport(ctx context.Context, now, until time.Time) ([]discount.ExportRow, error) {
	rows, err := r.pool.Query(ctx, listForExportSQL, now, until)
	if err != nil {
		return nil, fmt.Errorf("listing discounts for export: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (discount.ExportRow, error) {
		var er discount.ExportRow
		err := row.Scan(&er.ID, &er.Name, &er.Type, &er.Value, &er.StartDate, &er.EndDate,
			&er.Status, &er.MinQuantity, &er.CreatedBy, &er.CreatedAt, &er.UpdatedAt,
			&er.CreatorUsername, &er.ProductCount)
		return er, err
	})
}

// ActiveForProduct returns discounts currently applicable to the product.
func (r *DiscountRepository) ActiveForProduct(ctx context.Context, productID int64, now time.Time) ([]discount.Discount, error) {
	rows, err := r.pool.Query(ctx, activeForProductSQL, productID, now)
	if err != nil {
		return nil, fmt.Errorf("listing active discounts for product %d: %w", productID, err)
	}
	return pgx.CollectRows(rows, scanDiscount)
}

// loadMembers fills the ProductIDs and CategoryIDs sets for the given
// discounts in two batch queries.
func (r *DiscountRepository) loadMembers(ctx context.Context, ds []*discount.Discount) error {
	if len(ds) == 0 {
		return nil
	}
	ids := make([]int64, len(ds))
	byID := make(map[int64]*discount.Discount, len(ds))
	for i, d := range ds {
		ids[i] = d.ID
		byID[d.ID] = d
	}

	rows, err := r.pool.Query(ctx, discountProductsSQL, ids)
	if err != nil {
		return fmt.Errorf("loading discount products: %w", err)
	}
	if err := collectMembers(rows, byID, func(d *discount.Discount, id int64) {
		d.ProductIDs = append(d.ProductIDs, id)
	}); err != nil {
		return fmt.Errorf("scanning discount products: %w", err)
	}

	rows, err = r.pool.Query(ctx, discountCategoriesSQL, ids)
	if err != nil {
		return fmt.Errorf("loading discount categories: %w", err)
	}
	if err := collectMembers(rows, byID, func(d *discount.Discount, id int64) {
		d.CategoryIDs = append(d.CategoryIDs, id)
	}); err != nil {
		return fmt.Errorf("scanning discount categories: %w", err)
	}
	return nil
}

func collectMembers(rows pgx.Rows, byID map[int64]*discount.Discount, add func(*discount.Discount, int64)) error {
	defer rows.Close()
	for rows.Next() {
		var discountID, memberID int64
		if err := rows.Scan(&discountID, &memberID); err != nil {
			return err
		}
		if d, ok := byID[discountID]; ok {
			add(d, memberID)
		}
	}
	return rows.Err()
}

func insertMembers(ctx context.Context, tx pgx.Tx, sql string, discountID int64, memberIDs []int64) error {
	for _, id := range memberIDs {
		if _, err := tx.Exec(ctx, sql, discountID, id); err != nil {
			return err
		}
	}
	return nil
}

func scanDiscount(row pgx.CollectableRow) (discount.Discount, error) {
	var d discount.Discount
	err := row.Scan(&d.ID, &d.Name, &d.Type, &d.Value, &d.StartDate, &d.EndDate,
		&d.Status, &d.MinQuantity, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}
