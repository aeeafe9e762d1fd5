package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/promo-catalog/internal/domain/catalog"
	"github.com/xenking/promo-catalog/internal/domain/query"
)

const (
	createCategorySQL = `INSERT INTO product_categories (name, description)
		VALUES ($1, $2) RETURNING id`

	getCategorySQL = `SELECT id, name, description FROM product_categories WHERE id = $1`

	getCategoriesByIDsSQL = `SELECT id, name, description FROM product_categories WHERE id = ANY($1)`

	updateCategorySQL = `UPDATE product_categories SET name = $2, description = $3 WHERE id = $1`

	deleteCategorySQL = `DELETE FROM product_categories WHERE id = $1`
)

var categoryListSpec = listSpec{
	searchColumns: []string{"name", "description"},
	orderColumns:  map[string]string{"name": "name", "id": "id"},
	defaultOrder:  "name ASC",
}

var _ catalog.CategoryRepository = (*CategoryRepository)(nil)

// CategoryRepository implements catalog.CategoryRepository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// Create inserts a new category and fills in its generated id.
func (r *CategoryRepository) Create(ctx context.Context, c *catalog.Category) error {
	err := r.pool.QueryRow(ctx, createCategorySQL, c.Name, c.Description).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("creating category %q: %w", c.Name, err)
	}
	return nil
}

// GetByID returns a single category by its identifier.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*catalog.Category, error) {
	var c catalog.Category
	err := r.pool.QueryRow(ctx, getCategorySQL, id).Scan(&c.ID, &c.Name, &c.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("getting category %d: %w", id, err)
	}
	return &c, nil
}

// GetByIDs returns categories matching any of the given IDs.
func (r *CategoryRepository) GetByIDs(ctx context.Context, ids []int64) ([]catalog.Category, error) {
	rows, err := r.pool.Query(ctx, getCategoriesByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting categories by ids: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name, &c.Description)
		return c, err
	})
}

// Update rewrites the category's fields.
func (r *CategoryRepository) Update(ctx context.Context, c *catalog.Category) error {
	tag, err := r.pool.Exec(ctx, updateCategorySQL, c.ID, c.Name, c.Description)
	if err != nil {
		return fmt.Errorf("updating category %d: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}

// Delete removes the category. Products in it are removed by cascade.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		return fmt.Errorf("deleting category %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}

// List returns one page of categories with the total count.
func (r *CategoryRepository) List(ctx context.Context, params query.Params) (query.Result[catalog.Category], error) {
	var res query.Result[catalog.Category]
	params = params.Normalize()

	where, args := categoryListSpec.whereClause(params, nil, nil)

	err := r.pool.QueryRow(ctx, "SELECT count(*) FROM product_categories"+where, args...).Scan(&res.Count)
	if err != nil {
		return res, fmt.Errorf("counting categories: %w", err)
	}

	sql := "SELECT id, name, description FROM product_categories" + where +
		categoryListSpec.orderLimitClause(params)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return res, fmt.Errorf("listing categories: %w", err)
	}
	res.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name, &c.Description)
		return c, err
	})
	if err != nil {
		return res, fmt.Errorf("scanning categories: %w", err)
	}
	return res, nil
}
