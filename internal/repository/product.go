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
	productColumns = "id, name, sku, category_id, price, description, created_at, updated_at"

	createProductSQL = `INSERT INTO products (name, sku, category_id, price, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	// The history row is written from the pre-update state in the same
	// transaction, so the trail and the update cannot diverge.
	snapshotProductSQL = `INSERT INTO product_history
		(product_id, name, sku, category_id, price, description, change_reason)
		SELECT id, name, sku, category_id, price, description, NULLIF($2, '')
		FROM products WHERE id = $1`

	updateProductSQL = `UPDATE products
		SET name = $2, sku = $3, category_id = $4, price = $5, description = $6, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	productHistorySQL = `SELECT id, product_id, name, sku, category_id, price, description,
		COALESCE(change_reason, ''), recorded_at
		FROM product_history WHERE product_id = $1 ORDER BY recorded_at DESC, id DESC`
)

var productListSpec = listSpec{
	searchColumns: []string{"name", "sku", "description"},
	filterColumns: map[string]string{"category": "category_id"},
	orderColumns: map[string]string{
		"name":       "name",
		"price":      "price",
		"created_at": "created_at",
		"updated_at": "updated_at",
	},
	defaultOrder: "name ASC",
}

var _ catalog.ProductRepository = (*ProductRepository)(nil)

// ProductRepository implements catalog.ProductRepository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a new product. SKU uniqueness is enforced by the store's
// unique constraint, surfaced as catalog.ErrDuplicateSKU.
func (r *ProductRepository) Create(ctx context.Context, p *catalog.Product) error {
	err := r.pool.QueryRow(ctx, createProductSQL,
		p.Name, p.SKU, p.CategoryID, p.Price, p.Description,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "products_sku_key") {
			return catalog.ErrDuplicateSKU
		}
		return fmt.Errorf("creating product %q: %w", p.SKU, err)
	}
	return nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("getting product %d: %w", id, err)
	}
	return &p, nil
}

// GetByIDs returns products matching any of the given IDs. Unknown IDs are
// simply absent from the result.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []int64) ([]catalog.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Update snapshots the current state into the history trail, then rewrites
// the product's fields, all in one transaction.
func (r *ProductRepository) Update(ctx context.Context, p *catalog.Product, changeReason string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning product update: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	tag, err := tx.Exec(ctx, snapshotProductSQL, p.ID, changeReason)
	if err != nil {
		return fmt.Errorf("recording product %d history: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}

	err = tx.QueryRow(ctx, updateProductSQL,
		p.ID, p.Name, p.SKU, p.CategoryID, p.Price, p.Description,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "products_sku_key") {
			return catalog.ErrDuplicateSKU
		}
		return fmt.Errorf("updating product %d: %w", p.ID, err)
	}

	return tx.Commit(ctx)
}

// Delete removes the product. Usage records and discount memberships are
// removed by cascade.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrProductNotFound
	}
	return nil
}

// List returns one page of products with the total count.
func (r *ProductRepository) List(ctx context.Context, params query.Params) (query.Result[catalog.Product], error) {
	var res query.Result[catalog.Product]
	params = params.Normalize()

	where, args := productListSpec.whereClause(params, nil, nil)

	err := r.pool.QueryRow(ctx, "SELECT count(*) FROM products"+where, args...).Scan(&res.Count)
	if err != nil {
		return res, fmt.Errorf("counting products: %w", err)
	}

	sql := "SELECT " + productColumns + " FROM products" + where +
		productListSpec.orderLimitClause(params)
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return res, fmt.Errorf("listing products: %w", err)
	}
	res.Items, err = pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return res, fmt.Errorf("scanning products: %w", err)
	}
	return res, nil
}

// History returns the product's audit trail, newest first.
func (r *ProductRepository) History(ctx context.Context, productID int64) ([]catalog.ProductRevision, error) {
	rows, err := r.pool.Query(ctx, productHistorySQL, productID)
	if err != nil {
		return nil, fmt.Errorf("getting product %d history: %w", productID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (catalog.ProductRevision, error) {
		var rev catalog.ProductRevision
		err := row.Scan(&rev.ID, &rev.ProductID, &rev.Name, &rev.SKU, &rev.CategoryID,
			&rev.Price, &rev.Description, &rev.ChangeReason, &rev.RecordedAt)
		return rev, err
	})
}

func scanProduct(row pgx.CollectableRow) (catalog.Product, error) {
	var p catalog.Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.CategoryID, &p.Price,
		&p.Description, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
