// Package catalog holds the product catalog entities: categories and
// products, with their validation rules and repository contracts.
package catalog

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/promo-catalog/internal/domain/query"
	"github.com/xenking/promo-catalog/internal/domain/validation"
)

// ErrCategoryNotFound is returned when a requested category does not exist.
var ErrCategoryNotFound = errors.New("category not found")

// Category groups products. The hierarchy is flat: categories never nest.
type Category struct {
	ID          int64
	Name        string
	Description string
}

// Validate checks the category's fields for create/update.
func (c *Category) Validate() error {
	verr := validation.NewError()
	if c.Name == "" {
		verr.Add("name", "name is required")
	}
	return verr.Err()
}

// CategoryRepository defines persistence operations for categories.
// Deleting a category cascades to its products.
type CategoryRepository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id int64) (*Category, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, params query.Params) (query.Result[Category], error)
}
