package catalog

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-catalog/internal/domain/query"
	"github.com/xenking/promo-catalog/internal/domain/validation"
)

var (
	// ErrProductNotFound is returned when a requested product does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrDuplicateSKU is returned when a product write violates SKU uniqueness.
	ErrDuplicateSKU = errors.New("sku already exists")
)

// Product is a catalog item. SKU is unique across all products.
type Product struct {
	ID          int64
	Name        string
	SKU         string
	CategoryID  int64
	Price       decimal.Decimal
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the product's fields for create/update.
func (p *Product) Validate() error {
	verr := validation.NewError()
	if p.Name == "" {
		verr.Add("name", "name is required")
	}
	if p.SKU == "" {
		verr.Add("sku", "sku is required")
	}
	if p.CategoryID <= 0 {
		verr.Add("category", "category is required")
	}
	if p.Price.IsNegative() {
		verr.Add("price", "price must not be negative")
	}
	return verr.Err()
}

// ProductRevision is one append-only history entry: the product's field
// state before a change, plus an optional reason.
type ProductRevision struct {
	ID           int64
	ProductID    int64
	Name         string
	SKU          string
	CategoryID   int64
	Price        decimal.Decimal
	Description  string
	ChangeReason string
	RecordedAt   time.Time
}

// ProductRepository defines persistence operations for products.
//
// Update appends the prior field state to the product's history trail.
// Deleting a product cascades to its usage records and removes it from any
// discount's eligible set.
type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Product, error)
	Update(ctx context.Context, p *Product, changeReason string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, params query.Params) (query.Result[Product], error)
	History(ctx context.Context, productID int64) ([]ProductRevision, error)
}
