// Package usage holds the immutable ledger of discount applications.
package usage

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-catalog/internal/domain/query"
)

// ErrNotFound is returned when a requested usage record does not exist.
var ErrNotFound = errors.New("discount usage not found")

// Usage is one immutable record of a discount applied to a product
// purchase. Records are created once and never updated or deleted under
// normal operation.
type Usage struct {
	ID            uuid.UUID
	DiscountID    int64
	ProductID     int64
	UserID        *int64
	OriginalPrice decimal.Decimal
	FinalPrice    decimal.Decimal
	Quantity      int
	UsedAt        time.Time
}

// SavedAmount returns the discount amount captured by this record.
func (u *Usage) SavedAmount() decimal.Decimal {
	return u.OriginalPrice.Sub(u.FinalPrice)
}

// ListFilter narrows usage listings beyond the generic query params.
type ListFilter struct {
	UsedAfter  *time.Time
	UsedBefore *time.Time
}

// Repository defines persistence operations for usage records.
// There is deliberately no update or delete: the ledger is append-only.
type Repository interface {
	Create(ctx context.Context, u *Usage) error
	GetByID(ctx context.Context, id uuid.UUID) (*Usage, error)
	List(ctx context.Context, params query.Params, filter ListFilter) (query.Result[Usage], error)
}
