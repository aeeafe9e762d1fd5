// Package discount implements the promotions core: the discount entity,
// its lifecycle status rules, and the cart pricing engine.
package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-catalog/internal/domain/query"
	"github.com/xenking/promo-catalog/internal/domain/validation"
)

// Type enumerates the supported discount pricing strategies.
type Type string

const (
	// TypePercentage reduces the unit price by value percent.
	TypePercentage Type = "percentage"
	// TypeFixed subtracts a fixed amount from the unit price, floored at zero.
	TypeFixed Type = "fixed"
	// TypeBundle is a placeholder for bundle semantics ("buy 2 get 1").
	// It currently passes prices through unchanged and must stay a distinct
	// variant so real bundle pricing can be added without a schema change.
	TypeBundle Type = "bundle"
)

// Label returns the human-readable name of the discount type.
func (t Type) Label() string {
	switch t {
	case TypePercentage:
		return "Percentage"
	case TypeFixed:
		return "Fixed amount"
	case TypeBundle:
		return "Bundle (2+1)"
	default:
		return string(t)
	}
}

// Status enumerates the lifecycle states of a discount.
type Status string

const (
	StatusUpcoming  Status = "upcoming"
	StatusActive    Status = "active"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Label returns the human-readable name of the status.
func (s Status) Label() string {
	switch s {
	case StatusUpcoming:
		return "Upcoming"
	case StatusActive:
		return "Active"
	case StatusExpired:
		return "Expired"
	case StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}

// ErrNotFound is returned when a requested discount does not exist.
var ErrNotFound = errors.New("discount not found")

var hundred = decimal.NewFromInt(100)

// Discount is a time-bounded promotion over a set of eligible products
// and/or categories. A product qualifies when it is listed directly or its
// category is listed.
type Discount struct {
	ID          int64
	Name        string
	Type        Type
	Value       decimal.Decimal
	ProductIDs  []int64
	CategoryIDs []int64
	StartDate   time.Time
	EndDate     time.Time
	Status      Status
	MinQuantity int
	CreatedBy   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the discount's fields for create/update. Value ranges
// depend on the type: percentage must be in (0, 100], fixed must be
// positive, bundle is unconstrained.
func (d *Discount) Validate() error {
	verr := validation.NewError()
	if d.Name == "" {
		verr.Add("name", "name is required")
	}

	switch d.Type {
	case TypePercentage:
		if !d.Value.IsPositive() || d.Value.GreaterThan(hundred) {
			verr.Add("value", "percentage value must be greater than 0 and at most 100")
		}
	case TypeFixed:
		if !d.Value.IsPositive() {
			verr.Add("value", "fixed value must be greater than 0")
		}
	case TypeBundle:
		if d.Value.IsNegative() {
			verr.Add("value", "value must not be negative")
		}
	default:
		verr.Add("discount_type", "discount type must be percentage, fixed, or bundle")
	}

	if d.StartDate.IsZero() {
		verr.Add("start_date", "start date is required")
	}
	if d.EndDate.IsZero() {
		verr.Add("end_date", "end date is required")
	} else if !d.EndDate.After(d.StartDate) {
		verr.Add("end_date", "end date must be after start date")
	}

	if d.MinQuantity < 1 {
		verr.Add("min_quantity", "min quantity must be at least 1")
	}
	return verr.Err()
}

// Eligible reports whether a product qualifies for this discount, either by
// direct listing or through its category.
func (d *Discount) Eligible(productID, categoryID int64) bool {
	for _, id := range d.ProductIDs {
		if id == productID {
			return true
		}
	}
	for _, id := range d.CategoryIDs {
		if id == categoryID {
			return true
		}
	}
	return false
}

// Revision is one append-only history entry: the discount's field state
// before a change, plus an optional reason.
type Revision struct {
	ID           int64
	DiscountID   int64
	Name         string
	Type         Type
	Value        decimal.Decimal
	StartDate    time.Time
	EndDate      time.Time
	Status       Status
	MinQuantity  int
	ChangeReason string
	RecordedAt   time.Time
}

// StatusChange describes one pending or applied status transition,
// as reported by the maintenance batch job.
type StatusChange struct {
	ID   int64
	Name string
	From Status
	To   Status
}

// Repository defines persistence operations for discounts.
//
// Create and Update run the incoming status through ResolveStatus before
// writing, so stored statuses track the time window; cancellation is sticky
// on both paths. Update appends the prior field state to the history trail.
type Repository interface {
	Create(ctx context.Context, d *Discount) error
	GetByID(ctx context.Context, id int64) (*Discount, error)
	Update(ctx context.Context, d *Discount, changeReason string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, params query.Params) (query.Result[Discount], error)
	History(ctx context.Context, discountID int64) ([]Revision, error)

	// ListNonCancelled returns every discount not in the cancelled state,
	// for the maintenance status sweep.
	ListNonCancelled(ctx context.Context) ([]Discount, error)
	// UpdateStatus writes only the status and updated_at columns.
	UpdateStatus(ctx context.Context, id int64, status Status) error
	// ListForExport returns discounts active at now or becoming active
	// within the look-ahead window, with product counts resolved.
	ListForExport(ctx context.Context, now, until time.Time) ([]ExportRow, error)
	// ActiveForProduct returns discounts currently applicable to a product,
	// by direct listing or category, with status active and window spanning now.
	ActiveForProduct(ctx context.Context, productID int64, now time.Time) ([]Discount, error)
}

// ExportRow is one line of the operator CSV export.
type ExportRow struct {
	Discount
	CreatorUsername string
	ProductCount    int
}
