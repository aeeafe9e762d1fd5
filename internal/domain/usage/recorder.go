package usage

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-catalog/internal/domain/validation"
)

// Record is the input for recording one discount application.
type Record struct {
	DiscountID    int64
	ProductID     int64
	OriginalPrice decimal.Decimal
	FinalPrice    decimal.Decimal
	Quantity      int

	// UserID attributes the usage to an acting user. Nil records an
	// anonymous usage; callers with an authenticated identity pass it
	// explicitly rather than relying on any ambient state.
	UserID *int64
}

// Validate checks the record's fields before persisting.
func (r *Record) Validate() error {
	verr := validation.NewError()
	if r.DiscountID <= 0 {
		verr.Add("discount", "discount is required")
	}
	if r.ProductID <= 0 {
		verr.Add("product", "product is required")
	}
	if r.Quantity < 1 {
		verr.Add("quantity", "quantity must be at least 1")
	}
	if r.FinalPrice.GreaterThan(r.OriginalPrice) {
		verr.Add("final_price", "final price must not exceed original price")
	}
	return verr.Err()
}

// Recorder persists usage records with server-assigned identity and time.
type Recorder struct {
	usages Repository
	now    func() time.Time
}

// NewRecorder creates a Recorder backed by the given repository.
func NewRecorder(usages Repository) *Recorder {
	return &Recorder{usages: usages, now: time.Now}
}

// Record creates exactly one new usage row with a fresh UUID and the
// current server time. Repeated identical calls create distinct records.
func (r *Recorder) Record(ctx context.Context, rec Record) (*Usage, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	u := &Usage{
		ID:            uuid.New(),
		DiscountID:    rec.DiscountID,
		ProductID:     rec.ProductID,
		UserID:        rec.UserID,
		OriginalPrice: rec.OriginalPrice.Round(2),
		FinalPrice:    rec.FinalPrice.Round(2),
		Quantity:      rec.Quantity,
		UsedAt:        r.now().UTC(),
	}
	if err := r.usages.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create usage")
	}
	return u, nil
}
