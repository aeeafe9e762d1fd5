package discount

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-catalog/internal/domain/catalog"
)

// ErrInactive is returned when a discount is applied outside its active
// state (wrong status or outside its time window).
var ErrInactive = errors.New("discount is not active")

// BelowMinimumQuantityError indicates the cart's total requested quantity
// does not reach the discount's minimum.
type BelowMinimumQuantityError struct {
	MinQuantity int
	Requested   int
}

func (e *BelowMinimumQuantityError) Error() string {
	return fmt.Sprintf("minimum quantity for this discount is %d, got %d", e.MinQuantity, e.Requested)
}

// CartItem is one requested line: a product reference and a quantity.
type CartItem struct {
	ProductID int64
	Quantity  int
}

// AppliedItem is one priced line in the engine's output.
type AppliedItem struct {
	ProductID     int64
	ProductName   string
	Quantity      int
	OriginalPrice decimal.Decimal
	FinalPrice    decimal.Decimal
}

// CartResult is the pricing engine's output for one discount application.
type CartResult struct {
	DiscountID    int64
	DiscountName  string
	DiscountType  Type
	DiscountValue decimal.Decimal
	AppliedItems  []AppliedItem
	TotalOriginal decimal.Decimal
	TotalFinal    decimal.Decimal
	TotalSaved    decimal.Decimal
}

// Pricer applies a discount to a cart of product/quantity pairs.
type Pricer struct {
	products catalog.ProductRepository
	now      func() time.Time
}

// NewPricer creates a Pricer backed by the given product repository.
func NewPricer(products catalog.ProductRepository) *Pricer {
	return &Pricer{products: products, now: time.Now}
}

// ApplyToCart prices the cart under the given discount.
//
// Items referencing unknown products are skipped, not rejected. Ineligible
// items are skipped as well and contribute nothing to totals. The minimum
// quantity check runs against the total requested quantity across all
// supplied items, eligible or not, and only after totals are accumulated;
// a rejected cart exposes no partial totals.
func (p *Pricer) ApplyToCart(ctx context.Context, d *Discount, items []CartItem) (*CartResult, error) {
	if !d.IsActiveAt(p.now()) {
		return nil, ErrInactive
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	fetched, err := p.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[int64]catalog.Product, len(fetched))
	for _, prod := range fetched {
		byID[prod.ID] = prod
	}

	var (
		applied       []AppliedItem
		totalOriginal = decimal.Zero
		totalFinal    = decimal.Zero
		totalQuantity int
	)
	for _, item := range items {
		totalQuantity += item.Quantity

		prod, ok := byID[item.ProductID]
		if !ok {
			// Unknown products are skipped, not rejected.
			continue
		}
		if !d.Eligible(prod.ID, prod.CategoryID) {
			continue
		}

		unitFinal := d.discountedUnitPrice(prod.Price)
		qty := decimal.NewFromInt(int64(item.Quantity))
		totalOriginal = totalOriginal.Add(prod.Price.Mul(qty))
		totalFinal = totalFinal.Add(unitFinal.Mul(qty))

		applied = append(applied, AppliedItem{
			ProductID:     prod.ID,
			ProductName:   prod.Name,
			Quantity:      item.Quantity,
			OriginalPrice: prod.Price.Round(2),
			FinalPrice:    unitFinal.Round(2),
		})
	}

	if totalQuantity < d.MinQuantity {
		return nil, &BelowMinimumQuantityError{
			MinQuantity: d.MinQuantity,
			Requested:   totalQuantity,
		}
	}

	totalOriginal = totalOriginal.Round(2)
	totalFinal = totalFinal.Round(2)

	return &CartResult{
		DiscountID:    d.ID,
		DiscountName:  d.Name,
		DiscountType:  d.Type,
		DiscountValue: d.Value,
		AppliedItems:  applied,
		TotalOriginal: totalOriginal,
		TotalFinal:    totalFinal,
		TotalSaved:    totalOriginal.Sub(totalFinal),
	}, nil
}

// discountedUnitPrice transforms a unit price according to the discount type.
func (d *Discount) discountedUnitPrice(price decimal.Decimal) decimal.Decimal {
	switch d.Type {
	case TypePercentage:
		return price.Mul(hundred.Sub(d.Value)).Div(hundred)
	case TypeFixed:
		final := price.Sub(d.Value)
		if final.IsNegative() {
			return decimal.Zero
		}
		return final
	case TypeBundle:
		// Bundle pricing is not implemented; pass the price through.
		return price
	default:
		return price
	}
}
