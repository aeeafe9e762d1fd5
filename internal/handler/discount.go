package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/promo-catalog/internal/domain/discount"
	"github.com/xenking/promo-catalog/internal/domain/validation"
)

type discountRequest struct {
	Name         string          `json:"name"`
	Type         discount.Type   `json:"discount_type"`
	Value        decimal.Decimal `json:"value"`
	Products     []int64         `json:"products"`
	Categories   []int64         `json:"categories"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	Status       discount.Status `json:"status,omitempty"`
	MinQuantity  int             `json:"min_quantity"`
	ChangeReason string          `json:"change_reason,omitempty"`
}

type discountResponse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Type        discount.Type   `json:"discount_type"`
	Value       decimal.Decimal `json:"value"`
	Products    []int64         `json:"products"`
	Categories  []int64         `json:"categories"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	Status      discount.Status `json:"status"`
	MinQuantity int             `json:"min_quantity"`
	CreatedBy   *int64          `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	IsActive    bool            `json:"is_active"`
}

type discountRevisionResponse struct {
	Name         string          `json:"name"`
	Type         discount.Type   `json:"discount_type"`
	Value        decimal.Decimal `json:"value"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      time.Time       `json:"end_date"`
	Status       discount.Status `json:"status"`
	MinQuantity  int             `json:"min_quantity"`
	ChangeReason string          `json:"change_reason,omitempty"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

type applyToCartRequest struct {
	ProductIDs []int64          `json:"product_ids"`
	Quantities map[string]int   `json:"quantities"`
}

type appliedItemResponse struct {
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	FinalPrice    decimal.Decimal `json:"final_price"`
}

type applyToCartResponse struct {
	DiscountID    int64                 `json:"discount_id"`
	DiscountName  string                `json:"discount_name"`
	DiscountType  string                `json:"discount_type"`
	DiscountValue decimal.Decimal       `json:"discount_value"`
	AppliedItems  []appliedItemResponse `json:"applied_items"`
	TotalOriginal decimal.Decimal       `json:"total_original"`
	TotalFinal    decimal.Decimal       `json:"total_final"`
	TotalSaved    decimal.Decimal       `json:"total_saved"`
}

func toDiscountResponse(d *discount.Discount) discountResponse {
	products := d.ProductIDs
	if products == nil {
		products = []int64{}
	}
	categories := d.CategoryIDs
	if categories == nil {
		categories = []int64{}
	}
	return discountResponse{
		ID:          d.ID,
		Name:        d.Name,
		Type:        d.Type,
		Value:       d.Value,
		Products:    products,
		Categories:  categories,
		StartDate:   d.StartDate,
		EndDate:     d.EndDate,
		Status:      d.Status,
		MinQuantity: d.MinQuantity,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		IsActive:    d.IsActiveAt(time.Now()),
	}
}

// ListDiscounts returns a paginated discount listing with name search and
// status/type/creator filters.
func (h *Handler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	params := listParams(r, "status", "discount_type", "created_by")

	res, err := h.discounts.List(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	results := make([]discountResponse, len(res.Items))
	for i := range res.Items {
		results[i] = toDiscountResponse(&res.Items[i])
	}
	writePage(w, r, params, res, results)
}

// CreateDiscount creates a new discount, attributing it to the
// authenticated user when one is present.
func (h *Handler) CreateDiscount(w http.ResponseWriter, r *http.Request) {
	var req discountRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	d := discount.Discount{
		Name:        req.Name,
		Type:        req.Type,
		Value:       req.Value,
		ProductIDs:  req.Products,
		CategoryIDs: req.Categories,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      req.Status,
		MinQuantity: req.MinQuantity,
		CreatedBy:   actingUserID(r),
	}
	if d.MinQuantity == 0 {
		d.MinQuantity = 1
	}
	if err := h.validateDiscount(r, &d); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.discounts.Create(r.Context(), &d); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDiscountResponse(&d))
}

// GetDiscount returns one discount by id.
func (h *Handler) GetDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid discount id")
		return
	}

	d, err := h.discounts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDiscountResponse(d))
}

// UpdateDiscount rewrites a discount, appending the prior state to its
// history trail. The stored status is recomputed on save; cancellation is
// sticky.
func (h *Handler) UpdateDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid discount id")
		return
	}

	current, err := h.discounts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req discountRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	d := discount.Discount{
		ID:          id,
		Name:        req.Name,
		Type:        req.Type,
		Value:       req.Value,
		ProductIDs:  req.Products,
		CategoryIDs: req.Categories,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      req.Status,
		MinQuantity: req.MinQuantity,
		CreatedBy:   current.CreatedBy,
	}
	if d.Status == "" {
		d.Status = current.Status
	}
	if d.MinQuantity == 0 {
		d.MinQuantity = 1
	}
	if err := h.validateDiscount(r, &d); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.discounts.Update(r.Context(), &d, req.ChangeReason); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDiscountResponse(&d))
}

// DeleteDiscount removes a discount and, by cascade, its usage records.
func (h *Handler) DeleteDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid discount id")
		return
	}

	if err := h.discounts.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DiscountHistory returns the discount's audit trail, newest first.
func (h *Handler) DiscountHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid discount id")
		return
	}

	if _, err := h.discounts.GetByID(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	revs, err := h.discounts.History(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	results := make([]discountRevisionResponse, len(revs))
	for i, rev := range revs {
		results[i] = discountRevisionResponse{
			Name:         rev.Name,
			Type:         rev.Type,
			Value:        rev.Value,
			StartDate:    rev.StartDate,
			EndDate:      rev.EndDate,
			Status:       rev.Status,
			MinQuantity:  rev.MinQuantity,
			ChangeReason: rev.ChangeReason,
			RecordedAt:   rev.RecordedAt,
		}
	}
	writeJSON(w, http.StatusOK, results)
}

// ApplyToCart prices the requested cart under the discount and returns
// line-level and aggregate pricing.
func (h *Handler) ApplyToCart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid discount id")
		return
	}

	d, err := h.discounts.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req applyToCartRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	items := make([]discount.CartItem, len(req.ProductIDs))
	for i, productID := range req.ProductIDs {
		qty, ok := req.Quantities[strconv.FormatInt(productID, 10)]
		if !ok {
			qty = 1
		}
		items[i] = discount.CartItem{ProductID: productID, Quantity: qty}
	}

	result, err := h.pricer.ApplyToCart(r.Context(), d, items)
	if err != nil {
		writeError(w, r, err)
		return
	}

	applied := make([]appliedItemResponse, len(result.AppliedItems))
	for i, item := range result.AppliedItems {
		applied[i] = appliedItemResponse{
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			Quantity:      item.Quantity,
			OriginalPrice: item.OriginalPrice,
			FinalPrice:    item.FinalPrice,
		}
	}

	writeJSON(w, http.StatusOK, applyToCartResponse{
		DiscountID:    result.DiscountID,
		DiscountName:  result.DiscountName,
		DiscountType:  result.DiscountType.Label(),
		DiscountValue: result.DiscountValue,
		AppliedItems:  applied,
		TotalOriginal: result.TotalOriginal,
		TotalFinal:    result.TotalFinal,
		TotalSaved:    result.TotalSaved,
	})
}

// validateDiscount runs field validation plus existence checks for the
// eligible product and category sets.
func (h *Handler) validateDiscount(r *http.Request, d *discount.Discount) error {
	if err := d.Validate(); err != nil {
		return err
	}

	verr := validation.NewError()
	if len(d.ProductIDs) > 0 {
		found, err := h.products.GetByIDs(r.Context(), d.ProductIDs)
		if err != nil {
			return err
		}
		if len(found) != len(d.ProductIDs) {
			verr.Add("products", "one or more products do not exist")
		}
	}
	if len(d.CategoryIDs) > 0 {
		found, err := h.categories.GetByIDs(r.Context(), d.CategoryIDs)
		if err != nil {
			return err
		}
		if len(found) != len(d.CategoryIDs) {
			verr.Add("categories", "one or more categories do not exist")
		}
	}
	return verr.Err()
}
