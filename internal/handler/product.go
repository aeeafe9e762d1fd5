package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-catalog/internal/domain/catalog"
	"github.com/xenking/promo-catalog/internal/domain/discount"
	"github.com/xenking/promo-catalog/internal/domain/validation"
)

type productRequest struct {
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Category     int64           `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	ChangeReason string          `json:"change_reason,omitempty"`
}

type productResponse struct {
	ID               int64                   `json:"id"`
	Name             string                  `json:"name"`
	SKU              string                  `json:"sku"`
	Category         int64                   `json:"category"`
	CategoryName     string                  `json:"category_name,omitempty"`
	Price            decimal.Decimal         `json:"price"`
	Description      string                  `json:"description"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	CurrentDiscounts []discountShortResponse `json:"current_discounts,omitempty"`
}

type discountShortResponse struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Type  discount.Type   `json:"discount_type"`
	Value decimal.Decimal `json:"value"`
}

type productRevisionResponse struct {
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Category     int64           `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description"`
	ChangeReason string          `json:"change_reason,omitempty"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

func toProductResponse(p *catalog.Product, categoryName string) productResponse {
	return productResponse{
		ID:           p.ID,
		Name:         p.Name,
		SKU:          p.SKU,
		Category:     p.CategoryID,
		CategoryName: categoryName,
		Price:        p.Price,
		Description:  p.Description,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// ListProducts returns a paginated product listing with search over name,
// sku and description, and a category filter.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params := listParams(r, "category")

	res, err := h.products.List(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	names, err := h.categoryNames(r, res.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}

	results := make([]productResponse, len(res.Items))
	for i := range res.Items {
		results[i] = toProductResponse(&res.Items[i], names[res.Items[i].CategoryID])
	}
	writePage(w, r, params, res, results)
}

// CreateProduct creates a new product after checking its category exists.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	p := catalog.Product{
		Name:        req.Name,
		SKU:         req.SKU,
		CategoryID:  req.Category,
		Price:       req.Price,
		Description: req.Description,
	}
	if err := h.validateProduct(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.products.Create(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(&p, ""))
}

// GetProduct returns one product with its category name and the discounts
// active for it right now.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid product id")
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := toProductResponse(p, "")
	if c, err := h.categories.GetByID(r.Context(), p.CategoryID); err == nil {
		resp.CategoryName = c.Name
	}

	active, err := h.discounts.ActiveForProduct(r.Context(), p.ID, time.Now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	for i := range active {
		resp.CurrentDiscounts = append(resp.CurrentDiscounts, discountShortResponse{
			ID:    active[i].ID,
			Name:  active[i].Name,
			Type:  active[i].Type,
			Value: active[i].Value,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// UpdateProduct rewrites a product's fields, appending the prior state to
// its history trail.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid product id")
		return
	}

	var req productRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	p := catalog.Product{
		ID:          id,
		Name:        req.Name,
		SKU:         req.SKU,
		CategoryID:  req.Category,
		Price:       req.Price,
		Description: req.Description,
	}
	if err := h.validateProduct(r, &p); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.products.Update(r.Context(), &p, req.ChangeReason); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(&p, ""))
}

// DeleteProduct removes a product and, by cascade, its usage records and
// discount memberships.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid product id")
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProductHistory returns the product's audit trail, newest first.
func (h *Handler) ProductHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid product id")
		return
	}

	// A 404 for unknown products, not an empty trail.
	if _, err := h.products.GetByID(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	revs, err := h.products.History(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	results := make([]productRevisionResponse, len(revs))
	for i, rev := range revs {
		results[i] = productRevisionResponse{
			Name:         rev.Name,
			SKU:          rev.SKU,
			Category:     rev.CategoryID,
			Price:        rev.Price,
			Description:  rev.Description,
			ChangeReason: rev.ChangeReason,
			RecordedAt:   rev.RecordedAt,
		}
	}
	writeJSON(w, http.StatusOK, results)
}

// validateProduct runs field validation plus the category existence check.
func (h *Handler) validateProduct(r *http.Request, p *catalog.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := h.categories.GetByID(r.Context(), p.CategoryID); err != nil {
		if errors.Is(err, catalog.ErrCategoryNotFound) {
			verr := validation.NewError()
			verr.Add("category", "category does not exist")
			return verr.Err()
		}
		return err
	}
	return nil
}

// categoryNames resolves category names for a page of products.
func (h *Handler) categoryNames(r *http.Request, products []catalog.Product) (map[int64]string, error) {
	if len(products) == 0 {
		return nil, nil
	}
	seen := make(map[int64]struct{}, len(products))
	ids := make([]int64, 0, len(products))
	for i := range products {
		if _, ok := seen[products[i].CategoryID]; !ok {
			seen[products[i].CategoryID] = struct{}{}
			ids = append(ids, products[i].CategoryID)
		}
	}

	cats, err := h.categories.GetByIDs(r.Context(), ids)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(cats))
	for i := range cats {
		names[cats[i].ID] = cats[i].Name
	}
	return names, nil
}
