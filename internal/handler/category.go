package handler

import (
	"net/http"

	"github.com/xenking/promo-catalog/internal/domain/catalog"
)

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type categoryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func toCategoryResponse(c *catalog.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Description: c.Description}
}

// ListCategories returns a paginated category listing with text search
// over name and description.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	params := listParams(r)

	res, err := h.categories.List(r.Context(), params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	results := make([]categoryResponse, len(res.Items))
	for i := range res.Items {
		results[i] = toCategoryResponse(&res.Items[i])
	}
	writePage(w, r, params, res, results)
}

// CreateCategory creates a new category.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	c := catalog.Category{Name: req.Name, Description: req.Description}
	if err := c.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.categories.Create(r.Context(), &c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(&c))
}

// GetCategory returns one category by id.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid category id")
		return
	}

	c, err := h.categories.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

// UpdateCategory rewrites a category's fields.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid category id")
		return
	}

	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	c := catalog.Category{ID: id, Name: req.Name, Description: req.Description}
	if err := c.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.categories.Update(r.Context(), &c); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(&c))
}

// DeleteCategory removes a category and, by cascade, its products.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeBadRequest(w, "invalid category id")
		return
	}

	if err := h.categories.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
