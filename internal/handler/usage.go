package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/promo-catalog/internal/domain/catalog"
	"github.com/xenking/promo-catalog/internal/domain/discount"
	"github.com/xenking/promo-catalog/internal/domain/usage"
	"github.com/xenking/promo-catalog/internal/domain/validation"
)

type usageRequest struct {
	Discount      int64           `json:"discount"`
	Product       int64           `json:"product"`
	User          *int64          `json:"user,omitempty"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	Quantity      int             `json:"quantity"`
}

type usageResponse struct {
	ID            uuid.UUID       `json:"id"`
	Discount      int64           `json:"discount"`
	Product       int64           `json:"product"`
	User          *int64          `json:"user"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	SavedAmount   decimal.Decimal `json:"saved_amount"`
	Quantity      int             `json:"quantity"`
	UsedAt        time.Time       `json:"used_at"`
}

func toUsageResponse(u *usage.Usage) usageResponse {
	return usageResponse{
		ID:            u.ID,
		Discount:      u.DiscountID,
		Product:       u.ProductID,
		User:          u.UserID,
		OriginalPrice: u.OriginalPrice,
		FinalPrice:    u.FinalPrice,
		SavedAmount:   u.SavedAmount(),
		Quantity:      u.Quantity,
		UsedAt:        u.UsedAt,
	}
}

// ListUsages returns a paginated usage listing filtered by discount,
// product, user and an optional used_at time window.
func (h *Handler) ListUsages(w http.ResponseWriter, r *http.Request) {
	params := listParams(r, "discount", "product", "user")

	var filter usage.ListFilter
	q := r.URL.Query()
	if raw := q.Get("used_at_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeBadRequest(w, "used_at_after must be an RFC 3339 timestamp")
			return
		}
		filter.UsedAfter = &t
	}
	if raw := q.Get("used_at_before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeBadRequest(w, "used_at_before must be an RFC 3339 timestamp")
			return
		}
		filter.UsedBefore = &t
	}

	res, err := h.usages.List(r.Context(), params, filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	results := make([]usageResponse, len(res.Items))
	for i := range res.Items {
		results[i] = toUsageResponse(&res.Items[i])
	}
	writePage(w, r, params, res, results)
}

// CreateUsage appends one usage record to the ledger. The acting user is
// taken from the request body when given, otherwise from the API key
// identity.
func (h *Handler) CreateUsage(w http.ResponseWriter, r *http.Request) {
	var req usageRequest
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if err := h.checkUsageReferences(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	userID := req.User
	if userID == nil {
		userID = actingUserID(r)
	}

	u, err := h.recorder.Record(r.Context(), usage.Record{
		DiscountID:    req.Discount,
		ProductID:     req.Product,
		UserID:        userID,
		OriginalPrice: req.OriginalPrice,
		FinalPrice:    req.FinalPrice,
		Quantity:      req.Quantity,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUsageResponse(u))
}

// GetUsage returns one usage record by its UUID.
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeBadRequest(w, "invalid usage id")
		return
	}

	u, err := h.usages.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUsageResponse(u))
}

// checkUsageReferences verifies the referenced discount, product and user
// exist, reporting missing ones as field validation errors.
func (h *Handler) checkUsageReferences(r *http.Request, req *usageRequest) error {
	verr := validation.NewError()

	if req.Discount > 0 {
		if _, err := h.discounts.GetByID(r.Context(), req.Discount); err != nil {
			if !errors.Is(err, discount.ErrNotFound) {
				return err
			}
			verr.Add("discount", "discount does not exist")
		}
	}
	if req.Product > 0 {
		if _, err := h.products.GetByID(r.Context(), req.Product); err != nil {
			if !errors.Is(err, catalog.ErrProductNotFound) {
				return err
			}
			verr.Add("product", "product does not exist")
		}
	}
	return verr.Err()
}
