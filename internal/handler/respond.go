package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/promo-catalog/internal/domain/catalog"
	"github.com/xenking/promo-catalog/internal/domain/discount"
	"github.com/xenking/promo-catalog/internal/domain/query"
	"github.com/xenking/promo-catalog/internal/domain/usage"
	"github.com/xenking/promo-catalog/internal/domain/user"
	"github.com/xenking/promo-catalog/internal/domain/validation"
)

// errorResponse is the JSON body for every non-2xx API response.
type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// pageEnvelope is the standard paginated collection body.
type pageEnvelope struct {
	Count       int    `json:"count"`
	Next        *string `json:"next"`
	Previous    *string `json:"previous"`
	CurrentPage int    `json:"current_page"`
	TotalPages  int    `json:"total_pages"`
	Results     any    `json:"results"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a domain error to the API error taxonomy.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:  "validation failed",
			Fields: verr.Fields,
		})
		return
	}

	var minErr *discount.BelowMinimumQuantityError
	switch {
	case errors.Is(err, catalog.ErrCategoryNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, discount.ErrNotFound),
		errors.Is(err, usage.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, catalog.ErrDuplicateSKU):
		writeJSON(w, http.StatusConflict, errorResponse{
			Error:  "sku already exists",
			Fields: map[string]string{"sku": "a product with this sku already exists"},
		})
	case errors.Is(err, discount.ErrInactive):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "discount is not active"})
	case errors.As(err, &minErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: minErr.Error()})
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// writePage writes the pagination envelope with next/previous links derived
// from the request URL.
func writePage[T any](w http.ResponseWriter, r *http.Request, params query.Params, res query.Result[T], results any) {
	params = params.Normalize()
	totalPages := res.TotalPages(params.PageSize)

	var next, prev *string
	if params.Page < totalPages {
		next = pageLink(r.URL, params.Page+1)
	}
	if params.Page > 1 {
		prev = pageLink(r.URL, params.Page-1)
	}

	writeJSON(w, http.StatusOK, pageEnvelope{
		Count:       res.Count,
		Next:        next,
		Previous:    prev,
		CurrentPage: params.Page,
		TotalPages:  totalPages,
		Results:     results,
	})
}

func pageLink(u *url.URL, page int) *string {
	link := *u
	q := link.Query()
	q.Set("page", strconv.Itoa(page))
	link.RawQuery = q.Encode()
	s := link.String()
	return &s
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// listParams parses the shared listing query parameters. Ordering uses the
// "-field" prefix convention for descending sorts. Only the named filter
// fields are passed through.
func listParams(r *http.Request, filterFields ...string) query.Params {
	q := r.URL.Query()

	p := query.Params{Search: q.Get("search")}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	p.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	if ordering := q.Get("ordering"); ordering != "" {
		p.OrderBy = strings.TrimPrefix(ordering, "-")
		p.Desc = strings.HasPrefix(ordering, "-")
	}

	for _, f := range filterFields {
		if v := q.Get(f); v != "" {
			if p.Filters == nil {
				p.Filters = make(map[string]string)
			}
			p.Filters[f] = v
		}
	}
	return p.Normalize()
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
