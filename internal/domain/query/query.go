// Package query defines the shared list-query contract: text search,
// field filters, ordering, and page-based pagination.
package query

const (
	// DefaultPageSize is used when the caller does not specify a page size.
	DefaultPageSize = 5
	// MaxPageSize caps the page size a caller may request.
	MaxPageSize = 100
)

// Params describes one page of a filtered, ordered collection listing.
type Params struct {
	// Page is 1-based. Values below 1 are normalized to 1.
	Page     int
	PageSize int

	// Search is matched case-insensitively against the resource's
	// designated search fields.
	Search string

	// Filters holds exact-match field filters, keyed by column name.
	// Repositories only honor fields they whitelist.
	Filters map[string]string

	// OrderBy names the sort field; empty selects the resource default.
	OrderBy string
	Desc    bool
}

// Normalize clamps page and page size into their allowed ranges.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the SQL offset for the normalized page.
func (p Params) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Result holds one page of results together with the total row count.
type Result[T any] struct {
	Items []T
	Count int
}

// TotalPages returns the number of pages for the given page size.
// An empty result still has one (empty) page.
func (r Result[T]) TotalPages(pageSize int) int {
	if pageSize < 1 || r.Count == 0 {
		return 1
	}
	return (r.Count + pageSize - 1) / pageSize
}
