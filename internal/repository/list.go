package repository

import (
	"fmt"
	"strings"

	"github.com/xenking/promo-catalog/internal/domain/query"
)

// listSpec declares, per resource, which columns participate in text
// search, which fields may be filtered, and which may order the listing.
// Everything outside the whitelists is ignored, never interpolated.
type listSpec struct {
	// searchColumns are matched with ILIKE against query.Params.Search.
	searchColumns []string
	// filterColumns maps an exposed filter name to its column. Values are
	// compared as text so numeric FK filters work uniformly.
	filterColumns map[string]string
	// orderColumns maps an exposed ordering name to its column.
	orderColumns map[string]string
	// defaultOrder is the ORDER BY clause used when no ordering is given.
	defaultOrder string
}

// whereClause builds the WHERE clause and its positional args for the
// given params. Extra pre-bound conditions can be passed in conds/args.
func (s listSpec) whereClause(p query.Params, conds []string, args []any) (string, []any) {
	if p.Search != "" && len(s.searchColumns) > 0 {
		args = append(args, "%"+escapeLike(p.Search)+"%")
		ors := make([]string, len(s.searchColumns))
		for i, col := range s.searchColumns {
			ors[i] = fmt.Sprintf("%s ILIKE $%d", col, len(args))
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}

	for name, col := range s.filterColumns {
		v, ok := p.Filters[name]
		if !ok || v == "" {
			continue
		}
		args = append(args, v)
		conds = append(conds, fmt.Sprintf("%s::TEXT = $%d", col, len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// orderLimitClause builds the ORDER BY / LIMIT / OFFSET tail for the given
// normalized params.
func (s listSpec) orderLimitClause(p query.Params) string {
	order := s.defaultOrder
	if col, ok := s.orderColumns[p.OrderBy]; ok {
		dir := "ASC"
		if p.Desc {
			dir = "DESC"
		}
		order = col + " " + dir
	}
	return fmt.Sprintf(" ORDER BY %s LIMIT %d OFFSET %d", order, p.PageSize, p.Offset())
}

// escapeLike escapes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
