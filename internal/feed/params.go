package feed

import (
	"fmt"
	"slices"
	"strings"

	"github.com/randytsao24/cityweather/internal/places"
)

// SortKey is the single active sort column. An empty Column means unsorted.
type SortKey struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc"`
}

// ColumnFilter is a per-column filter value. No column filter UI exists
// yet, but filters still take part in query identity.
type ColumnFilter struct {
	Column string `json:"column"`
	Value  string `json:"value"`
}

// FilterSortParams is the user-controlled query shape
type FilterSortParams struct {
	GlobalFilter  string         `json:"global_filter"`
	ColumnFilters []ColumnFilter `json:"column_filters,omitempty"`
	Sort          SortKey        `json:"sort"`
}

// Equal compares by content. A nil and an empty filter list are the same shape.
func (p FilterSortParams) Equal(other FilterSortParams) bool {
	return p.GlobalFilter == other.GlobalFilter &&
		p.Sort == other.Sort &&
		slices.Equal(p.ColumnFilters, other.ColumnFilters)
}

func (p FilterSortParams) clone() FilterSortParams {
	p.ColumnFilters = slices.Clone(p.ColumnFilters)
	return p
}

// BuildQuery produces the records query for one page of this shape. With a
// global filter set only the filter expression is sent: no limit, offset
// or ordering. Otherwise the page window and the optional ordering go out.
func BuildQuery(p FilterSortParams, pageIndex, pageSize int) places.Query {
	if p.GlobalFilter != "" {
		return places.Query{Where: filterExpression(p.GlobalFilter)}
	}

	q := places.Query{
		Limit:  pageSize,
		Offset: pageIndex * pageSize,
	}
	if p.Sort.Column != "" {
		dir := "ASC"
		if p.Sort.Desc {
			dir = "DESC"
		}
		q.OrderBy = fmt.Sprintf("%s %s", p.Sort.Column, dir)
	}
	return q
}

// filterExpression quotes the search term as a full-text string literal
func filterExpression(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	term = strings.ReplaceAll(term, `"`, `\"`)
	return `"` + term + `"`
}
