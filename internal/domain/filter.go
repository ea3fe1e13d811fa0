package domain

import (
	"fmt"
	"strings"
)

// Sort fields accepted by list endpoints
const (
	SortByCreatedAt = "created_at"
	SortByRating    = "rating"
	SortByPrice     = "price"
	SortByName      = "name"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListParams carries pagination and sorting for list endpoints
type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Normalize clamps pagination and defaults sorting
func (p ListParams) Normalize(allowedSorts ...string) ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit <= 0 || p.Limit > 100 {
		p.Limit = 20
	}
	valid := false
	for _, s := range allowedSorts {
		if p.SortBy == s {
			valid = true
			break
		}
	}
	if !valid {
		p.SortBy = SortByCreatedAt
	}
	if p.SortOrder != SortAsc {
		p.SortOrder = SortDesc
	}
	return p
}

// Offset converts page/limit into a SQL offset
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// CacheKey renders the params as a stable key fragment
func (p ListParams) CacheKey() string {
	return fmt.Sprintf("page:%d:limit:%d:sort:%s:%s", p.Page, p.Limit, p.SortBy, p.SortOrder)
}

// ReviewFilter holds the optional filters of review list endpoints.
// Presence is explicit so the predicate list and cache key are deterministic.
type ReviewFilter struct {
	Rating *int
}

// CacheKey renders the filter as a stable key fragment
func (f ReviewFilter) CacheKey() string {
	if f.Rating == nil {
		return "rating:any"
	}
	return fmt.Sprintf("rating:%d", *f.Rating)
}

// ProductFilter enumerates every optional filter of the product list
// endpoint with explicit presence. The query builder walks the fields in a
// fixed order, so identical filters always produce identical predicates and
// identical cache keys.
type ProductFilter struct {
	Search   *string
	Category *string
	PriceMin *float64
	PriceMax *float64
	Tags     []string
	Sizes    []string
	Colors   []string
}

// CacheKey renders the filter as a stable key fragment
func (f ProductFilter) CacheKey() string {
	var b strings.Builder
	writePart := func(name, val string) {
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(val)
		b.WriteByte(':')
	}
	if f.Search != nil {
		writePart("q", *f.Search)
	}
	if f.Category != nil {
		writePart("cat", *f.Category)
	}
	if f.PriceMin != nil {
		writePart("pmin", fmt.Sprintf("%.2f", *f.PriceMin))
	}
	if f.PriceMax != nil {
		writePart("pmax", fmt.Sprintf("%.2f", *f.PriceMax))
	}
	if len(f.Tags) > 0 {
		writePart("tags", strings.Join(f.Tags, ","))
	}
	if len(f.Sizes) > 0 {
		writePart("sizes", strings.Join(f.Sizes, ","))
	}
	if len(f.Colors) > 0 {
		writePart("colors", strings.Join(f.Colors, ","))
	}
	if b.Len() == 0 {
		return "all"
	}
	return strings.TrimSuffix(b.String(), ":")
}
