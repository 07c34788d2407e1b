// Package query holds the catalog's filter, sort and pagination model and
// the in-memory evaluation of it. SQL stores translate the same model.
package query

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"estatehub/internal/property/models"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/platform/httputil"
)

// Filter is AND-composed; zero values mean "no constraint".
type Filter struct {
	PropertyType models.Type
	Purpose      models.Purpose
	Status       models.Status
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	City         string
	Search       string
	Featured     *bool
	MinBedrooms  *int
}

type Field string

const (
	FieldCreatedAt Field = "created_at"
	FieldUpdatedAt Field = "updated_at"
	FieldPrice     Field = "price"
	FieldTitle     Field = "title"
	FieldArea      Field = "area"
	FieldBedrooms  Field = "bedrooms"
	FieldViews     Field = "views"
	FieldYearBuilt Field = "year_built"
)

var sortFields = []Field{
	FieldCreatedAt, FieldUpdatedAt, FieldPrice, FieldTitle,
	FieldArea, FieldBedrooms, FieldViews, FieldYearBuilt,
}

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type Sort struct {
	Field     Field
	Direction Direction
}

// DefaultSort lists newest first.
var DefaultSort = Sort{Field: FieldCreatedAt, Direction: Desc}

// ParseSort validates raw sort parameters. Empty values fall back to the default.
func ParseSort(field, direction string) (Sort, error) {
	s := DefaultSort
	fields := map[string]string{}
	if field != "" {
		f := Field(strings.ToLower(field))
		if !slices.Contains(sortFields, f) {
			fields["sort"] = fmt.Sprintf("sort must be one of %s", strings.Join(fieldNames(), ", "))
		}
		s.Field = f
	}
	if direction != "" {
		d := Direction(strings.ToLower(direction))
		if d != Asc && d != Desc {
			fields["order"] = "order must be one of asc, desc"
		}
		s.Direction = d
	}
	if len(fields) > 0 {
		return Sort{}, dErrors.Validation("invalid sort", fields)
	}
	return s, nil
}

func fieldNames() []string {
	out := make([]string, len(sortFields))
	for i, f := range sortFields {
		out[i] = string(f)
	}
	return out
}

// Page is 1-indexed.
type Page struct {
	Number int
	Limit  int
}

func (p Page) Offset() int {
	if p.Limit < 1 {
		return 0
	}
	return httputil.Offset(p.Number, p.Limit)
}

type Result struct {
	Items []*models.Property
	Total int
}

// Matches reports whether p satisfies every constraint in f.
func (f Filter) Matches(p *models.Property) bool {
	if f.PropertyType != "" && p.PropertyType != f.PropertyType {
		return false
	}
	if f.Purpose != "" && p.Purpose != f.Purpose {
		return false
	}
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Featured != nil && p.Featured != *f.Featured {
		return false
	}
	if f.MinBedrooms != nil && (p.Features.Bedrooms == nil || *p.Features.Bedrooms < *f.MinBedrooms) {
		return false
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := p.EffectivePrice()
		if price == nil {
			return false
		}
		if f.MinPrice != nil && price.LessThan(*f.MinPrice) {
			return false
		}
		if f.MaxPrice != nil && price.GreaterThan(*f.MaxPrice) {
			return false
		}
	}
	if f.City != "" && !containsFold(p.Location.City, f.City) {
		return false
	}
	if f.Search != "" && !matchesSearch(p, f.Search) {
		return false
	}
	return true
}

func matchesSearch(p *models.Property, term string) bool {
	if containsFold(p.Title, term) || containsFold(p.Description, term) ||
		containsFold(p.Location.Address, term) || containsFold(p.Location.Neighborhood, term) {
		return true
	}
	return slices.ContainsFunc(p.Tags, func(tag string) bool { return containsFold(tag, term) })
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// Compare orders a and b by s. Missing values sort last in both directions
// and ties break on id ascending, so the order is total.
func (s Sort) Compare(a, b *models.Property) int {
	c := s.compareField(a, b)
	if c != 0 {
		return c
	}
	return a.ID.Compare(b.ID)
}

func (s Sort) compareField(a, b *models.Property) int {
	switch s.Field {
	case FieldCreatedAt:
		return s.directed(a.CreatedAt.Compare(b.CreatedAt))
	case FieldUpdatedAt:
		return s.directed(a.UpdatedAt.Compare(b.UpdatedAt))
	case FieldTitle:
		return s.directed(cmp.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)))
	case FieldViews:
		return s.directed(cmp.Compare(a.Analytics.Views, b.Analytics.Views))
	case FieldPrice:
		return nullable(s, a.EffectivePrice(), b.EffectivePrice(), func(x, y decimal.Decimal) int { return x.Cmp(y) })
	case FieldArea:
		return nullable(s, a.Features.Area, b.Features.Area, cmp.Compare[float64])
	case FieldBedrooms:
		return nullable(s, a.Features.Bedrooms, b.Features.Bedrooms, cmp.Compare[int])
	case FieldYearBuilt:
		return nullable(s, a.Features.YearBuilt, b.Features.YearBuilt, cmp.Compare[int])
	}
	return 0
}

func (s Sort) directed(c int) int {
	if s.Direction == Desc {
		return -c
	}
	return c
}

func nullable[T any](s Sort, a, b *T, compare func(x, y T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return s.directed(compare(*a, *b))
}

// Apply filters, sorts and paginates items. A page past the end yields no
// items and the full total.
func Apply(items []*models.Property, f Filter, s Sort, page Page) *Result {
	matched := make([]*models.Property, 0, len(items))
	for _, p := range items {
		if f.Matches(p) {
			matched = append(matched, p)
		}
	}
	slices.SortFunc(matched, s.Compare)

	res := &Result{Total: len(matched), Items: []*models.Property{}}
	start := page.Offset()
	if start >= len(matched) {
		return res
	}
	end := len(matched)
	if page.Limit > 0 {
		end = min(start+page.Limit, len(matched))
	}
	res.Items = matched[start:end]
	return res
}
