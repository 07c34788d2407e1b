package handler

import (
	"errors"
	"maps"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"estatehub/internal/property/models"
	"estatehub/internal/property/query"
	"estatehub/internal/property/service"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/platform/httputil"
	strutil "estatehub/pkg/platform/strings"
	pvalidation "estatehub/pkg/platform/validation"
	"estatehub/pkg/validation"
)

// HTTP Request DTOs. Analytics counters are not client-settable and have no field here.

type CreatePropertyRequest struct {
	Title        string          `json:"title" validate:"notblank,max=200"`
	Description  string          `json:"description" validate:"max=10000"`
	PropertyType string          `json:"property_type" validate:"required"`
	Purpose      string          `json:"purpose" validate:"required"`
	Status       string          `json:"status,omitempty"`
	Featured     bool            `json:"featured"`
	Tags         []string        `json:"tags,omitempty" validate:"max=30,dive,max=50"`
	Pricing      models.Pricing  `json:"pricing"`
	Location     models.Location `json:"location"`
	Features     models.Features `json:"features"`
}

func (r *CreatePropertyRequest) Normalize() {
	if r == nil {
		return
	}
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.PropertyType = strings.ToLower(strings.TrimSpace(r.PropertyType))
	r.Purpose = strings.ToLower(strings.TrimSpace(r.Purpose))
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	normalizePricing(&r.Pricing)
	normalizeLocation(&r.Location)
}

func (r *CreatePropertyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *CreatePropertyRequest) ToCommand() *service.CreatePropertyCommand {
	return &service.CreatePropertyCommand{
		Title:        r.Title,
		Description:  r.Description,
		PropertyType: models.Type(r.PropertyType),
		Purpose:      models.Purpose(r.Purpose),
		Status:       models.Status(r.Status),
		Featured:     r.Featured,
		Tags:         r.Tags,
		Pricing:      r.Pricing,
		Location:     r.Location,
		Features:     r.Features,
	}
}

type UpdatePropertyRequest struct {
	Title        *string          `json:"title,omitempty" validate:"omitempty,notblank,max=200"`
	Description  *string          `json:"description,omitempty" validate:"omitempty,max=10000"`
	PropertyType *string          `json:"property_type,omitempty"`
	Purpose      *string          `json:"purpose,omitempty"`
	Status       *string          `json:"status,omitempty"`
	Featured     *bool            `json:"featured,omitempty"`
	Tags         *[]string        `json:"tags,omitempty" validate:"omitempty,max=30,dive,max=50"`
	Pricing      *models.Pricing  `json:"pricing,omitempty"`
	Location     *models.Location `json:"location,omitempty"`
	Features     *models.Features `json:"features,omitempty"`
}

func (r *UpdatePropertyRequest) Normalize() {
	if r == nil {
		return
	}
	r.Title = strutil.TrimSpacePtr(r.Title)
	r.Description = strutil.TrimSpacePtr(r.Description)
	r.PropertyType = lowerPtr(r.PropertyType)
	r.Purpose = lowerPtr(r.Purpose)
	r.Status = lowerPtr(r.Status)
	if r.Pricing != nil {
		normalizePricing(r.Pricing)
	}
	if r.Location != nil {
		normalizeLocation(r.Location)
	}
}

// Validate checks only the request shape. Value objects are validated on the merged listing.
func (r *UpdatePropertyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	fields := pvalidation.Fields{}
	if r.Title != nil {
		fields.MaxLength("title", *r.Title, pvalidation.MaxTitleLength)
	}
	if r.Tags != nil {
		fields.MaxCount("tags", len(*r.Tags), pvalidation.MaxTags)
	}
	return fields.Err("invalid property update")
}

func (r *UpdatePropertyRequest) ToCommand() *service.UpdatePropertyCommand {
	cmd := &service.UpdatePropertyCommand{
		Title:       r.Title,
		Description: r.Description,
		Featured:    r.Featured,
		Tags:        r.Tags,
		Pricing:     r.Pricing,
		Location:    r.Location,
		Features:    r.Features,
	}
	if r.PropertyType != nil {
		t := models.Type(*r.PropertyType)
		cmd.PropertyType = &t
	}
	if r.Purpose != nil {
		p := models.Purpose(*r.Purpose)
		cmd.Purpose = &p
	}
	if r.Status != nil {
		s := models.Status(*r.Status)
		cmd.Status = &s
	}
	return cmd
}

// parseListQuery reads catalog filters, sort and pagination from the query
// string. Public reads see active listings unless a status is requested.
func parseListQuery(r *http.Request, maxPageSize int) (service.ListQuery, error) {
	q := r.URL.Query()
	fields := map[string]string{}
	var f query.Filter

	if v := strings.ToLower(q.Get("property_type")); v != "" {
		if !models.Type(v).IsValid() {
			fields["property_type"] = "unknown property_type"
		}
		f.PropertyType = models.Type(v)
	}
	if v := strings.ToLower(q.Get("purpose")); v != "" {
		if !models.Purpose(v).IsValid() {
			fields["purpose"] = "purpose must be one of sale, rent, lease"
		}
		f.Purpose = models.Purpose(v)
	}
	f.Status = models.StatusActive
	if v := strings.ToLower(q.Get("status")); v != "" {
		if !models.Status(v).IsValid() {
			fields["status"] = "unknown status"
		}
		f.Status = models.Status(v)
	}
	f.MinPrice = parseDecimal(q.Get("min_price"), "min_price", fields)
	f.MaxPrice = parseDecimal(q.Get("max_price"), "max_price", fields)
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		fields["min_price"] = "min_price must not exceed max_price"
	}
	f.City = strings.TrimSpace(q.Get("city"))
	f.Search = strings.TrimSpace(q.Get("search"))
	pvalidation.Fields(fields).MaxLength("search", f.Search, pvalidation.MaxSearchLength)
	if v := q.Get("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fields["featured"] = "featured must be true or false"
		}
		f.Featured = &b
	}
	if v := q.Get("min_bedrooms"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			fields["min_bedrooms"] = "min_bedrooms must be a non-negative integer"
		}
		f.MinBedrooms = &n
	}

	sort, sortErr := query.ParseSort(q.Get("sort"), q.Get("order"))
	if sortErr != nil {
		maps.Copy(fields, validationFields(sortErr))
	}
	page, limit, pageErr := httputil.PageParams(r, maxPageSize)
	if pageErr != nil {
		maps.Copy(fields, validationFields(pageErr))
	}
	if len(fields) > 0 {
		return service.ListQuery{}, dErrors.Validation("invalid catalog query", fields)
	}
	return service.ListQuery{Filter: f, Sort: sort, Page: query.Page{Number: page, Limit: limit}}, nil
}

// maxPriceLength fits 16 integer digits, a point and 2 decimals with room
// for exponent notation.
const maxPriceLength = 32

func parseDecimal(raw, field string, fields map[string]string) *decimal.Decimal {
	if raw == "" {
		return nil
	}
	if len(raw) > maxPriceLength {
		fields[field] = field + " must be a non-negative number"
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		fields[field] = field + " must be a non-negative number"
		return nil
	}
	if msg := models.CheckPrice(d); msg != "" {
		fields[field] = field + " " + msg
		return nil
	}
	return &d
}

func validationFields(err error) map[string]string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Fields
	}
	return nil
}

func normalizePricing(p *models.Pricing) {
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	p.RentPeriod = models.RentPeriod(strings.ToLower(string(p.RentPeriod)))
	if len(p.Secondary) == 0 {
		return
	}
	upper := make(map[string]decimal.Decimal, len(p.Secondary))
	for cur, v := range p.Secondary {
		upper[strings.ToUpper(strings.TrimSpace(cur))] = v
	}
	p.Secondary = upper
}

func normalizeLocation(l *models.Location) {
	l.Address = strings.TrimSpace(l.Address)
	l.Neighborhood = strings.TrimSpace(l.Neighborhood)
	l.City = strings.TrimSpace(l.City)
	l.State = strings.TrimSpace(l.State)
	l.Country = strings.TrimSpace(l.Country)
}

func lowerPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToLower(strings.TrimSpace(*s))
	return &v
}
