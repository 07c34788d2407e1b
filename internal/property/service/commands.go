package service

import (
	"slices"

	"estatehub/internal/property/models"
	"estatehub/internal/property/query"
)

// CreatePropertyCommand carries the client-settable fields of a new listing.
// Analytics counters are never part of it.
type CreatePropertyCommand struct {
	Title        string
	Description  string
	PropertyType models.Type
	Purpose      models.Purpose
	Status       models.Status
	Featured     bool
	Tags         []string
	Pricing      models.Pricing
	Location     models.Location
	Features     models.Features
}

// UpdatePropertyCommand is a partial update; nil fields are left unchanged.
// Value objects are replaced as a whole.
type UpdatePropertyCommand struct {
	Title        *string
	Description  *string
	PropertyType *models.Type
	Purpose      *models.Purpose
	Status       *models.Status
	Featured     *bool
	Tags         *[]string
	Pricing      *models.Pricing
	Location     *models.Location
	Features     *models.Features
}

func (c *UpdatePropertyCommand) IsEmpty() bool {
	return c.Title == nil && c.Description == nil && c.PropertyType == nil && c.Purpose == nil &&
		c.Status == nil && c.Featured == nil && c.Tags == nil && c.Pricing == nil &&
		c.Location == nil && c.Features == nil
}

// ChangedFields names the fields present in the update, for audit events.
func (c *UpdatePropertyCommand) ChangedFields() []string {
	var out []string
	for name, set := range map[string]bool{
		"title":         c.Title != nil,
		"description":   c.Description != nil,
		"property_type": c.PropertyType != nil,
		"purpose":       c.Purpose != nil,
		"status":        c.Status != nil,
		"featured":      c.Featured != nil,
		"tags":          c.Tags != nil,
		"pricing":       c.Pricing != nil,
		"location":      c.Location != nil,
		"features":      c.Features != nil,
	} {
		if set {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

func (c *UpdatePropertyCommand) applyTo(p *models.Property) {
	if c.Title != nil {
		p.Title = *c.Title
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.PropertyType != nil {
		p.PropertyType = *c.PropertyType
	}
	if c.Purpose != nil {
		p.Purpose = *c.Purpose
	}
	if c.Status != nil {
		p.Status = *c.Status
	}
	if c.Featured != nil {
		p.Featured = *c.Featured
	}
	if c.Tags != nil {
		p.Tags = models.NormalizeTags(*c.Tags)
	}
	if c.Pricing != nil {
		p.Pricing = *c.Pricing
	}
	if c.Location != nil {
		p.Location = *c.Location
	}
	if c.Features != nil {
		p.Features = *c.Features
	}
}

// ListQuery is a parsed catalog list request.
type ListQuery struct {
	Filter query.Filter
	Sort   query.Sort
	Page   query.Page
}

// Summary is the analytics overview of one tenant's catalog.
type Summary struct {
	Properties int                `json:"properties"`
	Views      int64              `json:"views"`
	Leads      int64              `json:"leads"`
	Favorites  int64              `json:"favorites"`
	TopViewed  []*models.Property `json:"top_viewed"`
}
