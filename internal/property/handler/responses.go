package handler

import (
	"time"

	"estatehub/internal/property/models"
	"estatehub/internal/property/service"
)

type PropertyResponse struct {
	ID           string           `json:"id"`
	Slug         string           `json:"slug"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	PropertyType models.Type      `json:"property_type"`
	Purpose      models.Purpose   `json:"purpose"`
	Status       models.Status    `json:"status"`
	Featured     bool             `json:"featured"`
	Tags         []string         `json:"tags"`
	Pricing      models.Pricing   `json:"pricing"`
	Location     models.Location  `json:"location"`
	Features     models.Features  `json:"features"`
	Analytics    models.Analytics `json:"analytics"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type SummaryResponse struct {
	Properties int                 `json:"properties"`
	Views      int64               `json:"views"`
	Leads      int64               `json:"leads"`
	Favorites  int64               `json:"favorites"`
	TopViewed  []*PropertyResponse `json:"top_viewed"`
}

func toPropertyResponse(p *models.Property) *PropertyResponse {
	if p == nil {
		return nil
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return &PropertyResponse{
		ID:           p.ID.String(),
		Slug:         p.Slug,
		Title:        p.Title,
		Description:  p.Description,
		PropertyType: p.PropertyType,
		Purpose:      p.Purpose,
		Status:       p.Status,
		Featured:     p.Featured,
		Tags:         tags,
		Pricing:      p.Pricing,
		Location:     p.Location,
		Features:     p.Features,
		Analytics:    p.Analytics,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toPropertyResponses(items []*models.Property) []*PropertyResponse {
	out := make([]*PropertyResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPropertyResponse(p))
	}
	return out
}

func toSummaryResponse(s *service.Summary) *SummaryResponse {
	return &SummaryResponse{
		Properties: s.Properties,
		Views:      s.Views,
		Leads:      s.Leads,
		Favorites:  s.Favorites,
		TopViewed:  toPropertyResponses(s.TopViewed),
	}
}
