// Package property persists catalog listings. Every lookup is keyed by
// (tenant_id, id); a listing owned by another tenant is reported as not found.
package property

import (
	"time"

	"estatehub/internal/property/models"
	"estatehub/pkg/platform/sentinel"
)

// ErrNotFound is returned when a property does not exist for the tenant.
var ErrNotFound = sentinel.ErrNotFound

// Counter names a denormalized analytics counter.
type Counter string

const (
	CounterViews     Counter = "views"
	CounterLeads     Counter = "leads"
	CounterFavorites Counter = "favorites"
)

// Totals aggregates a tenant's analytics counters.
type Totals struct {
	Properties int
	Views      int64
	Leads      int64
	Favorites  int64
	TopViewed  []*models.Property
}

func apply(p *models.Property, c Counter, at time.Time) {
	switch c {
	case CounterViews:
		p.Analytics.Views++
		t := at
		p.Analytics.LastViewAt = &t
	case CounterLeads:
		p.Analytics.Leads++
	case CounterFavorites:
		p.Analytics.Favorites++
	}
}
