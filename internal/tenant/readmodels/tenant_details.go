// Package readmodels contains query-optimized data structures for admin reads.
// These are separate from domain models so reporting can evolve independently.
package readmodels

import "estatehub/internal/tenant/models"

// TenantDetails is a tenant plus its usage counts, for the admin detail view.
type TenantDetails struct {
	Tenant        *models.Tenant
	PropertyCount int
	UserCount     int
}

// Dashboard aggregates platform-wide counts for the admin dashboard.
type Dashboard struct {
	TenantsByStatus map[models.Status]int
	TotalTenants    int
	TotalProperties int
	TotalUsers      int
}
