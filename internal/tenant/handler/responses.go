package handler

import (
	"time"

	"estatehub/internal/tenant/models"
	"estatehub/internal/tenant/readmodels"
	"estatehub/internal/tenant/service"
)

type TenantResponse struct {
	ID               string                  `json:"id"`
	Slug             string                  `json:"slug"`
	Domain           *string                 `json:"domain,omitempty"`
	Name             string                  `json:"name"`
	Status           models.Status           `json:"status"`
	Plan             models.Plan             `json:"plan"`
	Features         map[models.Feature]bool `json:"features"`
	Limits           map[models.LimitKey]int `json:"limits"`
	LicenseExpiresAt *time.Time              `json:"license_expires_at,omitempty"`
	LastActivityAt   *time.Time              `json:"last_activity_at,omitempty"`
	Branding         models.Branding         `json:"branding"`
	Contact          models.Contact          `json:"contact"`
	Business         models.Business         `json:"business"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

type TenantCreateResponse struct {
	Tenant      *TenantResponse `json:"tenant"`
	AdminUserID string          `json:"admin_user_id"`
}

type TenantDetailsResponse struct {
	*TenantResponse
	PropertyCount int `json:"property_count"`
	UserCount     int `json:"user_count"`
}

// PublicConfigResponse is the storefront-safe subset of a tenant.
type PublicConfigResponse struct {
	Name     string           `json:"name"`
	Slug     string           `json:"slug"`
	Domain   *string          `json:"domain,omitempty"`
	Plan     models.Plan      `json:"plan"`
	Branding models.Branding  `json:"branding"`
	Contact  models.Contact   `json:"contact"`
	Business models.Business  `json:"business"`
	Features []models.Feature `json:"features"`
}

type DashboardResponse struct {
	TenantsByStatus map[models.Status]int `json:"tenants_by_status"`
	TotalTenants    int                   `json:"total_tenants"`
	TotalProperties int                   `json:"total_properties"`
	TotalUsers      int                   `json:"total_users"`
}

func toTenantResponse(t *models.Tenant) *TenantResponse {
	if t == nil {
		return nil
	}
	return &TenantResponse{
		ID:               t.ID.String(),
		Slug:             t.Slug,
		Domain:           t.Domain,
		Name:             t.Name,
		Status:           t.Status,
		Plan:             t.Plan,
		Features:         t.Features,
		Limits:           t.Limits,
		LicenseExpiresAt: t.LicenseExpiresAt,
		LastActivityAt:   t.LastActivityAt,
		Branding:         t.Branding,
		Contact:          t.Contact,
		Business:         t.Business,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func toTenantCreateResponse(c *service.CreatedTenant) *TenantCreateResponse {
	return &TenantCreateResponse{
		Tenant:      toTenantResponse(c.Tenant),
		AdminUserID: c.AdminUserID.String(),
	}
}

func toTenantDetailsResponse(d *readmodels.TenantDetails) *TenantDetailsResponse {
	return &TenantDetailsResponse{
		TenantResponse: toTenantResponse(d.Tenant),
		PropertyCount:  d.PropertyCount,
		UserCount:      d.UserCount,
	}
}

func toPublicConfigResponse(t *models.Tenant) *PublicConfigResponse {
	return &PublicConfigResponse{
		Name:     t.Name,
		Slug:     t.Slug,
		Domain:   t.Domain,
		Plan:     t.Plan,
		Branding: t.Branding,
		Contact:  t.Contact,
		Business: t.Business,
		Features: t.EnabledFeatures(),
	}
}

func toDashboardResponse(d *readmodels.Dashboard) *DashboardResponse {
	return &DashboardResponse{
		TenantsByStatus: d.TenantsByStatus,
		TotalTenants:    d.TotalTenants,
		TotalProperties: d.TotalProperties,
		TotalUsers:      d.TotalUsers,
	}
}

func toTenantResponses(tenants []*models.Tenant) []*TenantResponse {
	out := make([]*TenantResponse, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, toTenantResponse(t))
	}
	return out
}
