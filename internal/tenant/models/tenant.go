package models

import (
	"maps"
	"slices"
	"strings"
	"time"

	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
)

// Tenant is one branded storefront sharing the catalog backend.
type Tenant struct {
	ID               id.TenantID      `json:"id"`
	Slug             string           `json:"slug"`
	Domain           *string          `json:"domain,omitempty"`
	Name             string           `json:"name"`
	Status           Status           `json:"status"`
	Plan             Plan             `json:"plan"`
	Features         map[Feature]bool `json:"features"`
	Limits           map[LimitKey]int `json:"limits"`
	LicenseExpiresAt *time.Time       `json:"license_expires_at,omitempty"`
	LastActivityAt   *time.Time       `json:"last_activity_at,omitempty"`
	Branding         Branding         `json:"branding"`
	Contact          Contact          `json:"contact"`
	Business         Business         `json:"business"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type Branding struct {
	LogoURL        string `json:"logo_url,omitempty" validate:"omitempty,url,max=2048"`
	PrimaryColor   string `json:"primary_color,omitempty" validate:"hexcolor_or_empty"`
	SecondaryColor string `json:"secondary_color,omitempty" validate:"hexcolor_or_empty"`
}

type Contact struct {
	Email    string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone    string `json:"phone,omitempty" validate:"max=32"`
	WhatsApp string `json:"whatsapp,omitempty" validate:"max=32"`
	Address  string `json:"address,omitempty" validate:"max=256"`
}

type Business struct {
	DefaultCurrency     string   `json:"default_currency,omitempty" validate:"omitempty,currency"`
	SupportedCurrencies []string `json:"supported_currencies,omitempty" validate:"max=20,dive,currency"`
	Locale              string   `json:"locale,omitempty" validate:"max=16"`
	Timezone            string   `json:"timezone,omitempty" validate:"max=64"`
}

const maxNameLength = 128

// NewTenant builds an active tenant on plan with the plan's default features and limits.
func NewTenant(tenantID id.TenantID, slug, name string, plan Plan, now time.Time) (*Tenant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name cannot be empty")
	}
	if len(name) > maxNameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant name must be 128 characters or less")
	}
	if !ValidSlug(slug) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "tenant slug must be lowercase letters, digits and hyphens")
	}
	if !plan.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown plan")
	}
	return &Tenant{
		ID:        tenantID,
		Slug:      slug,
		Name:      name,
		Status:    StatusActive,
		Plan:      plan,
		Features:  DefaultFeatures(plan),
		Limits:    DefaultLimits(plan),
		Business:  Business{DefaultCurrency: "USD", SupportedCurrencies: []string{"USD"}, Locale: "en-US", Timezone: "UTC"},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// LicenseExpired reports whether the license has lapsed at now. A missing expiry never lapses.
func (t *Tenant) LicenseExpired(now time.Time) bool {
	return t.LicenseExpiresAt != nil && !now.Before(*t.LicenseExpiresAt)
}

// HasFeature reports whether feature is enabled. Absence is disabled.
func (t *Tenant) HasFeature(f Feature) bool {
	return t.Features[f]
}

// Limit returns the configured maximum for key; ok is false when unlimited.
func (t *Tenant) Limit(key LimitKey) (int, bool) {
	limit, ok := t.Limits[key]
	return limit, ok
}

// EnabledFeatures lists enabled features in a stable order.
func (t *Tenant) EnabledFeatures() []Feature {
	out := make([]Feature, 0, len(t.Features))
	for f, on := range t.Features {
		if on {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return out
}

// ChangeStatus moves the tenant to status. Setting the current status is a conflict.
func (t *Tenant) ChangeStatus(status Status, now time.Time) error {
	if !status.IsValid() {
		return dErrors.Validation("invalid status", map[string]string{"status": "must be one of active, inactive, suspended, trial"})
	}
	if t.Status == status {
		return dErrors.New(dErrors.CodeConflict, "tenant already has status "+string(status))
	}
	t.Status = status
	t.UpdatedAt = now
	return nil
}

// ChangePlan switches plan and resets features and limits to the plan defaults.
func (t *Tenant) ChangePlan(plan Plan, now time.Time) error {
	if !plan.IsValid() {
		return dErrors.Validation("invalid plan", map[string]string{"plan": "must be one of basic, professional, enterprise"})
	}
	t.Plan = plan
	t.Features = DefaultFeatures(plan)
	t.Limits = DefaultLimits(plan)
	t.UpdatedAt = now
	return nil
}

// Clone returns a deep copy, so a resolved tenant can be shared read-only across a request.
func (t *Tenant) Clone() *Tenant {
	if t == nil {
		return nil
	}
	c := *t
	c.Domain = clonePtr(t.Domain)
	c.LicenseExpiresAt = clonePtr(t.LicenseExpiresAt)
	c.LastActivityAt = clonePtr(t.LastActivityAt)
	c.Features = maps.Clone(t.Features)
	c.Limits = maps.Clone(t.Limits)
	c.Business.SupportedCurrencies = slices.Clone(t.Business.SupportedCurrencies)
	if c.Features == nil {
		c.Features = map[Feature]bool{}
	}
	if c.Limits == nil {
		c.Limits = map[LimitKey]int{}
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// ValidSlug reports whether s is a lowercase hyphenated identifier of 2..63 characters.
func ValidSlug(s string) bool {
	if len(s) < 2 || len(s) > 63 || s[0] == '-' || s[len(s)-1] == '-' {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return false
		}
	}
	return true
}
