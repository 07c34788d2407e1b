package handler

import (
	"strings"
	"time"

	"estatehub/internal/tenant/models"
	"estatehub/internal/tenant/service"
	dErrors "estatehub/pkg/domain-errors"
	strutil "estatehub/pkg/platform/strings"
	"estatehub/pkg/validation"
)

// HTTP Request DTOs - contain JSON tags for API serialization.
// These are converted to service commands before processing.

type AdminRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Name     string `json:"name" validate:"required,max=128"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type CreateTenantRequest struct {
	Slug             string           `json:"slug" validate:"required,min=2,max=63"`
	Name             string           `json:"name" validate:"required,max=128"`
	Domain           *string          `json:"domain,omitempty" validate:"omitempty,fqdn,max=253"`
	Plan             string           `json:"plan" validate:"omitempty,oneof=basic professional enterprise"`
	Features         map[string]bool  `json:"features,omitempty"`
	Limits           map[string]*int  `json:"limits,omitempty"`
	LicenseExpiresAt *time.Time       `json:"license_expires_at,omitempty"`
	Branding         models.Branding  `json:"branding"`
	Contact          models.Contact   `json:"contact"`
	Business         *models.Business `json:"business,omitempty"`
	Admin            AdminRequest     `json:"admin"`
}

func (r *CreateTenantRequest) Normalize() {
	if r == nil {
		return
	}
	r.Slug = strings.ToLower(strings.TrimSpace(r.Slug))
	r.Name = strings.TrimSpace(r.Name)
	r.Plan = strings.ToLower(strings.TrimSpace(r.Plan))
	r.Domain = normalizeDomain(r.Domain)
	r.Admin.Email = strings.ToLower(strings.TrimSpace(r.Admin.Email))
	r.Admin.Name = strings.TrimSpace(r.Admin.Name)
	normalizeBusiness(r.Business)
}

func (r *CreateTenantRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

// ToCommand converts the HTTP request to a service command.
func (r *CreateTenantRequest) ToCommand() *service.CreateTenantCommand {
	return &service.CreateTenantCommand{
		Slug:             r.Slug,
		Name:             r.Name,
		Domain:           r.Domain,
		Plan:             models.Plan(r.Plan),
		Features:         toFeatures(r.Features),
		Limits:           toLimits(r.Limits),
		LicenseExpiresAt: r.LicenseExpiresAt,
		Branding:         r.Branding,
		Contact:          r.Contact,
		Business:         r.Business,
		Admin: service.InitialAdmin{
			Email:    r.Admin.Email,
			Name:     r.Admin.Name,
			Password: r.Admin.Password,
		},
	}
}

type UpdateTenantRequest struct {
	Name             *string          `json:"name,omitempty" validate:"omitempty,max=128"`
	Domain           *string          `json:"domain,omitempty" validate:"omitempty,max=253"`
	Plan             *string          `json:"plan,omitempty" validate:"omitempty,oneof=basic professional enterprise"`
	Features         map[string]bool  `json:"features,omitempty"`
	Limits           map[string]*int  `json:"limits,omitempty"`
	LicenseExpiresAt *time.Time       `json:"license_expires_at,omitempty"`
	ClearLicense     bool             `json:"clear_license,omitempty"`
	Branding         *models.Branding `json:"branding,omitempty"`
	Contact          *models.Contact  `json:"contact,omitempty"`
	Business         *models.Business `json:"business,omitempty"`
}

func (r *UpdateTenantRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strutil.TrimSpacePtr(r.Name)
	r.Domain = normalizeDomain(r.Domain)
	if r.Plan != nil {
		p := strings.ToLower(strings.TrimSpace(*r.Plan))
		r.Plan = &p
	}
	normalizeBusiness(r.Business)
}

func (r *UpdateTenantRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func (r *UpdateTenantRequest) ToCommand() *service.UpdateTenantCommand {
	cmd := &service.UpdateTenantCommand{
		Name:             r.Name,
		Domain:           r.Domain,
		Features:         toFeatures(r.Features),
		Limits:           toLimits(r.Limits),
		LicenseExpiresAt: r.LicenseExpiresAt,
		ClearLicense:     r.ClearLicense,
		Branding:         r.Branding,
		Contact:          r.Contact,
		Business:         r.Business,
	}
	if r.Plan != nil {
		plan := models.Plan(*r.Plan)
		cmd.Plan = &plan
	}
	return cmd
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active inactive suspended trial"`
}

func (r *ChangeStatusRequest) Normalize() {
	if r == nil {
		return
	}
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
}

func (r *ChangeStatusRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return validation.Validate(r)
}

func normalizeDomain(d *string) *string {
	if d == nil {
		return nil
	}
	v := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(*d)), ".")
	return &v
}

func normalizeBusiness(b *models.Business) {
	if b == nil {
		return
	}
	b.DefaultCurrency = strings.ToUpper(strings.TrimSpace(b.DefaultCurrency))
	if b.SupportedCurrencies != nil {
		b.SupportedCurrencies = strutil.Upper(b.SupportedCurrencies)
	}
}

func toFeatures(in map[string]bool) map[models.Feature]bool {
	if len(in) == 0 {
		return nil
	}
	out := make(map[models.Feature]bool, len(in))
	for k, v := range in {
		out[models.Feature(strings.ToLower(strings.TrimSpace(k)))] = v
	}
	return out
}

func toLimits(in map[string]*int) map[models.LimitKey]*int {
	if len(in) == 0 {
		return nil
	}
	out := make(map[models.LimitKey]*int, len(in))
	for k, v := range in {
		out[models.LimitKey(strings.ToLower(strings.TrimSpace(k)))] = v
	}
	return out
}
