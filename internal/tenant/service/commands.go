package service

import (
	"slices"
	"strings"
	"time"

	"estatehub/internal/tenant/models"
	dErrors "estatehub/pkg/domain-errors"
)

const maxNameLength = 128

// InitialAdmin describes the tenant_admin account created with a tenant.
type InitialAdmin struct {
	Email    string
	Name     string
	Password string
}

// CreateTenantCommand contains input for tenant creation. Empty features and
// limits fall back to the plan defaults; entries present override them.
type CreateTenantCommand struct {
	Slug             string
	Name             string
	Domain           *string
	Plan             models.Plan
	Features         map[models.Feature]bool
	Limits           map[models.LimitKey]*int
	LicenseExpiresAt *time.Time
	Branding         models.Branding
	Contact          models.Contact
	Business         *models.Business
	Admin            InitialAdmin
}

func (c *CreateTenantCommand) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(c.Name) == "" {
		fields["name"] = "name is required"
	} else if len(c.Name) > maxNameLength {
		fields["name"] = "name must be 128 characters or less"
	}
	if !models.ValidSlug(c.Slug) {
		fields["slug"] = "slug must be 2-63 lowercase letters, digits or hyphens"
	}
	if !c.Plan.IsValid() {
		fields["plan"] = "plan must be one of basic, professional, enterprise"
	}
	if c.Domain != nil && !validDomain(*c.Domain) {
		fields["domain"] = "domain must be a fully qualified host name"
	}
	validateFeatures(c.Features, fields)
	validateLimits(c.Limits, fields)
	if c.Admin.Email == "" {
		fields["admin.email"] = "admin.email is required"
	}
	if c.Admin.Password == "" {
		fields["admin.password"] = "admin.password is required"
	}
	if len(fields) > 0 {
		return dErrors.Validation("invalid tenant", fields)
	}
	return nil
}

// UpdateTenantCommand contains a partial tenant update; nil means "don't change".
// An empty Domain clears the custom domain.
type UpdateTenantCommand struct {
	Name             *string
	Domain           *string
	Plan             *models.Plan
	Features         map[models.Feature]bool
	Limits           map[models.LimitKey]*int
	LicenseExpiresAt *time.Time
	ClearLicense     bool
	Branding         *models.Branding
	Contact          *models.Contact
	Business         *models.Business
}

func (c *UpdateTenantCommand) Validate() error {
	if c.IsEmpty() {
		return dErrors.New(dErrors.CodeBadRequest, "no fields to update")
	}
	fields := map[string]string{}
	if c.Name != nil {
		if strings.TrimSpace(*c.Name) == "" {
			fields["name"] = "name cannot be empty"
		} else if len(*c.Name) > maxNameLength {
			fields["name"] = "name must be 128 characters or less"
		}
	}
	if c.Plan != nil && !c.Plan.IsValid() {
		fields["plan"] = "plan must be one of basic, professional, enterprise"
	}
	if c.Domain != nil && *c.Domain != "" && !validDomain(*c.Domain) {
		fields["domain"] = "domain must be a fully qualified host name"
	}
	if c.ClearLicense && c.LicenseExpiresAt != nil {
		fields["license_expires_at"] = "cannot both set and clear the license"
	}
	validateFeatures(c.Features, fields)
	validateLimits(c.Limits, fields)
	if len(fields) > 0 {
		return dErrors.Validation("invalid tenant update", fields)
	}
	return nil
}

// IsEmpty returns true if the command contains no updates.
func (c *UpdateTenantCommand) IsEmpty() bool {
	return len(c.ChangedFields()) == 0
}

// ChangedFields lists the JSON names of the fields the update touches.
func (c *UpdateTenantCommand) ChangedFields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(c.Name != nil, "name")
	add(c.Domain != nil, "domain")
	add(c.Plan != nil, "plan")
	add(len(c.Features) > 0, "features")
	add(len(c.Limits) > 0, "limits")
	add(c.LicenseExpiresAt != nil || c.ClearLicense, "license_expires_at")
	add(c.Branding != nil, "branding")
	add(c.Contact != nil, "contact")
	add(c.Business != nil, "business")
	return out
}

func validateFeatures(features map[models.Feature]bool, fields map[string]string) {
	for f := range features {
		if !f.IsValid() {
			fields["features."+string(f)] = "unknown feature"
		}
	}
}

func validateLimits(limits map[models.LimitKey]*int, fields map[string]string) {
	for key, v := range limits {
		switch {
		case !key.IsValid():
			fields["limits."+string(key)] = "unknown limit"
		case v != nil && *v < 0:
			fields["limits."+string(key)] = "limit must be at least 0"
		}
	}
}

// validDomain accepts lower-case host names with at least two labels.
func validDomain(d string) bool {
	if len(d) > 253 || !strings.Contains(d, ".") {
		return false
	}
	return !slices.ContainsFunc(strings.Split(d, "."), func(label string) bool {
		return !validLabel(label)
	})
}

func validLabel(label string) bool {
	if len(label) == 1 {
		c := label[0]
		return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
	}
	return models.ValidSlug(label)
}
