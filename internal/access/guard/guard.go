// Package guard decides whether a user may act on a tenant's resources.
package guard

import (
	"estatehub/internal/access/models"
	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
)

// Authorize reports whether user holds action on resource.
func Authorize(user *models.User, resource string, action models.Action) bool {
	return user != nil && user.Active && user.Can(resource, action)
}

// AuthorizeTenant requires user to be a member of tenantID holding action on
// resource. Super admins have no tenant and are denied here.
func AuthorizeTenant(user *models.User, tenantID id.TenantID, resource string, action models.Action) error {
	if user == nil || !user.BelongsTo(tenantID) || !Authorize(user, resource, action) {
		return denied(resource, action)
	}
	return nil
}

// AuthorizeAdmin lets only active super admins through.
func AuthorizeAdmin(user *models.User) error {
	if user == nil || !user.Active || !user.IsSuperAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "permission denied")
	}
	return nil
}

func denied(resource string, action models.Action) error {
	return dErrors.WithDetails(dErrors.CodeForbidden, "permission denied", map[string]any{
		"resource": resource,
		"action":   string(action),
	})
}
