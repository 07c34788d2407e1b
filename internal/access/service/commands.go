package service

import (
	"strings"

	"estatehub/internal/access/models"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/secrets"
)

// CreateUserCommand contains input for adding a user to a tenant.
type CreateUserCommand struct {
	Email    string
	Name     string
	Password string
	Role     models.Role
}

func (c *CreateUserCommand) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(c.Email) == "" {
		fields["email"] = "email is required"
	}
	if strings.TrimSpace(c.Name) == "" {
		fields["name"] = "name is required"
	}
	if len(c.Password) < secrets.MinPasswordLength {
		fields["password"] = "must be at least 8 characters"
	}
	switch {
	case c.Role == models.RoleSuperAdmin:
		fields["role"] = "super_admin cannot be assigned to tenant users"
	case !c.Role.IsValid():
		fields["role"] = "must be one of tenant_admin, manager, agent, user"
	}
	if len(fields) > 0 {
		return dErrors.Validation("invalid user", fields)
	}
	return nil
}

// LoginResult is an issued access token for an authenticated user.
type LoginResult struct {
	User        *models.User
	AccessToken string
}
