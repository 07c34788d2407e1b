package models

import (
	"maps"
	"net/mail"
	"strings"
	"time"

	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
)

// Role is a named permission set.
type Role string

const (
	RoleSuperAdmin  Role = "super_admin"
	RoleTenantAdmin Role = "tenant_admin"
	RoleManager     Role = "manager"
	RoleAgent       Role = "agent"
	RoleUser        Role = "user"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSuperAdmin, RoleTenantAdmin, RoleManager, RoleAgent, RoleUser:
		return true
	}
	return false
}

// Action is an operation on a resource.
type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Resource names guarded by permissions.
const (
	ResourceProperties = "properties"
	ResourceUsers      = "users"
	ResourceAnalytics  = "analytics"
)

// Actions holds the allowed operations on one resource.
type Actions struct {
	Create bool `json:"create"`
	Read   bool `json:"read"`
	Update bool `json:"update"`
	Delete bool `json:"delete"`
}

// Allows reports whether action is granted. Unknown actions are denied.
func (a Actions) Allows(action Action) bool {
	switch action {
	case ActionCreate:
		return a.Create
	case ActionRead:
		return a.Read
	case ActionUpdate:
		return a.Update
	case ActionDelete:
		return a.Delete
	}
	return false
}

// Permissions maps a resource to its allowed actions.
type Permissions map[string]Actions

var (
	crud = Actions{Create: true, Read: true, Update: true, Delete: true}
	cru  = Actions{Create: true, Read: true, Update: true}
	read = Actions{Read: true}
)

// DefaultPermissions returns the permission set a new user with role receives.
// Super admins get none; admin endpoints check the role instead.
func DefaultPermissions(role Role) Permissions {
	switch role {
	case RoleTenantAdmin:
		return Permissions{ResourceProperties: crud, ResourceUsers: crud, ResourceAnalytics: read}
	case RoleManager:
		return Permissions{ResourceProperties: crud, ResourceUsers: read, ResourceAnalytics: read}
	case RoleAgent:
		return Permissions{ResourceProperties: cru}
	case RoleUser:
		return Permissions{ResourceProperties: read}
	}
	return Permissions{}
}

// User is an account of a tenant, or a platform super admin with no tenant.
type User struct {
	ID           id.UserID    `json:"id"`
	TenantID     *id.TenantID `json:"tenant_id,omitempty"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"-"`
	Role         Role         `json:"role"`
	Permissions  Permissions  `json:"permissions"`
	Active       bool         `json:"active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewUser builds an active user with the default permissions of role.
func NewUser(userID id.UserID, tenantID *id.TenantID, email, name string, role Role, passwordHash string, now time.Time) (*User, error) {
	email = NormalizeEmail(email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user email is invalid")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user name cannot be empty")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown role")
	}
	if role != RoleSuperAdmin && (tenantID == nil || tenantID.IsNil()) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "non-admin users must belong to a tenant")
	}
	if passwordHash == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user password hash cannot be empty")
	}
	var tid *id.TenantID
	if tenantID != nil && !tenantID.IsNil() {
		v := *tenantID
		tid = &v
	}
	return &User{
		ID:           userID,
		TenantID:     tid,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
		Permissions:  DefaultPermissions(role),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail lower-cases and trims email for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) IsSuperAdmin() bool {
	return u.Role == RoleSuperAdmin
}

// BelongsTo reports whether u is a member of tenantID.
func (u *User) BelongsTo(tenantID id.TenantID) bool {
	return u.TenantID != nil && *u.TenantID == tenantID
}

// Can reports whether u holds action on resource. Absence is deny.
func (u *User) Can(resource string, action Action) bool {
	actions, ok := u.Permissions[resource]
	return ok && actions.Allows(action)
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.TenantID != nil {
		tid := *u.TenantID
		c.TenantID = &tid
	}
	c.Permissions = maps.Clone(u.Permissions)
	return &c
}
