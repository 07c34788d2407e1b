// Package service manages tenant users and authenticates bearer principals.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"estatehub/internal/access/models"
	"estatehub/internal/platform/events"
	tenantmodels "estatehub/internal/tenant/models"
	tenantservice "estatehub/internal/tenant/service"
	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/platform/httputil"
	"estatehub/pkg/platform/sentinel"
	"estatehub/pkg/platform/tx"
	"estatehub/pkg/secrets"
)

// Store is the user storage boundary.
type Store interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListByTenant(ctx context.Context, tenantID id.TenantID, offset, limit int) ([]*models.User, int, error)
	ExistsSuperAdmin(ctx context.Context) (bool, error)
}

// QuotaEnforcer is satisfied by *limits.Guard.
type QuotaEnforcer interface {
	Enforce(ctx context.Context, tenant *tenantmodels.Tenant, kind tenantmodels.LimitKey) error
}

// TokenIssuer is satisfied by *token.Service.
type TokenIssuer interface {
	Issue(ctx context.Context, user *models.User) (string, error)
}

var _ tenantservice.AdminProvisioner = (*Service)(nil)

type Service struct {
	store     Store
	quota     QuotaEnforcer
	tokens    TokenIssuer
	tx        tx.Runner
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
	hashCost  int
}

func New(store Store, quota QuotaEnforcer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		quota:    quota,
		tx:       tx.NewMemory(),
		logger:   slog.Default(),
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authenticate loads the principal for a verified token subject.
// Unknown and inactive users are both unauthorized.
func (s *Service) Authenticate(ctx context.Context, userID id.UserID) (*models.User, error) {
	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "user not found or inactive")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if !u.Active {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "user not found or inactive")
	}
	return u, nil
}

// Login verifies email and password and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if s.tokens == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "token issuing is not configured")
	}
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if err := secrets.Verify(password, u.PasswordHash); err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	accessToken, err := s.tokens.Issue(ctx, u)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user.login",
		"log_type", "audit",
		"user_id", u.ID.String(),
	)
	return &LoginResult{User: u, AccessToken: accessToken}, nil
}

// CreateUser adds a user to tenant under the max_users plan limit.
func (s *Service) CreateUser(ctx context.Context, tenant *tenantmodels.Tenant, cmd *CreateUserCommand) (*models.User, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	hash, err := secrets.HashWithCost(cmd.Password, s.hashCost)
	if err != nil {
		return nil, err
	}

	var created *models.User
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.quota.Enforce(ctx, tenant, tenantmodels.LimitUsers); err != nil {
			return err
		}
		u, err := models.NewUser(id.NewUserID(), &tenant.ID, cmd.Email, cmd.Name, cmd.Role, hash, s.now())
		if err != nil {
			return err
		}
		if err := s.store.Create(ctx, u); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, wrapUserErr(err, "failed to create user")
	}

	s.emit(ctx, events.UserCreated, created)
	return created, nil
}

// ListUsers returns a page of tenant's users and the total.
func (s *Service) ListUsers(ctx context.Context, tenant *tenantmodels.Tenant, page, limit int) ([]*models.User, int, error) {
	users, total, err := s.store.ListByTenant(ctx, tenant.ID, httputil.Offset(page, limit), limit)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list users")
	}
	return users, total, nil
}

// ProvisionTenantAdmin creates the first tenant_admin of tenantID. It joins
// the caller's unit of work so the tenant and its admin commit together.
func (s *Service) ProvisionTenantAdmin(ctx context.Context, tenantID id.TenantID, admin tenantservice.InitialAdmin) (id.UserID, error) {
	hash, err := secrets.HashWithCost(admin.Password, s.hashCost)
	if err != nil {
		return id.UserID{}, err
	}
	var created *models.User
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		u, err := models.NewUser(id.NewUserID(), &tenantID, admin.Email, admin.Name, models.RoleTenantAdmin, hash, s.now())
		if err != nil {
			return dErrors.Validation("invalid tenant admin", map[string]string{"admin": err.Error()})
		}
		if err := s.store.Create(ctx, u); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return id.UserID{}, wrapUserErr(err, "failed to create tenant admin")
	}
	s.emit(ctx, events.UserCreated, created)
	return created.ID, nil
}

// BootstrapSuperAdmin makes sure a super admin with email exists. An existing
// super admin is returned unchanged; an existing non-admin account is a conflict.
func (s *Service) BootstrapSuperAdmin(ctx context.Context, email, name, password string) (*models.User, bool, error) {
	existing, err := s.store.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if !existing.IsSuperAdmin() {
			return nil, false, dErrors.New(dErrors.CodeConflict, "bootstrap email belongs to a tenant user")
		}
		return existing, false, nil
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load bootstrap admin")
	}

	hash, err := secrets.HashWithCost(password, s.hashCost)
	if err != nil {
		return nil, false, err
	}
	u, err := models.NewUser(id.NewUserID(), nil, email, name, models.RoleSuperAdmin, hash, s.now())
	if err != nil {
		return nil, false, err
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, false, wrapUserErr(err, "failed to create bootstrap admin")
	}
	s.emit(ctx, events.UserCreated, u)
	return u, true, nil
}

func (s *Service) emit(ctx context.Context, eventType string, u *models.User) {
	tenantID := ""
	if u.TenantID != nil {
		tenantID = u.TenantID.String()
	}
	s.logger.InfoContext(ctx, eventType,
		"log_type", "audit",
		"tenant_id", tenantID,
		"user_id", u.ID.String(),
		"role", string(u.Role),
	)
	if s.publisher != nil {
		s.publisher.Publish(ctx, events.New(ctx, eventType, "user", u.ID.String(), tenantID, map[string]any{
			"role": string(u.Role),
		}))
	}
}

func wrapUserErr(err error, msg string) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, sentinel.ErrDuplicate):
		return dErrors.New(dErrors.CodeConflict, "email already registered")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
