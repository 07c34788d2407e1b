// Package service implements platform administration of tenants: creation with
// an initial administrator, listing, plan and status changes, and the dashboard.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"estatehub/internal/platform/events"
	"estatehub/internal/tenant/limits"
	tenantmetrics "estatehub/internal/tenant/metrics"
	"estatehub/internal/tenant/models"
	"estatehub/internal/tenant/readmodels"
	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/platform/httputil"
	"estatehub/pkg/platform/sentinel"
	"estatehub/pkg/platform/tracer"
	"estatehub/pkg/platform/tx"
)

type TenantStore interface {
	Create(ctx context.Context, tenant *models.Tenant) error
	Update(ctx context.Context, tenant *models.Tenant) error
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Tenant, error)
	List(ctx context.Context, offset, limit int) ([]*models.Tenant, int, error)
	CountByStatus(ctx context.Context) (map[models.Status]int, error)
}

// ResourceCounter counts rows of one tenant-owned resource (properties, users).
type ResourceCounter interface {
	CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error)
	CountAll(ctx context.Context) (int, error)
}

// AdminProvisioner creates the first tenant_admin of a new tenant. It runs
// inside the tenant creation unit of work.
type AdminProvisioner interface {
	ProvisionTenantAdmin(ctx context.Context, tenantID id.TenantID, admin InitialAdmin) (id.UserID, error)
}

// Service orchestrates tenant administration.
type Service struct {
	tenants    TenantStore
	properties ResourceCounter
	users      ResourceCounter
	admins     AdminProvisioner
	tx         tx.Runner
	publisher  events.Publisher
	logger     *slog.Logger
	metrics    *tenantmetrics.Metrics
	tracer     tracer.Tracer
	now        func() time.Time
}

func New(tenants TenantStore, properties, users ResourceCounter, admins AdminProvisioner, opts ...Option) *Service {
	s := &Service{
		tenants:    tenants,
		properties: properties,
		users:      users,
		admins:     admins,
		tx:         tx.NewMemory(),
		logger:     slog.Default(),
		tracer:     tracer.NewNoop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatedTenant is a new tenant together with its initial administrator.
type CreatedTenant struct {
	Tenant      *models.Tenant
	AdminUserID id.UserID
}

// CreateTenant creates the tenant and its initial tenant_admin in one unit of
// work: either both exist afterwards or neither does.
func (s *Service) CreateTenant(ctx context.Context, cmd *CreateTenantCommand) (*CreatedTenant, error) {
	if cmd.Plan == "" {
		cmd.Plan = models.PlanBasic
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	tenant, err := models.NewTenant(id.NewTenantID(), cmd.Slug, cmd.Name, cmd.Plan, now)
	if err != nil {
		return nil, err
	}
	if err := applyCreate(tenant, cmd); err != nil {
		return nil, err
	}

	var adminID id.UserID
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.tenants.Create(ctx, tenant); err != nil {
			return wrapTenantWriteErr(err, "failed to create tenant")
		}
		userID, err := s.admins.ProvisionTenantAdmin(ctx, tenant.ID, cmd.Admin)
		if err != nil {
			return err
		}
		adminID = userID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementTenantCreated()
	s.emit(ctx, events.TenantCreated, tenant, map[string]any{
		"slug":          tenant.Slug,
		"plan":          string(tenant.Plan),
		"admin_user_id": adminID.String(),
	})
	return &CreatedTenant{Tenant: tenant, AdminUserID: adminID}, nil
}

// ListTenants returns one page of tenants, newest first, and the total count.
func (s *Service) ListTenants(ctx context.Context, page, limit int) ([]*models.Tenant, int, error) {
	tenants, total, err := s.tenants.List(ctx, httputil.Offset(page, limit), limit)
	if err != nil {
		return nil, 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tenants")
	}
	return tenants, total, nil
}

// GetTenant fetches a tenant with its property and user counts.
func (s *Service) GetTenant(ctx context.Context, tenantID id.TenantID) (*readmodels.TenantDetails, error) {
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}
	tenant, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapTenantErr(err, "failed to load tenant")
	}

	details := &readmodels.TenantDetails{Tenant: tenant}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.properties.CountByTenant(gctx, tenantID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count properties")
		}
		details.PropertyCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.users.CountByTenant(gctx, tenantID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count users")
		}
		details.UserCount = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}

// UpdateTenant applies a partial update. Changing the plan resets features and
// limits to the new plan's defaults before explicit overrides are applied.
func (s *Service) UpdateTenant(ctx context.Context, tenantID id.TenantID, cmd *UpdateTenantCommand) (*models.Tenant, error) {
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var updated *models.Tenant
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		tenant, err := s.tenants.FindByID(ctx, tenantID)
		if err != nil {
			return wrapTenantErr(err, "failed to load tenant")
		}
		if err := applyUpdate(tenant, cmd, s.now()); err != nil {
			return err
		}
		if err := s.tenants.Update(ctx, tenant); err != nil {
			return wrapTenantWriteErr(err, "failed to update tenant")
		}
		updated = tenant
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.TenantUpdated, updated, map[string]any{"fields": cmd.ChangedFields()})
	return updated, nil
}

// ChangeStatus moves a tenant to status. Non-active tenants stop resolving immediately.
func (s *Service) ChangeStatus(ctx context.Context, tenantID id.TenantID, status models.Status) (*models.Tenant, error) {
	if err := requireTenantID(tenantID); err != nil {
		return nil, err
	}

	var (
		updated  *models.Tenant
		previous models.Status
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		tenant, err := s.tenants.FindByID(ctx, tenantID)
		if err != nil {
			return wrapTenantErr(err, "failed to load tenant")
		}
		previous = tenant.Status
		if err := tenant.ChangeStatus(status, s.now()); err != nil {
			return err
		}
		if err := s.tenants.Update(ctx, tenant); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update tenant")
		}
		updated = tenant
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit(ctx, events.TenantStatusChanged, updated, map[string]any{
		"from": string(previous),
		"to":   string(updated.Status),
	})
	return updated, nil
}

// Dashboard gathers platform-wide counts concurrently.
func (s *Service) Dashboard(ctx context.Context) (_ *readmodels.Dashboard, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanAdminDashboard)
	defer func() { span.End(err) }()

	var (
		byStatus   map[models.Status]int
		properties int
		users      int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.tenants.CountByStatus(gctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count tenants")
		}
		byStatus = counts
		return nil
	})
	g.Go(func() error {
		n, err := s.properties.CountAll(gctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count properties")
		}
		properties = n
		return nil
	})
	g.Go(func() error {
		n, err := s.users.CountAll(gctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count users")
		}
		users = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dashboard := &readmodels.Dashboard{
		TenantsByStatus: make(map[models.Status]int, 4),
		TotalProperties: properties,
		TotalUsers:      users,
	}
	for _, st := range []models.Status{models.StatusActive, models.StatusInactive, models.StatusSuspended, models.StatusTrial} {
		dashboard.TenantsByStatus[st] = byStatus[st]
		dashboard.TotalTenants += byStatus[st]
	}
	return dashboard, nil
}

func applyCreate(t *models.Tenant, cmd *CreateTenantCommand) error {
	t.Domain = cmd.Domain
	for f, on := range cmd.Features {
		t.Features[f] = on
	}
	applyLimits(t, cmd.Limits)
	t.LicenseExpiresAt = cmd.LicenseExpiresAt
	t.Branding = cmd.Branding
	t.Contact = cmd.Contact
	if cmd.Business != nil {
		t.Business = mergeBusiness(t.Business, *cmd.Business)
	}
	return checkDomainFeature(t)
}

func applyUpdate(t *models.Tenant, cmd *UpdateTenantCommand, now time.Time) error {
	if cmd.Plan != nil && *cmd.Plan != t.Plan {
		if err := t.ChangePlan(*cmd.Plan, now); err != nil {
			return err
		}
	}
	if cmd.Name != nil {
		t.Name = *cmd.Name
	}
	if cmd.Domain != nil {
		if *cmd.Domain == "" {
			t.Domain = nil
		} else {
			d := *cmd.Domain
			t.Domain = &d
		}
	}
	for f, on := range cmd.Features {
		t.Features[f] = on
	}
	applyLimits(t, cmd.Limits)
	if cmd.ClearLicense {
		t.LicenseExpiresAt = nil
	} else if cmd.LicenseExpiresAt != nil {
		exp := *cmd.LicenseExpiresAt
		t.LicenseExpiresAt = &exp
	}
	if cmd.Branding != nil {
		t.Branding = *cmd.Branding
	}
	if cmd.Contact != nil {
		t.Contact = *cmd.Contact
	}
	if cmd.Business != nil {
		t.Business = mergeBusiness(t.Business, *cmd.Business)
	}
	t.UpdatedAt = now
	return checkDomainFeature(t)
}

// applyLimits sets each limit; a nil value removes the limit (unlimited).
func applyLimits(t *models.Tenant, overrides map[models.LimitKey]*int) {
	for key, v := range overrides {
		if v == nil {
			delete(t.Limits, key)
			continue
		}
		t.Limits[key] = *v
	}
}

func mergeBusiness(base, in models.Business) models.Business {
	if in.DefaultCurrency != "" {
		base.DefaultCurrency = in.DefaultCurrency
	}
	if in.SupportedCurrencies != nil {
		base.SupportedCurrencies = in.SupportedCurrencies
	}
	if in.Locale != "" {
		base.Locale = in.Locale
	}
	if in.Timezone != "" {
		base.Timezone = in.Timezone
	}
	return base
}

// checkDomainFeature rejects a custom domain on a tenant without the custom_domain feature.
func checkDomainFeature(t *models.Tenant) error {
	if t.Domain == nil {
		return nil
	}
	return limits.RequireFeature(t, models.FeatureCustomDomain)
}

func (s *Service) emit(ctx context.Context, eventType string, t *models.Tenant, data map[string]any) {
	s.logger.InfoContext(ctx, eventType,
		"log_type", "audit",
		"tenant_id", t.ID.String(),
		"tenant_slug", t.Slug,
	)
	if s.publisher != nil {
		s.publisher.Publish(ctx, events.New(ctx, eventType, "tenant", t.ID.String(), t.ID.String(), data))
	}
}

func requireTenantID(tenantID id.TenantID) error {
	if tenantID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "tenant ID required")
	}
	return nil
}

// Error wrapping helpers translate sentinel errors to domain errors.

func wrapTenantErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}

func wrapTenantWriteErr(err error, action string) error {
	if errors.Is(err, sentinel.ErrDuplicate) {
		if strings.Contains(err.Error(), "domain must be unique") {
			return dErrors.New(dErrors.CodeConflict, "tenant domain already in use")
		}
		return dErrors.New(dErrors.CodeConflict, "tenant slug already in use")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, action)
}
