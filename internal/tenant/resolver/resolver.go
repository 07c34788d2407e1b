// Package resolver maps an inbound request to exactly one tenant.
//
// Signals are consulted in priority order, first match wins:
// X-Tenant-Slug header, ?tenant= query parameter, request subdomain, custom domain.
package resolver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tenantmetrics "estatehub/internal/tenant/metrics"
	"estatehub/internal/tenant/models"
	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/platform/sentinel"
	"estatehub/pkg/platform/tracer"
	"estatehub/pkg/requestcontext"
)

const (
	HeaderTenantSlug = "X-Tenant-Slug"
	QueryTenant      = "tenant"
)

// Source names the signal a tenant was resolved from.
type Source string

const (
	SourceHeader    Source = "header"
	SourceQuery     Source = "query"
	SourceSubdomain Source = "subdomain"
	SourceDomain    Source = "domain"
)

type Store interface {
	FindBySlug(ctx context.Context, slug string) (*models.Tenant, error)
	FindByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	TouchActivity(ctx context.Context, tenantID id.TenantID, at time.Time) error
}

// Throttler gates activity touches so a busy tenant is written at most once per interval.
type Throttler interface {
	Allow(ctx context.Context, key string, interval time.Duration) (bool, error)
}

type Config struct {
	PlatformDomain     string
	ReservedSubdomains []string
	TouchInterval      time.Duration
	TouchTimeout       time.Duration
}

// Resolver resolves tenants and records their activity.
type Resolver struct {
	store     Store
	cfg       Config
	logger    *slog.Logger
	metrics   *tenantmetrics.Metrics
	tracer    tracer.Tracer
	throttler Throttler
	now       func() time.Time

	touches sync.WaitGroup
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(r *Resolver) { r.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(r *Resolver) { r.tracer = t }
}

func WithThrottler(t Throttler) Option {
	return func(r *Resolver) { r.throttler = t }
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

func New(store Store, cfg Config, opts ...Option) *Resolver {
	if cfg.ReservedSubdomains == nil {
		cfg.ReservedSubdomains = []string{"www", "api"}
	}
	if cfg.TouchTimeout == 0 {
		cfg.TouchTimeout = 2 * time.Second
	}
	cfg.PlatformDomain = strings.ToLower(strings.Trim(cfg.PlatformDomain, ". "))
	r := &Resolver{
		store:  store,
		cfg:    cfg,
		logger: slog.Default(),
		tracer: tracer.NewNoop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve identifies the tenant for req. It fails with tenant_required when the
// request carries no tenant signal (including a host that is no tenant's custom
// domain), tenant_not_found when the signal matches no active tenant, and license_expired when the matched tenant's license lapsed.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (tenant *models.Tenant, err error) {
	start := time.Now()
	ctx, span := r.tracer.Start(ctx, tracer.SpanTenantResolve)
	defer func() { span.End(err) }()

	tenant, source, err := r.lookup(ctx, req)
	if err != nil {
		r.metrics.IncrementResolveOutcome(string(dErrors.CodeOf(err)))
		return nil, err
	}
	span.SetAttributes(
		tracer.String(tracer.AttrTenantID, tenant.ID.String()),
		tracer.String(tracer.AttrTenantSlug, tenant.Slug),
		tracer.String(tracer.AttrResolvedBy, string(source)),
	)

	if tenant.LicenseExpired(r.now()) {
		r.metrics.IncrementResolveOutcome(string(dErrors.CodeLicenseExpired))
		return nil, dErrors.New(dErrors.CodeLicenseExpired, "tenant license has expired")
	}

	r.metrics.ObserveResolve(string(source), start)
	r.metrics.IncrementResolveOutcome("resolved")
	r.touchActivity(ctx, tenant.ID)
	return tenant, nil
}

func (r *Resolver) lookup(ctx context.Context, req *http.Request) (*models.Tenant, Source, error) {
	if slug := strings.ToLower(strings.TrimSpace(req.Header.Get(HeaderTenantSlug))); slug != "" {
		t, err := r.activeBySlug(ctx, slug)
		return t, SourceHeader, err
	}
	if slug := strings.ToLower(strings.TrimSpace(req.URL.Query().Get(QueryTenant))); slug != "" {
		t, err := r.activeBySlug(ctx, slug)
		return t, SourceQuery, err
	}

	host := normalizeHost(req.Host)
	if isLocalHost(host) || isIP(host) {
		return nil, "", dErrors.New(dErrors.CodeTenantRequired, "tenant identification required")
	}

	sub := subdomainOf(host, r.cfg.PlatformDomain, r.cfg.ReservedSubdomains)
	if sub != "" {
		t, err := r.activeBySlug(ctx, sub)
		if err == nil {
			return t, SourceSubdomain, nil
		}
		if !dErrors.HasCode(err, dErrors.CodeTenantNotFound) {
			return nil, SourceSubdomain, err
		}
		// Subdomain miss: the same host may still be a tenant's custom domain.
	}

	t, err := r.store.FindByDomain(ctx, host)
	if sub == "" && errors.Is(err, sentinel.ErrNotFound) {
		// A bare host that is nobody's domain carries no tenant signal.
		return nil, SourceDomain, dErrors.New(dErrors.CodeTenantRequired, "tenant identification required")
	}
	t, err = r.active(t, err)
	return t, SourceDomain, err
}

func (r *Resolver) activeBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	return r.active(r.store.FindBySlug(ctx, slug))
}

func (r *Resolver) active(t *models.Tenant, err error) (*models.Tenant, error) {
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeTenantNotFound, "tenant not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve tenant")
	}
	if !t.IsActive() {
		return nil, dErrors.New(dErrors.CodeTenantNotFound, "tenant not found")
	}
	return t, nil
}

// touchActivity updates last_activity_at in the background. Failures are logged only.
func (r *Resolver) touchActivity(ctx context.Context, tenantID id.TenantID) {
	at := r.now()
	requestID := requestcontext.RequestID(ctx)
	r.touches.Add(1)
	go func() {
		defer r.touches.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.TouchTimeout)
		defer cancel()

		if r.throttler != nil && r.cfg.TouchInterval > 0 {
			allowed, err := r.throttler.Allow(ctx, tenantID.String(), r.cfg.TouchInterval)
			if err != nil {
				r.logger.WarnContext(ctx, "activity throttle unavailable",
					"tenant_id", tenantID.String(),
					"request_id", requestID,
					"error", err,
				)
			} else if !allowed {
				return
			}
		}

		if err := r.store.TouchActivity(ctx, tenantID, at); err != nil {
			r.metrics.IncrementActivityTouchFailure()
			r.logger.WarnContext(ctx, "failed to update tenant activity",
				"tenant_id", tenantID.String(),
				"request_id", requestID,
				"error", err,
			)
		}
	}()
}

// Wait blocks until in-flight activity touches finish.
func (r *Resolver) Wait() {
	r.touches.Wait()
}
