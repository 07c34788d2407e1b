// Package limits enforces plan quotas and feature gates for a resolved tenant.
package limits

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tenantmetrics "estatehub/internal/tenant/metrics"
	"estatehub/internal/tenant/models"
	id "estatehub/pkg/domain"
	dErrors "estatehub/pkg/domain-errors"
	"estatehub/pkg/platform/tracer"
	"estatehub/pkg/platform/tx"
)

// Counter counts the existing rows of one resource kind owned by a tenant.
type Counter interface {
	CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error)
}

// CounterFunc adapts a function to Counter.
type CounterFunc func(ctx context.Context, tenantID id.TenantID) (int, error)

func (f CounterFunc) CountByTenant(ctx context.Context, tenantID id.TenantID) (int, error) {
	return f(ctx, tenantID)
}

// Decision is the outcome of a quota check. Max is meaningful only when Limited.
type Decision struct {
	Allowed bool
	Current int
	Max     int
	Limited bool
}

type Guard struct {
	counters map[models.LimitKey]Counter
	logger   *slog.Logger
	metrics  *tenantmetrics.Metrics
	tracer   tracer.Tracer
}

type Option func(*Guard)

// WithCounter registers the counter used for kind.
func WithCounter(kind models.LimitKey, c Counter) Option {
	return func(g *Guard) { g.counters[kind] = c }
}

func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) { g.logger = logger }
}

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(g *Guard) { g.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(g *Guard) { g.tracer = t }
}

func New(opts ...Option) *Guard {
	g := &Guard{
		counters: make(map[models.LimitKey]Counter),
		logger:   slog.Default(),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check compares the tenant's current usage of kind with its plan limit.
// Inside a Postgres unit of work it first takes an advisory lock on
// tenant+resource, so a following insert in the same transaction cannot race
// a concurrent create.
func (g *Guard) Check(ctx context.Context, tenant *models.Tenant, kind models.LimitKey) (decision Decision, err error) {
	ctx, span := g.tracer.Start(ctx, tracer.SpanLimitCheck,
		tracer.String(tracer.AttrTenantID, tenant.ID.String()),
		tracer.String(tracer.AttrResource, Resource(kind)),
	)
	defer func() { span.End(err) }()

	limit, limited := tenant.Limit(kind)
	if !limited {
		return Decision{Allowed: true}, nil
	}

	counter, ok := g.counters[kind]
	if !ok {
		return Decision{}, dErrors.New(dErrors.CodeInternal, fmt.Sprintf("no counter registered for %s", kind))
	}

	if err := tx.Lock(ctx, LockKey(tenant.ID, kind)); err != nil {
		return Decision{}, err
	}

	current, err := counter.CountByTenant(ctx, tenant.ID)
	if err != nil {
		return Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count "+Resource(kind))
	}

	return Decision{
		Allowed: current < limit,
		Current: current,
		Max:     limit,
		Limited: true,
	}, nil
}

// Enforce fails with plan_limit_reached when the tenant may not create another kind.
func (g *Guard) Enforce(ctx context.Context, tenant *models.Tenant, kind models.LimitKey) error {
	decision, err := g.Check(ctx, tenant, kind)
	if err != nil {
		return err
	}
	if decision.Allowed {
		return nil
	}

	g.metrics.IncrementLimitDenied(Resource(kind))
	g.logger.InfoContext(ctx, "plan limit reached",
		"tenant_id", tenant.ID.String(),
		"resource", Resource(kind),
		"current", decision.Current,
		"max", decision.Max,
	)
	return dErrors.WithDetails(dErrors.CodePlanLimitReached,
		fmt.Sprintf("plan limit reached for %s (%d of %d)", Resource(kind), decision.Current, decision.Max),
		map[string]any{
			"resource": Resource(kind),
			"current":  decision.Current,
			"max":      decision.Max,
		})
}

// RequireFeature fails with feature_not_available unless the tenant has f enabled.
func RequireFeature(tenant *models.Tenant, f models.Feature) error {
	if tenant.HasFeature(f) {
		return nil
	}
	return dErrors.WithDetails(dErrors.CodeFeatureNotAvailable,
		fmt.Sprintf("feature %s is not available on the %s plan", f, tenant.Plan),
		map[string]any{
			"feature": string(f),
			"plan":    string(tenant.Plan),
		})
}

// Resource is the resource name a limit key caps, e.g. "properties".
func Resource(kind models.LimitKey) string {
	return strings.TrimPrefix(string(kind), "max_")
}

// LockKey is the advisory lock key serializing creates of kind for one tenant.
func LockKey(tenantID id.TenantID, kind models.LimitKey) string {
	return tenantID.String() + ":" + Resource(kind)
}
