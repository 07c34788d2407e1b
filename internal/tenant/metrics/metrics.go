package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	TenantCreated    prometheus.Counter
	ResolveDuration  *prometheus.HistogramVec
	ResolveOutcomes  *prometheus.CounterVec
	LimitDenied      *prometheus.CounterVec
	ActivityTouchErr prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TenantCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "estatehub_tenants_created_total",
			Help: "Total number of tenants created",
		}),
		ResolveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "estatehub_tenant_resolve_duration_seconds",
			Help:    "Duration of tenant resolution (every tenant-scoped request)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"source"}),
		ResolveOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estatehub_tenant_resolve_total",
			Help: "Tenant resolution outcomes",
		}, []string{"outcome"}),
		LimitDenied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estatehub_plan_limit_denied_total",
			Help: "Creations rejected by a plan limit",
		}, []string{"resource"}),
		ActivityTouchErr: factory.NewCounter(prometheus.CounterOpts{
			Name: "estatehub_tenant_activity_touch_failures_total",
			Help: "Failed asynchronous last_activity_at updates",
		}),
	}
}

func (m *Metrics) IncrementTenantCreated() {
	if m == nil {
		return
	}
	m.TenantCreated.Inc()
}

func (m *Metrics) ObserveResolve(source string, start time.Time) {
	if m == nil {
		return
	}
	m.ResolveDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementResolveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.ResolveOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementLimitDenied(resource string) {
	if m == nil {
		return
	}
	m.LimitDenied.WithLabelValues(resource).Inc()
}

func (m *Metrics) IncrementActivityTouchFailure() {
	if m == nil {
		return
	}
	m.ActivityTouchErr.Inc()
}
