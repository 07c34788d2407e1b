package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	PropertiesCreated  prometheus.Counter
	PropertiesDeleted  prometheus.Counter
	QueryDuration      prometheus.Histogram
	QueryResults       prometheus.Histogram
	AnalyticsIncrement *prometheus.CounterVec
	AnalyticsFailures  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PropertiesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "estatehub_properties_created_total",
			Help: "Total number of properties created",
		}),
		PropertiesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "estatehub_properties_deleted_total",
			Help: "Total number of properties deleted",
		}),
		QueryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "estatehub_property_query_duration_seconds",
			Help:    "Duration of catalog list queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		QueryResults: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "estatehub_property_query_results",
			Help:    "Total matches per catalog list query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		AnalyticsIncrement: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estatehub_property_analytics_increments_total",
			Help: "Applied analytics counter increments",
		}, []string{"counter"}),
		AnalyticsFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estatehub_property_analytics_failures_total",
			Help: "Failed asynchronous analytics counter increments",
		}, []string{"counter"}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m == nil {
		return
	}
	m.PropertiesCreated.Inc()
}

func (m *Metrics) IncrementDeleted() {
	if m == nil {
		return
	}
	m.PropertiesDeleted.Inc()
}

func (m *Metrics) ObserveQuery(start time.Time, total int) {
	if m == nil {
		return
	}
	m.QueryDuration.Observe(time.Since(start).Seconds())
	m.QueryResults.Observe(float64(total))
}

func (m *Metrics) IncrementAnalytics(counter string, n int) {
	if m == nil {
		return
	}
	m.AnalyticsIncrement.WithLabelValues(counter).Add(float64(n))
}

func (m *Metrics) IncrementAnalyticsFailure(counter string) {
	if m == nil {
		return
	}
	m.AnalyticsFailures.WithLabelValues(counter).Inc()
}
