package request

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "estatehub_http_requests_total",
			Help: "HTTP requests by route template, method and status class",
		}, []string{"method", "route", "status"}),
		Latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "estatehub_http_request_duration_seconds",
			Help:    "HTTP request latency by route template",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Observe records one finished request.
func (m *Metrics) Observe(method, route string, status int, d time.Duration) {
	m.Requests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.Latency.WithLabelValues(method, route).Observe(d.Seconds())
}

func statusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
