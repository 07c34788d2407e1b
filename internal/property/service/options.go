package service

import (
	"log/slog"
	"time"

	"estatehub/internal/platform/events"
	propertymetrics "estatehub/internal/property/metrics"
	"estatehub/pkg/platform/tracer"
	"estatehub/pkg/platform/tx"
)

// Option configures a Service.
type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPublisher(publisher events.Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *propertymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithTx sets the unit-of-work runner shared with the stores.
func WithTx(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithBatchViews makes list reads count a view for every returned listing.
func WithBatchViews(enabled bool) Option {
	return func(s *Service) {
		s.batchViews = enabled
	}
}
