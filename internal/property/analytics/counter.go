// Package analytics applies the catalog's denormalized counters off the request path.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	propertymetrics "estatehub/internal/property/metrics"
	propertystore "estatehub/internal/property/store/property"
	id "estatehub/pkg/domain"
	"estatehub/pkg/platform/tracer"
	"estatehub/pkg/requestcontext"
)

// Store applies increments atomically at the storage layer.
type Store interface {
	Increment(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID, c propertystore.Counter, at time.Time) error
	IncrementViews(ctx context.Context, tenantID id.TenantID, ids []id.PropertyID, at time.Time) error
}

const defaultTimeout = 2 * time.Second

// Counter records views, favorites and leads asynchronously. Failures are
// logged and counted, never returned to the caller.
type Counter struct {
	store    Store
	logger   *slog.Logger
	metrics  *propertymetrics.Metrics
	tracer   tracer.Tracer
	timeout  time.Duration
	now      func() time.Time
	inflight sync.WaitGroup
}

type Option func(*Counter)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Counter) { c.logger = logger }
}

func WithMetrics(m *propertymetrics.Metrics) Option {
	return func(c *Counter) { c.metrics = m }
}

func WithTracer(t tracer.Tracer) Option {
	return func(c *Counter) { c.tracer = t }
}

// WithTimeout bounds each increment. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Counter) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Counter) { c.now = now }
}

func New(store Store, opts ...Option) *Counter {
	c := &Counter{
		store:   store,
		logger:  slog.Default(),
		tracer:  tracer.NewNoop(),
		timeout: defaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Counter) RecordView(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID) {
	c.record(ctx, tenantID, propertyID, propertystore.CounterViews)
}

func (c *Counter) RecordFavorite(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID) {
	c.record(ctx, tenantID, propertyID, propertystore.CounterFavorites)
}

func (c *Counter) RecordLead(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID) {
	c.record(ctx, tenantID, propertyID, propertystore.CounterLeads)
}

// RecordViews bumps views on every id in one store call.
func (c *Counter) RecordViews(ctx context.Context, tenantID id.TenantID, ids []id.PropertyID) {
	if len(ids) == 0 {
		return
	}
	ids = append([]id.PropertyID(nil), ids...)
	c.run(ctx, tenantID, propertystore.CounterViews, len(ids), func(ctx context.Context, at time.Time) error {
		return c.store.IncrementViews(ctx, tenantID, ids, at)
	})
}

func (c *Counter) record(ctx context.Context, tenantID id.TenantID, propertyID id.PropertyID, counter propertystore.Counter) {
	c.run(ctx, tenantID, counter, 1, func(ctx context.Context, at time.Time) error {
		return c.store.Increment(ctx, tenantID, propertyID, counter, at)
	})
}

// run detaches from the request context: the increment outlives the response.
func (c *Counter) run(ctx context.Context, tenantID id.TenantID, counter propertystore.Counter, n int, apply func(context.Context, time.Time) error) {
	at := c.now()
	requestID := requestcontext.RequestID(ctx)
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		ctx, span := c.tracer.Start(ctx, tracer.SpanAnalyticsUpdate,
			tracer.String(tracer.AttrTenantID, tenantID.String()),
			tracer.String(tracer.AttrCounterField, string(counter)),
		)
		err := apply(ctx, at)
		span.End(err)
		if err != nil {
			c.metrics.IncrementAnalyticsFailure(string(counter))
			c.logger.WarnContext(ctx, "failed to update property analytics",
				"tenant_id", tenantID.String(),
				"counter", string(counter),
				"request_id", requestID,
				"error", err,
			)
			return
		}
		c.metrics.IncrementAnalytics(string(counter), n)
	}()
}

// Wait blocks until every in-flight increment has finished.
func (c *Counter) Wait() {
	c.inflight.Wait()
}
