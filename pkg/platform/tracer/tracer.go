// Package tracer is a small tracing abstraction so services can emit spans
// without importing OpenTelemetry directly.
//
// Implementations:
//   - NoopTracer: tests
//   - OTelTracer: OpenTelemetry adapter for the server
package tracer

import (
	"context"
	"time"
)

// Span represents an active trace span.
type Span interface {
	// End completes the span, recording err when non-nil. Call exactly once.
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer creates spans. Implementations must be safe for concurrent use.
//
//	ctx, span := t.Start(ctx, tracer.SpanPropertyList, tracer.String(tracer.AttrTenantID, tid.String()))
//	defer func() { span.End(err) }()
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

// Attribute represents a key-value pair attached to spans.
type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute {
	return Attribute{Key: key, Value: value}
}

func Bool(key string, value bool) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int64(key string, value int64) Attribute {
	return Attribute{Key: key, Value: value}
}

func Int(key string, value int) Attribute {
	return Attribute{Key: key, Value: int64(value)}
}

func Float64(key string, value float64) Attribute {
	return Attribute{Key: key, Value: value}
}

// Duration creates a duration attribute in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

// Span names.
const (
	SpanTenantResolve   = "tenant.resolve"
	SpanPropertyList    = "property.list"
	SpanPropertyGet     = "property.get"
	SpanPropertyCreate  = "property.create"
	SpanLimitCheck      = "tenant.limit_check"
	SpanAdminDashboard  = "admin.dashboard"
	SpanAnalyticsUpdate = "analytics.increment"
)

// Attribute keys.
const (
	AttrEnvironment  = "deployment.environment"
	AttrTenantID     = "tenant.id"
	AttrTenantSlug   = "tenant.slug"
	AttrResolvedBy   = "tenant.resolved_by"
	AttrResource     = "limit.resource"
	AttrResultCount  = "result.count"
	AttrResultTotal  = "result.total"
	AttrSortField    = "query.sort"
	AttrPage         = "query.page"
	AttrCounterField = "analytics.field"
)
