package tracer

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "estatehub"

// OTelTracer starts spans on an OpenTelemetry tracer, the global provider's
// by default.
type OTelTracer struct {
	tracer trace.Tracer
	base   []attribute.KeyValue
}

type OTelOption func(*OTelTracer)

// WithOTelTracer replaces the global provider's tracer.
func WithOTelTracer(t trace.Tracer) OTelOption {
	return func(o *OTelTracer) { o.tracer = t }
}

// WithBaseAttributes stamps attrs on every span, e.g. the deployment environment.
func WithBaseAttributes(attrs ...Attribute) OTelOption {
	return func(o *OTelTracer) {
		for _, a := range attrs {
			o.base = append(o.base, keyValue(a))
		}
	}
}

func NewOTel(opts ...OTelOption) *OTelTracer {
	t := &OTelTracer{}
	for _, opt := range opts {
		opt(t)
	}
	if t.tracer == nil {
		t.tracer = otel.Tracer(instrumentationName)
	}
	return t
}

func (t *OTelTracer) Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span) {
	kvs := make([]attribute.KeyValue, 0, len(t.base)+len(attrs))
	kvs = append(kvs, t.base...)
	kvs = append(kvs, keyValues(attrs)...)
	ctx, span := t.tracer.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(kvs...),
	)
	return ctx, otelSpan{span}
}

type otelSpan struct {
	span trace.Span
}

// End marks the span failed when err is non-nil.
func (s otelSpan) End(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
}

func (s otelSpan) SetAttributes(attrs ...Attribute) {
	s.span.SetAttributes(keyValues(attrs)...)
}

func (s otelSpan) AddEvent(name string, attrs ...Attribute) {
	s.span.AddEvent(name, trace.WithAttributes(keyValues(attrs)...))
}

func keyValues(attrs []Attribute) []attribute.KeyValue {
	kvs := make([]attribute.KeyValue, len(attrs))
	for i, a := range attrs {
		kvs[i] = keyValue(a)
	}
	return kvs
}

func keyValue(a Attribute) attribute.KeyValue {
	k := attribute.Key(a.Key)
	switch v := a.Value.(type) {
	case string:
		return k.String(v)
	case bool:
		return k.Bool(v)
	case int:
		return k.Int(v)
	case int64:
		return k.Int64(v)
	case float64:
		return k.Float64(v)
	case time.Duration:
		return k.Int64(v.Milliseconds())
	case []string:
		return k.StringSlice(v)
	case fmt.Stringer:
		return k.String(v.String())
	default:
		return k.String(fmt.Sprint(v))
	}
}

var _ Tracer = (*OTelTracer)(nil)
