package tracer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"estatehub/pkg/platform/tracer"
)

func TestNoop(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanPropertyList,
		tracer.String(tracer.AttrTenantID, "t-1"),
		tracer.Bool("flag", true),
	)

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.Int(tracer.AttrResultCount, 3))
	span.AddEvent("test.event", tracer.Int64("count", 42))
	span.End(nil)
}

func TestRecorder(t *testing.T) {
	rec := tracer.NewRecorder()

	_, span := rec.Start(context.Background(), tracer.SpanPropertyList, tracer.String(tracer.AttrTenantID, "t-1"))
	span.SetAttributes(tracer.Int(tracer.AttrResultCount, 3))
	span.AddEvent("cache.miss")
	span.End(errors.New("boom"))
	_, other := rec.Start(context.Background(), tracer.SpanPropertyGet)
	other.End(nil)

	spans := rec.Spans(tracer.SpanPropertyList)
	require.Len(t, spans, 1)
	assert.True(t, spans[0].Ended)
	assert.EqualError(t, spans[0].Err, "boom")
	assert.Equal(t, "t-1", spans[0].Attrs[tracer.AttrTenantID])
	assert.Equal(t, int64(3), spans[0].Attrs[tracer.AttrResultCount])
	assert.Equal(t, []string{"cache.miss"}, spans[0].Events)
	assert.Empty(t, rec.Spans("missing"))
}

func TestOTelTracer_WithInjectedTracer(t *testing.T) {
	tr := tracer.NewOTel(
		tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")),
		tracer.WithBaseAttributes(tracer.String(tracer.AttrEnvironment, "test")),
	)

	_, span := tr.Start(context.Background(), tracer.SpanTenantResolve,
		tracer.String(tracer.AttrTenantSlug, "acme"),
		tracer.Int(tracer.AttrPage, 2),
		tracer.Float64("ratio", 0.5),
		tracer.Attribute{Key: "other", Value: struct{ A int }{A: 1}},
	)
	require.NotNil(t, span)
	span.SetAttributes(tracer.Duration("latency", 0), tracer.Attribute{Key: "tags", Value: []string{"a"}})
	span.AddEvent("resolved")
	span.End(errors.New("boom"))
}

func TestAttributeConstructors(t *testing.T) {
	assert.Equal(t, tracer.Attribute{Key: "key", Value: "value"}, tracer.String("key", "value"))
	assert.Equal(t, true, tracer.Bool("flag", true).Value)
	assert.Equal(t, int64(42), tracer.Int64("count", 42).Value)
	assert.Equal(t, int64(7), tracer.Int("n", 7).Value)
	assert.Equal(t, 3.14, tracer.Float64("ratio", 3.14).Value)
	assert.Equal(t, int64(150), tracer.Duration("latency", 150*1e6).Value)
}
