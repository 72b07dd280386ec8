package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func attributeKey(k string) attribute.Key { return attribute.Key(k) }

func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("flowcanvas")

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		tracer = otel.Tracer("flowcanvas")
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutting down tracer provider: %v", err)
		}
	})
	return exporter
}

func spanAttr(s tracetest.SpanStub, key string) string {
	for _, kv := range s.Attributes {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

func TestSpanManager_Save(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	_, span := sm.StartSaveSpan(context.Background(), "flow-1", "edit")
	sm.EndSpanWithError(span, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "flowcanvas.save", spans[0].Name)
	assert.Equal(t, "flow-1", spanAttr(spans[0], "flow.id"))
	assert.Equal(t, "edit", spanAttr(spans[0], "flow.mode"))
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
}

func TestSpanManager_HydrateError(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, span := sm.StartHydrateSpan(context.Background(), "flow-2")
	sm.AddSpanEvent(ctx, "lookup.retry", attribute.Int("attempt", 2))
	sm.EndSpanWithError(span, errors.New("unavailable"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "flowcanvas.hydrate", s.Name)
	assert.Equal(t, codes.Error, s.Status.Code)
	assert.Equal(t, "unavailable", s.Status.Description)
	require.NotEmpty(t, s.Events)
	assert.Equal(t, "lookup.retry", s.Events[0].Name)
}

func TestSpanManager_EndNilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSpanManager().EndSpanWithError(nil, errors.New("x"))
	})
}

func TestNoopImplementations(t *testing.T) {
	ctx := context.Background()
	var m MetricsRecorder = NoopMetrics{}
	assert.NotPanics(t, func() {
		m.RecordNodeAdded(ctx, "llm")
		m.RecordDropIgnored(ctx, "r")
		m.RecordEdgeAdded(ctx)
		m.RecordSave(ctx, "new", 0, nil)
		m.RecordHydrate(ctx, "new", nil)
	})

	var sm SpanManager = NoopSpanManager{}
	got, span := sm.StartSaveSpan(ctx, "f", "new")
	assert.Equal(t, ctx, got)
	assert.False(t, span.IsRecording())
	sm.EndSpanWithError(span, errors.New("x"))
	sm.AddSpanEvent(ctx, "evt")
}
