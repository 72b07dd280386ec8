package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records editor metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordNodeAdded counts a node placed on the canvas.
	RecordNodeAdded(ctx context.Context, kind string)

	// RecordDropIgnored counts a drop that produced no node.
	RecordDropIgnored(ctx context.Context, reason string)

	// RecordEdgeAdded counts a committed connection.
	RecordEdgeAdded(ctx context.Context)

	// RecordSave records a save attempt with its mode, latency and outcome.
	RecordSave(ctx context.Context, mode string, duration time.Duration, err error)

	// RecordHydrate records an editor mount.
	RecordHydrate(ctx context.Context, mode string, err error)
}

type otelMetrics struct {
	nodesAdded   metric.Int64Counter
	dropsIgnored metric.Int64Counter
	edgesAdded   metric.Int64Counter
	saves        metric.Int64Counter
	saveLatency  metric.Float64Histogram
	hydrations   metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("flowcanvas")
	m := &otelMetrics{}
	var err error

	if m.nodesAdded, err = meter.Int64Counter("flowcanvas.nodes.added",
		metric.WithDescription("Number of nodes placed on the canvas"),
	); err != nil {
		return nil, err
	}
	if m.dropsIgnored, err = meter.Int64Counter("flowcanvas.drops.ignored",
		metric.WithDescription("Number of drops that produced no node"),
	); err != nil {
		return nil, err
	}
	if m.edgesAdded, err = meter.Int64Counter("flowcanvas.edges.added",
		metric.WithDescription("Number of committed connections"),
	); err != nil {
		return nil, err
	}
	if m.saves, err = meter.Int64Counter("flowcanvas.saves",
		metric.WithDescription("Number of save attempts"),
	); err != nil {
		return nil, err
	}
	if m.saveLatency, err = meter.Float64Histogram("flowcanvas.save.latency_ms",
		metric.WithDescription("Save latency in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.hydrations, err = meter.Int64Counter("flowcanvas.hydrations",
		metric.WithDescription("Number of editor mounts"),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder backed by the global OTel
// meter provider. If initialization fails, it returns a no-op recorder.
//
// Configure the provider before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordNodeAdded(ctx context.Context, kind string) {
	m.nodesAdded.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func (m *otelMetrics) RecordDropIgnored(ctx context.Context, reason string) {
	m.dropsIgnored.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *otelMetrics) RecordEdgeAdded(ctx context.Context) {
	m.edgesAdded.Add(ctx, 1)
}

func (m *otelMetrics) RecordSave(ctx context.Context, mode string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("success", err == nil),
	)
	m.saves.Add(ctx, 1, attrs)
	m.saveLatency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

func (m *otelMetrics) RecordHydrate(ctx context.Context, mode string, err error) {
	m.hydrations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.Bool("success", err == nil),
	))
}
