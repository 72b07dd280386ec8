package flowcanvas

import (
	"context"
	"log/slog"

	fcerrors "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/errors"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/event"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/observability"
)

// editorConfig holds editor configuration.
type editorConfig struct {
	logger       *slog.Logger
	metrics      observability.MetricsRecorder
	spans        observability.SpanManager
	notifier     Notifier
	bus          event.Publisher
	idPolicy     IDPolicy
	edgePolicy   EdgePolicy
	dragMIME     string
	retry        fcerrors.RetryConfig
	adoptCreated bool
}

func defaultEditorConfig() editorConfig {
	return editorConfig{
		logger:       slog.Default(),
		metrics:      observability.NoopMetrics{},
		spans:        observability.NoopSpanManager{},
		idPolicy:     IDSuffix,
		edgePolicy:   EdgesKeep,
		dragMIME:     DefaultDragMIME,
		retry:        fcerrors.DefaultRetry,
		adoptCreated: true,
	}
}

func (c *editorConfig) publish(eventType, flowID string, payload any) {
	if c.bus == nil {
		return
	}
	if err := c.bus.Publish(context.Background(), event.New(eventType, flowID, payload)); err != nil {
		c.logger.Debug("event not published",
			slog.String("type", eventType),
			slog.String("error", err.Error()))
	}
}

// Option configures an Editor.
type Option func(*editorConfig)

// WithLogger sets the structured logger.
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *editorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables OpenTelemetry metrics for drops, connections, saves
// and mounts.
//
// Example:
//
//	editor := flowcanvas.NewEditor(session, persistence, viewport, bounds,
//	    flowcanvas.WithMetrics(true))
func WithMetrics(enabled bool) Option {
	return func(c *editorConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry spans around saves and mounts.
func WithTracing(enabled bool) Option {
	return func(c *editorConfig) {
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithNotifier sets where user-facing notices go.
// Default: a LogNotifier on the editor's logger.
func WithNotifier(n Notifier) Option {
	return func(c *editorConfig) {
		c.notifier = n
	}
}

// WithEventBus publishes graph changes to bus.
func WithEventBus(bus event.Publisher) Option {
	return func(c *editorConfig) {
		c.bus = bus
	}
}

// WithIDPolicy sets how dropped nodes get ids when the display name is
// taken. Default: IDSuffix
func WithIDPolicy(p IDPolicy) Option {
	return func(c *editorConfig) {
		c.idPolicy = p
	}
}

// WithEdgePolicy sets what happens to edges when a node is removed.
// Default: EdgesKeep
func WithEdgePolicy(p EdgePolicy) Option {
	return func(c *editorConfig) {
		c.edgePolicy = p
	}
}

// WithDragMIME sets the drag-data type descriptors are read from.
// Default: DefaultDragMIME
func WithDragMIME(mime string) Option {
	return func(c *editorConfig) {
		if mime != "" {
			c.dragMIME = mime
		}
	}
}

// WithRetry sets the retry policy for flow lookups on mount.
// Default: errors.DefaultRetry
func WithRetry(cfg fcerrors.RetryConfig) Option {
	return func(c *editorConfig) {
		c.retry = cfg
	}
}

// WithAdoptCreated controls whether a successful first save switches the
// editor to edit mode on the new flow. With false, every save in new mode
// creates another flow. Default: true
func WithAdoptCreated(adopt bool) Option {
	return func(c *editorConfig) {
		c.adoptCreated = adopt
	}
}
