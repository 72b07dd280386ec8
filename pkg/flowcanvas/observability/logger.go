// Package observability provides structured logging helpers, OpenTelemetry
// metrics and tracing for the canvas editor.
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// LogNodeAdded logs a node placed on the canvas.
func LogNodeAdded(logger *slog.Logger, nodeID, kind string, x, y float64) {
	if logger == nil {
		return
	}
	logger.Debug("node added",
		slog.String("node_id", nodeID),
		slog.String("kind", kind),
		slog.Float64("x", x),
		slog.Float64("y", y),
	)
}

// LogDropIgnored logs a drop that did not produce a node.
func LogDropIgnored(logger *slog.Logger, reason string) {
	if logger == nil {
		return
	}
	logger.Debug("drop ignored",
		slog.String("reason", reason),
	)
}

// LogNodeRemoved logs a node removal and how many edges went with it.
func LogNodeRemoved(logger *slog.Logger, nodeID string, edgesRemoved int) {
	if logger == nil {
		return
	}
	logger.Debug("node removed",
		slog.String("node_id", nodeID),
		slog.Int("edges_removed", edgesRemoved),
	)
}

// LogEdgeAdded logs a committed connection.
func LogEdgeAdded(logger *slog.Logger, edgeID, source, target string) {
	if logger == nil {
		return
	}
	logger.Debug("edge added",
		slog.String("edge_id", edgeID),
		slog.String("source", source),
		slog.String("target", target),
	)
}

// LogConnectRejected logs a connection request that failed validation.
func LogConnectRejected(logger *slog.Logger, source, target string, err error) {
	if logger == nil {
		return
	}
	logger.Debug("connection rejected",
		slog.String("source", source),
		slog.String("target", target),
		slog.String("error", err.Error()),
	)
}

// LogHydrate logs the outcome of mounting the editor.
func LogHydrate(logger *slog.Logger, flowID, mode string, nodes, edges int) {
	if logger == nil {
		return
	}
	logger.Info("editor hydrated",
		slog.String("flow_id", flowID),
		slog.String("mode", mode),
		slog.Int("nodes", nodes),
		slog.Int("edges", edges),
	)
}

// LogHydrateError logs a failed flow lookup.
func LogHydrateError(logger *slog.Logger, flowID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("flow lookup failed",
		slog.String("flow_id", flowID),
		slog.String("error", err.Error()),
	)
}

// LogSaveStart logs the start of a save.
func LogSaveStart(logger *slog.Logger, flowID, mode string, generation uint64) {
	if logger == nil {
		return
	}
	logger.Info("flow save starting",
		slog.String("flow_id", flowID),
		slog.String("mode", mode),
		slog.Uint64("generation", generation),
	)
}

// LogSaveComplete logs a successful save.
func LogSaveComplete(logger *slog.Logger, flowID, mode string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("flow saved",
		slog.String("flow_id", flowID),
		slog.String("mode", mode),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogSaveError logs a failed save. The graph is left untouched.
func LogSaveError(logger *slog.Logger, flowID, op, category string, err error) {
	if logger == nil {
		return
	}
	logger.Error("flow save failed",
		slog.String("flow_id", flowID),
		slog.String("operation", op),
		slog.String("category", category),
		slog.String("error", err.Error()),
	)
}

// LogSaveSuperseded logs a save whose result was discarded because a newer
// save started.
func LogSaveSuperseded(logger *slog.Logger, flowID string, generation uint64) {
	if logger == nil {
		return
	}
	logger.Debug("flow save superseded",
		slog.String("flow_id", flowID),
		slog.Uint64("generation", generation),
	)
}

// LogCatalogLoaded logs a populated node catalog.
func LogCatalogLoaded(logger *slog.Logger, entries int, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("catalog loaded",
		slog.Int("entries", entries),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogCatalogError logs a catalog fetch failure.
func LogCatalogError(logger *slog.Logger, err error) {
	if logger == nil {
		return
	}
	logger.Error("catalog fetch failed",
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
