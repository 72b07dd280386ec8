package flowcanvas

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/observability"
)

// Connection is a request to connect two node handles.
type Connection struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// EdgeID derives the edge id for a connection. Reconnecting the same
// handles always yields the same id.
func EdgeID(c Connection) string {
	return "flowcanvas__edge-" + c.Source + c.SourceHandle + "-" + c.Target + c.TargetHandle
}

// Edge builds the edge a valid connection commits to.
func (c Connection) Edge() Edge {
	return Edge{
		ID:           EdgeID(c),
		Source:       c.Source,
		SourceHandle: c.SourceHandle,
		Target:       c.Target,
		TargetHandle: c.TargetHandle,
	}
}

// ValidateConnection checks structural well-formedness only: source and
// target must be present. Self-loops, duplicates and cycles are allowed.
func ValidateConnection(c Connection) error {
	if c.Source == "" {
		return &ConnectionError{Connection: c, Field: "source"}
	}
	if c.Target == "" {
		return &ConnectionError{Connection: c, Field: "target"}
	}
	return nil
}

// ConnectionManager turns connection requests into edges.
type ConnectionManager struct {
	store   *Store
	logger  *slog.Logger
	metrics observability.MetricsRecorder
}

// NewConnectionManager creates a manager committing to store.
func NewConnectionManager(store *Store, logger *slog.Logger, metrics observability.MetricsRecorder) *ConnectionManager {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &ConnectionManager{store: store, logger: logger, metrics: metrics}
}

// Connect validates conn and appends the edge. Calling it twice with the
// same connection appends two edges with the same id.
func (m *ConnectionManager) Connect(ctx context.Context, conn Connection) (Edge, error) {
	edge, err := m.store.AddEdge(conn)
	if err != nil {
		observability.LogConnectRejected(m.logger, conn.Source, conn.Target, err)
		return Edge{}, err
	}
	observability.LogEdgeAdded(m.logger, edge.ID, edge.Source, edge.Target)
	m.metrics.RecordEdgeAdded(ctx)
	return edge, nil
}
