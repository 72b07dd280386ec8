package flowcanvas

import (
	"errors"
	"fmt"

	fcerrors "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/errors"
)

// Sentinel errors for coordinate mapping.
var (
	// ErrViewportNotReady indicates the pan/zoom transform is not initialized yet.
	ErrViewportNotReady = errors.New("viewport not initialized")

	// ErrBoundsUnavailable indicates the canvas bounding rectangle cannot be resolved.
	ErrBoundsUnavailable = errors.New("canvas bounds unavailable")

	// ErrNonFinitePosition indicates a mapped or moved position is NaN or infinite.
	ErrNonFinitePosition = errors.New("position is not finite")
)

// Sentinel errors for drops. A drop that fails with any of these leaves the
// graph unchanged.
var (
	// ErrMalformedPayload indicates the drag data is missing or not a JSON object.
	ErrMalformedPayload = errors.New("malformed drag payload")

	// ErrMissingDisplayName indicates the descriptor has no displayName.
	ErrMissingDisplayName = errors.New("descriptor has no displayName")

	// ErrDuplicateNode indicates a node with the same id already exists.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrUnknownEntry indicates a catalog entry id that the session's catalog lacks.
	ErrUnknownEntry = errors.New("unknown catalog entry")
)

// Sentinel errors for graph edits.
var (
	// ErrNodeNotFound indicates an operation referenced a missing node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrInvalidConnection indicates a connection request without a source or target.
	ErrInvalidConnection = errors.New("invalid connection")

	// ErrCycle indicates the graph has at least one cycle.
	ErrCycle = errors.New("graph contains a cycle")
)

// Sentinel errors for persistence.
var (
	// ErrNameRequired indicates a first save without a flow name.
	ErrNameRequired = errors.New("flow name required")

	// ErrSuperseded indicates a save whose result was discarded because a
	// newer save started.
	ErrSuperseded = errors.New("save superseded by a newer save")

	// ErrFlowNotFound indicates the persistence collaborator has no such flow.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrEditorClosed indicates the editor was closed.
	ErrEditorClosed = errors.New("editor closed")
)

// ConnectionError describes why a connection request was rejected.
type ConnectionError struct {
	Connection Connection
	Field      string
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("invalid connection %s -> %s: %s is required",
		e.Connection.Source, e.Connection.Target, e.Field)
}

// Unwrap returns ErrInvalidConnection.
func (e *ConnectionError) Unwrap() error {
	return ErrInvalidConnection
}

// SaveError wraps a failed create or update call.
type SaveError struct {
	Op       string // "create" or "update"
	FlowID   string
	Category fcerrors.Category
	Err      error
}

// Error implements the error interface.
func (e *SaveError) Error() string {
	if e.FlowID != "" {
		return fmt.Sprintf("%s flow %s (%s): %v", e.Op, e.FlowID, e.Category, e.Err)
	}
	return fmt.Sprintf("%s flow (%s): %v", e.Op, e.Category, e.Err)
}

// Unwrap returns the underlying error.
func (e *SaveError) Unwrap() error {
	return e.Err
}

// Retryable reports whether trying the save again may succeed.
func (e *SaveError) Retryable() bool {
	return e.Category == fcerrors.CategoryTransient
}
