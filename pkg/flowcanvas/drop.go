package flowcanvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/observability"
)

// DefaultDragMIME is the drag-data type the palette writes descriptors under.
const DefaultDragMIME = "application/x-flowcanvas-node+json"

// DragData is the platform's drag-data channel.
type DragData interface {
	GetData(mime string) string
}

// DragPayload is an in-memory DragData keyed by MIME type.
type DragPayload map[string]string

// GetData implements DragData.
func (p DragPayload) GetData(mime string) string {
	return p[mime]
}

// NewDragPayload wraps a serialized descriptor under mime.
func NewDragPayload(mime string, descriptor []byte) DragPayload {
	return DragPayload{mime: string(descriptor)}
}

// IDPolicy decides the id of a dropped node when its display name is taken.
type IDPolicy int

const (
	// IDSuffix renames the new node "<name>_2", "<name>_3", ...
	IDSuffix IDPolicy = iota

	// IDVerbatim always uses the display name; a taken name makes the drop
	// a no-op that reports ErrDuplicateNode.
	IDVerbatim
)

// String returns the policy name used in configuration.
func (p IDPolicy) String() string {
	if p == IDVerbatim {
		return "verbatim"
	}
	return "suffix"
}

// ParseIDPolicy parses "suffix" or "verbatim".
func ParseIDPolicy(s string) (IDPolicy, bool) {
	switch s {
	case "suffix", "":
		return IDSuffix, true
	case "verbatim":
		return IDVerbatim, true
	}
	return IDSuffix, false
}

// DropIngestor turns a palette drop into exactly one new node.
type DropIngestor struct {
	store   *Store
	mapper  *ViewportMapper
	mime    string
	policy  IDPolicy
	logger  *slog.Logger
	metrics observability.MetricsRecorder
}

// NewDropIngestor creates an ingestor. An empty mime selects DefaultDragMIME.
func NewDropIngestor(store *Store, mapper *ViewportMapper, mime string, policy IDPolicy,
	logger *slog.Logger, metrics observability.MetricsRecorder) *DropIngestor {
	if mime == "" {
		mime = DefaultDragMIME
	}
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	return &DropIngestor{
		store:   store,
		mapper:  mapper,
		mime:    mime,
		policy:  policy,
		logger:  logger,
		metrics: metrics,
	}
}

// Drop places the descriptor carried by data at the screen point client.
// On any error the graph is unchanged; the error says why the drop was
// ignored and is meant for logs, not for the user.
func (d *DropIngestor) Drop(ctx context.Context, data DragData, client Point) (Node, error) {
	node, err := d.drop(data, client)
	if err != nil {
		reason := DropReason(err)
		observability.LogDropIgnored(d.logger, reason)
		d.metrics.RecordDropIgnored(ctx, reason)
		return Node{}, err
	}
	observability.LogNodeAdded(d.logger, node.ID, node.Kind, node.Position.X, node.Position.Y)
	d.metrics.RecordNodeAdded(ctx, node.Kind)
	return node, nil
}

func (d *DropIngestor) drop(data DragData, client Point) (Node, error) {
	// Viewport and bounds come first so nothing is decoded for a drop that
	// cannot be placed.
	pos, err := d.mapper.ToCanvas(client)
	if err != nil {
		return Node{}, err
	}

	desc, err := DecodeDescriptor(data, d.mime)
	if err != nil {
		return Node{}, err
	}
	name := desc.DisplayName()
	if name == "" {
		return Node{}, ErrMissingDisplayName
	}

	node := Node{
		ID:       name,
		Kind:     desc.Kind(),
		Position: pos,
		Data: NodeData{
			Descriptor: desc.Clone(),
			Value:      "",
			OnRemove:   RemoveNodeRequest{NodeID: name},
		},
	}

	if d.policy == IDSuffix {
		return d.store.AddNodeUnique(node), nil
	}
	if !d.store.AddNode(node) {
		return Node{}, fmt.Errorf("%w: %q", ErrDuplicateNode, name)
	}
	return node, nil
}

// DecodeDescriptor reads and decodes the descriptor stored under mime.
func DecodeDescriptor(data DragData, mime string) (Descriptor, error) {
	if data == nil {
		return nil, ErrMalformedPayload
	}
	raw := data.GetData(mime)
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: nothing under %s", ErrMalformedPayload, mime)
	}
	var desc Descriptor
	if err := json.Unmarshal([]byte(raw), &desc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if desc == nil {
		return nil, fmt.Errorf("%w: null descriptor", ErrMalformedPayload)
	}
	return desc, nil
}

// DropReason returns a short label for why a drop was ignored.
func DropReason(err error) string {
	switch {
	case errors.Is(err, ErrViewportNotReady):
		return "viewport not ready"
	case errors.Is(err, ErrBoundsUnavailable):
		return "bounds unavailable"
	case errors.Is(err, ErrNonFinitePosition):
		return "non-finite position"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed payload"
	case errors.Is(err, ErrMissingDisplayName):
		return "missing display name"
	case errors.Is(err, ErrDuplicateNode):
		return "duplicate id"
	default:
		return "other"
	}
}
