package flowcanvas

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/catalog"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/event"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/observability"
)

// Editor is one open canvas. It wires the graph store to the viewport, the
// palette, the connection rules and the persistence collaborator.
//
// Example:
//
//	editor := flowcanvas.NewEditor(session, persistence, viewport, bounds)
//	if err := editor.Mount(ctx, flowcanvas.MountRequest{FlowID: "f1"}); err != nil {
//	    // the user has been notified; the editor is empty in new mode
//	}
//	editor.DropEntry(ctx, "llm", flowcanvas.Point{X: 120, Y: 80})
//	rec, err := editor.Save(ctx, "").Wait(ctx)
type Editor struct {
	cfg     editorConfig
	session Session

	store  *Store
	mapper *ViewportMapper
	drops  *DropIngestor
	conns  *ConnectionManager
	sync   *GraphSync

	closed atomic.Bool
}

// NewEditor creates an editor in new mode with an empty graph. The session
// is only read, never modified.
func NewEditor(session Session, persistence Persistence, viewport Viewport, bounds BoundsSource, opts ...Option) *Editor {
	cfg := defaultEditorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.notifier == nil {
		cfg.notifier = LogNotifier{Logger: cfg.logger}
	}

	e := &Editor{cfg: cfg, session: session}
	e.store = NewStore(cfg.edgePolicy)
	e.mapper = NewViewportMapper(viewport, bounds)
	e.drops = NewDropIngestor(e.store, e.mapper, cfg.dragMIME, cfg.idPolicy, cfg.logger, cfg.metrics)
	e.conns = NewConnectionManager(e.store, cfg.logger, cfg.metrics)
	e.sync = newGraphSync(e.store, persistence, session, &e.cfg, cfg.notifier)
	return e
}

// Mount loads the flow the editor was opened for. See GraphSync.Hydrate.
func (e *Editor) Mount(ctx context.Context, req MountRequest) error {
	if e.closed.Load() {
		return ErrEditorClosed
	}
	return e.sync.Hydrate(ctx, req)
}

// Drop places the descriptor carried by data at the screen point at.
func (e *Editor) Drop(ctx context.Context, data DragData, at Point) (Node, error) {
	if e.closed.Load() {
		return Node{}, ErrEditorClosed
	}
	node, err := e.drops.Drop(ctx, data, at)
	if err != nil {
		return Node{}, err
	}
	e.cfg.publish(event.NodeAdded, e.sync.FlowID(), node)
	return node, nil
}

// DropEntry drops the palette entry with the given id, as if the user
// dragged it from the palette onto the screen point at.
func (e *Editor) DropEntry(ctx context.Context, entryID string, at Point) (Node, error) {
	entry, ok := e.Catalog().Get(entryID)
	if !ok {
		return Node{}, fmt.Errorf("%w: %q", ErrUnknownEntry, entryID)
	}
	payload, err := entry.DragPayload()
	if err != nil {
		return Node{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return e.Drop(ctx, NewDragPayload(e.cfg.dragMIME, payload), at)
}

// Connect commits a connection between two node handles.
func (e *Editor) Connect(ctx context.Context, conn Connection) (Edge, error) {
	if e.closed.Load() {
		return Edge{}, ErrEditorClosed
	}
	edge, err := e.conns.Connect(ctx, conn)
	if err != nil {
		return Edge{}, err
	}
	e.cfg.publish(event.EdgeAdded, e.sync.FlowID(), edge)
	return edge, nil
}

// ApplyNodeChanges applies incremental node changes from the renderer.
func (e *Editor) ApplyNodeChanges(changes ...NodeChange) {
	if e.closed.Load() || len(changes) == 0 {
		return
	}
	e.store.ApplyNodeChanges(changes...)
	e.cfg.publish(event.NodesChanged, e.sync.FlowID(), changes)
}

// ApplyEdgeChanges applies incremental edge changes from the renderer.
func (e *Editor) ApplyEdgeChanges(changes ...EdgeChange) {
	if e.closed.Load() || len(changes) == 0 {
		return
	}
	e.store.ApplyEdgeChanges(changes...)
	e.cfg.publish(event.EdgesChanged, e.sync.FlowID(), changes)
}

// MoveNode moves a node to a logical position.
func (e *Editor) MoveNode(id string, to Position) error {
	if e.closed.Load() {
		return ErrEditorClosed
	}
	if !to.Finite() {
		return ErrNonFinitePosition
	}
	if !e.store.HasNode(id) {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	e.ApplyNodeChanges(MoveNode(id, to))
	return nil
}

// RemoveNode removes a node by dispatching the removal request it carries.
func (e *Editor) RemoveNode(id string) error {
	if e.closed.Load() {
		return ErrEditorClosed
	}
	node, ok := e.store.Node(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	req := node.Data.OnRemove
	if req.NodeID == "" {
		req.NodeID = id
	}
	if !e.Dispatch(req) {
		return fmt.Errorf("%w: %q", ErrNodeNotFound, req.NodeID)
	}
	return nil
}

// Dispatch executes a removal request, as a node's delete control does.
func (e *Editor) Dispatch(req RemoveNodeRequest) bool {
	if e.closed.Load() {
		return false
	}
	edges, ok := e.store.RemoveNode(req.NodeID)
	if !ok {
		return false
	}
	observability.LogNodeRemoved(e.cfg.logger, req.NodeID, edges)
	e.cfg.publish(event.NodeRemoved, e.sync.FlowID(), req)
	return true
}

// RemoveEdge removes the first edge with the given id.
func (e *Editor) RemoveEdge(id string) bool {
	if e.closed.Load() {
		return false
	}
	if !e.store.RemoveEdge(id) {
		return false
	}
	e.cfg.publish(event.EdgeRemoved, e.sync.FlowID(), id)
	return true
}

// Save persists the graph in the background. See GraphSync.Save.
func (e *Editor) Save(ctx context.Context, name string) *SaveTask {
	return e.sync.Save(ctx, name)
}

// SetName sets the flow name used by the next save.
func (e *Editor) SetName(name string) {
	e.sync.SetName(name)
}

// Name returns the flow name.
func (e *Editor) Name() string {
	return e.sync.Name()
}

// Mode returns whether the flow has been persisted.
func (e *Editor) Mode() Mode {
	return e.sync.Mode()
}

// FlowID returns the persisted flow id, or "" in new mode.
func (e *Editor) FlowID() string {
	return e.sync.FlowID()
}

// Snapshot returns the graph as it would be saved now.
func (e *Editor) Snapshot() Dag {
	return e.sync.Snapshot()
}

// Nodes returns a copy of the node collection.
func (e *Editor) Nodes() []Node {
	return e.store.Nodes()
}

// Edges returns a copy of the edge collection.
func (e *Editor) Edges() []Edge {
	return e.store.Edges()
}

// SetEndpoints records the nodes that receive the flow's input and produce
// its output. Empty strings clear them.
func (e *Editor) SetEndpoints(mainIn, mainOut string) {
	e.sync.setEndpoints(mainIn, mainOut)
}

// SetSample records sample input for the flow.
func (e *Editor) SetSample(sample map[string]any) {
	e.sync.setSample(sample)
}

// Dirty reports whether there are unsaved changes.
func (e *Editor) Dirty() bool {
	return e.sync.Dirty()
}

// Validate reports structural problems in the current graph.
func (e *Editor) Validate() error {
	return Validate(e.Snapshot())
}

// Catalog returns the session's palette.
func (e *Editor) Catalog() *catalog.Catalog {
	if e.session == nil {
		return catalog.Empty()
	}
	return e.session.Catalog()
}

// Store returns the graph store. Writes made directly to it bypass event
// publishing.
func (e *Editor) Store() *Store {
	return e.store
}

// Mapper returns the editor's screen-to-canvas mapper.
func (e *Editor) Mapper() *ViewportMapper {
	return e.mapper
}

// Close cancels any in-flight save and rejects further edits. It is safe
// to call more than once.
func (e *Editor) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.sync.close()
	return nil
}
