package flowcanvas

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	fcerrors "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/errors"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/event"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/observability"
)

// Mode says whether the graph has been saved before.
type Mode string

// Editor modes.
const (
	// ModeNew is a graph that has never been saved; it needs a name.
	ModeNew Mode = "new"

	// ModeEdit is a graph loaded from (or saved as) an existing flow.
	ModeEdit Mode = "edit"
)

// MountRequest says which flow the editor was opened for.
type MountRequest struct {
	// FlowID is the flow to load. Empty opens a new graph.
	FlowID string

	// NameHint names a new graph, typically from the route's "name" query
	// parameter.
	NameHint string
}

// NameHintFromURL extracts the "name" query parameter of a route URL.
func NameHintFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(u.Query().Get("name"))
}

// GraphSync moves the graph between the store and the persistence
// collaborator and owns the editor's mode.
type GraphSync struct {
	store       *Store
	persistence Persistence
	session     Session
	cfg         *editorConfig
	notifier    Notifier

	mu        sync.Mutex
	mode      Mode
	flowID    string
	name      string
	meta      dagMeta
	savedHash string
	gen       uint64
	cancel    context.CancelFunc
	closed    bool
}

// dagMeta is the part of a Dag the store doesn't own.
type dagMeta struct {
	sample  map[string]any
	mainIn  string
	mainOut string
}

func newGraphSync(store *Store, persistence Persistence, session Session, cfg *editorConfig, notifier Notifier) *GraphSync {
	return &GraphSync{
		store:       store,
		persistence: persistence,
		session:     session,
		cfg:         cfg,
		notifier:    notifier,
		mode:        ModeNew,
	}
}

// Hydrate loads req.FlowID into the store and switches to edit mode. An
// empty or unknown id starts an empty graph in new mode named by the hint.
// Transient lookup failures are retried; a final failure notifies the user,
// leaves an empty graph in new mode and is returned.
func (g *GraphSync) Hydrate(ctx context.Context, req MountRequest) error {
	g.cancelInFlight()

	if req.FlowID == "" {
		g.startNew(req.NameHint)
		g.cfg.metrics.RecordHydrate(ctx, string(ModeNew), nil)
		observability.LogHydrate(g.cfg.logger, "", string(ModeNew), 0, 0)
		return nil
	}

	ctx, span := g.cfg.spans.StartHydrateSpan(ctx, req.FlowID)
	res := fcerrors.WithRetryContext(ctx, g.cfg.retry, func(ctx context.Context) (FlowRecord, error) {
		return g.persistence.GetFlow(ctx, req.FlowID)
	})
	g.cfg.spans.EndSpanWithError(span, res.Err)

	if res.Err != nil {
		g.startNew(req.NameHint)
		if errors.Is(res.Err, ErrFlowNotFound) {
			g.cfg.metrics.RecordHydrate(ctx, string(ModeNew), nil)
			observability.LogHydrate(g.cfg.logger, req.FlowID, string(ModeNew), 0, 0)
			return nil
		}
		g.cfg.metrics.RecordHydrate(ctx, string(ModeNew), res.Err)
		observability.LogHydrateError(g.cfg.logger, req.FlowID, res.Err)
		g.notifier.Notify(Notice{
			Level:    NoticeError,
			Title:    "Could not open flow",
			Message:  fcerrors.UserMessage(res.Err),
			FlowID:   req.FlowID,
			Category: fcerrors.Categorize(res.Err).String(),
		})
		return res.Err
	}

	rec := res.Value
	g.store.SetNodes(rec.Dag.Nodes)
	g.store.SetEdges(rec.Dag.Edges)

	g.mu.Lock()
	g.mode = ModeEdit
	g.flowID = rec.ID
	g.name = rec.Name
	g.meta = dagMeta{sample: rec.Dag.Sample, mainIn: rec.Dag.MainIn, mainOut: rec.Dag.MainOut}
	g.savedHash = g.snapshotLocked().Hash()
	g.mu.Unlock()

	g.cfg.metrics.RecordHydrate(ctx, string(ModeEdit), nil)
	observability.LogHydrate(g.cfg.logger, rec.ID, string(ModeEdit), len(rec.Dag.Nodes), len(rec.Dag.Edges))
	g.cfg.publish(event.GraphHydrated, rec.ID, rec.Dag)
	return nil
}

func (g *GraphSync) startNew(nameHint string) {
	g.store.SetNodes(nil)
	g.store.SetEdges(nil)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.mode = ModeNew
	g.flowID = ""
	g.name = nameHint
	g.meta = dagMeta{}
	g.savedHash = g.snapshotLocked().Hash()
}

// Save persists the current graph. Nodes and edges are captured before Save
// returns; the call itself runs in the background. Starting another save
// cancels this one and its result is discarded with ErrSuperseded.
//
// An empty name keeps the current name. In new mode a name is required and
// its absence fails the task with ErrNameRequired without any call.
func (g *GraphSync) Save(ctx context.Context, name string) *SaveTask {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return finishedTask(ErrEditorClosed)
	}
	if strings.TrimSpace(name) == "" {
		name = g.name
	}
	mode, flowID := g.mode, g.flowID
	if mode == ModeNew && strings.TrimSpace(name) == "" {
		g.mu.Unlock()
		g.notifier.Notify(Notice{
			Level:    NoticeError,
			Title:    "Name your flow",
			Message:  "A new flow needs a name before it can be saved.",
			Blocking: true,
			Category: fcerrors.CategoryValidation.String(),
		})
		return finishedTask(ErrNameRequired)
	}

	if g.cancel != nil {
		g.cancel()
	}
	g.gen++
	gen := g.gen
	dag := g.snapshotLocked()
	taskCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.mu.Unlock()

	task := &SaveTask{Generation: gen, done: make(chan struct{})}
	go g.run(taskCtx, cancel, task, mode, flowID, name, dag)
	return task
}

func (g *GraphSync) run(ctx context.Context, cancel context.CancelFunc, task *SaveTask,
	mode Mode, flowID, name string, dag Dag) {
	defer cancel()

	observability.LogSaveStart(g.cfg.logger, flowID, string(mode), task.Generation)
	start := time.Now()
	spanCtx, span := g.cfg.spans.StartSaveSpan(ctx, flowID, string(mode))

	var (
		rec FlowRecord
		err error
		op  = "update"
	)
	var token string
	if g.session != nil {
		token = g.session.Token()
	}
	if mode == ModeNew {
		op = "create"
		rec, err = g.persistence.CreateFlow(spanCtx, name, dag, token)
	} else {
		rec, err = g.persistence.UpdateFlow(spanCtx, flowID, name, dag, token)
	}
	g.cfg.spans.EndSpanWithError(span, err)
	took := time.Since(start)
	g.cfg.metrics.RecordSave(ctx, string(mode), took, err)

	g.mu.Lock()
	if gen := g.gen; gen != task.Generation || g.closed {
		g.mu.Unlock()
		observability.LogSaveSuperseded(g.cfg.logger, flowID, task.Generation)
		task.finish(FlowRecord{}, ErrSuperseded)
		return
	}
	g.cancel = nil
	if err == nil {
		g.name = rec.Name
		g.flowID = rec.ID
		if mode == ModeNew && g.cfg.adoptCreated {
			g.mode = ModeEdit
		}
		if mode == ModeNew && !g.cfg.adoptCreated {
			g.flowID = ""
		}
		g.savedHash = dag.Hash()
	}
	g.mu.Unlock()

	if err != nil {
		saveErr := &SaveError{Op: op, FlowID: flowID, Category: fcerrors.Categorize(err), Err: err}
		observability.LogSaveError(g.cfg.logger, flowID, op, saveErr.Category.String(), err)
		g.notifier.Notify(Notice{
			Level:    NoticeError,
			Title:    "Flow not saved",
			Message:  fcerrors.UserMessage(err),
			FlowID:   flowID,
			Category: saveErr.Category.String(),
		})
		g.cfg.publish(event.FlowSaveFailed, flowID, saveErr.Error())
		task.finish(FlowRecord{}, saveErr)
		return
	}

	observability.LogSaveComplete(g.cfg.logger, rec.ID, string(mode), float64(took.Microseconds())/1000)
	g.notifier.Notify(Notice{
		Level:   NoticeInfo,
		Title:   "Flow saved",
		Message: rec.Name,
		FlowID:  rec.ID,
	})
	g.cfg.publish(event.FlowSaved, rec.ID, map[string]any{"name": rec.Name, "version": rec.Version})
	task.finish(rec, nil)
}

func (g *GraphSync) cancelInFlight() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.gen++
}

func (g *GraphSync) close() {
	g.cancelInFlight()
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}

// snapshotLocked builds the full dag. Callers hold g.mu.
func (g *GraphSync) snapshotLocked() Dag {
	dag := g.store.Snapshot()
	dag.Sample = g.meta.sample
	dag.MainIn = g.meta.mainIn
	dag.MainOut = g.meta.mainOut
	return dag
}

// Snapshot returns the graph as it would be saved now.
func (g *GraphSync) Snapshot() Dag {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Dirty reports whether the graph differs from what was last loaded or saved.
func (g *GraphSync) Dirty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked().Hash() != g.savedHash
}

// Mode returns the current mode.
func (g *GraphSync) Mode() Mode {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mode
}

// FlowID returns the persisted flow id, or "" in new mode.
func (g *GraphSync) FlowID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.flowID
}

// Name returns the flow name used by the next save.
func (g *GraphSync) Name() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.name
}

// SetName sets the flow name used by the next save.
func (g *GraphSync) SetName(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.name = strings.TrimSpace(name)
}

func (g *GraphSync) setEndpoints(mainIn, mainOut string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.meta.mainIn = mainIn
	g.meta.mainOut = mainOut
}

func (g *GraphSync) setSample(sample map[string]any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.meta.sample = sample
}

// SaveTask is a save running in the background.
type SaveTask struct {
	// Generation orders saves; a higher generation supersedes a lower one.
	Generation uint64

	done   chan struct{}
	record FlowRecord
	err    error
}

func finishedTask(err error) *SaveTask {
	t := &SaveTask{done: make(chan struct{})}
	t.finish(FlowRecord{}, err)
	return t
}

func (t *SaveTask) finish(rec FlowRecord, err error) {
	t.record = rec
	t.err = err
	close(t.done)
}

// Done is closed when the task has finished.
func (t *SaveTask) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is done.
func (t *SaveTask) Wait(ctx context.Context) (FlowRecord, error) {
	select {
	case <-t.done:
		return t.record, t.err
	case <-ctx.Done():
		return FlowRecord{}, ctx.Err()
	}
}
