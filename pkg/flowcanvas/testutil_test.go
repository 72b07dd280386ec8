package flowcanvas

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/catalog"
	fcerrors "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/errors"
)

// Test fixtures shared across the package tests.

// dropAt is the screen point and bounds used by the canonical drop.
var (
	dropAt     = Point{X: 120, Y: 80}
	dropBounds = StaticBounds{Left: 20, Top: 20, Width: 800, Height: 600}
)

// readyViewport returns a viewport initialized to the identity transform.
func readyViewport(t *testing.T) *PanZoom {
	t.Helper()
	vp := NewPanZoom()
	require.NoError(t, vp.SetTransform(Identity))
	return vp
}

// fastRetry keeps retry tests quick.
func fastRetry(attempts int) fcerrors.RetryConfig {
	return fcerrors.NewRetryConfig(
		fcerrors.WithMaxAttempts(attempts),
		fcerrors.WithInitialBackoff(time.Millisecond),
		fcerrors.WithMaxBackoff(2*time.Millisecond),
		fcerrors.WithJitter(0),
	)
}

// payloadFor encodes a descriptor under the default drag type.
func payloadFor(desc string) DragPayload {
	return NewDragPayload(DefaultDragMIME, []byte(desc))
}

// testSession is a Session with a fixed catalog.
type testSession struct {
	token string
	cat   *catalog.Catalog
}

func (s testSession) Token() string { return s.token }

func (s testSession) Catalog() *catalog.Catalog {
	if s.cat == nil {
		return catalog.Empty()
	}
	return s.cat
}

func newTestSession(t *testing.T, entries ...catalog.Entry) testSession {
	t.Helper()
	cat, err := catalog.New(entries)
	require.NoError(t, err)
	return testSession{token: "tok-1", cat: cat}
}

// fakePersistence records every call. hook, when set, runs inside
// CreateFlow and UpdateFlow with the 1-based call number and can block or
// fail the call.
type fakePersistence struct {
	mu      sync.Mutex
	flows   map[string]FlowRecord
	creates int
	updates int
	gets    int
	tokens  []string
	getErrs []error
	saveErr error
	hook    func(ctx context.Context, call int) error
	nextID  int
}

func newFakePersistence(records ...FlowRecord) *fakePersistence {
	p := &fakePersistence{flows: make(map[string]FlowRecord)}
	for _, r := range records {
		p.flows[r.ID] = r
	}
	return p
}

func (p *fakePersistence) CreateFlow(ctx context.Context, name string, dag Dag, token string) (FlowRecord, error) {
	p.mu.Lock()
	p.creates++
	call := p.creates + p.updates
	p.tokens = append(p.tokens, token)
	hook, saveErr := p.hook, p.saveErr
	p.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, call); err != nil {
			return FlowRecord{}, err
		}
	}
	if saveErr != nil {
		return FlowRecord{}, saveErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	rec := FlowRecord{ID: fmt.Sprintf("flow-%d", p.nextID), Name: name, Dag: dag, Version: 1}
	p.flows[rec.ID] = rec
	return rec, nil
}

func (p *fakePersistence) UpdateFlow(ctx context.Context, id, name string, dag Dag, token string) (FlowRecord, error) {
	p.mu.Lock()
	p.updates++
	call := p.creates + p.updates
	p.tokens = append(p.tokens, token)
	hook, saveErr := p.hook, p.saveErr
	p.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, call); err != nil {
			return FlowRecord{}, err
		}
	}
	if saveErr != nil {
		return FlowRecord{}, saveErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	prev, ok := p.flows[id]
	if !ok {
		return FlowRecord{}, ErrFlowNotFound
	}
	rec := FlowRecord{ID: id, Name: name, Dag: dag, Version: prev.Version + 1}
	p.flows[id] = rec
	return rec, nil
}

func (p *fakePersistence) GetFlow(_ context.Context, id string) (FlowRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gets++
	if len(p.getErrs) > 0 {
		err := p.getErrs[0]
		p.getErrs = p.getErrs[1:]
		return FlowRecord{}, err
	}
	rec, ok := p.flows[id]
	if !ok {
		return FlowRecord{}, fmt.Errorf("%w: %s", ErrFlowNotFound, id)
	}
	return rec, nil
}

func (p *fakePersistence) counts() (creates, updates, gets int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creates, p.updates, p.gets
}

// newTestEditor builds an editor on an identity viewport with the canonical
// bounds and a notice log.
func newTestEditor(t *testing.T, p Persistence, opts ...Option) (*Editor, *NoticeLog) {
	t.Helper()
	notices := &NoticeLog{}
	session := newTestSession(t,
		catalog.Entry{ID: "llm-1", DisplayName: "llm-1", Type: "llm", Tags: []string{"model"}},
		catalog.Entry{ID: "prompt", DisplayName: "Prompt", Type: "prompt"},
	)
	opts = append([]Option{WithNotifier(notices), WithRetry(fastRetry(3))}, opts...)
	ed := NewEditor(session, p, readyViewport(t), dropBounds, opts...)
	t.Cleanup(func() { _ = ed.Close() })
	return ed, notices
}

// sampleDag is a small hydrated graph: a -> b.
func sampleDag() Dag {
	return Dag{
		Nodes: []Node{
			{
				ID: "a", Kind: "llm", Position: Position{X: 10, Y: 20},
				Data: NodeData{
					Descriptor: Descriptor{"displayName": "a", "model": "small"},
					Value:      "",
					OnRemove:   RemoveNodeRequest{NodeID: "a"},
				},
			},
			{
				ID: "b", Kind: "prompt", Position: Position{X: 200, Y: 20},
				Data: NodeData{
					Descriptor: Descriptor{"displayName": "b"},
					Value:      "hello",
					OnRemove:   RemoveNodeRequest{NodeID: "b"},
				},
			},
		},
		Edges: []Edge{
			{ID: "flowcanvas__edge-aout-bin", Source: "a", SourceHandle: "out", Target: "b", TargetHandle: "in"},
		},
	}
}
