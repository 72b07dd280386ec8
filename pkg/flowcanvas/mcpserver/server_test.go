package mcpserver

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/catalog"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/flowstore"
)

func newTestServer(t *testing.T) (*Server, *flowcanvas.Editor, *flowstore.MemoryStore) {
	t.Helper()
	provider := catalog.NewProvider(catalog.StaticFetcher{
		{ID: "llm-1", DisplayName: "llm-1", Type: "llm", Tags: []string{"model"}},
		{ID: "prompt", DisplayName: "Prompt", Type: "prompt", Tags: []string{"text"}},
	})
	require.NoError(t, provider.Load(context.Background()))

	store := flowstore.NewMemoryStore()
	viewport := flowcanvas.NewPanZoom()
	editor := flowcanvas.NewEditor(
		flowcanvas.NewSession("tok", provider),
		flowcanvas.NewStorePersistence(store),
		viewport,
		flowcanvas.StaticBounds{Left: 20, Top: 20},
		flowcanvas.WithNotifier(&flowcanvas.NoticeLog{}),
	)
	t.Cleanup(func() { _ = editor.Close() })
	return New(Deps{Editor: editor, Viewport: viewport}), editor, store
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func call(t *testing.T, s *Server, name string, args map[string]any) string {
	t.Helper()
	res, err := s.Call(context.Background(), name, args)
	require.NoError(t, err)
	return resultText(t, res)
}

func TestTools_Registered(t *testing.T) {
	s, _, _ := newTestServer(t)
	assert.Equal(t, []string{
		"connect_nodes",
		"drop_node",
		"get_graph",
		"list_palette",
		"move_node",
		"remove_edge",
		"remove_node",
		"rename_flow",
		"save_flow",
		"set_viewport",
		"validate_flow",
	}, s.Tools())
}

func TestListPalette(t *testing.T) {
	s, _, _ := newTestServer(t)

	var all []paletteEntry
	require.NoError(t, json.Unmarshal([]byte(call(t, s, "list_palette", nil)), &all))
	assert.Len(t, all, 2)

	var models []paletteEntry
	require.NoError(t, json.Unmarshal([]byte(call(t, s, "list_palette", map[string]any{"tag": "model"})), &models))
	require.Len(t, models, 1)
	assert.Equal(t, "llm-1", models[0].ID)
}

func TestDropNode_NeedsViewport(t *testing.T) {
	s, editor, _ := newTestServer(t)

	_, err := s.Call(context.Background(), "drop_node", map[string]any{"entryId": "llm-1", "x": 120.0, "y": 80.0})
	require.Error(t, err)
	assert.ErrorIs(t, err, flowcanvas.ErrViewportNotReady)
	assert.Empty(t, editor.Nodes())

	call(t, s, "set_viewport", map[string]any{"x": 0.0, "y": 0.0, "zoom": 1.0})
	var n flowcanvas.Node
	require.NoError(t, json.Unmarshal([]byte(call(t, s, "drop_node",
		map[string]any{"entryId": "llm-1", "x": 120.0, "y": 80.0})), &n))
	assert.Equal(t, "llm-1", n.ID)
	assert.Equal(t, flowcanvas.Position{X: 100, Y: 60}, n.Position)
}

func TestSetViewport_RejectsBadZoom(t *testing.T) {
	s, _, _ := newTestServer(t)
	_, err := s.Call(context.Background(), "set_viewport", map[string]any{"x": 0.0, "y": 0.0, "zoom": 0.0})
	assert.Error(t, err)
	_, err = s.Call(context.Background(), "set_viewport", map[string]any{"x": "left", "y": 0.0, "zoom": 1.0})
	assert.Error(t, err)
}

func TestEditAndSaveFlow(t *testing.T) {
	s, editor, store := newTestServer(t)
	call(t, s, "set_viewport", map[string]any{"x": 0.0, "y": 0.0, "zoom": 1.0})
	call(t, s, "drop_node", map[string]any{"entryId": "llm-1", "x": 120.0, "y": 80.0})
	call(t, s, "drop_node", map[string]any{"entryId": "prompt", "x": 320.0, "y": 80.0})
	call(t, s, "move_node", map[string]any{"nodeId": "Prompt", "x": 400.0, "y": 10.0})

	var edge flowcanvas.Edge
	require.NoError(t, json.Unmarshal([]byte(call(t, s, "connect_nodes", map[string]any{
		"source": "llm-1", "target": "Prompt", "sourceHandle": "out", "targetHandle": "in",
	})), &edge))
	assert.Equal(t, "flowcanvas__edge-llm-1out-Promptin", edge.ID)
	assert.Equal(t, "Flow is valid", call(t, s, "validate_flow", nil))

	// A new flow needs a name.
	_, err := s.Call(context.Background(), "save_flow", nil)
	assert.ErrorIs(t, err, flowcanvas.ErrNameRequired)

	call(t, s, "rename_flow", map[string]any{"name": "triage"})
	var saved saveResult
	require.NoError(t, json.Unmarshal([]byte(call(t, s, "save_flow", nil)), &saved))
	assert.Equal(t, "triage", saved.Name)
	assert.Equal(t, "edit", saved.Mode)
	assert.Equal(t, editor.FlowID(), saved.FlowID)

	rec, err := store.Get(context.Background(), saved.FlowID)
	require.NoError(t, err)
	dag, err := flowcanvas.DecodeDag(rec.Dag)
	require.NoError(t, err)
	require.Len(t, dag.Nodes, 2)
	assert.Equal(t, flowcanvas.Position{X: 400, Y: 10}, dag.Nodes[1].Position)
	require.Len(t, dag.Edges, 1)

	var view graphView
	require.NoError(t, json.Unmarshal([]byte(call(t, s, "get_graph", nil)), &view))
	assert.False(t, view.Dirty)
	assert.Equal(t, flowcanvas.ModeEdit, view.Mode)
}

func TestRemoveTools(t *testing.T) {
	s, editor, _ := newTestServer(t)
	call(t, s, "set_viewport", map[string]any{"x": 0.0, "y": 0.0, "zoom": 1.0})
	call(t, s, "drop_node", map[string]any{"entryId": "llm-1", "x": 120.0, "y": 80.0})
	call(t, s, "connect_nodes", map[string]any{"source": "llm-1", "target": "elsewhere"})

	call(t, s, "remove_node", map[string]any{"nodeId": "llm-1"})
	assert.Empty(t, editor.Nodes())
	assert.Contains(t, call(t, s, "validate_flow", nil), "references missing node")

	call(t, s, "remove_edge", map[string]any{"edgeId": "flowcanvas__edge-llm-1-elsewhere"})
	assert.Empty(t, editor.Edges())

	_, err := s.Call(context.Background(), "remove_edge", map[string]any{"edgeId": "flowcanvas__edge-llm-1-elsewhere"})
	assert.Error(t, err)
	_, err = s.Call(context.Background(), "remove_node", map[string]any{"nodeId": "llm-1"})
	assert.ErrorIs(t, err, flowcanvas.ErrNodeNotFound)
}

func TestCall_UnknownTool(t *testing.T) {
	s, _, _ := newTestServer(t)
	_, err := s.Call(context.Background(), "launch_rockets", nil)
	assert.Error(t, err)
}

func TestMissingArguments(t *testing.T) {
	s, _, _ := newTestServer(t)
	for _, name := range []string{"drop_node", "move_node", "remove_node", "remove_edge", "rename_flow"} {
		t.Run(name, func(t *testing.T) {
			_, err := s.Call(context.Background(), name, map[string]any{})
			assert.Error(t, err)
		})
	}
}
