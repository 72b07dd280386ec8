package flowcanvas

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIngestor(t *testing.T, policy IDPolicy) (*DropIngestor, *Store) {
	t.Helper()
	store := NewStore(EdgesKeep)
	mapper := NewViewportMapper(readyViewport(t), dropBounds)
	return NewDropIngestor(store, mapper, "", policy, nil, nil), store
}

func TestDrop_PlacesNodeAtMappedPoint(t *testing.T) {
	d, store := newTestIngestor(t, IDSuffix)

	got, err := d.Drop(context.Background(), payloadFor(`{"displayName":"llm-1","model":"small"}`), dropAt)
	require.NoError(t, err)

	assert.Equal(t, "llm-1", got.ID)
	assert.Equal(t, Position{X: 100, Y: 60}, got.Position)
	assert.Equal(t, "", got.Data.Value)
	assert.Equal(t, RemoveNodeRequest{NodeID: "llm-1"}, got.Data.OnRemove)
	assert.Equal(t, Descriptor{"displayName": "llm-1", "model": "small"}, got.Data.Descriptor)

	require.Equal(t, 1, store.Len())
	stored, ok := store.Node("llm-1")
	require.True(t, ok)
	assert.Equal(t, got, stored)
}

func TestDrop_IgnoredDropsLeaveGraphUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		data    DragData
		wantErr error
	}{
		{"empty displayName", payloadFor(`{"displayName":""}`), ErrMissingDisplayName},
		{"no displayName", payloadFor(`{"model":"small"}`), ErrMissingDisplayName},
		{"non-string displayName", payloadFor(`{"displayName":42}`), ErrMissingDisplayName},
		{"not json", payloadFor(`{displayName`), ErrMalformedPayload},
		{"json array", payloadFor(`["llm"]`), ErrMalformedPayload},
		{"json null", payloadFor(`null`), ErrMalformedPayload},
		{"nothing under mime", DragPayload{"text/plain": `{"displayName":"x"}`}, ErrMalformedPayload},
		{"nil data", nil, ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, store := newTestIngestor(t, IDSuffix)
			store.AddNode(node("existing"))
			before := store.Snapshot()

			_, err := d.Drop(context.Background(), tt.data, dropAt)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, store.Snapshot())
		})
	}
}

func TestDrop_ViewportNotReady(t *testing.T) {
	store := NewStore(EdgesKeep)
	d := NewDropIngestor(store, NewViewportMapper(NewPanZoom(), dropBounds), "", IDSuffix, nil, nil)

	_, err := d.Drop(context.Background(), payloadFor(`{"displayName":"llm-1"}`), dropAt)
	assert.ErrorIs(t, err, ErrViewportNotReady)
	assert.Equal(t, 0, store.Len())
}

func TestDrop_IDPolicies(t *testing.T) {
	data := payloadFor(`{"displayName":"llm-1"}`)

	t.Run("suffix", func(t *testing.T) {
		d, store := newTestIngestor(t, IDSuffix)
		for range 3 {
			_, err := d.Drop(context.Background(), data, dropAt)
			require.NoError(t, err)
		}
		ids := []string{}
		for _, n := range store.Nodes() {
			ids = append(ids, n.ID)
		}
		assert.Equal(t, []string{"llm-1", "llm-1_2", "llm-1_3"}, ids)
	})

	t.Run("verbatim", func(t *testing.T) {
		d, store := newTestIngestor(t, IDVerbatim)
		_, err := d.Drop(context.Background(), data, dropAt)
		require.NoError(t, err)
		_, err = d.Drop(context.Background(), data, Point{X: 300, Y: 300})
		assert.ErrorIs(t, err, ErrDuplicateNode)

		require.Equal(t, 1, store.Len())
		n, _ := store.Node("llm-1")
		assert.Equal(t, Position{X: 100, Y: 60}, n.Position, "first node is untouched")
	})
}

func TestDrop_DescriptorIsDeepCopied(t *testing.T) {
	d, store := newTestIngestor(t, IDSuffix)
	_, err := d.Drop(context.Background(), payloadFor(`{"displayName":"a","params":{"t":0.2},"tags":["x"]}`), dropAt)
	require.NoError(t, err)
	_, err = d.Drop(context.Background(), payloadFor(`{"displayName":"a","params":{"t":0.2},"tags":["x"]}`), dropAt)
	require.NoError(t, err)

	nodes := store.Nodes()
	require.Len(t, nodes, 2)
	nodes[0].Data.Descriptor["params"].(map[string]any)["t"] = 0.9

	again := store.Nodes()
	assert.Equal(t, 0.2, again[0].Data.Descriptor["params"].(map[string]any)["t"])
	assert.Equal(t, 0.2, again[1].Data.Descriptor["params"].(map[string]any)["t"])
}

func TestDrop_CustomMIME(t *testing.T) {
	store := NewStore(EdgesKeep)
	d := NewDropIngestor(store, NewViewportMapper(readyViewport(t), dropBounds),
		"application/reactflow", IDSuffix, nil, nil)

	_, err := d.Drop(context.Background(), payloadFor(`{"displayName":"a"}`), dropAt)
	assert.ErrorIs(t, err, ErrMalformedPayload)

	_, err = d.Drop(context.Background(), NewDragPayload("application/reactflow", []byte(`{"displayName":"a"}`)), dropAt)
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())
}

func TestDrop_LogsIgnoredReason(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := NewStore(EdgesKeep)
	d := NewDropIngestor(store, NewViewportMapper(readyViewport(t), dropBounds), "", IDSuffix, logger, nil)

	_, err := d.Drop(context.Background(), payloadFor(`{"displayName":""}`), dropAt)
	require.Error(t, err)
	assert.Contains(t, buf.String(), "drop ignored")
	assert.Contains(t, buf.String(), "missing display name")
}

func TestDropReason(t *testing.T) {
	assert.Equal(t, "viewport not ready", DropReason(ErrViewportNotReady))
	assert.Equal(t, "bounds unavailable", DropReason(ErrBoundsUnavailable))
	assert.Equal(t, "duplicate id", DropReason(ErrDuplicateNode))
	assert.Equal(t, "other", DropReason(assert.AnError))
}

func TestDrop_BlankDisplayNameStillPlaces(t *testing.T) {
	d, store := newTestIngestor(t, IDSuffix)

	n, err := d.Drop(context.Background(), payloadFor(`{"displayName":"   "}`), dropAt)
	require.NoError(t, err)
	assert.Equal(t, "   ", n.ID)
	assert.Equal(t, RemoveNodeRequest{NodeID: "   "}, n.Data.OnRemove)
	assert.Equal(t, 1, store.Len())
}
