package flowcanvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func edge(src, tgt string) Edge {
	return Connection{Source: src, Target: tgt, SourceHandle: "out", TargetHandle: "in"}.Edge()
}

func TestValidate(t *testing.T) {
	t.Run("clean graph", func(t *testing.T) {
		assert.NoError(t, Validate(sampleDag()))
	})

	t.Run("collects every issue", func(t *testing.T) {
		dag := Dag{
			Nodes:   []Node{node("a"), node("a"), node("b")},
			Edges:   []Edge{edge("a", "gone"), {ID: "bare", Source: "a", Target: "b"}},
			MainIn:  "a",
			MainOut: "missing",
		}
		err := Validate(dag, RequireHandles())
		require.Error(t, err)

		kinds := []string{}
		for _, issue := range Issues(err) {
			kinds = append(kinds, issue.Kind)
		}
		assert.Equal(t, []string{"duplicate_node", "dangling_edge", "missing_handle", "missing_endpoint"}, kinds)
		assert.Contains(t, err.Error(), `main_out references missing node "missing"`)
	})

	t.Run("handles optional by default", func(t *testing.T) {
		dag := Dag{
			Nodes: []Node{node("a"), node("b")},
			Edges: []Edge{{ID: "bare", Source: "a", Target: "b"}},
		}
		assert.NoError(t, Validate(dag))
	})
}

func TestIssues_Nil(t *testing.T) {
	assert.Nil(t, Issues(nil))
}

func TestTopologicalOrder(t *testing.T) {
	t.Run("chain", func(t *testing.T) {
		dag := Dag{
			Nodes: []Node{node("c"), node("a"), node("b")},
			Edges: []Edge{edge("a", "b"), edge("b", "c")},
		}
		order, err := TopologicalOrder(dag)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("ties keep node order", func(t *testing.T) {
		dag := Dag{
			Nodes: []Node{node("x"), node("y"), node("z")},
			Edges: []Edge{edge("y", "z")},
		}
		order, err := TopologicalOrder(dag)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "z"}, order)
	})

	t.Run("dangling edges ignored", func(t *testing.T) {
		dag := Dag{
			Nodes: []Node{node("a")},
			Edges: []Edge{edge("a", "gone"), edge("gone", "a")},
		}
		order, err := TopologicalOrder(dag)
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, order)
	})

	t.Run("cycle", func(t *testing.T) {
		dag := Dag{
			Nodes: []Node{node("a"), node("b"), node("c")},
			Edges: []Edge{edge("a", "b"), edge("b", "c"), edge("c", "b")},
		}
		_, err := TopologicalOrder(dag)
		assert.ErrorIs(t, err, ErrCycle)
	})

	t.Run("self loop", func(t *testing.T) {
		dag := Dag{Nodes: []Node{node("a")}, Edges: []Edge{edge("a", "a")}}
		_, err := TopologicalOrder(dag)
		assert.ErrorIs(t, err, ErrCycle)
	})

	t.Run("empty", func(t *testing.T) {
		order, err := TopologicalOrder(Dag{})
		require.NoError(t, err)
		assert.Empty(t, order)
	})
}
