package flowcanvas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
)

// Position is a point in logical canvas units.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Finite reports whether both coordinates are finite.
func (p Position) Finite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RemoveNodeRequest asks the store to remove one node by id. Every node
// carries one addressed to itself, so a renderer can offer "delete" without
// holding a reference to the store.
type RemoveNodeRequest struct {
	NodeID string `json:"nodeId"`
}

// NodeData is the per-instance payload of a node.
type NodeData struct {
	// Descriptor is a deep copy of the palette descriptor at placement time.
	Descriptor Descriptor `json:"descriptor"`

	// Value is free for the node's own editor UI. Starts as "".
	Value any `json:"value"`

	// OnRemove removes this node when dispatched to the store.
	OnRemove RemoveNodeRequest `json:"onRemove"`
}

// Node is one placed chain step.
type Node struct {
	ID       string   `json:"id"`
	Kind     string   `json:"type"`
	Position Position `json:"position"`
	Width    float64  `json:"width,omitempty"`
	Height   float64  `json:"height,omitempty"`
	Selected bool     `json:"selected,omitempty"`
	Dragging bool     `json:"dragging,omitempty"`
	Data     NodeData `json:"data"`
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	n.Data.Descriptor = n.Data.Descriptor.Clone()
	n.Data.Value = deepCopy(n.Data.Value)
	return n
}

// Edge is a directed connection between two node handles.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	Target       string `json:"target"`
	TargetHandle string `json:"targetHandle,omitempty"`
	Selected     bool   `json:"selected,omitempty"`
}

// Touches reports whether the edge has nodeID as either endpoint.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Dag is the persisted form of a flow graph.
type Dag struct {
	Nodes   []Node         `json:"nodes"`
	Edges   []Edge         `json:"edges"`
	Sample  map[string]any `json:"sample,omitempty"`
	MainIn  string         `json:"main_in,omitempty"`
	MainOut string         `json:"main_out,omitempty"`
}

// Hash returns the hex sha256 of the dag's JSON encoding. Two dags with the
// same content hash equal.
func (d Dag) Hash() string {
	b, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func cloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return []Node{}
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}

func cloneEdges(edges []Edge) []Edge {
	out := make([]Edge, len(edges))
	copy(out, edges)
	return out
}
