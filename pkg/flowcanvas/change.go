package flowcanvas

// ChangeType identifies an incremental change emitted by the canvas.
type ChangeType string

// Change types understood by ApplyNodeChanges and ApplyEdgeChanges.
// Anything else is ignored.
const (
	ChangePosition   ChangeType = "position"
	ChangeDimensions ChangeType = "dimensions"
	ChangeSelect     ChangeType = "select"
	ChangeRemove     ChangeType = "remove"
)

// NodeChange is one incremental change to a node.
type NodeChange struct {
	Type ChangeType `json:"type"`
	ID   string     `json:"id"`

	// Position and Dragging apply to ChangePosition. A nil Position only
	// updates the dragging flag.
	Position *Position `json:"position,omitempty"`
	Dragging *bool     `json:"dragging,omitempty"`

	// Width and Height apply to ChangeDimensions.
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`

	// Selected applies to ChangeSelect.
	Selected bool `json:"selected,omitempty"`
}

// EdgeChange is one incremental change to an edge.
type EdgeChange struct {
	Type     ChangeType `json:"type"`
	ID       string     `json:"id"`
	Selected bool       `json:"selected,omitempty"`
}

// MoveNode returns a position change.
func MoveNode(id string, to Position) NodeChange {
	return NodeChange{Type: ChangePosition, ID: id, Position: &to}
}

// SelectNode returns a selection change.
func SelectNode(id string, selected bool) NodeChange {
	return NodeChange{Type: ChangeSelect, ID: id, Selected: selected}
}

// RemoveNodeChange returns a removal change.
func RemoveNodeChange(id string) NodeChange {
	return NodeChange{Type: ChangeRemove, ID: id}
}

// ApplyNodeChanges returns a new collection with changes applied in order.
// The input is not modified. Changes naming unknown ids, unknown change
// types and moves to non-finite positions are skipped.
func ApplyNodeChanges(nodes []Node, changes ...NodeChange) []Node {
	out := cloneNodes(nodes)
	for _, ch := range changes {
		i := indexOfNode(out, ch.ID)
		if i < 0 {
			continue
		}
		switch ch.Type {
		case ChangePosition:
			if ch.Position != nil {
				if !ch.Position.Finite() {
					continue
				}
				out[i].Position = *ch.Position
			}
			if ch.Dragging != nil {
				out[i].Dragging = *ch.Dragging
			}
		case ChangeDimensions:
			if ch.Width >= 0 && ch.Height >= 0 && isFinite(ch.Width) && isFinite(ch.Height) {
				out[i].Width = ch.Width
				out[i].Height = ch.Height
			}
		case ChangeSelect:
			out[i].Selected = ch.Selected
		case ChangeRemove:
			out = append(out[:i], out[i+1:]...)
		}
	}
	return out
}

// ApplyEdgeChanges returns a new collection with changes applied in order.
// The input is not modified. Unknown ids and change types are skipped.
func ApplyEdgeChanges(edges []Edge, changes ...EdgeChange) []Edge {
	out := cloneEdges(edges)
	for _, ch := range changes {
		i := indexOfEdge(out, ch.ID)
		if i < 0 {
			continue
		}
		switch ch.Type {
		case ChangeSelect:
			out[i].Selected = ch.Selected
		case ChangeRemove:
			out = append(out[:i], out[i+1:]...)
		}
	}
	return out
}

func indexOfNode(nodes []Node, id string) int {
	for i := range nodes {
		if nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// Edge ids repeat when the same connection is made twice; the first
// matching edge is the one changed.
func indexOfEdge(edges []Edge, id string) int {
	for i := range edges {
		if edges[i].ID == id {
			return i
		}
	}
	return -1
}
