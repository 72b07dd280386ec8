package flowcanvas

import (
	"strconv"
	"sync"
)

// EdgePolicy decides what happens to edges when a node is removed.
type EdgePolicy int

const (
	// EdgesKeep leaves edges touching a removed node in place. They dangle
	// until the caller removes them; Validate reports them.
	EdgesKeep EdgePolicy = iota

	// EdgesCascade removes every edge touching the removed node.
	EdgesCascade
)

// String returns the policy name used in configuration.
func (p EdgePolicy) String() string {
	if p == EdgesCascade {
		return "cascade"
	}
	return "keep"
}

// ParseEdgePolicy parses "keep" or "cascade".
func ParseEdgePolicy(s string) (EdgePolicy, bool) {
	switch s {
	case "keep", "":
		return EdgesKeep, true
	case "cascade":
		return EdgesCascade, true
	}
	return EdgesKeep, false
}

// Store owns the authoritative node and edge collections. Every read returns
// a copy and every write goes through a method, so callers never share
// slices with the store. Safe for concurrent use.
type Store struct {
	mu         sync.RWMutex
	nodes      []Node
	edges      []Edge
	edgePolicy EdgePolicy
}

// NewStore creates an empty store.
func NewStore(policy EdgePolicy) *Store {
	return &Store{
		nodes:      []Node{},
		edges:      []Edge{},
		edgePolicy: policy,
	}
}

// SetNodes replaces the node collection.
func (s *Store) SetNodes(nodes []Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = cloneNodes(nodes)
}

// SetEdges replaces the edge collection.
func (s *Store) SetEdges(edges []Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = cloneEdges(edges)
}

// ApplyNodeChanges applies incremental node changes.
func (s *Store) ApplyNodeChanges(changes ...NodeChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = ApplyNodeChanges(s.nodes, changes...)
}

// ApplyEdgeChanges applies incremental edge changes.
func (s *Store) ApplyEdgeChanges(changes ...EdgeChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = ApplyEdgeChanges(s.edges, changes...)
}

// AddNode appends node. It returns false and changes nothing if a node with
// the same id exists.
func (s *Store) AddNode(node Node) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indexOfNode(s.nodes, node.ID) >= 0 {
		return false
	}
	s.nodes = append(s.nodes, node.Clone())
	return true
}

// AddNodeUnique appends node, renaming it to the first free id of the form
// "<id>_2", "<id>_3", ... if its id is taken. The node's removal request is
// readdressed to the final id. It returns the node as stored.
func (s *Store) AddNodeUnique(node Node) Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := node.ID
	for n := 2; indexOfNode(s.nodes, node.ID) >= 0; n++ {
		node.ID = base + "_" + strconv.Itoa(n)
	}
	node.Data.OnRemove = RemoveNodeRequest{NodeID: node.ID}
	s.nodes = append(s.nodes, node.Clone())
	return node
}

// AddEdge validates conn and appends the resulting edge. Endpoints are not
// checked against the node collection, and duplicates are appended.
func (s *Store) AddEdge(conn Connection) (Edge, error) {
	if err := ValidateConnection(conn); err != nil {
		return Edge{}, err
	}
	edge := conn.Edge()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.edges = append(s.edges, edge)
	return edge, nil
}

// RemoveNode removes the node with the given id. Under EdgesCascade the
// edges touching it are removed too and removedEdges counts them.
func (s *Store) RemoveNode(id string) (removedEdges int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOfNode(s.nodes, id)
	if i < 0 {
		return 0, false
	}
	s.nodes = append(s.nodes[:i:i], s.nodes[i+1:]...)

	if s.edgePolicy == EdgesCascade {
		kept := make([]Edge, 0, len(s.edges))
		for _, e := range s.edges {
			if e.Touches(id) {
				removedEdges++
				continue
			}
			kept = append(kept, e)
		}
		s.edges = kept
	}
	return removedEdges, true
}

// Dispatch executes a node's removal request.
func (s *Store) Dispatch(req RemoveNodeRequest) bool {
	_, ok := s.RemoveNode(req.NodeID)
	return ok
}

// RemoveEdge removes the first edge with the given id.
func (s *Store) RemoveEdge(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOfEdge(s.edges, id)
	if i < 0 {
		return false
	}
	s.edges = append(s.edges[:i:i], s.edges[i+1:]...)
	return true
}

// Nodes returns a copy of the node collection.
func (s *Store) Nodes() []Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneNodes(s.nodes)
}

// Edges returns a copy of the edge collection.
func (s *Store) Edges() []Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneEdges(s.edges)
}

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := indexOfNode(s.nodes, id)
	if i < 0 {
		return Node{}, false
	}
	return s.nodes[i].Clone(), true
}

// HasNode reports whether a node with the given id exists.
func (s *Store) HasNode(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOfNode(s.nodes, id) >= 0
}

// Len returns the number of nodes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// Snapshot returns both collections, copied under one lock.
func (s *Store) Snapshot() Dag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Dag{Nodes: cloneNodes(s.nodes), Edges: cloneEdges(s.edges)}
}
