package flowcanvas

import (
	"errors"
	"fmt"
)

// GraphIssue is one structural problem found by Validate.
type GraphIssue struct {
	// Kind is "duplicate_node", "dangling_edge", "missing_handle" or
	// "missing_endpoint".
	Kind    string
	NodeID  string
	EdgeID  string
	Message string
}

// Error implements the error interface.
func (i *GraphIssue) Error() string {
	return i.Message
}

// ValidateOption configures Validate.
type ValidateOption func(*validateConfig)

type validateConfig struct {
	requireHandles bool
}

// RequireHandles makes Validate report edges without source or target
// handles.
func RequireHandles() ValidateOption {
	return func(c *validateConfig) {
		c.requireHandles = true
	}
}

// Validate reports every structural problem in dag as one joined error of
// *GraphIssue values, or nil. Editing never depends on it: the editor
// accepts graphs Validate would reject.
func Validate(dag Dag, opts ...ValidateOption) error {
	var cfg validateConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var errs []error
	ids := make(map[string]bool, len(dag.Nodes))
	for _, n := range dag.Nodes {
		if ids[n.ID] {
			errs = append(errs, &GraphIssue{
				Kind:    "duplicate_node",
				NodeID:  n.ID,
				Message: fmt.Sprintf("node %q appears more than once", n.ID),
			})
		}
		ids[n.ID] = true
	}

	for _, e := range dag.Edges {
		for _, end := range []string{e.Source, e.Target} {
			if !ids[end] {
				errs = append(errs, &GraphIssue{
					Kind:    "dangling_edge",
					NodeID:  end,
					EdgeID:  e.ID,
					Message: fmt.Sprintf("edge %q references missing node %q", e.ID, end),
				})
			}
		}
		if cfg.requireHandles && (e.SourceHandle == "" || e.TargetHandle == "") {
			errs = append(errs, &GraphIssue{
				Kind:    "missing_handle",
				EdgeID:  e.ID,
				Message: fmt.Sprintf("edge %q has no source or target handle", e.ID),
			})
		}
	}

	endpoints := []struct{ label, id string }{{"main_in", dag.MainIn}, {"main_out", dag.MainOut}}
	for _, ep := range endpoints {
		label, id := ep.label, ep.id
		if id != "" && !ids[id] {
			errs = append(errs, &GraphIssue{
				Kind:    "missing_endpoint",
				NodeID:  id,
				Message: fmt.Sprintf("%s references missing node %q", label, id),
			})
		}
	}

	return errors.Join(errs...)
}

// Issues unpacks the issues joined in an error returned by Validate.
func Issues(err error) []*GraphIssue {
	if err == nil {
		return nil
	}
	var out []*GraphIssue
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, Issues(e)...)
		}
		return out
	}
	var issue *GraphIssue
	if errors.As(err, &issue) {
		out = append(out, issue)
	}
	return out
}

// TopologicalOrder returns node ids so that every edge points forward.
// Ties keep node order. Edges with missing endpoints are ignored. A graph
// with a cycle, self-loops included, returns ErrCycle.
func TopologicalOrder(dag Dag) ([]string, error) {
	indegree := make(map[string]int, len(dag.Nodes))
	order := make([]string, 0, len(dag.Nodes))
	for _, n := range dag.Nodes {
		if _, seen := indegree[n.ID]; seen {
			continue
		}
		indegree[n.ID] = 0
		order = append(order, n.ID)
	}

	out := make(map[string][]string, len(order))
	for _, e := range dag.Edges {
		_, okSrc := indegree[e.Source]
		_, okTgt := indegree[e.Target]
		if !okSrc || !okTgt {
			continue
		}
		out[e.Source] = append(out[e.Source], e.Target)
		indegree[e.Target]++
	}

	queue := make([]string, 0, len(order))
	for _, id := range order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)
		for _, next := range out[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(sorted) != len(order) {
		return nil, fmt.Errorf("%w: %d of %d nodes are on or behind a cycle",
			ErrCycle, len(order)-len(sorted), len(order))
	}
	return sorted, nil
}
