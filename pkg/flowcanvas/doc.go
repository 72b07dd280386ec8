/*
Package flowcanvas is the state machine behind a node-graph editor for
prompt chains.

# Overview

A user drags node types from a palette onto a pan/zoom canvas, wires them
together and saves the result as a flow. flowcanvas owns everything between
the renderer and the backend:

  - Store holds the authoritative nodes and edges
  - ViewportMapper turns screen points into canvas coordinates
  - DropIngestor turns a palette drop into exactly one node
  - ConnectionManager turns connection requests into edges
  - GraphSync loads flows on mount and saves them in the background

Editor composes all five.

# Basic Usage

	provider := catalog.NewProvider(catalog.FileFetcher{Path: "palette.yaml"})
	_ = provider.Load(ctx) // failure notifies the user and leaves the palette empty

	store, err := flowstore.NewSQLiteStore("flows.db")
	if err != nil {
	    log.Fatal(err)
	}
	defer store.Close()

	viewport := flowcanvas.NewPanZoom()
	_ = viewport.SetTransform(flowcanvas.Identity)

	editor := flowcanvas.NewEditor(
	    flowcanvas.NewSession(token, provider),
	    flowcanvas.NewStorePersistence(store),
	    viewport,
	    flowcanvas.StaticBounds{Left: 20, Top: 20, Width: 800, Height: 600},
	)
	defer editor.Close()

	if err := editor.Mount(ctx, flowcanvas.MountRequest{NameHint: "triage"}); err != nil {
	    log.Fatal(err)
	}
	node, err := editor.DropEntry(ctx, "llm-1", flowcanvas.Point{X: 120, Y: 80})
	// node.ID == "llm-1", node.Position == {100, 60}

# Drops

A drop is ignored, and the graph left unchanged, when the viewport or the
canvas bounds are not ready, when the drag data does not decode to a JSON
object, or when the descriptor has no displayName. The returned error says
which; DropReason labels it for logs and metrics.

The new node's id is its display name. With IDSuffix (the default) a taken
name becomes "<name>_2", "<name>_3" and so on; with IDVerbatim the drop is
refused with ErrDuplicateNode.

# Edges

Connect only checks that both endpoints are named. Self-loops, duplicate
edges and cycles are accepted; Validate and TopologicalOrder report them
when a caller cares. Edge ids are derived from the endpoints, so connecting
the same handles twice appends two edges with the same id.

Removing a node leaves its edges in place under EdgesKeep (the default).
WithEdgePolicy(EdgesCascade) removes them with the node.

# Saving

Save snapshots the graph immediately and runs the create or update call on
its own goroutine. A later Save cancels the earlier one, whose result is
then discarded with ErrSuperseded. Failures are reported as *SaveError with
a category from the errors package, and the user gets a notice through the
configured Notifier.

# Observability

Logging uses log/slog throughout. WithMetrics and WithTracing enable
OpenTelemetry instruments and spans; both are no-ops by default.
*/
package flowcanvas
