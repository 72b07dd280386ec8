package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas"
)

func (s *Server) registerPaletteTools() {
	s.addTool(mcp.NewTool("list_palette",
		mcp.WithDescription("List the node types that can be dropped on the canvas, optionally filtered by tag"),
		mcp.WithString("tag", mcp.Description("Only entries with this tag (optional)")),
	), s.handleListPalette)
}

func (s *Server) registerGraphTools() {
	s.addTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Return the current nodes, edges, flow name and mode"),
	), s.handleGetGraph)

	s.addTool(mcp.NewTool("set_viewport",
		mcp.WithDescription("Set the canvas pan/zoom used to map screen points for drop_node"),
		mcp.WithNumber("x", mcp.Description("Horizontal pan in screen pixels"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Vertical pan in screen pixels"), mcp.Required()),
		mcp.WithNumber("zoom", mcp.Description("Zoom factor, greater than 0"), mcp.Required()),
	), s.handleSetViewport)

	s.addTool(mcp.NewTool("drop_node",
		mcp.WithDescription("Drop a palette entry at a screen point, as if the user dragged it onto the canvas"),
		mcp.WithString("entryId", mcp.Description("Palette entry ID from list_palette"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("Screen X"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Screen Y"), mcp.Required()),
	), s.handleDropNode)

	s.addTool(mcp.NewTool("move_node",
		mcp.WithDescription("Move a node to a canvas position"),
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("Canvas X"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("Canvas Y"), mcp.Required()),
	), s.handleMoveNode)

	s.addTool(mcp.NewTool("remove_node",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove a node. Edges touching it follow the editor's edge policy."),
		mcp.WithString("nodeId", mcp.Description("Node ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveNode)

	s.addTool(mcp.NewTool("connect_nodes",
		mcp.WithDescription("Connect a source node handle to a target node handle"),
		mcp.WithString("source", mcp.Description("Source node ID"), mcp.Required()),
		mcp.WithString("target", mcp.Description("Target node ID"), mcp.Required()),
		mcp.WithString("sourceHandle", mcp.Description("Source handle (optional)")),
		mcp.WithString("targetHandle", mcp.Description("Target handle (optional)")),
	), s.handleConnectNodes)

	s.addTool(mcp.NewTool("remove_edge",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove an edge by ID"),
		mcp.WithString("edgeId", mcp.Description("Edge ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveEdge)

	s.addTool(mcp.NewTool("validate_flow",
		mcp.WithDescription("Report dangling edges, duplicate nodes, missing endpoints and cycles"),
	), s.handleValidateFlow)
}

type paletteEntry struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func (s *Server) handleListPalette(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag := stringArg(req.GetArguments(), "tag")
	entries := s.editor.Catalog().Entries(tag)
	out := make([]paletteEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, paletteEntry{
			ID:          e.ID,
			DisplayName: e.DisplayName,
			Type:        e.Type,
			Description: e.Description,
			Tags:        e.Tags,
		})
	}
	return jsonResult(out)
}

type graphView struct {
	FlowID  string            `json:"flowId,omitempty"`
	Name    string            `json:"name"`
	Mode    flowcanvas.Mode   `json:"mode"`
	Dirty   bool              `json:"dirty"`
	Nodes   []flowcanvas.Node `json:"nodes"`
	Edges   []flowcanvas.Edge `json:"edges"`
	MainIn  string            `json:"main_in,omitempty"`
	MainOut string            `json:"main_out,omitempty"`
}

func (s *Server) handleGetGraph(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dag := s.editor.Snapshot()
	return jsonResult(graphView{
		FlowID:  s.editor.FlowID(),
		Name:    s.editor.Name(),
		Mode:    s.editor.Mode(),
		Dirty:   s.editor.Dirty(),
		Nodes:   dag.Nodes,
		Edges:   dag.Edges,
		MainIn:  dag.MainIn,
		MainOut: dag.MainOut,
	})
}

func (s *Server) handleSetViewport(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.viewport == nil {
		return nil, fmt.Errorf("viewport is controlled by the renderer")
	}
	args := req.GetArguments()
	x, y, err := requirePoint(args)
	if err != nil {
		return nil, err
	}
	zoom, err := requireNumber(args, "zoom")
	if err != nil {
		return nil, err
	}
	if err := s.viewport.SetTransform(flowcanvas.Transform{X: x, Y: y, Zoom: zoom}); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Viewport set to pan (%g, %g) zoom %g", x, y, zoom)), nil
}

func (s *Server) handleDropNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	entryID, err := requireString(args, "entryId")
	if err != nil {
		return nil, err
	}
	x, y, err := requirePoint(args)
	if err != nil {
		return nil, err
	}

	n, err := s.editor.DropEntry(ctx, entryID, flowcanvas.Point{X: x, Y: y})
	if err != nil {
		return nil, fmt.Errorf("drop %s ignored (%s): %w", entryID, flowcanvas.DropReason(err), err)
	}
	return jsonResult(n)
}

func (s *Server) handleMoveNode(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	nodeID, err := requireString(args, "nodeId")
	if err != nil {
		return nil, err
	}
	x, y, err := requirePoint(args)
	if err != nil {
		return nil, err
	}
	if err := s.editor.MoveNode(nodeID, flowcanvas.Position{X: x, Y: y}); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Node %s moved", nodeID)), nil
}

func (s *Server) handleRemoveNode(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	nodeID, err := requireString(req.GetArguments(), "nodeId")
	if err != nil {
		return nil, err
	}
	if err := s.editor.RemoveNode(nodeID); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Node %s removed", nodeID)), nil
}

func (s *Server) handleConnectNodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	edge, err := s.editor.Connect(ctx, flowcanvas.Connection{
		Source:       stringArg(args, "source"),
		Target:       stringArg(args, "target"),
		SourceHandle: stringArg(args, "sourceHandle"),
		TargetHandle: stringArg(args, "targetHandle"),
	})
	if err != nil {
		return nil, err
	}
	return jsonResult(edge)
}

func (s *Server) handleRemoveEdge(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	edgeID, err := requireString(req.GetArguments(), "edgeId")
	if err != nil {
		return nil, err
	}
	if !s.editor.RemoveEdge(edgeID) {
		return nil, fmt.Errorf("edge %s not found", edgeID)
	}
	return textResult(fmt.Sprintf("Edge %s removed", edgeID)), nil
}

func (s *Server) handleValidateFlow(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dag := s.editor.Snapshot()
	var problems []string
	for _, issue := range flowcanvas.Issues(flowcanvas.Validate(dag)) {
		problems = append(problems, issue.Error())
	}
	if _, err := flowcanvas.TopologicalOrder(dag); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) == 0 {
		return textResult("Flow is valid"), nil
	}
	return textResult("Problems:\n- " + strings.Join(problems, "\n- ")), nil
}
