// Package mcpserver exposes one canvas editor to AI agents over the Model
// Context Protocol. Agents get the same operations a user has: browse the
// palette, drop and move nodes, connect them, and save the flow.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas"
)

// Server is the MCP server for one editor.
type Server struct {
	mcp      *server.MCPServer
	editor   *flowcanvas.Editor
	viewport *flowcanvas.PanZoom
	logger   *slog.Logger
	handlers map[string]server.ToolHandlerFunc
}

// Deps holds what the server drives.
type Deps struct {
	Editor *flowcanvas.Editor

	// Viewport is the editor's pan/zoom, updated by set_viewport. Optional;
	// without it set_viewport fails.
	Viewport *flowcanvas.PanZoom

	Logger *slog.Logger
}

// New creates a server with every tool registered.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		editor:   deps.Editor,
		viewport: deps.Viewport,
		logger:   logger,
		handlers: make(map[string]server.ToolHandlerFunc),
	}

	s.mcp = server.NewMCPServer(
		"flowcanvas",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	s.registerPaletteTools()
	s.registerGraphTools()
	s.registerFlowTools()
	return s
}

// MCP returns the underlying server, for transports other than stdio.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("mcp stdio server starting")
	return server.ServeStdio(s.mcp)
}

// addTool registers a tool with the protocol server and keeps its handler
// for direct calls.
func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.handlers[tool.Name] = handler
	s.mcp.AddTool(tool, handler)
}

// Call runs a tool by name without going through a transport.
func (s *Server) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	handler, ok := s.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return handler(ctx, req)
}

// Tools returns the registered tool names.
func (s *Server) Tools() []string {
	names := make([]string, 0, len(s.handlers))
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ── Helpers ────────────────────────────────────────────────

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(v bool) *bool { return &v }

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func requireString(args map[string]any, key string) (string, error) {
	v := stringArg(args, key)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

func numberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func requireNumber(args map[string]any, key string) (float64, error) {
	v, ok := numberArg(args, key)
	if !ok {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

func requirePoint(args map[string]any) (float64, float64, error) {
	x, err := requireNumber(args, "x")
	if err != nil {
		return 0, 0, err
	}
	y, err := requireNumber(args, "y")
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}
