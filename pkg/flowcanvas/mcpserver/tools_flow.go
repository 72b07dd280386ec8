package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	fcerrors "github.com/randalmurphal/flowcanvas/pkg/flowcanvas/errors"
)

func (s *Server) registerFlowTools() {
	s.addTool(mcp.NewTool("rename_flow",
		mcp.WithDescription("Set the name used by the next save"),
		mcp.WithString("name", mcp.Description("Flow name"), mcp.Required()),
	), s.handleRenameFlow)

	s.addTool(mcp.NewTool("save_flow",
		mcp.WithDescription("Save the flow and wait for the result. A new flow needs a name."),
		mcp.WithString("name", mcp.Description("Flow name (optional, keeps the current name)")),
	), s.handleSaveFlow)
}

func (s *Server) handleRenameFlow(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := requireString(req.GetArguments(), "name")
	if err != nil {
		return nil, err
	}
	s.editor.SetName(name)
	return textResult(fmt.Sprintf("Flow renamed to %q", s.editor.Name())), nil
}

type saveResult struct {
	FlowID  string `json:"flowId"`
	Name    string `json:"name"`
	Version int    `json:"version"`
	Mode    string `json:"mode"`
}

func (s *Server) handleSaveFlow(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringArg(req.GetArguments(), "name")
	rec, err := s.editor.Save(ctx, name).Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fcerrors.UserMessage(err), err)
	}
	return jsonResult(saveResult{
		FlowID:  rec.ID,
		Name:    rec.Name,
		Version: rec.Version,
		Mode:    string(s.editor.Mode()),
	})
}
