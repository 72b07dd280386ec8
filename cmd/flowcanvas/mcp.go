package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/event"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/mcpserver"
)

func mcpCmd(a *app) *cobra.Command {
	var (
		flowID string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve a canvas editor to agents over MCP (stdio)",
		Long: `Starts an MCP server on stdin/stdout. The editor opens the flow given by
--flow, or a new flow named by --name. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()

			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer func() {
				err = errors.Join(err, store.Close())
			}()

			bus := event.NewBus(event.DefaultBusConfig)
			defer bus.Close()
			bus.SubscribeAll(event.HandlerFunc(func(evt event.Event) error {
				a.logger.Debug("editor event",
					slog.String("type", evt.Type),
					slog.String("flow_id", evt.FlowID))
				return nil
			}))

			viewport := flowcanvas.NewPanZoom()
			editor := flowcanvas.NewEditor(
				flowcanvas.NewSession(a.token, a.catalogProvider(ctx, cmd)),
				flowcanvas.NewStorePersistence(store),
				viewport,
				flowcanvas.StaticBounds{},
				append(a.editorOptions(), flowcanvas.WithEventBus(bus))...,
			)
			defer editor.Close()

			if err := editor.Mount(ctx, flowcanvas.MountRequest{FlowID: flowID, NameHint: name}); err != nil {
				a.logger.Warn("opened a new flow instead", slog.String("flow_id", flowID), slog.String("error", err.Error()))
			}

			srv := mcpserver.New(mcpserver.Deps{
				Editor:   editor,
				Viewport: viewport,
				Logger:   a.logger,
			})
			return srv.ServeStdio()
		},
	}

	cmd.Flags().StringVar(&flowID, "flow", "", "Flow id to open (default: a new flow)")
	cmd.Flags().StringVar(&name, "name", "", "Name for a new flow")
	return cmd
}

// editorOptions maps settings onto editor options. Settings are validated
// before any command runs, so the policy names always parse.
func (a *app) editorOptions() []flowcanvas.Option {
	idPolicy, _ := flowcanvas.ParseIDPolicy(a.settings.Editor.IDPolicy)
	edgePolicy, _ := flowcanvas.ParseEdgePolicy(a.settings.Editor.EdgePolicy)
	return []flowcanvas.Option{
		flowcanvas.WithLogger(a.logger),
		flowcanvas.WithNotifier(flowcanvas.LogNotifier{Logger: a.logger}),
		flowcanvas.WithIDPolicy(idPolicy),
		flowcanvas.WithEdgePolicy(edgePolicy),
		flowcanvas.WithDragMIME(a.settings.Editor.DragMIME),
		flowcanvas.WithRetry(a.settings.RetryConfig()),
		flowcanvas.WithMetrics(a.settings.Telemetry.Metrics),
		flowcanvas.WithTracing(a.settings.Telemetry.Tracing),
	}
}
