package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas"
	"github.com/randalmurphal/flowcanvas/pkg/flowcanvas/flowstore"
)

func flowsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flows",
		Short: "List, inspect, export, import and delete saved flows",
	}
	cmd.AddCommand(
		flowsListCmd(a),
		flowsShowCmd(a),
		flowsExportCmd(a),
		flowsImportCmd(a),
		flowsDeleteCmd(a),
	)
	return cmd
}

// withStore opens the store for the duration of fn.
func (a *app) withStore(fn func(flowstore.Store) error) (err error) {
	store, err := a.openStore()
	if err != nil {
		return fmt.Errorf("open flow store: %w", err)
	}
	defer func() {
		err = errors.Join(err, store.Close())
	}()
	return fn(store)
}

func flowsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved flows, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store flowstore.Store) error {
				infos, err := store.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(infos) == 0 {
					fmt.Fprintln(out, "  No flows saved yet.")
					return nil
				}
				rows := make([][]string, 0, len(infos))
				for _, info := range infos {
					rows = append(rows, []string{
						info.ID,
						info.Name,
						strconv.Itoa(info.Version),
						info.UpdatedAt.Local().Format("Jan 02 15:04"),
						fmt.Sprintf("%dB", info.Size),
					})
				}
				table(out, []string{"ID", "Name", "Version", "Updated", "Size"}, rows)
				fmt.Fprintf(out, "\n  %d flows\n", len(infos))
				return nil
			})
		},
	}
}

func flowsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a flow's nodes, edges and structural problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store flowstore.Store) error {
				rec, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				dag, err := flowcanvas.DecodeDag(rec.Dag)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s %s\n", brand.Sprint(rec.Name), subtle.Sprintf("(%s, v%d)", rec.ID, rec.Version))
				fmt.Fprintf(out, "  %d nodes, %d edges\n\n", len(dag.Nodes), len(dag.Edges))

				rows := make([][]string, 0, len(dag.Nodes))
				for _, n := range dag.Nodes {
					role := ""
					switch n.ID {
					case dag.MainIn:
						role = "in"
					case dag.MainOut:
						role = "out"
					}
					rows = append(rows, []string{
						n.ID,
						n.Kind,
						fmt.Sprintf("%.0f,%.0f", n.Position.X, n.Position.Y),
						role,
					})
				}
				table(out, []string{"Node", "Type", "Position", "Role"}, rows)

				if order, err := flowcanvas.TopologicalOrder(dag); err == nil {
					fmt.Fprintf(out, "\n  Order: %s\n", strings.Join(order, " → "))
				} else {
					warn.Fprintf(out, "\n  %v\n", err)
				}

				issues := flowcanvas.Issues(flowcanvas.Validate(dag))
				fmt.Fprintf(out, "  %s Structure", statusIcon(len(issues) == 0))
				if len(issues) == 0 {
					fmt.Fprintln(out)
					return nil
				}
				fmt.Fprintf(out, ": %d problems\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "    - %s\n", issue.Error())
				}
				return nil
			})
		},
	}
}

func flowsExportCmd(a *app) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a flow's graph as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store flowstore.Store) error {
				rec, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				dag, err := flowcanvas.DecodeDag(rec.Dag)
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(dag, "", "  ")
				if err != nil {
					return err
				}
				data = append(data, '\n')

				if output == "" || output == "-" {
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := os.WriteFile(output, data, 0o644); err != nil {
					return err
				}
				good.Fprintf(cmd.OutOrStdout(), "  Exported %s to %s\n", rec.Name, output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func flowsImportCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Create a flow from an exported graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			dag, err := flowcanvas.DecodeDag(data)
			if err != nil {
				return err
			}
			if name == "" {
				name = strings.TrimSuffix(baseName(args[0]), ".json")
			}
			raw, err := json.Marshal(dag)
			if err != nil {
				return err
			}

			return a.withStore(func(store flowstore.Store) error {
				rec, err := store.Create(cmd.Context(), a.token, name, raw)
				if err != nil {
					return err
				}
				good.Fprintf(cmd.OutOrStdout(), "  Imported %s as %s (%d nodes)\n", rec.Name, rec.ID, len(dag.Nodes))
				if err := flowcanvas.Validate(dag); err != nil {
					warn.Fprintf(cmd.OutOrStdout(), "  %d structural problems; run `flowcanvas flows show %s`\n",
						len(flowcanvas.Issues(err)), rec.ID)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Flow name (default: file name)")
	return cmd
}

func flowsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a flow you own",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store flowstore.Store) error {
				if err := store.Delete(cmd.Context(), a.token, args[0]); err != nil {
					return err
				}
				good.Fprintf(cmd.OutOrStdout(), "  Deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
