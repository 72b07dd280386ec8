package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func catalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the node palette",
	}
	cmd.AddCommand(catalogListCmd(a))
	return cmd
}

func catalogListCmd(a *app) *cobra.Command {
	var tag string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List palette entries",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := a.catalogProvider(cmd.Context(), cmd).Catalog()
			out := cmd.OutOrStdout()

			entries := cat.Entries(tag)
			if len(entries) == 0 {
				if tag != "" {
					fmt.Fprintf(out, "  No entries tagged %q.\n", tag)
				} else {
					fmt.Fprintln(out, "  Palette is empty.")
				}
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.ID, e.DisplayName, e.Type, strings.Join(e.Tags, ",")})
			}
			table(out, []string{"ID", "Name", "Type", "Tags"}, rows)
			fmt.Fprintf(out, "\n  %d entries", len(entries))
			if tags := cat.Tags(); len(tags) > 0 && tag == "" {
				fmt.Fprintf(out, " %s", subtle.Sprintf("(tags: %s)", strings.Join(tags, ", ")))
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Only show entries with this tag")
	return cmd
}
