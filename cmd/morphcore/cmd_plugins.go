package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List installed species plugins",
		Args:  cobra.NoArgs,
		RunE: appRunE(func(cmd *cobra.Command, _ []string, a *app) error {
			var rows [][]string
			for _, p := range a.svc.RegisteredPlugins() {
				rows = append(rows, []string{p.Name, p.Version, strings.Join(p.Species, ", "), strings.Join(p.Rules, ", ")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Plugin", "Version", "Species", "Rules"}, rows))
			return nil
		}),
	}
}
