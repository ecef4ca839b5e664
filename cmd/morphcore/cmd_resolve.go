package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"morphcore/plugins/ballpython"
)

func newResolveCmd() *cobra.Command {
	var species string
	cmd := &cobra.Command{
		Use:   "resolve TEXT...",
		Short: "Show the gene states a phrase could mean, best match first",
		Args:  cobra.MinimumNArgs(1),
		RunE: appRunE(func(cmd *cobra.Command, args []string, a *app) error {
			out := cmd.OutOrStdout()
			for _, text := range args {
				cands, err := a.svc.Resolve(cmd.Context(), species, text)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, styles.Title.Render(fmt.Sprintf("%q", text)))
				if len(cands) == 0 {
					fmt.Fprintln(out, styles.Muted.Render("no matches"))
					continue
				}
				rows := make([][]string, 0, len(cands))
				for _, c := range cands {
					rows = append(rows, []string{c.GeneName, string(c.State), c.Label, c.Token, c.Match.String()})
				}
				fmt.Fprintln(out, renderTable([]string{"Gene", "State", "Label", "Token", "Match"}, rows))
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&species, "species", ballpython.Slug, "species catalog slug")
	return cmd
}
