package main

import (
	"github.com/spf13/cobra"
)

// appRunE opens the application for the duration of one command invocation.
func appRunE(fn func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := a.Close(); cerr != nil {
				a.logger.Warn("close app", "error", cerr)
			}
		}()
		return fn(cmd, args, a)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "morphcore",
		Short: "Offspring odds for multi-gene reptile morph crosses",
		Long: `morphcore crosses two parents gene by gene, combines the per-gene outcomes
into offspring phenotypes and names the morph combinations they form.

Storage, bundle archive and logging are configured through MORPHCORE_*
environment variables.`,
		SilenceUsage: true,
	}
	root.AddCommand(newCrossCmd(), newResolveCmd(), newCatalogCmd(), newPluginsCmd())
	return root
}
