package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"morphcore/internal/catalog"
	"morphcore/internal/core"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and exchange species catalogs",
	}
	cmd.AddCommand(newCatalogListCmd(), newCatalogShowCmd(), newCatalogImportCmd(), newCatalogExportCmd(), newCatalogBundlesCmd())
	return cmd
}

func newCatalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored species catalogs",
		Args:  cobra.NoArgs,
		RunE: appRunE(func(cmd *cobra.Command, _ []string, a *app) error {
			var rows [][]string
			for _, sp := range a.svc.ListSpecies() {
				rows = append(rows, []string{
					sp.Slug,
					sp.Name,
					strconv.FormatInt(sp.Revision, 10),
					strconv.Itoa(len(sp.Genes)),
					strconv.Itoa(len(sp.Aliases)),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Slug", "Name", "Revision", "Genes", "Aliases"}, rows))
			return nil
		}),
	}
}

func newCatalogShowCmd() *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "show SLUG",
		Short: "Show the genes and morph combinations of one species",
		Args:  cobra.ExactArgs(1),
		RunE: appRunE(func(cmd *cobra.Command, args []string, a *app) error {
			cat, err := a.svc.Catalog(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonOut {
				species, _ := a.svc.Species(cat.Slug())
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(species)
			}
			fmt.Fprintln(out, styles.Title.Render(cat.Name())+" "+styles.Muted.Render(fmt.Sprintf("%s rev %d", cat.Slug(), cat.Revision())))
			genes := make([][]string, 0, cat.Len())
			for _, g := range cat.Genes() {
				genes = append(genes, []string{g.ID, g.Name, string(g.Mode), g.Labels.Heterozygous, g.Labels.Homozygous})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Gene", "Mode", "One copy", "Two copies"}, genes))
			if len(cat.Aliases()) == 0 {
				return nil
			}
			var aliases [][]string
			for _, al := range cat.Aliases() {
				parts := make([]string, 0, len(al.Components))
				for _, c := range al.Components {
					g, _ := cat.Gene(c.GeneID)
					parts = append(parts, g.Labels.For(c.State))
				}
				aliases = append(aliases, []string{al.Label, strings.Join(parts, " + "), strings.Join(al.Synonyms, ", ")})
			}
			fmt.Fprintln(out, renderTable([]string{"Morph", "Requires", "Also known as"}, aliases))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the catalog as JSON")
	return cmd
}

func newCatalogImportCmd() *cobra.Command {
	var blobKey string
	cmd := &cobra.Command{
		Use:   "import [FILE]",
		Short: "Load a catalog bundle from a file or from the bundle archive",
		Args: func(cmd *cobra.Command, args []string) error {
			if blobKey == "" && len(args) != 1 {
				return fmt.Errorf("import needs a FILE or --blob KEY")
			}
			if blobKey != "" && len(args) != 0 {
				return fmt.Errorf("FILE and --blob are mutually exclusive")
			}
			return nil
		},
		RunE: appRunE(func(cmd *cobra.Command, args []string, a *app) error {
			var (
				species core.Species
				err     error
			)
			if blobKey != "" {
				var res core.Result
				species, res, err = a.svc.ImportBundle(cmd.Context(), blobKey)
				for _, v := range res.Violations {
					fmt.Fprintln(cmd.ErrOrStderr(), styles.Warn.Render(v.Rule+": "+v.Message))
				}
			} else {
				species, err = importFile(cmd, a, args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s revision %d (%d genes, %d aliases)\n",
				species.Slug, species.Revision, len(species.Genes), len(species.Aliases))
			return nil
		}),
	}
	cmd.Flags().StringVar(&blobKey, "blob", "", "bundle archive key, e.g. catalogs/ball-python.yaml")
	return cmd
}

func newCatalogExportCmd() *cobra.Command {
	var (
		format string
		toBlob bool
	)
	cmd := &cobra.Command{
		Use:   "export SLUG",
		Short: "Write a species catalog as a bundle to stdout or the bundle archive",
		Args:  cobra.ExactArgs(1),
		RunE: appRunE(func(cmd *cobra.Command, args []string, a *app) error {
			f := catalog.Format(strings.ToLower(format))
			if f != catalog.FormatYAML && f != catalog.FormatJSON {
				return fmt.Errorf("unsupported bundle format %q", format)
			}
			if toBlob {
				info, err := a.svc.ExportBundle(cmd.Context(), args[0], f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %s (%d bytes)\n", info.Key, info.Size)
				return nil
			}
			species, ok := a.svc.Species(args[0])
			if !ok {
				return core.ErrNotFound{Entity: core.EntitySpecies, ID: args[0]}
			}
			return catalog.EncodeBundle(cmd.OutOrStdout(), species, f)
		}),
	}
	cmd.Flags().StringVar(&format, "format", string(catalog.FormatYAML), "bundle format: yaml or json")
	cmd.Flags().BoolVar(&toBlob, "blob", false, "write to the bundle archive instead of stdout")
	return cmd
}

func newCatalogBundlesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bundles",
		Short: "List catalog bundles held in the bundle archive",
		Args:  cobra.NoArgs,
		RunE: appRunE(func(cmd *cobra.Command, _ []string, a *app) error {
			infos, err := a.svc.ListBundles(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{info.Key, strconv.FormatInt(info.Size, 10), info.Metadata["revision"], info.LastModified.Format("2006-01-02 15:04")})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Key", "Bytes", "Revision", "Modified"}, rows))
			return nil
		}),
	}
}
