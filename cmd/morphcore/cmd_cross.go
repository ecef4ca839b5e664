package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"morphcore/internal/catalog"
	"morphcore/internal/core"
	"morphcore/internal/report"
	"morphcore/plugins/ballpython"
)

type crossFlags struct {
	species     string
	parent1     string
	parent2     string
	locale      string
	jsonOut     bool
	catalogFile string
}

// crossOutput is the --json document for one cross.
type crossOutput struct {
	Species string               `json:"species"`
	Parent1 core.ParentSelection `json:"parent1"`
	Parent2 core.ParentSelection `json:"parent2"`
	Aliases []string             `json:"parent_aliases,omitempty"`
	Report  report.Report        `json:"report"`
}

func newCrossCmd() *cobra.Command {
	var f crossFlags
	cmd := &cobra.Command{
		Use:   "cross",
		Short: "Cross two parents described in free text",
		Example: `  morphcore cross --p1 "pastel het albino" --p2 "albino"
  morphcore cross --species leopard-gecko --p1 "mack snow tremper" --p2 "het tremper eclipse" --locale pt-BR`,
		Args: cobra.NoArgs,
		RunE: appRunE(func(cmd *cobra.Command, _ []string, a *app) error {
			return runCross(cmd, a, f)
		}),
	}
	cmd.Flags().StringVar(&f.species, "species", ballpython.Slug, "species catalog slug")
	cmd.Flags().StringVar(&f.parent1, "p1", "", "first parent, e.g. \"pastel, het albino\"")
	cmd.Flags().StringVar(&f.parent2, "p2", "", "second parent")
	cmd.Flags().StringVar(&f.locale, "locale", "", "number formatting locale (default MORPHCORE_LOCALE)")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "print the report as JSON")
	cmd.Flags().StringVar(&f.catalogFile, "catalog", "", "load this YAML or JSON catalog bundle before crossing")
	return cmd
}

func runCross(cmd *cobra.Command, a *app, f crossFlags) error {
	ctx := cmd.Context()
	slug := f.species
	if f.catalogFile != "" {
		species, err := importFile(cmd, a, f.catalogFile)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("species") {
			slug = species.Slug
		}
	}
	res, err := a.svc.CrossText(ctx, slug, f.parent1, f.parent2)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if f.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(crossOutput{
			Species: slug,
			Parent1: res.Parent1.Selection,
			Parent2: res.Parent2.Selection,
			Aliases: append(append([]string(nil), res.Parent1.Aliases...), res.Parent2.Aliases...),
			Report:  res.Report,
		})
	}
	locale := f.locale
	if locale == "" {
		locale = a.cfg.Locale
	}
	formatter, err := report.NewFormatter(locale)
	if err != nil {
		return err
	}
	renderReport(out, formatter, res.Report)
	return nil
}

// importFile upserts a catalog bundle read from the local filesystem.
func importFile(cmd *cobra.Command, a *app, path string) (core.Species, error) {
	format, err := catalog.FormatForKey(path)
	if err != nil {
		return core.Species{}, err
	}
	file, err := os.Open(path)
	if err != nil {
		return core.Species{}, err
	}
	defer file.Close()
	species, err := catalog.DecodeBundle(file, format)
	if err != nil {
		return core.Species{}, fmt.Errorf("%s: %w", path, err)
	}
	stored, res, err := a.svc.UpsertSpecies(cmd.Context(), species)
	if err != nil {
		return core.Species{}, err
	}
	for _, v := range res.Violations {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", v.Rule, strings.TrimSpace(v.Message))
	}
	return stored, nil
}
