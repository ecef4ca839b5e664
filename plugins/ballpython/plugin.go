// Package ballpython seeds the ball python (Python regius) morph catalog.
package ballpython

import (
	"context"
	"fmt"

	"morphcore/internal/core"
)

const (
	// Slug identifies the seeded species.
	Slug = "ball-python"

	seedGeneRuleName = "ballpython_seed_genes"
)

// Plugin installs the ball python catalog.
type Plugin struct{}

// New returns the ball python plugin.
func New() Plugin { return Plugin{} }

func (Plugin) Name() string    { return "ballpython" }
func (Plugin) Version() string { return "0.1.0" }

// Register seeds the catalog and the rule guarding its seed genes.
func (Plugin) Register(registry *core.PluginRegistry) error {
	registry.RegisterRule(seedGeneRule{})
	return registry.RegisterSpecies(Catalog())
}

func het(gene string) core.AliasComponent {
	return core.AliasComponent{GeneID: gene, State: core.StateHeterozygous}
}

func hom(gene string) core.AliasComponent {
	return core.AliasComponent{GeneID: gene, State: core.StateHomozygous}
}

// Catalog returns the seed species catalog.
func Catalog() core.Species {
	return core.Species{
		Slug: Slug,
		Name: "Ball Python",
		Genes: []core.Gene{
			{ID: "albino", Name: "Albino", Shorthand: "alb", Mode: core.ModeRecessive},
			{ID: "axanthic", Name: "Axanthic", Shorthand: "axa", Mode: core.ModeRecessive},
			{ID: "clown", Name: "Clown", Mode: core.ModeRecessive},
			{ID: "piebald", Name: "Piebald", Shorthand: "pied", Mode: core.ModeRecessive},
			{ID: "pastel", Name: "Pastel", Mode: core.ModeIncompleteDominant},
			{ID: "mojave", Name: "Mojave", Shorthand: "mojo", Mode: core.ModeIncompleteDominant,
				Labels: core.StateLabels{Homozygous: "Blue Eyed Leucistic"}},
			{ID: "cinnamon", Name: "Cinnamon", Mode: core.ModeIncompleteDominant},
			{ID: "yellow-belly", Name: "Yellow Belly", Shorthand: "yb", Mode: core.ModeIncompleteDominant,
				Labels: core.StateLabels{Homozygous: "Ivory"}},
			{ID: "enchi", Name: "Enchi", Mode: core.ModeIncompleteDominant},
			{ID: "spider", Name: "Spider", Mode: core.ModeDominant},
			{ID: "pinstripe", Name: "Pinstripe", Shorthand: "pin", Mode: core.ModeDominant},
		},
		Aliases: []core.CombinationAlias{
			{Key: "bumblebee", Label: "Bumblebee", Synonyms: []string{"bee"},
				Components: []core.AliasComponent{het("pastel"), het("spider")}},
			{Key: "killer-bee", Label: "Killer Bee",
				Components: []core.AliasComponent{hom("pastel"), het("spider")}},
			{Key: "pastave", Label: "Pastave",
				Components: []core.AliasComponent{het("pastel"), het("mojave")}},
			{Key: "lemon-blast", Label: "Lemon Blast",
				Components: []core.AliasComponent{het("pastel"), het("pinstripe")}},
			{Key: "pewter", Label: "Pewter",
				Components: []core.AliasComponent{het("pastel"), het("cinnamon")}},
			{Key: "snow", Label: "Snow",
				Components: []core.AliasComponent{hom("albino"), hom("axanthic")}},
		},
	}
}

// seedGeneRule warns when an update drops a gene the seed catalog ships,
// since shared bundles and pairing notes refer to those ids.
type seedGeneRule struct{}

func (seedGeneRule) Name() string { return seedGeneRuleName }

func (seedGeneRule) Evaluate(_ context.Context, _ core.RuleView, changes []core.Change) (core.Result, error) {
	res := core.Result{}
	for _, change := range changes {
		if change.Entity != core.EntitySpecies || change.Action != core.ActionUpdate {
			continue
		}
		after, ok := change.After.(core.Species)
		if !ok || after.Slug != Slug {
			continue
		}
		for _, g := range Catalog().Genes {
			if _, kept := after.FindGene(g.ID); kept {
				continue
			}
			res.Violations = append(res.Violations, core.Violation{
				Rule:     seedGeneRuleName,
				Severity: core.SeverityWarn,
				Message:  fmt.Sprintf("seed gene %s removed from %s", g.ID, Slug),
				Entity:   core.EntityGene,
				EntityID: Slug,
			})
		}
	}
	return res, nil
}
