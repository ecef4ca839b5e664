// Package leopardgecko seeds the leopard gecko (Eublepharis macularius) morph
// catalog.
package leopardgecko

import (
	"context"
	"fmt"
	"strings"

	"morphcore/internal/core"
)

const (
	// Slug identifies the seeded species.
	Slug = "leopard-gecko"

	albinoStrainRuleName = "leopardgecko_albino_strains"
)

// albinoStrains are the three unrelated albino genes. Crossing two strains
// yields normal-looking double hets, so no morph is visual for two at once.
var albinoStrains = map[string]struct{}{
	"tremper":   {},
	"bell":      {},
	"rainwater": {},
}

// Plugin installs the leopard gecko catalog.
type Plugin struct{}

// New returns the leopard gecko plugin.
func New() Plugin { return Plugin{} }

func (Plugin) Name() string    { return "leopardgecko" }
func (Plugin) Version() string { return "0.1.0" }

// Register seeds the catalog and the albino strain rule.
func (Plugin) Register(registry *core.PluginRegistry) error {
	registry.RegisterRule(albinoStrainRule{})
	return registry.RegisterSpecies(Catalog())
}

func component(gene string, state core.GeneState) core.AliasComponent {
	return core.AliasComponent{GeneID: gene, State: state}
}

// Catalog returns the seed species catalog.
func Catalog() core.Species {
	return core.Species{
		Slug: Slug,
		Name: "Leopard Gecko",
		Genes: []core.Gene{
			{ID: "tremper", Name: "Tremper Albino", Shorthand: "tremper", Mode: core.ModeRecessive},
			{ID: "bell", Name: "Bell Albino", Shorthand: "bell", Mode: core.ModeRecessive},
			{ID: "rainwater", Name: "Rainwater Albino", Shorthand: "rainwater", Mode: core.ModeRecessive},
			{ID: "eclipse", Name: "Eclipse", Mode: core.ModeRecessive},
			{ID: "blizzard", Name: "Blizzard", Mode: core.ModeRecessive},
			{ID: "murphy-patternless", Name: "Murphy Patternless", Shorthand: "mp", Mode: core.ModeRecessive},
			{ID: "mack-snow", Name: "Mack Snow", Shorthand: "snow", Mode: core.ModeIncompleteDominant,
				Labels: core.StateLabels{Homozygous: "Super Snow"}},
			{ID: "white-and-yellow", Name: "White and Yellow", Shorthand: "w&y", Mode: core.ModeDominant},
			{ID: "enigma", Name: "Enigma", Mode: core.ModeDominant},
		},
		Aliases: []core.CombinationAlias{
			{Key: "raptor", Label: "RAPTOR", Synonyms: []string{"red eyed albino patternless tremper orange"},
				Components: []core.AliasComponent{component("tremper", core.StateHomozygous), component("eclipse", core.StateHomozygous)}},
			{Key: "blazing-blizzard", Label: "Blazing Blizzard",
				Components: []core.AliasComponent{component("tremper", core.StateHomozygous), component("blizzard", core.StateHomozygous)}},
			{Key: "diablo-blanco", Label: "Diablo Blanco",
				Components: []core.AliasComponent{
					component("tremper", core.StateHomozygous),
					component("blizzard", core.StateHomozygous),
					component("eclipse", core.StateHomozygous),
				}},
			{Key: "snow-tremper", Label: "Snow Tremper",
				Components: []core.AliasComponent{component("mack-snow", core.StateHeterozygous), component("tremper", core.StateHomozygous)}},
			{Key: "super-raptor", Label: "Super RAPTOR",
				Components: []core.AliasComponent{
					component("mack-snow", core.StateHomozygous),
					component("tremper", core.StateHomozygous),
					component("eclipse", core.StateHomozygous),
				}},
		},
	}
}

// albinoStrainRule warns about aliases that need two albino strains visual at
// once; such animals do not exist as a single visual albino.
type albinoStrainRule struct{}

func (albinoStrainRule) Name() string { return albinoStrainRuleName }

func (albinoStrainRule) Evaluate(_ context.Context, _ core.RuleView, changes []core.Change) (core.Result, error) {
	res := core.Result{}
	for _, change := range changes {
		if change.Entity != core.EntitySpecies || change.After == nil {
			continue
		}
		sp, ok := change.After.(core.Species)
		if !ok || sp.Slug != Slug {
			continue
		}
		for _, a := range sp.Aliases {
			var strains []string
			for _, c := range a.Components {
				if _, albino := albinoStrains[c.GeneID]; albino && c.State == core.StateHomozygous {
					strains = append(strains, c.GeneID)
				}
			}
			if len(strains) < 2 {
				continue
			}
			res.Violations = append(res.Violations, core.Violation{
				Rule:     albinoStrainRuleName,
				Severity: core.SeverityWarn,
				Message:  fmt.Sprintf("alias %s requires incompatible albino strains %s", a.Key, strings.Join(strains, ", ")),
				Entity:   core.EntityAlias,
				EntityID: Slug,
			})
		}
	}
	return res, nil
}
