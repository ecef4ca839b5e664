package cross

import (
	"testing"

	"morphcore/internal/catalog"
	"morphcore/pkg/domain"
)

func beeSpecies() domain.Species {
	return domain.Species{
		Slug: "ball-python",
		Genes: []domain.Gene{
			{ID: "pastel", Name: "Pastel", Mode: domain.ModeIncompleteDominant},
			{ID: "spider", Name: "Spider", Mode: domain.ModeDominant},
			{ID: "albino", Name: "Albino", Mode: domain.ModeRecessive},
			{ID: "clown", Name: "Clown", Mode: domain.ModeRecessive},
		},
		Aliases: []domain.CombinationAlias{
			{Key: "bumblebee", Label: "Bumblebee", Components: []domain.AliasComponent{
				{GeneID: "pastel", State: domain.StateHeterozygous},
				{GeneID: "spider", State: domain.StateHeterozygous},
			}},
			{Key: "killer-bee", Label: "Killer Bee", Components: []domain.AliasComponent{
				{GeneID: "pastel", State: domain.StateHomozygous},
				{GeneID: "spider", State: domain.StateHeterozygous},
			}},
			{Key: "pastel-pair", Label: "Pastel Pair", Components: []domain.AliasComponent{
				{GeneID: "pastel", State: domain.StateHeterozygous},
			}},
		},
	}
}

func labelsOf(row Row) []string {
	var out []string
	for _, a := range row.Aliases {
		out = append(out, a.Label)
	}
	return out
}

func findRow(t *testing.T, c Combined, phenotype ...string) Row {
	t.Helper()
	for _, row := range c.Rows {
		var labels []string
		for _, ph := range row.Phenotypes {
			if ph.Visible {
				labels = append(labels, ph.Label)
			}
		}
		if equalStrings(labels, phenotype) {
			return row
		}
	}
	t.Fatalf("no row with phenotype %v", phenotype)
	return Row{}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAliasMatcherAttachesLabelsInDeclarationOrder(t *testing.T) {
	cat, err := catalog.Compile(beeSpecies())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	res, err := Run(cat,
		domain.ParentSelection{"pastel": domain.StateHeterozygous, "spider": domain.StateHeterozygous},
		domain.ParentSelection{"pastel": domain.StateHeterozygous},
		DefaultMaxGenes)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	bee := findRow(t, res.Combined, "Pastel", "Spider")
	if got := labelsOf(bee); !equalStrings(got, []string{"Bumblebee", "Pastel Pair"}) {
		t.Fatalf("unexpected aliases %v", got)
	}
	killer := findRow(t, res.Combined, "Super Pastel", "Spider")
	if got := labelsOf(killer); !equalStrings(got, []string{"Killer Bee"}) {
		t.Fatalf("unexpected aliases %v", got)
	}
	plain := findRow(t, res.Combined)
	if len(plain.Aliases) != 0 {
		t.Fatalf("normal row should carry no alias: %v", labelsOf(plain))
	}
}

func TestAliasMatchIsMonotonicUnderUnrelatedGenes(t *testing.T) {
	cat, err := catalog.Compile(beeSpecies())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	p1 := domain.ParentSelection{"pastel": domain.StateHeterozygous, "spider": domain.StateHeterozygous}
	p2 := domain.ParentSelection{}
	base, err := Run(cat, p1, p2, DefaultMaxGenes)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := labelsOf(findRow(t, base.Combined, "Pastel", "Spider")); len(got) == 0 {
		t.Fatalf("expected bumblebee before adding genes")
	}

	p1["albino"] = domain.StateHeterozygous
	p2["albino"] = domain.StateHeterozygous
	p2["clown"] = domain.StateHomozygous
	wider, err := Run(cat, p1, p2, DefaultMaxGenes)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, row := range wider.Combined.Rows {
		if !row.Phenotypes[0].Visible || row.Phenotypes[0].Label != "Pastel" || !row.Phenotypes[1].Visible {
			continue
		}
		var found bool
		for _, a := range row.Aliases {
			if a.Key == "bumblebee" {
				found = true
			}
		}
		if !found {
			t.Fatalf("adding unrelated genes removed bumblebee from %+v", row.Phenotypes)
		}
	}
}

func TestAliasRequiresComponentAcrossFoldedMembers(t *testing.T) {
	species := domain.Species{
		Slug:  "test",
		Genes: []domain.Gene{{ID: "albino", Name: "Albino", Mode: domain.ModeRecessive}},
		Aliases: []domain.CombinationAlias{{Key: "carrier", Label: "Albino Carrier", Components: []domain.AliasComponent{
			{GeneID: "albino", State: domain.StateHeterozygous},
		}}},
	}
	cat, err := catalog.Compile(species)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	het := domain.ParentSelection{"albino": domain.StateHeterozygous}
	res, err := Run(cat, het, het, DefaultMaxGenes)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Combined.Rows[0].Aliases) != 0 {
		t.Fatalf("possible hets must not match a het-only alias")
	}

	res, err = Run(cat, domain.ParentSelection{"albino": domain.StateHomozygous}, nil, DefaultMaxGenes)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := labelsOf(res.Combined.Rows[0]); !equalStrings(got, []string{"Albino Carrier"}) {
		t.Fatalf("certain hets should match: %v", got)
	}
}
