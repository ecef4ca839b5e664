package ballpython

import (
	"context"
	"testing"

	"morphcore/internal/core"
)

func TestCatalogCompilesCleanly(t *testing.T) {
	if problems := Catalog().Problems(); len(problems) != 0 {
		t.Fatalf("seed catalog has problems: %v", problems)
	}
}

func TestInstallSeedsCatalogAndCrosses(t *testing.T) {
	ctx := context.Background()
	svc := core.NewInMemoryService(nil)
	meta, err := svc.InstallPlugin(ctx, New())
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if meta.Name != "ballpython" || len(meta.Species) != 1 || meta.Species[0] != Slug {
		t.Fatalf("unexpected metadata %+v", meta)
	}

	out, err := svc.CrossText(ctx, Slug, "pastel spider", "pastel")
	if err != nil {
		t.Fatalf("cross: %v", err)
	}
	labels := map[string]bool{}
	for _, row := range out.Report.Combined {
		for _, a := range row.Aliases {
			labels[a] = true
		}
	}
	if !labels["Bumblebee"] || !labels["Killer Bee"] {
		t.Fatalf("expected bumblebee and killer bee rows, got %v", labels)
	}
}

func TestSuperMojaveUsesCustomLabel(t *testing.T) {
	ctx := context.Background()
	svc := core.NewInMemoryService(nil)
	if _, err := svc.InstallPlugin(ctx, New()); err != nil {
		t.Fatalf("install: %v", err)
	}
	cands, err := svc.Resolve(ctx, Slug, "blue eyed leucistic")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(cands) == 0 || cands[0].GeneID != "mojave" || cands[0].State != core.StateHomozygous {
		t.Fatalf("unexpected candidates %+v", cands)
	}
}

func TestSeedGeneRuleWarnsOnRemoval(t *testing.T) {
	ctx := context.Background()
	svc := core.NewInMemoryService(nil)
	if _, err := svc.InstallPlugin(ctx, New()); err != nil {
		t.Fatalf("install: %v", err)
	}
	_, res, err := svc.UpdateSpecies(ctx, Slug, func(sp *core.Species) error {
		kept := sp.Genes[:0]
		for _, g := range sp.Genes {
			if g.ID != "enchi" {
				kept = append(kept, g)
			}
		}
		sp.Genes = kept
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(res.Violations) != 1 || res.Violations[0].Rule != seedGeneRuleName || res.Violations[0].Message != "seed gene enchi removed from ball-python" {
		t.Fatalf("expected a seed gene warning, got %+v", res.Violations)
	}
}
