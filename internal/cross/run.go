package cross

import (
	"morphcore/internal/catalog"
	"morphcore/pkg/domain"
)

// Result is the full engine output for one pairing.
type Result struct {
	Species  string         `json:"species"`
	PerGene  []Distribution `json:"per_gene"`
	Combined Combined       `json:"combined"`
}

// Run crosses parent1 with parent2 over every gene either selection names,
// in catalog order, and annotates the combined rows with matching aliases.
func Run(cat *catalog.Catalog, parent1, parent2 domain.ParentSelection, maxGenes int) (Result, error) {
	selected, err := cat.Selected(parent1, parent2)
	if err != nil {
		return Result{}, err
	}
	dists := make([]Distribution, 0, len(selected))
	for _, i := range selected {
		gene := cat.GeneAt(i)
		d, err := CrossGene(gene, parent1.State(gene.ID), parent2.State(gene.ID))
		if err != nil {
			return Result{}, err
		}
		dists = append(dists, d)
	}
	combined, err := Expand(dists, maxGenes)
	if err != nil {
		return Result{}, err
	}
	NewAliasMatcher(cat.Aliases()).Annotate(&combined)
	return Result{Species: cat.Slug(), PerGene: dists, Combined: combined}, nil
}
