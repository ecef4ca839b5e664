// Package report turns engine output into the per-gene and combined tables
// shown to users. Locale-aware number formatting happens only here.
package report

import (
	"strings"

	"morphcore/internal/cross"
	"morphcore/pkg/domain"
)

// NormalPhenotype names a combined row in which every gene is in its base form.
const NormalPhenotype = "Normal"

// GeneRow is one genotype class of a single gene.
type GeneRow struct {
	State       domain.GeneState `json:"state"`
	StateLabel  string           `json:"state_label"`
	Probability float64          `json:"probability"`
	Visual      bool             `json:"is_visual"`
	Carrier     bool             `json:"is_carrier"`
}

// GeneTable is the breakdown for one gene.
type GeneTable struct {
	GeneID  string                 `json:"gene_id"`
	Gene    string                 `json:"gene"`
	Mode    domain.InheritanceMode `json:"mode"`
	Parent1 string                 `json:"parent1"`
	Parent2 string                 `json:"parent2"`
	Rows    []GeneRow              `json:"rows"`
}

// GenotypeShare is the conditional chance of one state within a combined row.
type GenotypeShare struct {
	State domain.GeneState `json:"state"`
	Label string           `json:"label"`
	Share float64          `json:"share"`
}

// GeneGenotype lists the states a gene may hold within a combined row.
type GeneGenotype struct {
	GeneID string          `json:"gene_id"`
	Gene   string          `json:"gene"`
	Shares []GenotypeShare `json:"shares"`
}

// Certain reports whether the gene holds a single state across the row.
func (g GeneGenotype) Certain() bool { return len(g.Shares) == 1 }

// CombinedRow is one distinct offspring phenotype.
type CombinedRow struct {
	Probability float64        `json:"probability"`
	Phenotype   string         `json:"phenotype"`
	Aliases     []string       `json:"aliases,omitempty"`
	Genotypes   []GeneGenotype `json:"genotypes"`
}

// Report holds both result tables.
type Report struct {
	Species  string        `json:"species"`
	Genes    []GeneTable   `json:"genes"`
	Combined []CombinedRow `json:"combined"`
}

// Assemble builds the tables from an engine result.
func Assemble(res cross.Result) (Report, error) {
	out := Report{Species: res.Species}
	for _, d := range res.PerGene {
		table := GeneTable{
			GeneID:  d.Gene.ID,
			Gene:    d.Gene.Name,
			Mode:    d.Gene.Mode,
			Parent1: d.Gene.Labels.For(d.Parent1),
			Parent2: d.Gene.Labels.For(d.Parent2),
		}
		for _, o := range d.Outcomes {
			ph, err := cross.PhenotypeOf(d.Gene, o.State)
			if err != nil {
				return Report{}, err
			}
			table.Rows = append(table.Rows, GeneRow{
				State:       o.State,
				StateLabel:  d.Gene.Labels.For(o.State),
				Probability: o.Probability,
				Visual:      ph.Visible,
				Carrier:     ph.Carrier,
			})
		}
		out.Genes = append(out.Genes, table)
	}

	genes := res.Combined.Genes
	for _, row := range res.Combined.Rows {
		cr := CombinedRow{Probability: row.Probability, Phenotype: phenotypeString(row.Phenotypes)}
		for _, a := range row.Aliases {
			label := a.Label
			if label == "" {
				label = a.Key
			}
			cr.Aliases = append(cr.Aliases, label)
		}
		for pos, g := range genes {
			gg := GeneGenotype{GeneID: g.ID, Gene: g.Name}
			for _, st := range domain.GeneStates {
				share := row.StateShare(pos, st)
				if share == 0 {
					continue
				}
				gg.Shares = append(gg.Shares, GenotypeShare{State: st, Label: g.Labels.For(st), Share: share})
			}
			cr.Genotypes = append(cr.Genotypes, gg)
		}
		out.Combined = append(out.Combined, cr)
	}
	return out, nil
}

func phenotypeString(phs []cross.Phenotype) string {
	var parts []string
	for _, ph := range phs {
		if ph.Visible && ph.Label != "" {
			parts = append(parts, ph.Label)
		}
	}
	if len(parts) == 0 {
		return NormalPhenotype
	}
	return strings.Join(parts, " ")
}
