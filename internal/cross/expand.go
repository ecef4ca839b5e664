package cross

import (
	"sort"
	"strconv"
	"strings"

	"morphcore/pkg/domain"
)

// DefaultMaxGenes bounds the joint table at 3^8 cells.
const DefaultMaxGenes = 8

// Member is one genotype tuple folded into a combined row.
type Member struct {
	States      []domain.GeneState `json:"states"`
	Probability float64            `json:"probability"`
}

// Row is a set of genotype tuples that render as the same phenotype.
type Row struct {
	Probability float64                   `json:"probability"`
	Phenotypes  []Phenotype               `json:"phenotypes"`
	Members     []Member                  `json:"members"`
	Aliases     []domain.CombinationAlias `json:"aliases,omitempty"`
}

// StateShare returns the conditional probability, within the row, that gene
// position pos holds state.
func (r Row) StateShare(pos int, state domain.GeneState) float64 {
	if r.Probability == 0 {
		return 0
	}
	var p float64
	for _, m := range r.Members {
		if m.States[pos] == state {
			p += m.Probability
		}
	}
	return p / r.Probability
}

// Combined is the joint offspring distribution over a set of genes.
type Combined struct {
	Genes []domain.Gene `json:"genes"`
	Rows  []Row         `json:"rows"`
}

// Expand takes the Cartesian product of independent per-gene distributions,
// multiplies their probabilities, and folds cells sharing a phenotype
// signature into one row. Rows are ordered by probability, highest first;
// equal probabilities keep first-encountered order, where the first gene
// varies slowest. maxGenes <= 0 disables the limit; callers handling user
// input always pass a positive cap.
func Expand(dists []Distribution, maxGenes int) (Combined, error) {
	if maxGenes > 0 && len(dists) > maxGenes {
		over := make([]string, 0, len(dists)-maxGenes)
		for _, d := range dists[maxGenes:] {
			over = append(over, d.Gene.ID)
		}
		return Combined{}, &domain.ComplexityLimitError{Limit: maxGenes, Count: len(dists), Genes: over}
	}

	genes := make([]domain.Gene, len(dists))
	// phenotypes[i][copies] caches the render of gene i per genotype class.
	phenotypes := make([][3]Phenotype, len(dists))
	for i, d := range dists {
		genes[i] = d.Gene
		for _, o := range d.Outcomes {
			ph, err := PhenotypeOf(d.Gene, o.State)
			if err != nil {
				return Combined{}, err
			}
			phenotypes[i][o.State.Copies()] = ph
		}
	}

	cells := []Member{{States: []domain.GeneState{}, Probability: 1}}
	for _, d := range dists {
		next := make([]Member, 0, len(cells)*len(d.Outcomes))
		for _, cell := range cells {
			for _, o := range d.Outcomes {
				states := make([]domain.GeneState, len(cell.States), len(cell.States)+1)
				copy(states, cell.States)
				next = append(next, Member{
					States:      append(states, o.State),
					Probability: cell.Probability * o.Probability,
				})
			}
		}
		cells = next
	}

	index := make(map[string]int)
	var rows []Row
	for _, cell := range cells {
		phs := make([]Phenotype, len(cell.States))
		for i, st := range cell.States {
			phs[i] = phenotypes[i][st.Copies()]
		}
		key := signature(phs)
		pos, ok := index[key]
		if !ok {
			pos = len(rows)
			index[key] = pos
			rows = append(rows, Row{Phenotypes: visibleOnly(phs)})
		}
		rows[pos].Probability += cell.Probability
		rows[pos].Members = append(rows[pos].Members, cell)
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Probability > rows[b].Probability })
	return Combined{Genes: genes, Rows: rows}, nil
}

// signature keys a cell by its ordered per-gene (visible, label) pairs.
func signature(phs []Phenotype) string {
	var b strings.Builder
	for _, ph := range phs {
		b.WriteString(strconv.FormatBool(ph.Visible))
		b.WriteByte(':')
		if ph.Visible {
			b.WriteString(ph.Label)
		}
		b.WriteByte('\x1f')
	}
	return b.String()
}

// visibleOnly drops the carrier flag, which varies inside a folded row.
func visibleOnly(phs []Phenotype) []Phenotype {
	out := make([]Phenotype, len(phs))
	for i, ph := range phs {
		out[i] = Phenotype{Visible: ph.Visible, Label: ph.Label}
	}
	return out
}
