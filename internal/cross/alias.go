package cross

import "morphcore/pkg/domain"

// AliasMatcher attaches combination aliases to combined rows.
type AliasMatcher struct {
	aliases []domain.CombinationAlias
}

// NewAliasMatcher keeps aliases in declaration order; attached labels follow it.
func NewAliasMatcher(aliases []domain.CombinationAlias) *AliasMatcher {
	return &AliasMatcher{aliases: aliases}
}

// Match returns the aliases whose every component holds in row. Genes missing
// from the row are normal. In a folded row a component must hold for every
// member tuple.
func (m *AliasMatcher) Match(genes []domain.Gene, row Row) []domain.CombinationAlias {
	pos := make(map[string]int, len(genes))
	for i, g := range genes {
		pos[g.ID] = i
	}
	var out []domain.CombinationAlias
	for _, alias := range m.aliases {
		if holds(alias, pos, row) {
			out = append(out, alias)
		}
	}
	return out
}

// Annotate fills Aliases on every row of c. Probabilities are untouched.
func (m *AliasMatcher) Annotate(c *Combined) {
	for i := range c.Rows {
		c.Rows[i].Aliases = m.Match(c.Genes, c.Rows[i])
	}
}

func holds(alias domain.CombinationAlias, pos map[string]int, row Row) bool {
	if len(alias.Components) == 0 {
		return false
	}
	for _, comp := range alias.Components {
		i, ok := pos[comp.GeneID]
		if !ok {
			if comp.State != domain.StateNormal {
				return false
			}
			continue
		}
		for _, member := range row.Members {
			if member.States[i] != comp.State {
				return false
			}
		}
	}
	return true
}
