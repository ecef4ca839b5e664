package catalog

import (
	"sort"
	"strings"

	"morphcore/pkg/domain"
)

// ParseResult is the outcome of reading a free-text parent description.
type ParseResult struct {
	Selection domain.ParentSelection
	// Aliases lists the keys of combination aliases expanded into the selection.
	Aliases []string
	// Unresolved holds the phrases that matched nothing unambiguously.
	Unresolved []string
}

// ParseParent reads descriptions such as "pastel het albino, bumblebee" into a
// parent selection. Phrases are split on , + ; / and newlines; within a phrase
// the longest run of words that names an alias or exactly one (gene, state)
// pair wins. Conflicting states for one gene yield a *domain.InputError.
func (c *Catalog) ParseParent(text string) (ParseResult, error) {
	res := ParseResult{Selection: domain.ParentSelection{}}
	conflicts := make(map[string]struct{})
	assign := func(geneID string, st domain.GeneState) {
		if prev, ok := res.Selection[geneID]; ok && prev != st {
			conflicts[geneID] = struct{}{}
			return
		}
		res.Selection[geneID] = st
	}

	for _, phrase := range splitPhrases(text) {
		words := strings.Fields(Normalize(phrase))
		var pending []string
		flush := func() {
			if len(pending) > 0 {
				res.Unresolved = append(res.Unresolved, strings.Join(pending, " "))
				pending = nil
			}
		}
		for i := 0; i < len(words); {
			matched := 0
			for end := len(words); end > i; end-- {
				chunk := strings.Join(words[i:end], " ")
				if alias, ok := c.ResolveAlias(chunk); ok {
					for _, comp := range alias.Components {
						assign(comp.GeneID, comp.State)
					}
					res.Aliases = append(res.Aliases, alias.Key)
					matched = end - i
					break
				}
				if cand, ok := c.unambiguous(chunk); ok {
					assign(cand.GeneID, cand.State)
					matched = end - i
					break
				}
			}
			if matched == 0 {
				pending = append(pending, words[i])
				i++
				continue
			}
			flush()
			i += matched
		}
		flush()
	}

	if len(conflicts) > 0 {
		genes := make([]string, 0, len(conflicts))
		for id := range conflicts {
			genes = append(genes, id)
		}
		sort.Strings(genes)
		return res, &domain.InputError{Reason: "conflicting states requested for", Genes: genes}
	}
	return res, nil
}

// unambiguous accepts the top candidate only when it is the single exact
// match, or the single candidate of any kind.
func (c *Catalog) unambiguous(text string) (Candidate, bool) {
	cands := c.resolver.Resolve(text)
	if len(cands) == 0 {
		return Candidate{}, false
	}
	if len(cands) == 1 {
		return cands[0], true
	}
	if cands[0].Match == MatchExact && cands[1].Match != MatchExact {
		return cands[0], true
	}
	return Candidate{}, false
}

func splitPhrases(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		switch r {
		case ',', '+', ';', '/', '\n', '\r':
			return true
		default:
			return false
		}
	})
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
