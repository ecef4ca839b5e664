package core

import (
	"context"
	"fmt"

	"morphcore/internal/catalog"
)

const aliasShadowRuleName = "alias_shadows_gene"

// AliasShadowRule warns when an alias key, label or synonym reads the same as
// a gene name or shorthand. Free-text parsing prefers the alias, so the gene's
// bare name would stop selecting the gene.
func AliasShadowRule() Rule {
	return aliasShadowRule{}
}

type aliasShadowRule struct{}

func (aliasShadowRule) Name() string { return aliasShadowRuleName }

func (aliasShadowRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	res := Result{}
	for _, sp := range changedSpecies(changes) {
		genes := make(map[string]string, len(sp.Genes)*2)
		for _, g := range sp.Genes {
			for _, token := range []string{g.Name, g.Shorthand} {
				if key := catalog.Normalize(token); key != "" {
					genes[key] = g.ID
				}
			}
		}
		for _, a := range sp.Aliases {
			tokens := append([]string{a.Key, a.Label}, a.Synonyms...)
			for _, token := range tokens {
				geneID, clash := genes[catalog.Normalize(token)]
				if !clash {
					continue
				}
				res.Violations = append(res.Violations, Violation{
					Rule:     aliasShadowRuleName,
					Severity: SeverityWarn,
					Message:  fmt.Sprintf("alias %s token %q shadows gene %s", a.Key, token, geneID),
					Entity:   EntityAlias,
					EntityID: sp.Slug,
				})
				break
			}
		}
	}
	return res, nil
}
