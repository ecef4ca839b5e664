package core

import (
	"context"
	"fmt"
)

const catalogIntegrityRuleName = "catalog_integrity"

// CatalogIntegrityRule blocks writes that leave a species catalog unable to
// compile: missing ids, duplicate names, unknown modes, and aliases that point
// at genes the species does not declare.
func CatalogIntegrityRule() Rule {
	return catalogIntegrityRule{}
}

type catalogIntegrityRule struct{}

func (catalogIntegrityRule) Name() string { return catalogIntegrityRuleName }

func (catalogIntegrityRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	res := Result{}
	for _, sp := range changedSpecies(changes) {
		for _, problem := range sp.Problems() {
			res.Violations = append(res.Violations, Violation{
				Rule:     catalogIntegrityRuleName,
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("species %s: %s", sp.Slug, problem),
				Entity:   problem.Entity,
				EntityID: sp.Slug,
			})
		}
	}
	return res, nil
}
