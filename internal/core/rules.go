package core

// NewDefaultRulesEngine builds a rules engine with the built-in catalog policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(CatalogIntegrityRule())
	engine.Register(AliasShadowRule())
	return engine
}

// changedSpecies returns the post-change species of every create or update.
func changedSpecies(changes []Change) []Species {
	var out []Species
	for _, change := range changes {
		if change.Entity != EntitySpecies || change.After == nil {
			continue
		}
		if change.Action != ActionCreate && change.Action != ActionUpdate {
			continue
		}
		if sp, ok := change.After.(Species); ok {
			out = append(out, sp)
		}
	}
	return out
}
