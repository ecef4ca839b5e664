package domain

import (
	"fmt"
	"strings"
)

// Problems lists every configuration defect in the species catalog. An empty
// result means the catalog can be compiled.
func (s Species) Problems() []ConfigProblem {
	var out []ConfigProblem
	if strings.TrimSpace(s.Slug) == "" {
		out = append(out, ConfigProblem{Entity: EntitySpecies, Message: "slug is required"})
	}

	ids := make(map[string]struct{}, len(s.Genes))
	names := make(map[string]string, len(s.Genes))
	for i, g := range s.Genes {
		id := g.ID
		if strings.TrimSpace(id) == "" {
			out = append(out, ConfigProblem{Entity: EntityGene, ID: fmt.Sprintf("#%d", i), Message: "id is required"})
			continue
		}
		if _, dup := ids[id]; dup {
			out = append(out, ConfigProblem{Entity: EntityGene, ID: id, Message: "duplicate gene id"})
		}
		ids[id] = struct{}{}
		name := strings.ToLower(strings.TrimSpace(g.Name))
		if name == "" {
			out = append(out, ConfigProblem{Entity: EntityGene, ID: id, Message: "name is required"})
		} else if other, dup := names[name]; dup {
			out = append(out, ConfigProblem{Entity: EntityGene, ID: id, Message: fmt.Sprintf("name %q already used by %s", g.Name, other)})
		} else {
			names[name] = id
		}
		if !g.Mode.Valid() {
			out = append(out, ConfigProblem{Entity: EntityGene, ID: id, Message: fmt.Sprintf("unknown inheritance mode %q", g.Mode)})
		}
	}

	keys := make(map[string]struct{}, len(s.Aliases))
	for i, a := range s.Aliases {
		key := a.Key
		if strings.TrimSpace(key) == "" {
			out = append(out, ConfigProblem{Entity: EntityAlias, ID: fmt.Sprintf("#%d", i), Message: "key is required"})
			continue
		}
		if _, dup := keys[key]; dup {
			out = append(out, ConfigProblem{Entity: EntityAlias, ID: key, Message: "duplicate alias key"})
		}
		keys[key] = struct{}{}
		if len(a.Components) == 0 {
			out = append(out, ConfigProblem{Entity: EntityAlias, ID: key, Message: "alias declares no components"})
		}
		seen := make(map[string]struct{}, len(a.Components))
		for _, c := range a.Components {
			if _, ok := ids[c.GeneID]; !ok {
				out = append(out, ConfigProblem{Entity: EntityAlias, ID: key, Message: fmt.Sprintf("component references unknown gene %q", c.GeneID)})
			}
			if !c.State.Valid() {
				out = append(out, ConfigProblem{Entity: EntityAlias, ID: key, Message: fmt.Sprintf("component %s has invalid state %q", c.GeneID, c.State)})
			}
			if _, dup := seen[c.GeneID]; dup {
				out = append(out, ConfigProblem{Entity: EntityAlias, ID: key, Message: fmt.Sprintf("gene %s listed more than once", c.GeneID)})
			}
			seen[c.GeneID] = struct{}{}
		}
	}
	return out
}

// Validate returns a ConfigurationError when the catalog has problems.
func (s Species) Validate() error {
	if problems := s.Problems(); len(problems) > 0 {
		return &ConfigurationError{Species: s.Slug, Problems: problems}
	}
	return nil
}
