// Package domain defines the species catalog entities, genotype value types,
// and rule evaluation primitives used by morphcore.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// EntityType identifies the type of record stored in the catalog domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntitySpecies identifies a species catalog record.
	EntitySpecies EntityType = "species"
	// EntityGene identifies a gene within a species catalog.
	EntityGene EntityType = "gene"
	// EntityAlias identifies a named combination alias within a species catalog.
	EntityAlias EntityType = "combination_alias"
)

// GeneState is the genotype class at one locus: zero, one or two copies of the
// mutant allele.
type GeneState string

// Canonical genotype classes.
const (
	StateNormal       GeneState = "normal"
	StateHeterozygous GeneState = "heterozygous"
	StateHomozygous   GeneState = "homozygous"
)

// GeneStates lists the genotype classes in copy-count order.
var GeneStates = []GeneState{StateNormal, StateHeterozygous, StateHomozygous}

// Valid reports whether s is one of the canonical genotype classes.
func (s GeneState) Valid() bool {
	switch s {
	case StateNormal, StateHeterozygous, StateHomozygous:
		return true
	default:
		return false
	}
}

// Copies returns the number of mutant alleles carried in state s, or -1 when
// s is not a canonical class.
func (s GeneState) Copies() int {
	switch s {
	case StateNormal:
		return 0
	case StateHeterozygous:
		return 1
	case StateHomozygous:
		return 2
	default:
		return -1
	}
}

// ParseGeneState maps common spellings onto a canonical state.
func ParseGeneState(raw string) (GeneState, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "normal", "wildtype", "wild_type", "0":
		return StateNormal, nil
	case "heterozygous", "het", "1":
		return StateHeterozygous, nil
	case "homozygous", "homo", "hom", "2":
		return StateHomozygous, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidState, raw)
	}
}

// InheritanceMode describes how a gene's mutant allele is expressed.
type InheritanceMode string

// Supported inheritance archetypes.
const (
	ModeRecessive          InheritanceMode = "recessive"
	ModeDominant           InheritanceMode = "dominant"
	ModeIncompleteDominant InheritanceMode = "incomplete_dominant"
)

// Valid reports whether m is a supported inheritance archetype.
func (m InheritanceMode) Valid() bool {
	switch m {
	case ModeRecessive, ModeDominant, ModeIncompleteDominant:
		return true
	default:
		return false
	}
}

// Base contains common fields for persisted catalog records.
type Base struct {
	CreatedAt time.Time `json:"created_at" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}

// StateLabels carries the display label for each genotype class of a gene.
type StateLabels struct {
	Normal       string `json:"normal,omitempty" yaml:"normal,omitempty"`
	Heterozygous string `json:"heterozygous,omitempty" yaml:"heterozygous,omitempty"`
	Homozygous   string `json:"homozygous,omitempty" yaml:"homozygous,omitempty"`
}

// For returns the label associated with state.
func (l StateLabels) For(state GeneState) string {
	switch state {
	case StateHeterozygous:
		return l.Heterozygous
	case StateHomozygous:
		return l.Homozygous
	default:
		return l.Normal
	}
}

// Gene is a heritable trait position with a normal and a mutant allele.
type Gene struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Shorthand string          `json:"shorthand,omitempty" yaml:"shorthand,omitempty"`
	Mode      InheritanceMode `json:"mode" yaml:"mode"`
	Labels    StateLabels     `json:"labels" yaml:"labels,omitempty"`
}

// WithDefaultLabels fills any empty state label with the mode-specific default.
func (g Gene) WithDefaultLabels() Gene {
	if g.Labels.Normal == "" {
		g.Labels.Normal = "Normal"
	}
	switch g.Mode {
	case ModeRecessive:
		if g.Labels.Heterozygous == "" {
			g.Labels.Heterozygous = "Het " + g.Name
		}
		if g.Labels.Homozygous == "" {
			g.Labels.Homozygous = g.Name
		}
	case ModeDominant:
		if g.Labels.Heterozygous == "" {
			g.Labels.Heterozygous = g.Name
		}
		if g.Labels.Homozygous == "" {
			g.Labels.Homozygous = "Homozygous " + g.Name
		}
	case ModeIncompleteDominant:
		if g.Labels.Heterozygous == "" {
			g.Labels.Heterozygous = g.Name
		}
		if g.Labels.Homozygous == "" {
			g.Labels.Homozygous = "Super " + g.Name
		}
	}
	return g
}

// AliasComponent is one (gene, state) requirement of a combination alias.
type AliasComponent struct {
	GeneID string    `json:"gene" yaml:"gene"`
	State  GeneState `json:"state" yaml:"state"`
}

// CombinationAlias names a morph that appears when every component holds.
type CombinationAlias struct {
	Key        string           `json:"key" yaml:"key"`
	Label      string           `json:"label" yaml:"label"`
	Synonyms   []string         `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`
	Components []AliasComponent `json:"components" yaml:"components"`
}

// Species owns an ordered gene catalog and an ordered alias catalog.
type Species struct {
	Base     `yaml:",inline"`
	Slug     string             `json:"slug" yaml:"slug"`
	Name     string             `json:"name" yaml:"name"`
	Revision int64              `json:"revision" yaml:"-"`
	Genes    []Gene             `json:"genes" yaml:"genes"`
	Aliases  []CombinationAlias `json:"aliases" yaml:"aliases,omitempty"`
}

// Clone returns a deep copy safe to hand across transaction boundaries.
func (s Species) Clone() Species {
	cp := s
	cp.Genes = append([]Gene(nil), s.Genes...)
	if s.Aliases != nil {
		cp.Aliases = make([]CombinationAlias, len(s.Aliases))
		for i, a := range s.Aliases {
			a.Synonyms = append([]string(nil), a.Synonyms...)
			a.Components = append([]AliasComponent(nil), a.Components...)
			cp.Aliases[i] = a
		}
	}
	return cp
}

// Version identifies one stored state of the species. Revisions restart at 1
// when a slug is deleted and created again, so the creation time is part of it.
func (s Species) Version() string {
	return fmt.Sprintf("%d@%d", s.Revision, s.CreatedAt.UnixNano())
}

// FindGene returns the gene with the supplied id.
func (s Species) FindGene(id string) (Gene, bool) {
	for _, g := range s.Genes {
		if g.ID == id {
			return g, true
		}
	}
	return Gene{}, false
}

// ParentSelection maps gene ids to the genotype class carried by one parent.
// Genes absent from the map are normal.
type ParentSelection map[string]GeneState

// State returns the genotype class for gene id, defaulting to normal.
func (p ParentSelection) State(geneID string) GeneState {
	if st, ok := p[geneID]; ok {
		return st
	}
	return StateNormal
}

// Change captures a catalog mutation recorded inside a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported catalog mutations.
const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
