// Package core hosts the service façade that connects species catalog storage,
// plugins, and the cross engine.
package core

import "morphcore/pkg/domain"

type (
	Species          = domain.Species
	Gene             = domain.Gene
	CombinationAlias = domain.CombinationAlias
	AliasComponent   = domain.AliasComponent
	ParentSelection  = domain.ParentSelection
	GeneState        = domain.GeneState
	InheritanceMode  = domain.InheritanceMode
	EntityType       = domain.EntityType
	Change           = domain.Change
	Action           = domain.Action
	Severity         = domain.Severity
	Violation        = domain.Violation
	Result           = domain.Result
	Rule             = domain.Rule
	RuleView         = domain.RuleView
	RulesEngine      = domain.RulesEngine
	StateLabels      = domain.StateLabels
	ErrNotFound      = domain.ErrNotFound
)

type (
	Transaction     = domain.Transaction
	TransactionView = domain.TransactionView
	PersistentStore = domain.PersistentStore
)

const (
	EntitySpecies = domain.EntitySpecies
	EntityGene    = domain.EntityGene
	EntityAlias   = domain.EntityAlias

	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete

	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog

	ModeRecessive          = domain.ModeRecessive
	ModeDominant           = domain.ModeDominant
	ModeIncompleteDominant = domain.ModeIncompleteDominant

	StateNormal       = domain.StateNormal
	StateHeterozygous = domain.StateHeterozygous
	StateHomozygous   = domain.StateHomozygous
)

// NewRulesEngine returns an engine with no rules registered.
func NewRulesEngine() *RulesEngine { return domain.NewRulesEngine() }
