// Package cross computes offspring genotype and phenotype distributions for a
// pairing of two parents across independently inherited loci. Everything in
// this package is a pure function of its inputs.
package cross

import (
	"fmt"

	"morphcore/pkg/domain"
)

// Outcome is the probability of one genotype class among the offspring.
type Outcome struct {
	State       domain.GeneState `json:"state"`
	Probability float64          `json:"probability"`
}

// Distribution is the single-locus result of crossing two parent states.
type Distribution struct {
	Gene     domain.Gene      `json:"gene"`
	Parent1  domain.GeneState `json:"parent1"`
	Parent2  domain.GeneState `json:"parent2"`
	Outcomes []Outcome        `json:"outcomes"`
}

// Probability returns the chance of state, zero when it cannot occur.
func (d Distribution) Probability(state domain.GeneState) float64 {
	for _, o := range d.Outcomes {
		if o.State == state {
			return o.Probability
		}
	}
	return 0
}

// CrossGene applies the two-allele Mendelian table to one gene. Each parent
// passes a mutant allele with probability copies/2, so the offspring table is
// symmetric in the parents. Outcomes with zero probability are omitted and the
// remainder are listed in copy-count order.
func CrossGene(gene domain.Gene, p1, p2 domain.GeneState) (Distribution, error) {
	if !gene.Mode.Valid() {
		return Distribution{}, fmt.Errorf("gene %s: %w %q", gene.ID, domain.ErrInvalidMode, gene.Mode)
	}
	if !p1.Valid() {
		return Distribution{}, fmt.Errorf("gene %s parent 1: %w %q", gene.ID, domain.ErrInvalidState, p1)
	}
	if !p2.Valid() {
		return Distribution{}, fmt.Errorf("gene %s parent 2: %w %q", gene.ID, domain.ErrInvalidState, p2)
	}
	a := float64(p1.Copies()) / 2
	b := float64(p2.Copies()) / 2
	probs := [3]float64{
		(1 - a) * (1 - b),
		a*(1-b) + b*(1-a),
		a * b,
	}
	d := Distribution{Gene: gene, Parent1: p1, Parent2: p2}
	for i, st := range domain.GeneStates {
		if probs[i] > 0 {
			d.Outcomes = append(d.Outcomes, Outcome{State: st, Probability: probs[i]})
		}
	}
	return d, nil
}

// Phenotype is how one genotype class of a gene renders.
type Phenotype struct {
	Visible bool   `json:"visible"`
	Carrier bool   `json:"carrier"`
	Label   string `json:"label,omitempty"`
}

// PhenotypeOf derives the rendered phenotype of gene in state from its
// inheritance mode alone.
//
//	recessive            visible only when homozygous; heterozygous is a silent carrier
//	dominant             heterozygous and homozygous render identically
//	incomplete_dominant  heterozygous and homozygous are distinct visible forms
func PhenotypeOf(gene domain.Gene, state domain.GeneState) (Phenotype, error) {
	if !state.Valid() {
		return Phenotype{}, fmt.Errorf("gene %s: %w %q", gene.ID, domain.ErrInvalidState, state)
	}
	labels := gene.Labels
	switch gene.Mode {
	case domain.ModeRecessive:
		switch state {
		case domain.StateHomozygous:
			return Phenotype{Visible: true, Label: labels.Homozygous}, nil
		case domain.StateHeterozygous:
			return Phenotype{Carrier: true}, nil
		}
	case domain.ModeDominant:
		if state != domain.StateNormal {
			return Phenotype{Visible: true, Label: labels.Heterozygous}, nil
		}
	case domain.ModeIncompleteDominant:
		switch state {
		case domain.StateHeterozygous:
			return Phenotype{Visible: true, Label: labels.Heterozygous}, nil
		case domain.StateHomozygous:
			return Phenotype{Visible: true, Label: labels.Homozygous}, nil
		}
	default:
		return Phenotype{}, fmt.Errorf("gene %s: %w %q", gene.ID, domain.ErrInvalidMode, gene.Mode)
	}
	return Phenotype{}, nil
}
