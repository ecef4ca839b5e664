package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidState is returned for a genotype class outside normal/heterozygous/homozygous.
	ErrInvalidState = errors.New("invalid gene state")
	// ErrInvalidMode is returned for an unrecognized inheritance mode.
	ErrInvalidMode = errors.New("invalid inheritance mode")
)

// ConfigProblem describes one catalog defect found at load time.
type ConfigProblem struct {
	Entity  EntityType
	ID      string
	Message string
}

func (p ConfigProblem) String() string {
	if p.ID == "" {
		return fmt.Sprintf("%s: %s", p.Entity, p.Message)
	}
	return fmt.Sprintf("%s %s: %s", p.Entity, p.ID, p.Message)
}

// ConfigurationError is a fatal catalog defect: unknown inheritance modes,
// aliases pointing at missing genes and similar precondition violations.
type ConfigurationError struct {
	Species  string
	Problems []ConfigProblem
}

func (e *ConfigurationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return fmt.Sprintf("species %s catalog invalid: %s", e.Species, strings.Join(parts, "; "))
}

// Unwrap exposes ErrInvalidMode when any problem stems from an unknown mode.
func (e *ConfigurationError) Unwrap() error {
	for _, p := range e.Problems {
		if p.Entity == EntityGene && strings.HasPrefix(p.Message, "unknown inheritance mode") {
			return ErrInvalidMode
		}
	}
	return nil
}

// InputError is a recoverable request defect the caller can fix by re-prompting.
type InputError struct {
	Reason  string
	Genes   []string
	Phrases []string
}

func (e *InputError) Error() string {
	switch {
	case len(e.Genes) > 0:
		return fmt.Sprintf("%s: %s", e.Reason, strings.Join(e.Genes, ", "))
	case len(e.Phrases) > 0:
		return fmt.Sprintf("%s: %q", e.Reason, e.Phrases)
	default:
		return e.Reason
	}
}

// ComplexityLimitError rejects selections with more genes than the expander allows.
type ComplexityLimitError struct {
	Limit int
	Count int
	// Genes lists the selected genes past the limit, in catalog order.
	Genes []string
}

func (e *ComplexityLimitError) Error() string {
	return fmt.Sprintf("cross selects %d genes, limit is %d (drop: %s)", e.Count, e.Limit, strings.Join(e.Genes, ", "))
}

// ErrNotFound is returned when a referenced catalog record does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
