package domain

import "context"

// Transaction exposes the catalog operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateSpecies(Species) (Species, error)
	UpdateSpecies(slug string, mutator func(*Species) error) (Species, error)
	DeleteSpecies(slug string) error
	FindSpecies(slug string) (Species, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListSpecies() []Species
	FindSpecies(slug string) (Species, bool)
}

// PersistentStore is a minimal abstraction over durable catalog backends.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetSpecies(slug string) (Species, bool)
	ListSpecies() []Species
}
