// Package memory provides an in-memory implementation of the catalog
// persistence store used for tests and ephemeral environments.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"morphcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Species aliases domain.Species for in-memory persistence operations.
	Species = domain.Species
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

// ErrSlugRequired is returned when a species is created without a slug.
var ErrSlugRequired = errors.New("species slug required")

type memoryState struct {
	species map[string]Species
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Species map[string]Species `json:"species"`
}

func newMemoryState() memoryState {
	return memoryState{species: make(map[string]Species)}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.species {
		cloned.species[k] = v.Clone()
	}
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	out := Snapshot{Species: make(map[string]Species, len(state.species))}
	for k, v := range state.species {
		out.Species[k] = v.Clone()
	}
	return out
}

// migrateSnapshot keys every record by its own slug and backfills revisions
// for snapshots written before revisions were tracked.
func migrateSnapshot(snapshot Snapshot) memoryState {
	state := newMemoryState()
	for key, sp := range snapshot.Species {
		if sp.Slug == "" {
			sp.Slug = key
		}
		if sp.Revision < 1 {
			sp.Revision = 1
		}
		state.species[sp.Slug] = sp.Clone()
	}
	return state
}

func sortedSpecies(m map[string]Species) []Species {
	out := make([]Species, 0, len(m))
	for _, sp := range m {
		out = append(out, sp.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Store provides an in-memory transactional store for species catalogs.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = migrateSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine for integration points like plugins.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the time provider; nil restores the wall clock.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		fn = func() time.Time { return time.Now().UTC() }
	}
	s.nowFn = fn
}

type transaction struct {
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListSpecies returns every species in the snapshot ordered by slug.
func (v transactionView) ListSpecies() []Species {
	return sortedSpecies(v.state.species)
}

// FindSpecies looks up a species by slug.
func (v transactionView) FindSpecies(slug string) (Species, bool) {
	sp, ok := v.state.species[slug]
	if !ok {
		return Species{}, false
	}
	return sp.Clone(), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	return fn(newTransactionView(&snapshot))
}

// GetSpecies returns a committed species by slug.
func (s *Store) GetSpecies(slug string) (Species, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.state.species[slug]
	if !ok {
		return Species{}, false
	}
	return sp.Clone(), true
}

// ListSpecies returns every committed species ordered by slug.
func (s *Store) ListSpecies() []Species {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedSpecies(s.state.species)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindSpecies exposes species lookup within the transaction scope.
func (tx *transaction) FindSpecies(slug string) (Species, bool) {
	return newTransactionView(&tx.state).FindSpecies(slug)
}

// CreateSpecies inserts a new species at revision 1.
func (tx *transaction) CreateSpecies(sp Species) (Species, error) {
	sp.Slug = strings.TrimSpace(sp.Slug)
	if sp.Slug == "" {
		return Species{}, ErrSlugRequired
	}
	if _, exists := tx.state.species[sp.Slug]; exists {
		return Species{}, fmt.Errorf("species %q already exists", sp.Slug)
	}
	sp.Revision = 1
	sp.CreatedAt = tx.now
	sp.UpdatedAt = tx.now
	tx.state.species[sp.Slug] = sp.Clone()
	tx.recordChange(Change{Entity: domain.EntitySpecies, Action: domain.ActionCreate, After: sp.Clone()})
	return sp.Clone(), nil
}

// UpdateSpecies mutates a species and bumps its revision. The slug is immutable.
func (tx *transaction) UpdateSpecies(slug string, mutator func(*Species) error) (Species, error) {
	current, ok := tx.state.species[slug]
	if !ok {
		return Species{}, domain.ErrNotFound{Entity: domain.EntitySpecies, ID: slug}
	}
	before := current.Clone()
	current = current.Clone()
	if err := mutator(&current); err != nil {
		return Species{}, err
	}
	current.Slug = slug
	current.CreatedAt = before.CreatedAt
	current.Revision = before.Revision + 1
	current.UpdatedAt = tx.now
	tx.state.species[slug] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntitySpecies, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeleteSpecies removes a species from the transaction state.
func (tx *transaction) DeleteSpecies(slug string) error {
	current, ok := tx.state.species[slug]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntitySpecies, ID: slug}
	}
	delete(tx.state.species, slug)
	tx.recordChange(Change{Entity: domain.EntitySpecies, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}
