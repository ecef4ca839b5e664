// Package sqlite persists species catalogs to an embedded SQLite file while
// reusing the in-memory store for transactional semantics.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"morphcore/internal/infra/persistence/memory"
	"morphcore/pkg/domain"
)

var _ domain.PersistentStore = (*Store)(nil)

// DefaultPath is used when no database path is configured.
const DefaultPath = "morphcore.db"

const speciesBucketPrefix = "species/"

// Store persists each species as a JSON payload in a single state table.
// Every successful transaction rewrites the changed buckets and removes the
// buckets of deleted species.
type Store struct {
	*memory.Store
	db      *sql.DB
	mu      sync.Mutex
	path    string
	written map[string]string
}

// NewStore constructs a snapshotting SQLite-backed persistent store.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, path: path, written: make(map[string]string)}
	if err := s.load(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	snapshot := memory.Snapshot{Species: make(map[string]domain.Species)}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		slug, ok := strings.CutPrefix(bucket, speciesBucketPrefix)
		if !ok {
			continue
		}
		var sp domain.Species
		if err := json.Unmarshal(payload, &sp); err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
		snapshot.Species[slug] = sp
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	s.Store.ImportState(snapshot)
	for slug, sp := range s.Store.ExportState().Species {
		s.written[slug] = sp.Version()
	}
	return nil
}

func (s *Store) persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.Store.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for slug, sp := range snapshot.Species {
		if v, ok := s.written[slug]; ok && v == sp.Version() {
			continue
		}
		data, err := json.Marshal(sp)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, speciesBucketPrefix+slug, data); err != nil {
			return fmt.Errorf("upsert %s: %w", slug, err)
		}
	}
	for slug := range s.written {
		if _, ok := snapshot.Species[slug]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM state WHERE bucket = ?`, speciesBucketPrefix+slug); err != nil {
			return fmt.Errorf("delete %s: %w", slug, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.written = make(map[string]string, len(snapshot.Species))
	for slug, sp := range snapshot.Species {
		s.written[slug] = sp.Version()
	}
	return nil
}

// RunInTransaction applies the provided function within a transaction, then snapshots state to SQLite if successful.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	if pErr := s.persist(ctx); pErr != nil {
		return res, pErr
	}
	return res, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
