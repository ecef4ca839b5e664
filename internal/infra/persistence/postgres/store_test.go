package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"morphcore/internal/infra/persistence/postgres/testutil"
	"morphcore/pkg/domain"
)

func sampleSpecies(slug string) domain.Species {
	return domain.Species{
		Slug:  slug,
		Name:  "Ball Python",
		Genes: []domain.Gene{{ID: "pastel", Name: "Pastel", Mode: domain.ModeIncompleteDominant}},
	}
}

func openStub(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store, conn
}

func TestNewStoreEnsuresTableAndLoadsSnapshot(t *testing.T) {
	db, conn := testutil.NewStubDB()
	payload, err := json.Marshal(sampleSpecies("ball-python"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	conn.Seed("species/ball-python", payload)
	conn.Seed("legacy", []byte(`[]`))
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := NewStore("postgres://stub", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if _, ok := store.GetSpecies("ball-python"); !ok {
		t.Fatalf("expected species loaded from state table")
	}
	if len(store.ListSpecies()) != 1 {
		t.Fatalf("unknown buckets should be ignored")
	}
	var sawDDL bool
	for _, stmt := range conn.Execs {
		if strings.Contains(strings.ToUpper(stmt), "CREATE TABLE IF NOT EXISTS STATE") {
			sawDDL = true
		}
	}
	if !sawDDL {
		t.Fatalf("expected state table DDL, got execs: %v", conn.Execs)
	}
}

func TestRunInTransactionPersistsAndDeletes(t *testing.T) {
	store, conn := openStub(t)
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateSpecies(sampleSpecies("ball-python"))
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	rows := conn.Rows()
	if len(rows) != 1 || rows[0].Bucket != "species/ball-python" {
		t.Fatalf("expected one species row, got %v", rows)
	}

	execs := len(conn.Execs)
	if _, err := store.RunInTransaction(ctx, func(domain.Transaction) error { return nil }); err != nil {
		t.Fatalf("noop: %v", err)
	}
	if len(conn.Execs) != execs {
		t.Fatalf("unchanged species should not be rewritten: %v", conn.Execs[execs:])
	}

	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteSpecies("ball-python")
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(conn.Rows()) != 0 {
		t.Fatalf("expected species row removed, got %v", conn.Rows())
	}
}

func TestRunInTransactionSurfacesPersistFailures(t *testing.T) {
	store, conn := openStub(t)
	conn.FailBegin = true
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateSpecies(sampleSpecies("ball-python"))
		return err
	})
	if err == nil || !strings.Contains(err.Error(), "begin tx") {
		t.Fatalf("expected begin failure, got %v", err)
	}
	conn.FailBegin = false
	conn.FailCommit = true
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateSpecies(sampleSpecies("leopard-gecko"))
		return err
	}); err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("expected commit failure, got %v", err)
	}
}

func TestNewStorePingFailure(t *testing.T) {
	db, conn := testutil.NewStubDB()
	conn.FailExec = true
	restore := OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()
	if _, err := NewStore("", domain.NewRulesEngine()); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestRecreatedSpeciesIsRewritten(t *testing.T) {
	store, conn := openStub(t)
	ctx := context.Background()
	tick := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.SetNowFunc(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateSpecies(sampleSpecies("ball-python"))
		return err
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	replacement := sampleSpecies("ball-python")
	replacement.Genes = []domain.Gene{{ID: "clown", Name: "Clown", Mode: domain.ModeRecessive}}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := tx.DeleteSpecies("ball-python"); err != nil {
			return err
		}
		_, err := tx.CreateSpecies(replacement)
		return err
	}); err != nil {
		t.Fatalf("recreate: %v", err)
	}

	rows := conn.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %v", rows)
	}
	var persisted domain.Species
	if err := json.Unmarshal(rows[0].Payload, &persisted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if persisted.Revision != 1 || len(persisted.Genes) != 1 || persisted.Genes[0].ID != "clown" {
		t.Fatalf("recreated species not persisted: %+v", persisted)
	}
}
