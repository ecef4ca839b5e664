package core

import (
	"context"
	"database/sql"
	"io"
	"path/filepath"
	"testing"

	"morphcore/internal/infra/persistence/postgres"
	"morphcore/internal/infra/persistence/postgres/testutil"
)

func TestOpenPersistentStoreMemory(t *testing.T) {
	store, err := OpenPersistentStore(StorageConfig{Driver: StorageMemory}, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	svc := NewService(store)
	mustRegister(t, svc, ballPython())
	if len(svc.ListSpecies()) != 1 {
		t.Fatalf("expected species in memory store")
	}
}

func TestOpenPersistentStoreSQLiteReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.db")
	cfg := StorageConfig{Driver: StorageSQLite, SQLitePath: path}
	store, err := OpenPersistentStore(cfg, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	mustRegister(t, NewService(store), ballPython())
	if err := store.(io.Closer).Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenPersistentStore(cfg, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer reopened.(io.Closer).Close()
	sp, ok := reopened.GetSpecies("ball-python")
	if !ok || len(sp.Genes) != 4 {
		t.Fatalf("expected species after reopen, got %+v", sp)
	}
}

func TestOpenPersistentStorePostgres(t *testing.T) {
	db, conn := testutil.NewStubDB()
	restore := postgres.OverrideSQLOpen(func(_, _ string) (*sql.DB, error) { return db, nil })
	defer restore()

	store, err := OpenPersistentStore(StorageConfig{Driver: StoragePostgres, PostgresDSN: "postgres://stub"}, nil)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	svc := NewService(store)
	if _, _, err := svc.RegisterSpecies(context.Background(), ballPython()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if rows := conn.Rows(); len(rows) != 1 || rows[0].Bucket != "species/ball-python" {
		t.Fatalf("expected one persisted bucket, got %+v", rows)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	if _, err := OpenPersistentStore(StorageConfig{Driver: "etcd"}, nil); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
