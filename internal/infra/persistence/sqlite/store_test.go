package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"morphcore/pkg/domain"
)

func geckoSpecies() domain.Species {
	return domain.Species{
		Slug: "leopard-gecko",
		Name: "Leopard Gecko",
		Genes: []domain.Gene{
			{ID: "tremper", Name: "Tremper Albino", Mode: domain.ModeRecessive},
			{ID: "mack-snow", Name: "Mack Snow", Mode: domain.ModeIncompleteDominant},
		},
	}
}

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, e := tx.CreateSpecies(geckoSpecies())
		return e
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, e := tx.UpdateSpecies("leopard-gecko", func(sp *domain.Species) error {
			sp.Genes = append(sp.Genes, domain.Gene{ID: "eclipse", Name: "Eclipse", Mode: domain.ModeRecessive})
			return nil
		})
		return e
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	_ = store.Close()

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	sp, ok := reloaded.GetSpecies("leopard-gecko")
	if !ok || len(sp.Genes) != 3 || sp.Revision != 2 {
		t.Fatalf("unexpected reloaded species %+v", sp)
	}
	if reloaded.Path() != path {
		t.Fatalf("unexpected path %s", reloaded.Path())
	}
}

func TestSQLiteStoreRemovesDeletedSpecies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	ctx := context.Background()
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, e := tx.CreateSpecies(geckoSpecies())
		return e
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteSpecies("leopard-gecko")
	}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected deleted bucket to be removed, found %d rows", count)
	}
	_ = store.Close()
}

func TestSQLiteStoreFailedTransactionSkipsPersist(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "state.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteSpecies("missing")
	}); err == nil {
		t.Fatalf("expected error")
	}
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("unexpected rows %d", count)
	}
}
