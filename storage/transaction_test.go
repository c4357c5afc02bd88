package storage

import (
	"testing"

	"github.com/alaamer12/json-orm/core"
	"github.com/alaamer12/json-orm/sql"
)

func TestTransactionRollbackRestoresTables(t *testing.T) {
	store := newTestStore(t)
	seedUsers(t, store)

	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("Failed to begin: %v", err)
	}

	if _, err := store.Write("users", []core.Row{{"id": 4, "name": "Dave", "age": 40}}); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if _, err := store.Delete("users", sql.BareCol("id").Eq(1)); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}

	if err := tx.Rollback(); err != nil {
		t.Fatalf("Failed to roll back: %v", err)
	}

	result, err := store.Read("users", nil, nil)
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	rows := result.All()
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows back, got %d", len(rows))
	}
	if rows[0]["name"] != "Alice" || rows[2]["name"] != "Carol" {
		t.Errorf("Expected original rows restored in order, got %v", rows)
	}

	// Indexes were rebuilt from the snapshot too.
	ranged, err := store.ReadRange("users", "id", core.EqualityRange(1), nil)
	if err != nil {
		t.Fatalf("Failed to read range: %v", err)
	}
	if got := ranged.All(); len(got) != 1 || got[0]["name"] != "Alice" {
		t.Errorf("Expected index lookup to find Alice after rollback, got %v", got)
	}
}

func TestTransactionCommitKeepsWrites(t *testing.T) {
	store := newTestStore(t)
	seedUsers(t, store)

	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("Failed to begin: %v", err)
	}
	if _, err := store.Write("users", []core.Row{{"id": 4, "name": "Dave", "age": 40}}); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	if got := store.TableRows("users"); got != 4 {
		t.Errorf("Expected 4 rows after commit, got %d", got)
	}
}

func TestTransactionRollbackAfterCommitIsNoOp(t *testing.T) {
	store := newTestStore(t)
	seedUsers(t, store)

	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("Failed to begin: %v", err)
	}
	if _, err := store.Write("users", []core.Row{{"id": 4, "name": "Dave", "age": 40}}); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Rollback after commit should be a no-op: %v", err)
	}

	if got := store.TableRows("users"); got != 4 {
		t.Errorf("Expected committed write to survive, got %d rows", got)
	}
}

func TestTransactionSnapshotIsIsolatedFromMutation(t *testing.T) {
	store := newTestStore(t)
	seedUsers(t, store)

	tx, err := store.Begin()
	if err != nil {
		t.Fatalf("Failed to begin: %v", err)
	}

	// Updates mutate live rows; the snapshot must hold its own copies.
	if _, err := store.Update("users",
		map[string]sql.Expression{"name": sql.Lit("Changed")},
		nil); err != nil {
		t.Fatalf("Failed to update: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("Failed to roll back: %v", err)
	}

	result, err := store.Read("users", nil, sql.BareCol("id").Eq(1))
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if rows := result.All(); len(rows) != 1 || rows[0]["name"] != "Alice" {
		t.Errorf("Expected snapshot to survive in-place mutation, got %v", rows)
	}
}
