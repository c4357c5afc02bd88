package storage

import (
	"testing"

	"github.com/go-git/go-billy/v6/memfs"

	"github.com/alaamer12/json-orm/core"
)

func appendRows(t *testing.T, cm *ChunkManager, table string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := cm.Append(table, core.Row{"name": name}); err != nil {
			t.Fatalf("Failed to append %s: %v", name, err)
		}
	}
}

func recordNames(t *testing.T, cm *ChunkManager, table string) []string {
	t.Helper()
	rows, err := cm.AllRecords(table)
	if err != nil {
		t.Fatalf("Failed to read records: %v", err)
	}
	names := make([]string, len(rows))
	for i, row := range rows {
		names[i], _ = row["name"].(string)
	}
	return names
}

func TestChunkSealingAndOrder(t *testing.T) {
	cm := NewChunkManager(memfs.New(), 2)
	appendRows(t, cm, "users", "a", "b", "c", "d", "e")

	if got := cm.SealedChunks("users"); got != 2 {
		t.Errorf("Expected 2 sealed chunks, got %d", got)
	}
	if got := cm.BufferedRecords("users"); got != 1 {
		t.Errorf("Expected 1 buffered record, got %d", got)
	}
	if got := cm.RecordCount("users"); got != 5 {
		t.Errorf("Expected 5 records, got %d", got)
	}

	names := recordNames(t, cm, "users")
	want := []string{"a", "b", "c", "d", "e"}
	for i, name := range want {
		if names[i] != name {
			t.Fatalf("Expected append order %v, got %v", want, names)
		}
	}
}

func TestChunkReadSealedChunk(t *testing.T) {
	cm := NewChunkManager(memfs.New(), 2)
	appendRows(t, cm, "users", "a", "b", "c")

	rows, err := cm.ReadChunk("users", 0)
	if err != nil {
		t.Fatalf("Failed to read chunk: %v", err)
	}
	if len(rows) != 2 || rows[0]["name"] != "a" || rows[1]["name"] != "b" {
		t.Errorf("Unexpected chunk contents: %v", rows)
	}
}

func TestChunkRecoveryFromFilesystem(t *testing.T) {
	fs := memfs.New()
	first := NewChunkManager(fs, 2)
	appendRows(t, first, "users", "a", "b", "c")

	// A fresh handle on the same filesystem sees sealed chunks and the
	// live buffer.
	second := NewChunkManager(fs, 2)
	if got := second.SealedChunks("users"); got != 1 {
		t.Errorf("Expected 1 recovered chunk, got %d", got)
	}
	if got := second.BufferedRecords("users"); got != 1 {
		t.Errorf("Expected 1 recovered buffered record, got %d", got)
	}

	names := recordNames(t, second, "users")
	if len(names) != 3 || names[0] != "a" || names[2] != "c" {
		t.Errorf("Expected recovered records in order, got %v", names)
	}
}

func TestChunkClearTable(t *testing.T) {
	fs := memfs.New()
	cm := NewChunkManager(fs, 2)
	appendRows(t, cm, "users", "a", "b", "c")

	if err := cm.ClearTable("users"); err != nil {
		t.Fatalf("Failed to clear table: %v", err)
	}
	if got := cm.RecordCount("users"); got != 0 {
		t.Errorf("Expected empty table, got %d records", got)
	}

	// The files are gone too.
	if names := recordNames(t, NewChunkManager(fs, 2), "users"); len(names) != 0 {
		t.Errorf("Expected no records after clear, got %v", names)
	}
}

func TestChunkTablesAreIndependent(t *testing.T) {
	cm := NewChunkManager(memfs.New(), 2)
	appendRows(t, cm, "users", "a", "b")
	appendRows(t, cm, "orders", "x")

	if got := cm.RecordCount("users"); got != 2 {
		t.Errorf("Expected 2 user records, got %d", got)
	}
	if got := cm.RecordCount("orders"); got != 1 {
		t.Errorf("Expected 1 order record, got %d", got)
	}
	if err := cm.ClearTable("orders"); err != nil {
		t.Fatalf("Failed to clear orders: %v", err)
	}
	if got := cm.RecordCount("users"); got != 2 {
		t.Errorf("Expected users untouched by clearing orders, got %d", got)
	}
}

func TestChunkEmptyTable(t *testing.T) {
	cm := NewChunkManager(memfs.New(), 2)

	rows, err := cm.AllRecords("missing")
	if err != nil {
		t.Fatalf("Failed to read empty table: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected no records, got %v", rows)
	}
	if got := cm.RecordCount("missing"); got != 0 {
		t.Errorf("Expected count 0, got %d", got)
	}
}
