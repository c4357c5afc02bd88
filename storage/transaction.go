package storage

import (
	"github.com/alaamer12/json-orm/core"
)

// Tx captures a snapshot of every registered table so the store can be
// restored if work done after Begin fails. Commit discards the
// snapshot; Rollback rewrites each table back to it. Writes are durable
// as they happen, so Commit itself touches nothing.
type Tx struct {
	store    *Store
	snapshot map[string][]core.Row
	done     bool
}

// Begin snapshots the current contents of every table in the schema.
func (s *Store) Begin() (*Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string][]core.Row)
	for _, table := range s.schema.Tables() {
		rows, err := s.chunks.AllRecords(table)
		if err != nil {
			return nil, err
		}
		copied := make([]core.Row, len(rows))
		for i, row := range rows {
			copied[i] = row.Clone()
		}
		snapshot[table] = copied
	}
	return &Tx{store: s, snapshot: snapshot}, nil
}

// Commit ends the transaction, keeping everything written since Begin.
func (tx *Tx) Commit() error {
	tx.done = true
	tx.snapshot = nil
	return nil
}

// Rollback restores every table to its state at Begin. Calling it after
// Commit or a previous Rollback is a no-op.
func (tx *Tx) Rollback() error {
	if tx.done {
		return nil
	}
	tx.done = true

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()

	for _, table := range tx.store.schema.Tables() {
		rows, ok := tx.snapshot[table]
		if !ok {
			rows = nil
		}
		if err := tx.store.replaceAll(table, rows); err != nil {
			return err
		}
	}
	tx.snapshot = nil
	return nil
}
