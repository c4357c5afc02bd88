package storage

import (
	"os"
	"sort"
	"sync"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-billy/v6/osfs"

	"github.com/alaamer12/json-orm/core"
	"github.com/alaamer12/json-orm/sql"
)

// Store is the record store behind the execution engine. Records live
// in chunked table files; indexed columns are mirrored into per-field
// hash indexes keyed by record id, which is a record's position in
// append order.
type Store struct {
	fs      billy.Filesystem
	schema  *core.Schema
	chunks  *ChunkManager
	indexes *IndexManager
	mu      sync.Mutex
}

func NewStore(fs billy.Filesystem, schema *core.Schema) *Store {
	return &Store{
		fs:      fs,
		schema:  schema,
		chunks:  NewChunkManager(fs, DefaultChunkSize),
		indexes: NewIndexManager(fs),
	}
}

// NewMemoryStore backs the store with an in-memory filesystem.
func NewMemoryStore(schema *core.Schema) *Store {
	return NewStore(memfs.New(), schema)
}

// NewFileStore backs the store with a directory on disk.
func NewFileStore(baseDir string, schema *core.Schema) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, storageErrorf(err, "create %s", baseDir)
	}
	return NewStore(osfs.New(baseDir), schema), nil
}

// Chunks exposes the chunk layer for introspection.
func (s *Store) Chunks() *ChunkManager { return s.chunks }

// Indexes exposes the index layer for introspection.
func (s *Store) Indexes() *IndexManager { return s.indexes }

// RegisterTable creates the indexes declared by a table definition.
// The table itself must already be registered with the schema.
func (s *Store) RegisterTable(table core.Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, column := range table.IndexedColumns() {
		unique := column.Unique || column.PrimaryKey
		if _, err := s.indexes.CreateIndex(table.Name, column.Name, unique); err != nil {
			return err
		}
	}
	return nil
}

// Read returns the table's rows in append order, filtered by the
// predicate and narrowed to the requested columns. Nil predicate means
// every row; empty columns means every column.
func (s *Store) Read(table string, columns []string, predicate sql.Expression) (core.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.chunks.AllRecords(table)
	if err != nil {
		return nil, err
	}

	var matched []core.Row
	for _, row := range rows {
		if predicate != nil {
			keep, err := sql.EvaluateBool(predicate, row)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}
		matched = append(matched, row)
	}

	return core.NewRows(narrowRows(matched, columns)), nil
}

// ReadRange returns the rows whose field value falls inside the key
// range, in record-id order. An equality range on an indexed field goes
// through the index; anything else scans.
func (s *Store) ReadRange(table, field string, keyRange core.KeyRange, columns []string) (core.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.chunks.AllRecords(table)
	if err != nil {
		return nil, err
	}

	var matched []core.Row
	if keyRange.IsEquality() {
		if idx, ok := s.indexes.Index(table, field); ok {
			ids := append([]int(nil), idx.Find(keyRange.Low)...)
			sort.Ints(ids)
			for _, id := range ids {
				if id >= 0 && id < len(rows) {
					matched = append(matched, rows[id])
				}
			}
			return core.NewRows(narrowRows(matched, columns)), nil
		}
	}

	for _, row := range rows {
		if inKeyRange(row[field], keyRange) {
			matched = append(matched, row)
		}
	}
	return core.NewRows(narrowRows(matched, columns)), nil
}

// Write appends rows to the table and maintains its indexes. Unique
// constraints are checked for the whole batch before anything is
// written, so a rejected batch leaves the table untouched.
func (s *Store) Write(table string, rows []core.Row) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.schema.Table(table)
	if !ok {
		return 0, storageErrorf(ErrTableNotFound, "%s", table)
	}

	indexed := t.IndexedColumns()
	if err := s.checkUnique(table, indexed, rows); err != nil {
		return 0, err
	}

	base := s.chunks.RecordCount(table)
	for i, row := range rows {
		if err := s.chunks.Append(table, row); err != nil {
			return i, err
		}
		id := base + i
		for _, column := range indexed {
			value, present := row[column.Name]
			if !present {
				continue
			}
			idx, ok := s.indexes.Index(table, column.Name)
			if !ok {
				continue
			}
			if err := idx.Add(value, id); err != nil {
				return i, err
			}
		}
	}

	for _, column := range indexed {
		if _, ok := s.indexes.Index(table, column.Name); ok {
			if err := s.indexes.Save(table, column.Name); err != nil {
				return len(rows), err
			}
		}
	}
	return len(rows), nil
}

// Update applies the assignments to every row matching the predicate.
// Matching rows are updated as clones and the full result is validated
// against the table's unique indexes before any chunk is rewritten, so
// a rejected update leaves the table untouched.
func (s *Store) Update(table string, updates map[string]sql.Expression, predicate sql.Expression) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.chunks.AllRecords(table)
	if err != nil {
		return 0, err
	}

	count := 0
	updated := make([]core.Row, len(rows))
	for i, row := range rows {
		updated[i] = row
		if predicate != nil {
			match, err := sql.EvaluateBool(predicate, row)
			if err != nil {
				return 0, err
			}
			if !match {
				continue
			}
		}
		clone := row.Clone()
		for column, expr := range updates {
			value, err := sql.Evaluate(expr, row)
			if err != nil {
				return 0, err
			}
			clone[column] = value
		}
		updated[i] = clone
		count++
	}

	if count == 0 {
		return 0, nil
	}
	if err := s.verifyUnique(table, updated); err != nil {
		return 0, err
	}
	return count, s.replaceAll(table, updated)
}

// Delete removes every row matching the predicate.
func (s *Store) Delete(table string, predicate sql.Expression) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.chunks.AllRecords(table)
	if err != nil {
		return 0, err
	}

	var kept []core.Row
	for _, row := range rows {
		match := true
		if predicate != nil {
			match, err = sql.EvaluateBool(predicate, row)
			if err != nil {
				return 0, err
			}
		}
		if !match {
			kept = append(kept, row)
		}
	}

	removed := len(rows) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, s.replaceAll(table, kept)
}

// TableRows reports the table's record count to the optimizer.
func (s *Store) TableRows(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunks.RecordCount(table)
}

// replaceAll rewrites the table's chunks and rebuilds its indexes from
// the given rows. Record ids are reassigned by position.
func (s *Store) replaceAll(table string, rows []core.Row) error {
	if err := s.chunks.ClearTable(table); err != nil {
		return err
	}
	for _, row := range rows {
		if err := s.chunks.Append(table, row); err != nil {
			return err
		}
	}
	return s.rebuildIndexes(table, rows)
}

func (s *Store) rebuildIndexes(table string, rows []core.Row) error {
	t, ok := s.schema.Table(table)
	if !ok {
		return nil
	}
	for _, column := range t.IndexedColumns() {
		idx, ok := s.indexes.Index(table, column.Name)
		if !ok {
			continue
		}
		idx.Values = make(map[string][]int)
		for id, row := range rows {
			value, present := row[column.Name]
			if !present {
				continue
			}
			if err := idx.Add(value, id); err != nil {
				return err
			}
		}
		if err := s.indexes.Save(table, column.Name); err != nil {
			return err
		}
	}
	return nil
}

// checkUnique validates a batch of new rows against the table's unique
// indexes, including duplicates inside the batch itself.
func (s *Store) checkUnique(table string, indexed []core.Column, rows []core.Row) error {
	for _, column := range indexed {
		if !column.Unique && !column.PrimaryKey {
			continue
		}
		idx, ok := s.indexes.Index(table, column.Name)
		if !ok {
			continue
		}
		staged := make(map[string]bool)
		for _, row := range rows {
			value, present := row[column.Name]
			if !present {
				continue
			}
			key := indexValueKey(value)
			if staged[key] || len(idx.Find(value)) > 0 {
				return storageErrorf(ErrUniqueConstraint, "duplicate value %s on unique index %s", key, idx.Name)
			}
			staged[key] = true
		}
	}
	return nil
}

// verifyUnique validates a full replacement row set against the table's
// unique indexes. Unlike checkUnique it ignores the live index contents;
// the rows given here are about to replace them.
func (s *Store) verifyUnique(table string, rows []core.Row) error {
	t, ok := s.schema.Table(table)
	if !ok {
		return nil
	}
	for _, column := range t.IndexedColumns() {
		if !column.Unique && !column.PrimaryKey {
			continue
		}
		seen := make(map[string]bool, len(rows))
		for _, row := range rows {
			value, present := row[column.Name]
			if !present {
				continue
			}
			key := indexValueKey(value)
			if seen[key] {
				return storageErrorf(ErrUniqueConstraint, "duplicate value %s on unique index %s", key, indexKey(table, column.Name))
			}
			seen[key] = true
		}
	}
	return nil
}

func narrowRows(rows []core.Row, columns []string) []core.Row {
	if len(columns) == 0 {
		return rows
	}
	narrowed := make([]core.Row, len(rows))
	for i, row := range rows {
		out := core.Row{}
		for _, column := range columns {
			if value, ok := row[column]; ok {
				out[column] = value
			}
		}
		narrowed[i] = out
	}
	return narrowed
}

func inKeyRange(value any, keyRange core.KeyRange) bool {
	if value == nil {
		return false
	}
	if keyRange.Low != nil {
		cmp, comparable := sql.CompareValues(value, keyRange.Low)
		if !comparable {
			return false
		}
		if cmp < 0 || (cmp == 0 && !keyRange.LowInclusive) {
			return false
		}
	}
	if keyRange.High != nil {
		cmp, comparable := sql.CompareValues(value, keyRange.High)
		if !comparable {
			return false
		}
		if cmp > 0 || (cmp == 0 && !keyRange.HighInclusive) {
			return false
		}
	}
	return true
}
