package storage

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-git/go-billy/v6"
	"github.com/go-git/go-billy/v6/util"
	"github.com/goccy/go-json"
)

// Index maps stringified field values to record ids. A unique index
// never holds more than one id per value; a non-unique index returns
// ids in insertion order.
type Index struct {
	Name   string           `json:"name"`
	Unique bool             `json:"unique"`
	Values map[string][]int `json:"values"`
}

// indexValueKey stringifies an indexed value so 1 and 1.0 land on the
// same entry regardless of how JSON decoding typed them.
func indexValueKey(value any) string {
	switch v := value.(type) {
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
	case float32:
		if v == float32(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
	}
	return fmt.Sprintf("%v", value)
}

// Add records one (value, id) pair. Re-adding a pair already present is
// a no-op; a unique index rejects a second id for the same value.
func (idx *Index) Add(value any, id int) error {
	key := indexValueKey(value)
	ids := idx.Values[key]

	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	if idx.Unique && len(ids) > 0 {
		return storageErrorf(ErrUniqueConstraint, "duplicate value %s on unique index %s", key, idx.Name)
	}
	idx.Values[key] = append(ids, id)
	return nil
}

// Remove drops one (value, id) pair. Removing an absent pair is a no-op.
func (idx *Index) Remove(value any, id int) {
	key := indexValueKey(value)
	ids := idx.Values[key]
	for i, existing := range ids {
		if existing == id {
			idx.Values[key] = append(ids[:i], ids[i+1:]...)
			if len(idx.Values[key]) == 0 {
				delete(idx.Values, key)
			}
			return
		}
	}
}

// Find returns the record ids associated with a value, in insertion
// order.
func (idx *Index) Find(value any) []int {
	return idx.Values[indexValueKey(value)]
}

// IndexManager owns the per (table, field) indexes. Each index persists
// to its own file and is reloaded lazily on first use.
type IndexManager struct {
	fs billy.Filesystem

	mu      sync.RWMutex
	indexes map[string]*Index
}

func NewIndexManager(fs billy.Filesystem) *IndexManager {
	return &IndexManager{
		fs:      fs,
		indexes: make(map[string]*Index),
	}
}

func indexKey(table, field string) string {
	return table + "." + field
}

func indexPath(table, field string) string {
	return fmt.Sprintf("indexes/%s/%s.json", table, field)
}

// CreateIndex registers an index for a (table, field) pair. Creating an
// index that already exists returns the existing one.
func (im *IndexManager) CreateIndex(table, field string, unique bool) (*Index, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	if idx, ok := im.lookup(table, field); ok {
		return idx, nil
	}

	idx := &Index{
		Name:   indexKey(table, field),
		Unique: unique,
		Values: make(map[string][]int),
	}
	im.indexes[indexKey(table, field)] = idx
	return idx, im.save(table, field, idx)
}

// Index returns the index for a (table, field) pair, loading it from
// its file on first access.
func (im *IndexManager) Index(table, field string) (*Index, bool) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.lookup(table, field)
}

// Save persists an index to its file.
func (im *IndexManager) Save(table, field string) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	idx, ok := im.lookup(table, field)
	if !ok {
		return storageErrorf(ErrIndexNotFound, "%s.%s", table, field)
	}
	return im.save(table, field, idx)
}

// Drop removes an index and its file.
func (im *IndexManager) Drop(table, field string) error {
	im.mu.Lock()
	defer im.mu.Unlock()

	if _, ok := im.lookup(table, field); !ok {
		return storageErrorf(ErrIndexNotFound, "%s.%s", table, field)
	}
	if err := im.fs.Remove(indexPath(table, field)); err != nil && !os.IsNotExist(err) {
		return storageErrorf(err, "remove index %s.%s", table, field)
	}
	delete(im.indexes, indexKey(table, field))
	return nil
}

func (im *IndexManager) lookup(table, field string) (*Index, bool) {
	if idx, ok := im.indexes[indexKey(table, field)]; ok {
		return idx, true
	}

	data, err := util.ReadFile(im.fs, indexPath(table, field))
	if err != nil {
		return nil, false
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, false
	}
	if idx.Values == nil {
		idx.Values = make(map[string][]int)
	}
	im.indexes[indexKey(table, field)] = &idx
	return &idx, true
}

func (im *IndexManager) save(table, field string, idx *Index) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return storageErrorf(err, "serialize index %s.%s", table, field)
	}
	if err := util.WriteFile(im.fs, indexPath(table, field), data, 0644); err != nil {
		return storageErrorf(err, "write index %s.%s", table, field)
	}
	return nil
}
