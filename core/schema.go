package core

import (
	"fmt"
	"sync"
)

// Schema is the catalog of registered tables. The mapping layer registers
// table metadata here; the planner and optimizer read it back to find
// primary keys and index candidates.
type Schema struct {
	mu     sync.RWMutex
	tables map[string]Table
	order  []string
}

func NewSchema() *Schema {
	return &Schema{
		tables: make(map[string]Table),
	}
}

// Register adds or replaces a table definition.
func (schema *Schema) Register(table Table) error {
	if table.Name == "" {
		return fmt.Errorf("cannot register table without a name")
	}

	schema.mu.Lock()
	defer schema.mu.Unlock()

	if _, exists := schema.tables[table.Name]; !exists {
		schema.order = append(schema.order, table.Name)
	}
	schema.tables[table.Name] = table
	return nil
}

// Table retrieves a registered table definition.
func (schema *Schema) Table(name string) (Table, bool) {
	schema.mu.RLock()
	defer schema.mu.RUnlock()

	table, exists := schema.tables[name]
	return table, exists
}

// Tables returns registered table names in registration order.
func (schema *Schema) Tables() []string {
	schema.mu.RLock()
	defer schema.mu.RUnlock()

	names := make([]string, len(schema.order))
	copy(names, schema.order)
	return names
}

// Indexes returns the indexed columns of a table in declaration order,
// or nil if the table is unknown.
func (schema *Schema) Indexes(table string) []Column {
	schema.mu.RLock()
	defer schema.mu.RUnlock()

	t, exists := schema.tables[table]
	if !exists {
		return nil
	}
	return t.IndexedColumns()
}
