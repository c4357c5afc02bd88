package engine

import (
	"github.com/alaamer12/json-orm/core"
	"github.com/alaamer12/json-orm/sql"
)

// Storage is the contract the execution engine drives plans against.
// The storage engine filters rows by predicate itself, so scans can push
// work below the engine boundary.
type Storage interface {
	// Read returns the rows of a table, narrowed to the requested
	// columns (nil means all) and filtered by the predicate (nil means
	// no filter).
	Read(table string, columns []string, predicate sql.Expression) (core.ResultSet, error)

	// ReadRange returns rows whose indexed field falls inside the key
	// range, in record-id order.
	ReadRange(table, field string, keyRange core.KeyRange, columns []string) (core.ResultSet, error)

	// Write appends rows and returns the number written.
	Write(table string, rows []core.Row) (int, error)

	// Update applies the assignments to every row matching the
	// predicate and returns the number updated.
	Update(table string, updates map[string]sql.Expression, predicate sql.Expression) (int, error)

	// Delete removes every row matching the predicate and returns the
	// number removed.
	Delete(table string, predicate sql.Expression) (int, error)
}

// Stats supplies table cardinalities to the optimizer. The storage
// engine's record counts back this; estimates never persist across
// restarts.
type Stats interface {
	TableRows(table string) int
}

// ExecutionContext carries everything a plan needs while executing.
type ExecutionContext struct {
	Storage Storage
	Params  *sql.ParameterStore
}

func NewExecutionContext(storage Storage) *ExecutionContext {
	return &ExecutionContext{
		Storage: storage,
		Params:  sql.NewParameterStore(),
	}
}
