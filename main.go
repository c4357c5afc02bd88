package jsonorm

import (
	"fmt"

	"github.com/alaamer12/json-orm/core"
	"github.com/alaamer12/json-orm/engine"
	"github.com/alaamer12/json-orm/security"
	"github.com/alaamer12/json-orm/sql"
	"github.com/alaamer12/json-orm/storage"
)

// Database wires the full statement pipeline over one store: security
// validation, planning, optimization and execution.
type Database struct {
	schema    *core.Schema
	store     *storage.Store
	security  *security.Context
	validator *security.Validator
	planner   *engine.Planner
	optimizer *engine.Optimizer
}

// Option adjusts how a database is opened.
type Option func(*options)

type options struct {
	limits security.Limits
}

// WithLimits overrides the default security limits.
func WithLimits(limits security.Limits) Option {
	return func(o *options) { o.limits = limits }
}

func applyOptions(opts []Option) options {
	o := options{limits: security.DefaultLimits()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open creates or reopens a database stored under baseDir.
func Open(baseDir string, opts ...Option) (*Database, error) {
	schema := core.NewSchema()
	store, err := storage.NewFileStore(baseDir, schema)
	if err != nil {
		return nil, err
	}
	return newDatabase(schema, store, applyOptions(opts)), nil
}

// OpenMemory creates a database backed entirely by memory, useful for
// tests and scratch work.
func OpenMemory(opts ...Option) *Database {
	schema := core.NewSchema()
	return newDatabase(schema, storage.NewMemoryStore(schema), applyOptions(opts))
}

func newDatabase(schema *core.Schema, store *storage.Store, o options) *Database {
	ctx := security.NewContext(o.limits)
	return &Database{
		schema:    schema,
		store:     store,
		security:  ctx,
		validator: security.NewValidator(ctx),
		planner:   engine.NewPlanner(schema),
		optimizer: engine.NewOptimizer(schema, store),
	}
}

// RegisterTable adds a table definition: the schema learns its columns,
// the store creates its indexes, and the security context allow-lists
// the table and every declared column.
func (db *Database) RegisterTable(table core.Table) error {
	if err := db.schema.Register(table); err != nil {
		return err
	}
	if err := db.store.RegisterTable(table); err != nil {
		return err
	}
	db.security.AllowTable(table.Name)
	for _, column := range table.Columns {
		db.security.AllowColumn(table.Name, column.Name)
	}
	return nil
}

// Schema returns the table catalog.
func (db *Database) Schema() *core.Schema { return db.schema }

// Store returns the underlying record store.
func (db *Database) Store() *storage.Store { return db.store }

// Security returns the security context, for granting roles or
// adjusting allow-lists.
func (db *Database) Security() *security.Context { return db.security }

// Query runs one statement through the full pipeline. The statement is
// security-validated first; only validated statements reach the
// planner. Result rows are capped at the context's MaxRows limit.
func (db *Database) Query(statement sql.Statement) (core.ResultSet, error) {
	if err := db.validator.ValidateStatement(statement); err != nil {
		return nil, err
	}

	plan, err := db.planner.Plan(statement)
	if err != nil {
		return nil, err
	}
	plan = db.optimizer.Optimize(plan)

	result, err := plan.Execute(engine.NewExecutionContext(db.store))
	if err != nil {
		return nil, err
	}

	if max := db.security.Limits().MaxRows; max > 0 {
		rows := result.All()
		if len(rows) > max {
			rows = rows[:max]
		}
		return core.NewRows(rows), nil
	}
	return result, nil
}

// Exec runs a DML statement and returns the number of rows affected.
func (db *Database) Exec(statement sql.Statement) (int, error) {
	result, err := db.Query(statement)
	if err != nil {
		return 0, err
	}
	row, ok := result.Next()
	if !ok {
		return 0, nil
	}
	count, _ := row["count"].(int)
	return count, nil
}

// Transaction runs fn atomically: if fn returns an error, every table
// is rolled back to its state before the call and the error comes back
// wrapped.
func (db *Database) Transaction(fn func(*Database) error) error {
	tx, err := db.store.Begin()
	if err != nil {
		return err
	}
	if err := fn(db); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("transaction rollback failed: %w after %w", rollbackErr, err)
		}
		return fmt.Errorf("transaction rolled back: %w", err)
	}
	return tx.Commit()
}

// ExportTable writes every record of a table to a single JSD document.
func (db *Database) ExportTable(table, path string) error {
	result, err := db.store.Read(table, nil, nil)
	if err != nil {
		return err
	}
	rows := result.All()
	records := make([]any, len(rows))
	for i, row := range rows {
		records[i] = map[string]any(row)
	}
	return storage.NewJSDFile(path).Write(records)
}

// ImportTable loads records from a JSD document into a table. The
// document must be an array of objects.
func (db *Database) ImportTable(table, path string) error {
	value, err := storage.NewJSDFile(path).Read()
	if err != nil {
		return err
	}
	records, ok := value.([]any)
	if !ok {
		return fmt.Errorf("document %s is not an array of records", path)
	}
	rows := make([]core.Row, 0, len(records))
	for _, record := range records {
		object, ok := record.(map[string]any)
		if !ok {
			return fmt.Errorf("document %s contains a non-object record", path)
		}
		rows = append(rows, core.Row(object))
	}
	_, err = db.store.Write(table, rows)
	return err
}
