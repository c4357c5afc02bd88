package core

import "strings"

// Row is one record as a flat field -> value mapping. Qualified fields use
// dotted "table.field" keys.
type Row map[string]any

// Lookup resolves a column against the row, preferring the qualified
// "table.name" key and falling back to the bare name.
func (row Row) Lookup(table, name string) (any, bool) {
	if table != "" {
		if value, ok := row[table+"."+name]; ok {
			return value, true
		}
	}
	if value, ok := row[name]; ok {
		return value, true
	}
	// A bare column may still be present under some qualifier.
	if table == "" {
		suffix := "." + name
		for key, value := range row {
			if strings.HasSuffix(key, suffix) {
				return value, true
			}
		}
	}
	return nil, false
}

// Clone returns a shallow copy of the row.
func (row Row) Clone() Row {
	clone := make(Row, len(row))
	for key, value := range row {
		clone[key] = value
	}
	return clone
}

// Qualify returns a copy of the row with every unqualified key prefixed
// by the table name. Already qualified keys are kept as-is.
func (row Row) Qualify(table string) Row {
	qualified := make(Row, len(row))
	for key, value := range row {
		if strings.Contains(key, ".") {
			qualified[key] = value
		} else {
			qualified[table+"."+key] = value
		}
	}
	return qualified
}

// ResultSet is a lazy, forward-only sequence of rows. Once exhausted it
// cannot be restarted.
type ResultSet interface {
	// Next returns the next row, or ok=false once the set is exhausted.
	Next() (row Row, ok bool)

	// All drains and returns every remaining row.
	All() []Row
}

// Rows is a ResultSet over a materialized slice of rows.
type Rows struct {
	rows   []Row
	cursor int
}

func NewRows(rows []Row) *Rows {
	return &Rows{rows: rows}
}

func (rs *Rows) Next() (Row, bool) {
	if rs.cursor >= len(rs.rows) {
		return nil, false
	}
	row := rs.rows[rs.cursor]
	rs.cursor++
	return row, true
}

func (rs *Rows) All() []Row {
	remaining := rs.rows[rs.cursor:]
	rs.cursor = len(rs.rows)
	return remaining
}

// SingleRow wraps one row, typically an affected-count row from a write
// operation. Next yields the row exactly once.
type SingleRow struct {
	row      Row
	returned bool
}

func NewSingleRow(row Row) *SingleRow {
	return &SingleRow{row: row}
}

func (rs *SingleRow) Next() (Row, bool) {
	if rs.returned {
		return nil, false
	}
	rs.returned = true
	return rs.row, true
}

func (rs *SingleRow) All() []Row {
	if rs.returned {
		return nil
	}
	rs.returned = true
	return []Row{rs.row}
}
