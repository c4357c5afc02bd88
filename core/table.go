package core

type ColumnType int

const (
	StringType ColumnType = iota
	IntType
	FloatType
	BoolType
	DateType
	TimestampType
	JsonType
)

// ForeignKey points a column at another table's column.
type ForeignKey struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

type Column struct {
	Name       string      `json:"name"`
	Type       ColumnType  `json:"type"`
	PrimaryKey bool        `json:"primaryKey"`
	Unique     bool        `json:"unique"`
	Indexed    bool        `json:"indexed"`
	ForeignKey *ForeignKey `json:"foreignKey,omitempty"`
}

type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// IndexedColumns returns the columns that carry an index, in declaration
// order. Primary key and unique columns are always indexed.
func (table Table) IndexedColumns() []Column {
	var columns []Column
	for _, column := range table.Columns {
		if column.Indexed || column.Unique || column.PrimaryKey {
			columns = append(columns, column)
		}
	}
	return columns
}

// Column looks up a column by name.
func (table Table) Column(name string) (Column, bool) {
	for _, column := range table.Columns {
		if column.Name == name {
			return column, true
		}
	}
	return Column{}, false
}
