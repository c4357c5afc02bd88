// Package core provides core types used throughout json-orm.
//
// The package defines fundamental types like Row, ResultSet, Table,
// Column, and the Schema catalog shared by the security, planning and
// storage layers.
//
// # Rows
//
// A Row is a flat field -> value mapping. Columns qualified by table use
// dotted keys:
//
//	row := core.Row{"users.id": 1, "users.name": "Alice"}
//	value, ok := row.Lookup("users", "name")
//
// # Table Definition
//
// Table metadata is supplied by the mapping layer and seeds both the
// security allow-lists and the index manager:
//
//	table := core.Table{
//	    Name: "users",
//	    Columns: []core.Column{
//	        {Name: "id", Type: core.IntType, PrimaryKey: true},
//	        {Name: "email", Type: core.StringType, Unique: true},
//	        {Name: "age", Type: core.IntType, Indexed: true},
//	    },
//	}
//
// # Column Types
//
// Supported column types:
//   - StringType: Strings
//   - IntType: Integers
//   - FloatType: Floating point numbers
//   - BoolType: Boolean values
//   - DateType, TimestampType: Date/time values
//   - JsonType: Nested JSON documents
package core
