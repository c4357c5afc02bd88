// Package jsonorm provides an embedded SQL-like query engine over
// chunked JSON storage.
//
// Statements are built programmatically as expression trees, pass a
// security gate (table and column allow-lists, complexity limits, rate
// limiting), and are then planned, cost-optimized and executed against
// a record store of chunked JSON files with hash indexes.
//
// # Quick Start
//
// Create an in-memory database and register a table:
//
//	db := jsonorm.OpenMemory()
//	db.RegisterTable(core.Table{
//	    Name: "users",
//	    Columns: []core.Column{
//	        {Name: "id", Type: core.IntType, PrimaryKey: true},
//	        {Name: "name", Type: core.StringType},
//	        {Name: "age", Type: core.IntType, Indexed: true},
//	    },
//	})
//
//	stmt := sql.NewInsertBuilder("users").
//	    Columns(sql.BareCol("id"), sql.BareCol("name"), sql.BareCol("age")).
//	    Row(1, "Alice", 30).
//	    GetResult()
//	db.Query(stmt)
//
//	query := sql.NewSelectBuilder("users").
//	    Columns(sql.BareCol("id"), sql.BareCol("name")).
//	    WhereCond(sql.BareCol("age").Gt(18)).
//	    GetResult()
//	result, _ := db.Query(query)
//
// # Supported statements
//
// The engine supports:
//   - INSERT, SELECT, UPDATE, DELETE
//   - WHERE with comparison, logical and arithmetic operators
//   - ORDER BY, LIMIT, OFFSET
//   - Aggregate functions: SUM, AVG, MIN, MAX, COUNT
//   - GROUP BY, HAVING
//   - JOINs: INNER, LEFT, RIGHT
//   - DISTINCT
//   - Transactions via Database.Transaction
//
// A directory-backed database works the same way:
//
//	db, err := jsonorm.Open("/var/data/mydb")
package jsonorm
