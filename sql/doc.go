// Package sql provides the statement and expression model for json-orm.
//
// Statements are built programmatically as clause trees; there is no
// text parser. An external translator may produce or consume the
// Statement tree.
//
// # Expressions
//
// Predicates compose fluently and yield BinaryOperator nodes:
//
//	adult := sql.Col("users", "age").Gt(18)
//	active := sql.And(adult, sql.Col("users", "status").Eq("active"))
//
// Identifiers are validated against ^[A-Za-z_][A-Za-z0-9_]*$ and string
// literals are sanitized (NUL bytes stripped, quotes and backslashes
// escaped) before a statement may reach the planner.
//
// # Building Statements
//
//	builder := sql.NewSelectBuilder("users")
//	stmt := builder.
//	    Columns(sql.Col("users", "name")).
//	    WhereCond(sql.Col("users", "age").Gt(18)).
//	    OrderByKey(sql.Col("users", "name"), false).
//	    LimitTo(10).
//	    GetResult()
//
// GetResult resets the builder, so one builder can produce many
// statements.
//
// # Evaluation
//
// Evaluate resolves an expression against a flat row mapping:
//
//	value, err := sql.Evaluate(adult, core.Row{"users.age": 20})
//
// # Supported Statements
//
//   - SelectStatement (joins, where, group by, having, order by, limit)
//   - InsertStatement
//   - UpdateStatement
//   - DeleteStatement
package sql
