package security

import (
	"fmt"

	"github.com/alaamer12/json-orm/sql"
)

// Rules identifying which check a SecurityError came from.
const (
	RuleTableAccess  = "table-access"
	RuleColumnAccess = "column-access"
	RuleQueryDepth   = "query-depth"
	RuleConditions   = "condition-limit"
	RuleJoins        = "join-limit"
	RuleRateLimit    = "rate-limit"
)

// SecurityError reports a violated security rule. It is terminal and
// never retried.
type SecurityError struct {
	Rule    string
	Message string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security (%s): %s", e.Rule, e.Message)
}

func securityErrorf(rule, format string, args ...any) error {
	return &SecurityError{Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// Validator gates statements between construction and planning. It runs
// two checks in series: the allow-list/complexity validator over the
// statement tree, then the expression-level sanitizer over every
// identifier and literal reached through the tree.
type Validator struct {
	ctx       *Context
	sanitizer Sanitizer
}

func NewValidator(ctx *Context) *Validator {
	return &Validator{ctx: ctx}
}

// Context exposes the validator's security context so callers can grant
// access and roles.
func (v *Validator) Context() *Context {
	return v.ctx
}

// ValidateStatement runs every gate against the statement. The first
// violated rule aborts with a SecurityError.
func (v *Validator) ValidateStatement(statement sql.Statement) error {
	if !v.ctx.CheckRateLimit() {
		return securityErrorf(RuleRateLimit, "rate limit exceeded: more than %d queries per minute",
			v.ctx.Limits().MaxQueriesPerMinute)
	}

	if depth := queryDepth(statement); depth > v.ctx.Limits().MaxQueryDepth {
		return securityErrorf(RuleQueryDepth, "query depth %d exceeds maximum %d",
			depth, v.ctx.Limits().MaxQueryDepth)
	}

	if err := v.validateTables(statement); err != nil {
		return err
	}
	if err := v.validateColumns(statement); err != nil {
		return err
	}
	if err := v.validateComplexity(statement); err != nil {
		return err
	}

	return v.sanitizer.SanitizeStatement(statement)
}

func (v *Validator) validateTables(statement sql.Statement) error {
	for _, table := range statementTables(statement) {
		if !v.ctx.CanAccessTable(table) {
			return securityErrorf(RuleTableAccess, "access to table %q not allowed", table)
		}
	}
	return nil
}

func (v *Validator) validateColumns(statement sql.Statement) error {
	if v.ctx.IsAdmin() {
		return nil
	}
	primary := statement.Table()
	for _, clause := range statement.Clauses() {
		for _, column := range clauseColumns(clause) {
			table := column.Table
			if table == "" {
				table = primary
			}
			if !v.ctx.CanAccessColumn(table, column.Name) {
				return securityErrorf(RuleColumnAccess, "access to column %s.%s not allowed",
					table, column.Name)
			}
		}
	}
	return nil
}

func (v *Validator) validateComplexity(statement sql.Statement) error {
	conditions := 0
	joins := 0
	for _, clause := range statement.Clauses() {
		switch c := clause.(type) {
		case *sql.WhereClause:
			for _, condition := range c.Conditions {
				conditions += len(sql.Conjuncts(condition))
			}
		case *sql.HavingClause:
			conditions += len(sql.Conjuncts(c.Condition))
		case *sql.JoinClause:
			joins++
			conditions += len(sql.Conjuncts(c.Condition))
		}
	}

	if conditions > v.ctx.Limits().MaxConditions {
		return securityErrorf(RuleConditions, "%d conditions exceed maximum %d",
			conditions, v.ctx.Limits().MaxConditions)
	}
	if joins > v.ctx.Limits().MaxJoins {
		return securityErrorf(RuleJoins, "%d joins exceed maximum %d",
			joins, v.ctx.Limits().MaxJoins)
	}
	return nil
}

// queryDepth is 1 plus the maximum depth of any subquery; a statement
// without subqueries has depth 1.
func queryDepth(statement sql.Statement) int {
	deepest := 0
	for _, clause := range statement.Clauses() {
		for _, expr := range clauseExpressions(clause) {
			for _, sub := range subqueriesIn(expr) {
				if d := queryDepth(sub.Statement); d > deepest {
					deepest = d
				}
			}
		}
	}
	return 1 + deepest
}

func subqueriesIn(expr sql.Expression) []*sql.Subquery {
	var subqueries []*sql.Subquery
	switch e := expr.(type) {
	case *sql.Subquery:
		subqueries = append(subqueries, e)
	case *sql.BinaryOperator:
		subqueries = append(subqueries, subqueriesIn(e.Left)...)
		subqueries = append(subqueries, subqueriesIn(e.Right)...)
	case *sql.UnaryOperator:
		subqueries = append(subqueries, subqueriesIn(e.Operand)...)
	case *sql.Function:
		for _, arg := range e.Args {
			subqueries = append(subqueries, subqueriesIn(arg)...)
		}
	}
	return subqueries
}

// statementTables collects the primary table plus every joined table.
func statementTables(statement sql.Statement) []string {
	tables := []string{statement.Table()}
	for _, clause := range statement.Clauses() {
		if join, ok := clause.(*sql.JoinClause); ok {
			tables = append(tables, join.Table)
		}
	}
	return tables
}

// clauseExpressions lists every expression a clause owns.
func clauseExpressions(clause sql.Clause) []sql.Expression {
	switch c := clause.(type) {
	case *sql.SelectClause:
		return c.Columns
	case *sql.WhereClause:
		return c.Conditions
	case *sql.JoinClause:
		return []sql.Expression{c.Condition}
	case *sql.GroupByClause:
		exprs := make([]sql.Expression, len(c.Columns))
		for i, column := range c.Columns {
			exprs[i] = column
		}
		return exprs
	case *sql.HavingClause:
		return []sql.Expression{c.Condition}
	case *sql.OrderByClause:
		exprs := make([]sql.Expression, len(c.Keys))
		for i, key := range c.Keys {
			exprs[i] = key.Column
		}
		return exprs
	case *sql.SetClause:
		var exprs []sql.Expression
		for _, assignment := range c.Assignments {
			exprs = append(exprs, assignment.Column, assignment.Value)
		}
		return exprs
	case *sql.ValuesClause:
		var exprs []sql.Expression
		for _, column := range c.Columns {
			exprs = append(exprs, column)
		}
		for _, row := range c.Rows {
			exprs = append(exprs, row...)
		}
		return exprs
	default:
		return nil
	}
}

// clauseColumns lists every column referenced by a clause.
func clauseColumns(clause sql.Clause) []*sql.Column {
	var columns []*sql.Column
	for _, expr := range clauseExpressions(clause) {
		columns = append(columns, sql.ColumnsIn(expr)...)
	}
	return columns
}
