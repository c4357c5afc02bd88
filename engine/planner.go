package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alaamer12/json-orm/core"
	"github.com/alaamer12/json-orm/sql"
)

// Planner turns validated statements into initial execution plans. It is
// a statement visitor: one method per statement type, dispatched by
// Plan.
type Planner struct {
	schema *core.Schema
}

func NewPlanner(schema *core.Schema) *Planner {
	return &Planner{schema: schema}
}

func (planner *Planner) Plan(statement sql.Statement) (Plan, error) {
	switch s := statement.(type) {
	case *sql.SelectStatement:
		return planner.visitSelect(s)
	case *sql.InsertStatement:
		return planner.visitInsert(s)
	case *sql.UpdateStatement:
		return planner.visitUpdate(s)
	case *sql.DeleteStatement:
		return planner.visitDelete(s)
	default:
		return nil, fmt.Errorf("unsupported statement type: %v", statement.Type())
	}
}

func (planner *Planner) visitSelect(statement *sql.SelectStatement) (Plan, error) {
	if err := rejectSubqueries(statement); err != nil {
		return nil, err
	}

	required := requiredColumns(statement)

	// Base table access. Index selection is the optimizer's access-path
	// pass; the planner always starts from a full scan.
	var plan Plan = &TableScanPlan{
		Table:   statement.From,
		Columns: required[statement.From],
	}

	// Joins wrap the base access left to right in clause order.
	for _, join := range statement.Joins {
		right := &TableScanPlan{
			Table:   join.Table,
			Columns: required[join.Table],
		}
		plan = &JoinPlan{
			Left:      plan,
			Right:     right,
			Condition: join.Condition,
			JoinType:  join.JoinType,
		}
	}

	if statement.Where != nil {
		plan = attachPredicate(plan, statement.Where.Predicate())
	}

	aggregates := selectAggregates(statement)
	if statement.GroupBy != nil || len(aggregates) > 0 {
		aggregate := &AggregatePlan{Input: plan, Aggregates: aggregates}
		if statement.GroupBy != nil {
			aggregate.GroupBy = statement.GroupBy.Columns
		}
		if statement.Having != nil {
			aggregate.Having = statement.Having.Condition
		}
		plan = aggregate
	}

	if statement.OrderBy != nil {
		plan = &SortPlan{Input: plan, Keys: statement.OrderBy.Keys}
	}

	plan = &ProjectPlan{
		Input:       plan,
		Expressions: statement.Select.Columns,
		Distinct:    statement.Select.Distinct,
	}

	if statement.Limit != nil {
		plan = &LimitPlan{Input: plan, Count: statement.Limit.Count, Offset: statement.Limit.Offset}
	}

	return plan, nil
}

func (planner *Planner) visitInsert(statement *sql.InsertStatement) (Plan, error) {
	columns := make([]string, len(statement.Values.Columns))
	for i, column := range statement.Values.Columns {
		columns[i] = column.Name
	}
	return &InsertPlan{
		Table:   statement.Into,
		Columns: columns,
		Values:  statement.Values.Rows,
	}, nil
}

func (planner *Planner) visitUpdate(statement *sql.UpdateStatement) (Plan, error) {
	updates := make(map[string]sql.Expression, len(statement.Set.Assignments))
	for _, assignment := range statement.Set.Assignments {
		updates[assignment.Column.Name] = assignment.Value
	}
	plan := &UpdatePlan{Table: statement.Target, Updates: updates}
	if statement.Where != nil {
		plan.Predicate = statement.Where.Predicate()
	}
	return plan, nil
}

func (planner *Planner) visitDelete(statement *sql.DeleteStatement) (Plan, error) {
	plan := &DeletePlan{Table: statement.FromTable}
	if statement.Where != nil {
		plan.Predicate = statement.Where.Predicate()
	}
	return plan, nil
}

// attachPredicate puts a WHERE predicate where the plan shape allows:
// merged into a base scan, folded into the topmost inner-join condition
// (predicate pushdown later distributes it to the right side), or
// applied as a filter above the plan. Outer joins never absorb WHERE;
// a left row failing the condition would come back through null
// extension instead of being dropped.
func attachPredicate(plan Plan, predicate sql.Expression) Plan {
	if predicate == nil {
		return plan
	}
	switch p := plan.(type) {
	case *TableScanPlan:
		return &TableScanPlan{
			Table:     p.Table,
			Columns:   p.Columns,
			Predicate: mergePredicates(p.Predicate, predicate),
		}
	case *JoinPlan:
		if p.JoinType == sql.InnerJoin {
			return &JoinPlan{
				Left:      p.Left,
				Right:     p.Right,
				Condition: mergePredicates(p.Condition, predicate),
				JoinType:  p.JoinType,
			}
		}
		return &FilterPlan{Input: p, Predicate: predicate}
	default:
		return &FilterPlan{Input: plan, Predicate: predicate}
	}
}

func mergePredicates(existing, added sql.Expression) sql.Expression {
	if existing == nil {
		return added
	}
	if added == nil {
		return existing
	}
	return sql.And(existing, added)
}

// selectAggregates pulls the aggregate function calls out of the select
// list.
func selectAggregates(statement *sql.SelectStatement) []*sql.Function {
	var aggregates []*sql.Function
	for _, expr := range statement.Select.Columns {
		if fn, ok := expr.(*sql.Function); ok && AggregateFunctions[strings.ToUpper(fn.Name)] {
			aggregates = append(aggregates, fn)
		}
	}
	return aggregates
}

// requiredColumns unions the columns referenced by the select list,
// WHERE, JOIN conditions, GROUP BY and ORDER BY, bucketed per table so
// each scan requests only what the query needs. Unqualified columns are
// attributed to the statement's primary table.
func requiredColumns(statement *sql.SelectStatement) map[string][]string {
	byTable := make(map[string]map[string]bool)
	record := func(column *sql.Column) {
		table := column.Table
		if table == "" {
			table = statement.From
		}
		if byTable[table] == nil {
			byTable[table] = make(map[string]bool)
		}
		byTable[table][column.Name] = true
	}

	for _, clause := range statement.Clauses() {
		switch c := clause.(type) {
		case *sql.SelectClause:
			for _, expr := range c.Columns {
				for _, column := range sql.ColumnsIn(expr) {
					record(column)
				}
			}
		case *sql.WhereClause:
			for _, condition := range c.Conditions {
				for _, column := range sql.ColumnsIn(condition) {
					record(column)
				}
			}
		case *sql.JoinClause:
			for _, column := range sql.ColumnsIn(c.Condition) {
				record(column)
			}
		case *sql.GroupByClause:
			for _, column := range c.Columns {
				record(column)
			}
		case *sql.OrderByClause:
			for _, key := range c.Keys {
				record(key.Column)
			}
		}
	}

	required := make(map[string][]string, len(byTable))
	for table, columns := range byTable {
		names := make([]string, 0, len(columns))
		for name := range columns {
			names = append(names, name)
		}
		sort.Strings(names)
		required[table] = names
	}
	return required
}

// rejectSubqueries refuses statements carrying subquery expressions;
// the validator counts them toward depth but the engine does not plan
// them.
func rejectSubqueries(statement *sql.SelectStatement) error {
	for _, clause := range statement.Clauses() {
		where, ok := clause.(*sql.WhereClause)
		if !ok {
			continue
		}
		for _, condition := range where.Conditions {
			if containsSubquery(condition) {
				return fmt.Errorf("subqueries are not supported by the planner")
			}
		}
	}
	return nil
}

func containsSubquery(expr sql.Expression) bool {
	switch e := expr.(type) {
	case *sql.Subquery:
		return true
	case *sql.BinaryOperator:
		return containsSubquery(e.Left) || containsSubquery(e.Right)
	case *sql.UnaryOperator:
		return containsSubquery(e.Operand)
	case *sql.Function:
		for _, arg := range e.Args {
			if containsSubquery(arg) {
				return true
			}
		}
	}
	return false
}
