package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alaamer12/json-orm/core"
	"github.com/alaamer12/json-orm/sql"
)

type PlanKind int

const (
	TableScanPlanKind PlanKind = iota
	IndexScanPlanKind
	JoinPlanKind
	FilterPlanKind
	AggregatePlanKind
	SortPlanKind
	ProjectPlanKind
	LimitPlanKind
	InsertPlanKind
	UpdatePlanKind
	DeletePlanKind
)

// Plan is one node of an execution plan tree. Trees are acyclic and each
// node owns its children. Execute drives the children to completion
// before returning; evaluation is single-threaded and depth-first.
type Plan interface {
	Kind() PlanKind
	Children() []Plan
	// BaseTable names the table a leaf scan reads, or "" for inner
	// nodes. Joins use it to qualify the rows of each side.
	BaseTable() string
	Execute(ctx *ExecutionContext) (core.ResultSet, error)
}

type TableScanPlan struct {
	Table     string
	Columns   []string
	Predicate sql.Expression
}

func (p *TableScanPlan) Kind() PlanKind    { return TableScanPlanKind }
func (p *TableScanPlan) Children() []Plan  { return nil }
func (p *TableScanPlan) BaseTable() string { return p.Table }

func (p *TableScanPlan) Execute(ctx *ExecutionContext) (core.ResultSet, error) {
	return ctx.Storage.Read(p.Table, p.Columns, p.Predicate)
}

type IndexScanPlan struct {
	Table    string
	Index    string // indexed field name
	Columns  []string
	KeyRange core.KeyRange
	// PostFilter holds the conjuncts the index could not answer.
	PostFilter sql.Expression
}

func (p *IndexScanPlan) Kind() PlanKind    { return IndexScanPlanKind }
func (p *IndexScanPlan) Children() []Plan  { return nil }
func (p *IndexScanPlan) BaseTable() string { return p.Table }

func (p *IndexScanPlan) Execute(ctx *ExecutionContext) (core.ResultSet, error) {
	result, err := ctx.Storage.ReadRange(p.Table, p.Index, p.KeyRange, p.Columns)
	if err != nil {
		return nil, err
	}
	if p.PostFilter == nil {
		return result, nil
	}

	var filtered []core.Row
	for {
		row, ok := result.Next()
		if !ok {
			break
		}
		match, err := sql.EvaluateBool(p.PostFilter, row)
		if err != nil {
			return nil, err
		}
		if match {
			filtered = append(filtered, row)
		}
	}
	return core.NewRows(filtered), nil
}

type JoinPlan struct {
	Left      Plan
	Right     Plan
	Condition sql.Expression
	JoinType  sql.JoinType
}

func (p *JoinPlan) Kind() PlanKind    { return JoinPlanKind }
func (p *JoinPlan) Children() []Plan  { return []Plan{p.Left, p.Right} }
func (p *JoinPlan) BaseTable() string { return "" }

// Execute performs a nested-loop join. Output rows are table-qualified
// so columns from both sides never collide.
func (p *JoinPlan) Execute(ctx *ExecutionContext) (core.ResultSet, error) {
	leftRows, err := qualifiedRows(p.Left, ctx)
	if err != nil {
		return nil, err
	}
	rightRows, err := qualifiedRows(p.Right, ctx)
	if err != nil {
		return nil, err
	}

	var joined []core.Row
	rightMatched := make([]bool, len(rightRows))

	for _, left := range leftRows {
		matched := false
		for i, right := range rightRows {
			combined := left.Clone()
			for key, value := range right {
				combined[key] = value
			}

			match := true
			if p.Condition != nil {
				match, err = sql.EvaluateBool(p.Condition, combined)
				if err != nil {
					return nil, err
				}
			}
			if match {
				matched = true
				rightMatched[i] = true
				joined = append(joined, combined)
			}
		}
		if !matched && p.JoinType == sql.LeftJoin {
			joined = append(joined, left.Clone())
		}
	}

	if p.JoinType == sql.RightJoin {
		for i, right := range rightRows {
			if !rightMatched[i] {
				joined = append(joined, right.Clone())
			}
		}
	}

	return core.NewRows(joined), nil
}

// qualifiedRows drains a child plan, prefixing column keys with the
// table name when the child is a base scan.
func qualifiedRows(plan Plan, ctx *ExecutionContext) ([]core.Row, error) {
	result, err := plan.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows := result.All()
	table := plan.BaseTable()
	if table == "" {
		return rows, nil
	}
	qualified := make([]core.Row, len(rows))
	for i, row := range rows {
		qualified[i] = row.Qualify(table)
	}
	return qualified, nil
}

// FilterPlan drops rows failing its predicate. The planner uses it to
// apply WHERE after an outer join, where folding the predicate into the
// join condition would re-admit filtered rows through null extension.
type FilterPlan struct {
	Input     Plan
	Predicate sql.Expression
}

func (p *FilterPlan) Kind() PlanKind    { return FilterPlanKind }
func (p *FilterPlan) Children() []Plan  { return []Plan{p.Input} }
func (p *FilterPlan) BaseTable() string { return "" }

func (p *FilterPlan) Execute(ctx *ExecutionContext) (core.ResultSet, error) {
	input, err := p.Input.Execute(ctx)
	if err != nil {
		return nil, err
	}

	var kept []core.Row
	for {
		row, ok := input.Next()
		if !ok {
			break
		}
		match, err := sql.EvaluateBool(p.Predicate, row)
		if err != nil {
			return nil, err
		}
		if match {
			kept = append(kept, row)
		}
	}
	return core.NewRows(kept), nil
}

type AggregatePlan struct {
	Input      Plan
	GroupBy    []*sql.Column
	Aggregates []*sql.Function
	Having     sql.Expression
}

func (p *AggregatePlan) Kind() PlanKind    { return AggregatePlanKind }
func (p *AggregatePlan) Children() []Plan  { return []Plan{p.Input} }
func (p *AggregatePlan) BaseTable() string { return "" }

func (p *AggregatePlan) Execute(ctx *ExecutionContext) (core.ResultSet, error) {
	input, err := p.Input.Execute(ctx)
	if err != nil {
		return nil, err
	}

	// Groups are kept in first-seen order.
	var order []string
	groups := make(map[string][]core.Row)

	for {
		row, ok := input.Next()
		if !ok {
			break
		}
		key, err := p.groupKey(row)
		if err != nil {
			return nil, err
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	// A statement with aggregates but no GROUP BY folds everything
	// into one group, even when no rows arrived.
	if len(p.GroupBy) == 0 && len(order) == 0 {
		order = append(order, "")
		groups[""] = nil
	}

	var output []core.Row
	for _, key := range order {
		rows := groups[key]
		out := core.Row{}

		for _, column := range p.GroupBy {
			if len(rows) > 0 {
				value, _ := rows[0].Lookup(column.Table, column.Name)
				out[column.OutputName()] = value
			}
		}

		for _, aggregate := range p.Aggregates {
			value, err := computeAggregate(aggregate, rows)
			if err != nil {
				return nil, err
			}
			out[aggregate.OutputName()] = value
		}

		if p.Having != nil {
			keep, err := sql.EvaluateBool(p.Having, out)
			if err != nil {
				return nil, err
			}
			if !keep {
				continue
			}
		}

		output = append(output, out)
	}

	return core.NewRows(output), nil
}

func (p *AggregatePlan) groupKey(row core.Row) (string, error) {
	parts := make([]string, len(p.GroupBy))
	for i, column := range p.GroupBy {
		value, _ := row.Lookup(column.Table, column.Name)
		parts[i] = fmt.Sprintf("%v", value)
	}
	return strings.Join(parts, "\x1f"), nil
}

// AggregateFunctions is the set of functions the Aggregate node computes.
var AggregateFunctions = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
}

func computeAggregate(fn *sql.Function, rows []core.Row) (any, error) {
	name := strings.ToUpper(fn.Name)
	if !AggregateFunctions[name] {
		return nil, &sql.EvaluationError{Message: fmt.Sprintf("unknown aggregate function: %s", fn.Name)}
	}
	if len(fn.Args) != 1 {
		return nil, &sql.EvaluationError{Message: fmt.Sprintf("%s takes exactly one argument", name)}
	}

	var values []any
	seen := make(map[string]bool)
	for _, row := range rows {
		value, err := sql.Evaluate(fn.Args[0], row)
		if err != nil {
			return nil, err
		}
		if value == nil {
			continue
		}
		if fn.Distinct {
			key := fmt.Sprintf("%v", value)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		values = append(values, value)
	}

	switch name {
	case "COUNT":
		return int64(len(values)), nil
	case "SUM", "AVG":
		var sum float64
		for _, value := range values {
			f, ok := sql.AsFloat(value)
			if !ok {
				return nil, &sql.EvaluationError{Message: fmt.Sprintf("%s requires numeric values, got %T", name, value)}
			}
			sum += f
		}
		if name == "SUM" {
			return sum, nil
		}
		if len(values) == 0 {
			return nil, nil
		}
		return sum / float64(len(values)), nil
	case "MIN", "MAX":
		if len(values) == 0 {
			return nil, nil
		}
		best := values[0]
		for _, value := range values[1:] {
			cmp, comparable := sql.CompareValues(value, best)
			if !comparable {
				return nil, &sql.EvaluationError{Message: fmt.Sprintf("%s over incomparable values", name)}
			}
			if (name == "MIN" && cmp < 0) || (name == "MAX" && cmp > 0) {
				best = value
			}
		}
		return best, nil
	}
	return nil, nil
}

type SortPlan struct {
	Input Plan
	Keys  []sql.OrderKey
}

func (p *SortPlan) Kind() PlanKind    { return SortPlanKind }
func (p *SortPlan) Children() []Plan  { return []Plan{p.Input} }
func (p *SortPlan) BaseTable() string { return "" }

// Execute applies a stable multi-key sort; rows comparing equal keep
// their input order.
func (p *SortPlan) Execute(ctx *ExecutionContext) (core.ResultSet, error) {
	input, err := p.Input.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows := input.All()

	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range p.Keys {
			left, _ := rows[i].Lookup(key.Column.Table, key.Column.Name)
			right, _ := rows[j].Lookup(key.Column.Table, key.Column.Name)
			cmp, comparable := sql.CompareValues(left, right)
			if !comparable || cmp == 0 {
				continue
			}
			if key.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})

	return core.NewRows(rows), nil
}

type ProjectPlan struct {
	Input       Plan
	Expressions []sql.Expression
	Distinct    bool
}

func (p *ProjectPlan) Kind() PlanKind    { return ProjectPlanKind }
func (p *ProjectPlan) Children() []Plan  { return []Plan{p.Input} }
func (p *ProjectPlan) BaseTable() string { return "" }

func (p *ProjectPlan) Execute(ctx *ExecutionContext) (core.ResultSet, error) {
	input, err := p.Input.Execute(ctx)
	if err != nil {
		return nil, err
	}

	var output []core.Row
	seen := make(map[string]bool)

	for {
		row, ok := input.Next()
		if !ok {
			break
		}

		projected := core.Row{}
		var fingerprint []string
		for _, expr := range p.Expressions {
			value, err := sql.Evaluate(expr, row)
			if err != nil {
				return nil, err
			}
			projected[outputName(expr)] = value
			if p.Distinct {
				fingerprint = append(fingerprint, fmt.Sprintf("%v", value))
			}
		}

		if p.Distinct {
			key := strings.Join(fingerprint, "\x1f")
			if seen[key] {
				continue
			}
			seen[key] = true
		}

		output = append(output, projected)
	}

	return core.NewRows(output), nil
}

// outputName is the result-row key an expression's value appears under.
func outputName(expr sql.Expression) string {
	switch e := expr.(type) {
	case *sql.Column:
		return e.OutputName()
	case *sql.Function:
		return e.OutputName()
	default:
		return expr.String()
	}
}

type LimitPlan struct {
	Input  Plan
	Count  int
	Offset int
}

func (p *LimitPlan) Kind() PlanKind    { return LimitPlanKind }
func (p *LimitPlan) Children() []Plan  { return []Plan{p.Input} }
func (p *LimitPlan) BaseTable() string { return "" }

// Execute skips Offset rows then yields up to Count. An offset past the
// end of the input yields nothing.
func (p *LimitPlan) Execute(ctx *ExecutionContext) (core.ResultSet, error) {
	input, err := p.Input.Execute(ctx)
	if err != nil {
		return nil, err
	}
	rows := input.All()

	if p.Offset >= len(rows) {
		return core.NewRows(nil), nil
	}
	rows = rows[p.Offset:]
	if p.Count >= 0 && p.Count < len(rows) {
		rows = rows[:p.Count]
	}
	return core.NewRows(rows), nil
}

type InsertPlan struct {
	Table   string
	Columns []string
	Values  [][]sql.Expression
}

func (p *InsertPlan) Kind() PlanKind    { return InsertPlanKind }
func (p *InsertPlan) Children() []Plan  { return nil }
func (p *InsertPlan) BaseTable() string { return p.Table }

func (p *InsertPlan) Execute(ctx *ExecutionContext) (core.ResultSet, error) {
	rows := make([]core.Row, len(p.Values))
	for i, values := range p.Values {
		row := core.Row{}
		for j, expr := range values {
			value, err := sql.Evaluate(expr, nil)
			if err != nil {
				return nil, err
			}
			row[p.Columns[j]] = value
		}
		rows[i] = row
	}

	count, err := ctx.Storage.Write(p.Table, rows)
	if err != nil {
		return nil, err
	}
	return core.NewSingleRow(core.Row{"count": count}), nil
}

type UpdatePlan struct {
	Table     string
	Updates   map[string]sql.Expression
	Predicate sql.Expression
}

func (p *UpdatePlan) Kind() PlanKind    { return UpdatePlanKind }
func (p *UpdatePlan) Children() []Plan  { return nil }
func (p *UpdatePlan) BaseTable() string { return p.Table }

func (p *UpdatePlan) Execute(ctx *ExecutionContext) (core.ResultSet, error) {
	count, err := ctx.Storage.Update(p.Table, p.Updates, p.Predicate)
	if err != nil {
		return nil, err
	}
	return core.NewSingleRow(core.Row{"count": count}), nil
}

type DeletePlan struct {
	Table     string
	Predicate sql.Expression
}

func (p *DeletePlan) Kind() PlanKind    { return DeletePlanKind }
func (p *DeletePlan) Children() []Plan  { return nil }
func (p *DeletePlan) BaseTable() string { return p.Table }

func (p *DeletePlan) Execute(ctx *ExecutionContext) (core.ResultSet, error) {
	count, err := ctx.Storage.Delete(p.Table, p.Predicate)
	if err != nil {
		return nil, err
	}
	return core.NewSingleRow(core.Row{"count": count}), nil
}
