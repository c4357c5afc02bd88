package engine

import (
	"github.com/alaamer12/json-orm/core"
	"github.com/alaamer12/json-orm/sql"
)

// Selectivity estimates per predicate shape. Equality narrows hardest,
// ranges less so, everything else barely.
const (
	equalitySelectivity = 0.1
	rangeSelectivity    = 0.3
	defaultSelectivity  = 0.5
)

// Optimizer rewrites plans produced by the planner. Each pass preserves
// result semantics and is idempotent, so optimizing an already-optimized
// plan changes nothing. A plan no pass applies to comes back unchanged.
//
// Passes run in a fixed order: predicate pushdown, join reordering,
// access-path selection, projection merging. Pushdown runs first so the
// join reorder and access-path passes see predicates already at their
// lowest legal position.
type Optimizer struct {
	schema *core.Schema
	stats  Stats
}

func NewOptimizer(schema *core.Schema, stats Stats) *Optimizer {
	return &Optimizer{schema: schema, stats: stats}
}

func (o *Optimizer) Optimize(plan Plan) Plan {
	plan = o.pushDownPredicates(plan)
	plan = o.reorderJoins(plan)
	plan = o.chooseAccessPaths(plan)
	plan = o.mergeProjections(plan)
	return plan
}

// transformInputs applies f to every child of a node, in place. Leaf
// nodes pass through untouched.
func transformInputs(plan Plan, f func(Plan) Plan) Plan {
	switch p := plan.(type) {
	case *JoinPlan:
		p.Left = f(p.Left)
		p.Right = f(p.Right)
	case *FilterPlan:
		p.Input = f(p.Input)
	case *AggregatePlan:
		p.Input = f(p.Input)
	case *SortPlan:
		p.Input = f(p.Input)
	case *ProjectPlan:
		p.Input = f(p.Input)
	case *LimitPlan:
		p.Input = f(p.Input)
	}
	return plan
}

// --- predicate pushdown ---

// pushDownPredicates walks the tree top-down. At each inner join it
// splits the condition into conjuncts and sinks every conjunct that
// references only one side's tables into that side. Outer joins keep
// their condition intact; moving it below the join would change which
// rows get null-extended.
func (o *Optimizer) pushDownPredicates(plan Plan) Plan {
	if join, ok := plan.(*JoinPlan); ok && join.JoinType == sql.InnerJoin && join.Condition != nil {
		var remaining []sql.Expression
		for _, conjunct := range sql.Conjuncts(join.Condition) {
			if !pushInto(join.Left, conjunct) && !pushInto(join.Right, conjunct) {
				remaining = append(remaining, conjunct)
			}
		}
		join.Condition = sql.Conjoin(remaining)
	}
	return transformInputs(plan, o.pushDownPredicates)
}

// pushInto sinks a conjunct into the subtree when every table the
// conjunct references belongs to that subtree. Unqualified columns are
// never pushed; their table is ambiguous below a join.
func pushInto(plan Plan, conjunct sql.Expression) bool {
	tables, qualified := predicateTables(conjunct)
	if !qualified || len(tables) == 0 {
		return false
	}
	return pushIntoTables(plan, conjunct, tables)
}

func pushIntoTables(plan Plan, conjunct sql.Expression, tables map[string]bool) bool {
	switch p := plan.(type) {
	case *TableScanPlan:
		if onlyTable(tables, p.Table) {
			p.Predicate = mergePredicates(p.Predicate, conjunct)
			return true
		}
	case *IndexScanPlan:
		if onlyTable(tables, p.Table) {
			p.PostFilter = mergePredicates(p.PostFilter, conjunct)
			return true
		}
	case *JoinPlan:
		if p.JoinType != sql.InnerJoin {
			return false
		}
		if subsetOf(tables, planTables(p.Left)) {
			return pushIntoTables(p.Left, conjunct, tables)
		}
		if subsetOf(tables, planTables(p.Right)) {
			return pushIntoTables(p.Right, conjunct, tables)
		}
	}
	return false
}

// predicateTables collects the tables an expression references. The
// second return is false when any column is unqualified.
func predicateTables(expr sql.Expression) (map[string]bool, bool) {
	tables := make(map[string]bool)
	for _, column := range sql.ColumnsIn(expr) {
		if column.Table == "" {
			return nil, false
		}
		tables[column.Table] = true
	}
	return tables, true
}

func planTables(plan Plan) map[string]bool {
	tables := make(map[string]bool)
	var walk func(Plan)
	walk = func(p Plan) {
		if table := p.BaseTable(); table != "" {
			tables[table] = true
		}
		for _, child := range p.Children() {
			walk(child)
		}
	}
	walk(plan)
	return tables
}

func onlyTable(tables map[string]bool, table string) bool {
	for t := range tables {
		if t != table {
			return false
		}
	}
	return true
}

func subsetOf(tables, of map[string]bool) bool {
	for t := range tables {
		if !of[t] {
			return false
		}
	}
	return true
}

// --- join reordering ---

// relation is one base table access participating in a join subtree.
type relation struct {
	plan  Plan
	table string
}

type joinEstimate struct {
	rows float64
	cost float64
}

// dpEntry memoizes the cheapest way to join a subset of relations.
type dpEntry struct {
	left, right uint // child subsets, 0 for a single relation
	conjuncts   []sql.Expression
	rows        float64
	cost        float64
}

const maxReorderRelations = 10

// reorderJoins replaces a subtree of inner joins with the cheapest join
// order found by dynamic programming over relation subsets. Cost is
// cost(left) + cost(right) + estimated output rows; estimates come from
// storage record counts and fixed per-predicate selectivities. The
// rewrite applies only when it strictly beats the current tree's
// estimate, so a plan that is already cheapest stays as it is.
func (o *Optimizer) reorderJoins(plan Plan) Plan {
	if join, ok := plan.(*JoinPlan); ok && o.stats != nil {
		if reordered, ok := o.reorderSubtree(join); ok {
			return reordered
		}
	}
	return transformInputs(plan, o.reorderJoins)
}

func (o *Optimizer) reorderSubtree(root *JoinPlan) (Plan, bool) {
	relations, conjuncts, ok := collectJoinSubtree(root)
	if !ok || len(relations) < 2 || len(relations) > maxReorderRelations {
		return nil, false
	}
	for _, conjunct := range conjuncts {
		if _, qualified := predicateTables(conjunct); !qualified {
			return nil, false
		}
	}

	index := make(map[string]int, len(relations))
	for i, rel := range relations {
		index[rel.table] = i
	}

	// Bitmask of relations each conjunct touches.
	masks := make([]uint, len(conjuncts))
	for i, conjunct := range conjuncts {
		tables, _ := predicateTables(conjunct)
		var mask uint
		for table := range tables {
			pos, known := index[table]
			if !known {
				return nil, false
			}
			mask |= 1 << pos
		}
		masks[i] = mask
	}

	best := make(map[uint]*dpEntry)
	for i, rel := range relations {
		rows, cost := o.estimateLeaf(rel.plan)
		best[1<<i] = &dpEntry{rows: rows, cost: cost}
	}

	full := uint(1)<<len(relations) - 1
	for subset := uint(1); subset <= full; subset++ {
		if best[subset] != nil {
			continue
		}
		for left := (subset - 1) & subset; left > 0; left = (left - 1) & subset {
			right := subset &^ left
			leftEntry, rightEntry := best[left], best[right]
			if leftEntry == nil || rightEntry == nil {
				continue
			}

			var applicable []sql.Expression
			selectivity := 1.0
			for i, mask := range masks {
				if mask&subset != mask {
					continue
				}
				if mask&left == 0 || mask&right == 0 {
					continue
				}
				applicable = append(applicable, conjuncts[i])
				selectivity *= conjunctSelectivity(conjuncts[i])
			}

			rows := leftEntry.rows * rightEntry.rows * selectivity
			cost := leftEntry.cost + rightEntry.cost + rows
			if current := best[subset]; current == nil || cost < current.cost {
				best[subset] = &dpEntry{
					left:      left,
					right:     right,
					conjuncts: applicable,
					rows:      rows,
					cost:      cost,
				}
			}
		}
	}

	winner := best[full]
	if winner == nil {
		return nil, false
	}
	if _, currentCost := o.estimateJoinTree(root); winner.cost >= currentCost {
		return nil, false
	}
	return buildJoinTree(full, best, relations), true
}

// collectJoinSubtree flattens a join subtree into its base relations and
// join conjuncts. It refuses subtrees containing outer joins, non-scan
// leaves, or the same table twice.
func collectJoinSubtree(plan Plan) ([]relation, []sql.Expression, bool) {
	switch p := plan.(type) {
	case *TableScanPlan:
		return []relation{{plan: p, table: p.Table}}, nil, true
	case *IndexScanPlan:
		return []relation{{plan: p, table: p.Table}}, nil, true
	case *JoinPlan:
		if p.JoinType != sql.InnerJoin {
			return nil, nil, false
		}
		left, leftConjuncts, ok := collectJoinSubtree(p.Left)
		if !ok {
			return nil, nil, false
		}
		right, rightConjuncts, ok := collectJoinSubtree(p.Right)
		if !ok {
			return nil, nil, false
		}
		relations := append(left, right...)
		seen := make(map[string]bool, len(relations))
		for _, rel := range relations {
			if seen[rel.table] {
				return nil, nil, false
			}
			seen[rel.table] = true
		}
		conjuncts := append(leftConjuncts, rightConjuncts...)
		if p.Condition != nil {
			conjuncts = append(conjuncts, sql.Conjuncts(p.Condition)...)
		}
		return relations, conjuncts, true
	}
	return nil, nil, false
}

func buildJoinTree(subset uint, best map[uint]*dpEntry, relations []relation) Plan {
	entry := best[subset]
	if entry.left == 0 {
		for i := range relations {
			if subset == 1<<i {
				return relations[i].plan
			}
		}
	}
	return &JoinPlan{
		Left:      buildJoinTree(entry.left, best, relations),
		Right:     buildJoinTree(entry.right, best, relations),
		Condition: sql.Conjoin(entry.conjuncts),
		JoinType:  sql.InnerJoin,
	}
}

func (o *Optimizer) estimateLeaf(plan Plan) (rows, cost float64) {
	var table string
	var predicate sql.Expression
	switch p := plan.(type) {
	case *TableScanPlan:
		table, predicate = p.Table, p.Predicate
	case *IndexScanPlan:
		table, predicate = p.Table, p.PostFilter
	default:
		return 1, 1
	}

	rows = float64(o.stats.TableRows(table))
	if rows < 1 {
		rows = 1
	}
	if predicate != nil {
		for _, conjunct := range sql.Conjuncts(predicate) {
			rows *= conjunctSelectivity(conjunct)
		}
	}
	return rows, rows
}

func (o *Optimizer) estimateJoinTree(plan Plan) (rows, cost float64) {
	join, ok := plan.(*JoinPlan)
	if !ok {
		return o.estimateLeaf(plan)
	}
	leftRows, leftCost := o.estimateJoinTree(join.Left)
	rightRows, rightCost := o.estimateJoinTree(join.Right)
	selectivity := 1.0
	if join.Condition != nil {
		for _, conjunct := range sql.Conjuncts(join.Condition) {
			selectivity *= conjunctSelectivity(conjunct)
		}
	}
	rows = leftRows * rightRows * selectivity
	return rows, leftCost + rightCost + rows
}

func conjunctSelectivity(conjunct sql.Expression) float64 {
	binary, ok := conjunct.(*sql.BinaryOperator)
	if !ok {
		return defaultSelectivity
	}
	switch binary.Operator {
	case "=":
		return equalitySelectivity
	case "<", "<=", ">", ">=":
		return rangeSelectivity
	default:
		return defaultSelectivity
	}
}

// --- access-path selection ---

// chooseAccessPaths converts table scans into index scans when a scan
// predicate constrains an indexed column. Unique indexes are preferred;
// among non-unique candidates the column declared first wins. Conjuncts
// the index cannot answer stay behind as a post-filter.
func (o *Optimizer) chooseAccessPaths(plan Plan) Plan {
	if scan, ok := plan.(*TableScanPlan); ok && scan.Predicate != nil && o.schema != nil {
		if indexed := o.chooseIndex(scan); indexed != nil {
			return indexed
		}
	}
	return transformInputs(plan, o.chooseAccessPaths)
}

func (o *Optimizer) chooseIndex(scan *TableScanPlan) *IndexScanPlan {
	candidates := o.schema.Indexes(scan.Table)
	if len(candidates) == 0 {
		return nil
	}
	conjuncts := sql.Conjuncts(scan.Predicate)

	// Two passes over the declared order: unique columns first.
	for _, uniqueOnly := range []bool{true, false} {
		for _, column := range candidates {
			if (column.Unique || column.PrimaryKey) != uniqueOnly {
				continue
			}
			keyRange, residual, ok := extractKeyRange(scan.Table, column.Name, conjuncts)
			if !ok {
				continue
			}
			return &IndexScanPlan{
				Table:      scan.Table,
				Index:      column.Name,
				Columns:    scan.Columns,
				KeyRange:   keyRange,
				PostFilter: sql.Conjoin(residual),
			}
		}
	}
	return nil
}

// extractKeyRange pulls the conjuncts constraining one column into a key
// range. An equality bound wins outright; otherwise the first lower and
// first upper bound found form the range. Everything unconsumed is
// returned as residual.
func extractKeyRange(table, column string, conjuncts []sql.Expression) (core.KeyRange, []sql.Expression, bool) {
	var keyRange core.KeyRange
	bounded := false
	var residual []sql.Expression

	for _, conjunct := range conjuncts {
		operator, value, ok := columnBound(table, column, conjunct)
		if !ok {
			residual = append(residual, conjunct)
			continue
		}
		switch operator {
		case "=":
			// Equality supersedes any range bounds gathered so far;
			// they move to the residual.
			return core.EqualityRange(value), residualWithout(conjuncts, conjunct), true
		case "<":
			if keyRange.High != nil {
				residual = append(residual, conjunct)
				continue
			}
			keyRange.High = value
			keyRange.HighInclusive = false
			bounded = true
		case "<=":
			if keyRange.High != nil {
				residual = append(residual, conjunct)
				continue
			}
			keyRange.High = value
			keyRange.HighInclusive = true
			bounded = true
		case ">":
			if keyRange.Low != nil {
				residual = append(residual, conjunct)
				continue
			}
			keyRange.Low = value
			keyRange.LowInclusive = false
			bounded = true
		case ">=":
			if keyRange.Low != nil {
				residual = append(residual, conjunct)
				continue
			}
			keyRange.Low = value
			keyRange.LowInclusive = true
			bounded = true
		default:
			residual = append(residual, conjunct)
		}
	}

	if !bounded {
		return core.KeyRange{}, nil, false
	}
	return keyRange, residual, true
}

// residualWithout is the conjunct list minus the one consumed conjunct.
func residualWithout(conjuncts []sql.Expression, consumed sql.Expression) []sql.Expression {
	var residual []sql.Expression
	for _, conjunct := range conjuncts {
		if conjunct != consumed {
			residual = append(residual, conjunct)
		}
	}
	return residual
}

// columnBound matches a conjunct of the shape column op literal (or
// literal op column, flipped) against the given column.
func columnBound(table, column string, conjunct sql.Expression) (operator string, value any, ok bool) {
	binary, isBinary := conjunct.(*sql.BinaryOperator)
	if !isBinary {
		return "", nil, false
	}

	matches := func(expr sql.Expression) bool {
		c, isColumn := expr.(*sql.Column)
		return isColumn && c.Name == column && (c.Table == "" || c.Table == table)
	}

	if matches(binary.Left) {
		if literal, isLiteral := binary.Right.(*sql.Literal); isLiteral {
			switch binary.Operator {
			case "=", "<", "<=", ">", ">=":
				return binary.Operator, literal.Value, true
			}
		}
		return "", nil, false
	}
	if matches(binary.Right) {
		if literal, isLiteral := binary.Left.(*sql.Literal); isLiteral {
			flipped := map[string]string{"=": "=", "<": ">", "<=": ">=", ">": "<", ">=": "<="}
			if operator, known := flipped[binary.Operator]; known {
				return operator, literal.Value, true
			}
		}
	}
	return "", nil, false
}

// --- projection merging ---

// mergeProjections collapses a projection stacked directly on another
// projection when the inner one is a plain column pass-through. A
// distinct inner projection stays; removing it would change row
// multiplicity.
func (o *Optimizer) mergeProjections(plan Plan) Plan {
	if outer, ok := plan.(*ProjectPlan); ok {
		if inner, ok := outer.Input.(*ProjectPlan); ok && !inner.Distinct && columnsOnly(inner.Expressions) {
			outer.Input = inner.Input
		}
	}
	return transformInputs(plan, o.mergeProjections)
}

func columnsOnly(expressions []sql.Expression) bool {
	for _, expr := range expressions {
		column, ok := expr.(*sql.Column)
		if !ok || column.Alias != "" {
			return false
		}
	}
	return true
}
