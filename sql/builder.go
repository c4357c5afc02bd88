package sql

// Clause builders construct one clause each. Every builder is resettable
// and hands its clause over through GetResult, which also resets it.

type SelectClauseBuilder struct {
	clause *SelectClause
}

func (b *SelectClauseBuilder) Reset() { b.clause = &SelectClause{} }

func (b *SelectClauseBuilder) AddColumn(column Expression) *SelectClauseBuilder {
	b.clause.Columns = append(b.clause.Columns, column)
	return b
}

func (b *SelectClauseBuilder) SetDistinct(distinct bool) *SelectClauseBuilder {
	b.clause.Distinct = distinct
	return b
}

func (b *SelectClauseBuilder) GetResult() *SelectClause {
	clause := b.clause
	b.Reset()
	if len(clause.Columns) == 0 {
		return nil
	}
	return clause
}

type WhereClauseBuilder struct {
	clause *WhereClause
}

func (b *WhereClauseBuilder) Reset() { b.clause = &WhereClause{} }

func (b *WhereClauseBuilder) AddCondition(condition Expression) *WhereClauseBuilder {
	b.clause.Conditions = append(b.clause.Conditions, condition)
	return b
}

func (b *WhereClauseBuilder) GetResult() *WhereClause {
	clause := b.clause
	b.Reset()
	if len(clause.Conditions) == 0 {
		return nil
	}
	return clause
}

type JoinClauseBuilder struct {
	joins []*JoinClause
}

func (b *JoinClauseBuilder) Reset() { b.joins = nil }

func (b *JoinClauseBuilder) AddJoin(table string, condition Expression, joinType JoinType) *JoinClauseBuilder {
	b.joins = append(b.joins, &JoinClause{Table: table, Condition: condition, JoinType: joinType})
	return b
}

func (b *JoinClauseBuilder) GetResult() []*JoinClause {
	joins := b.joins
	b.Reset()
	return joins
}

type GroupByClauseBuilder struct {
	clause *GroupByClause
}

func (b *GroupByClauseBuilder) Reset() { b.clause = &GroupByClause{} }

func (b *GroupByClauseBuilder) AddColumn(column *Column) *GroupByClauseBuilder {
	b.clause.Columns = append(b.clause.Columns, column)
	return b
}

func (b *GroupByClauseBuilder) GetResult() *GroupByClause {
	clause := b.clause
	b.Reset()
	if len(clause.Columns) == 0 {
		return nil
	}
	return clause
}

type HavingClauseBuilder struct {
	clause *HavingClause
}

func (b *HavingClauseBuilder) Reset() { b.clause = &HavingClause{} }

func (b *HavingClauseBuilder) SetCondition(condition Expression) *HavingClauseBuilder {
	b.clause.Condition = condition
	return b
}

func (b *HavingClauseBuilder) GetResult() *HavingClause {
	clause := b.clause
	b.Reset()
	if clause.Condition == nil {
		return nil
	}
	return clause
}

type OrderByClauseBuilder struct {
	clause *OrderByClause
}

func (b *OrderByClauseBuilder) Reset() { b.clause = &OrderByClause{} }

func (b *OrderByClauseBuilder) AddKey(column *Column, descending bool) *OrderByClauseBuilder {
	b.clause.Keys = append(b.clause.Keys, OrderKey{Column: column, Descending: descending})
	return b
}

func (b *OrderByClauseBuilder) GetResult() *OrderByClause {
	clause := b.clause
	b.Reset()
	if len(clause.Keys) == 0 {
		return nil
	}
	return clause
}

type LimitClauseBuilder struct {
	clause *LimitClause
	set    bool
}

func (b *LimitClauseBuilder) Reset() {
	b.clause = &LimitClause{}
	b.set = false
}

func (b *LimitClauseBuilder) SetLimit(count int) *LimitClauseBuilder {
	b.clause.Count = count
	b.set = true
	return b
}

func (b *LimitClauseBuilder) SetOffset(offset int) *LimitClauseBuilder {
	b.clause.Offset = offset
	b.set = true
	return b
}

func (b *LimitClauseBuilder) GetResult() *LimitClause {
	clause := b.clause
	set := b.set
	b.Reset()
	if !set {
		return nil
	}
	return clause
}

type SetClauseBuilder struct {
	clause *SetClause
}

func (b *SetClauseBuilder) Reset() { b.clause = &SetClause{} }

func (b *SetClauseBuilder) Set(column *Column, value any) *SetClauseBuilder {
	b.clause.Assignments = append(b.clause.Assignments, Assignment{Column: column, Value: asExpr(value)})
	return b
}

func (b *SetClauseBuilder) GetResult() *SetClause {
	clause := b.clause
	b.Reset()
	if len(clause.Assignments) == 0 {
		return nil
	}
	return clause
}

type ValuesClauseBuilder struct {
	clause *ValuesClause
}

func (b *ValuesClauseBuilder) Reset() { b.clause = &ValuesClause{} }

func (b *ValuesClauseBuilder) SetColumns(columns ...*Column) *ValuesClauseBuilder {
	b.clause.Columns = columns
	return b
}

func (b *ValuesClauseBuilder) AddRow(values ...any) *ValuesClauseBuilder {
	row := make([]Expression, len(values))
	for i, value := range values {
		row[i] = asExpr(value)
	}
	b.clause.Rows = append(b.clause.Rows, row)
	return b
}

func (b *ValuesClauseBuilder) GetResult() *ValuesClause {
	clause := b.clause
	b.Reset()
	if len(clause.Columns) == 0 && len(clause.Rows) == 0 {
		return nil
	}
	return clause
}

// SelectBuilder assembles a SelectStatement from one sub-builder per
// clause kind. GetResult assembles the statement and resets the builder
// for reuse.
type SelectBuilder struct {
	from    string
	Select  SelectClauseBuilder
	Joins   JoinClauseBuilder
	Where   WhereClauseBuilder
	GroupBy GroupByClauseBuilder
	Having  HavingClauseBuilder
	OrderBy OrderByClauseBuilder
	Limit   LimitClauseBuilder
}

func NewSelectBuilder(table string) *SelectBuilder {
	b := &SelectBuilder{}
	b.reset(table)
	return b
}

func (b *SelectBuilder) reset(table string) {
	b.from = table
	b.Select.Reset()
	b.Joins.Reset()
	b.Where.Reset()
	b.GroupBy.Reset()
	b.Having.Reset()
	b.OrderBy.Reset()
	b.Limit.Reset()
}

// Reset clears all sub-builders, keeping the target table.
func (b *SelectBuilder) Reset() { b.reset(b.from) }

// Fluent shorthands delegating to the sub-builders.

func (b *SelectBuilder) Columns(columns ...Expression) *SelectBuilder {
	for _, column := range columns {
		b.Select.AddColumn(column)
	}
	return b
}

func (b *SelectBuilder) Distinct() *SelectBuilder {
	b.Select.SetDistinct(true)
	return b
}

func (b *SelectBuilder) WhereCond(condition Expression) *SelectBuilder {
	b.Where.AddCondition(condition)
	return b
}

func (b *SelectBuilder) Join(table string, condition Expression) *SelectBuilder {
	b.Joins.AddJoin(table, condition, InnerJoin)
	return b
}

func (b *SelectBuilder) JoinKind(table string, condition Expression, joinType JoinType) *SelectBuilder {
	b.Joins.AddJoin(table, condition, joinType)
	return b
}

func (b *SelectBuilder) GroupByCols(columns ...*Column) *SelectBuilder {
	for _, column := range columns {
		b.GroupBy.AddColumn(column)
	}
	return b
}

func (b *SelectBuilder) HavingCond(condition Expression) *SelectBuilder {
	b.Having.SetCondition(condition)
	return b
}

func (b *SelectBuilder) OrderByKey(column *Column, descending bool) *SelectBuilder {
	b.OrderBy.AddKey(column, descending)
	return b
}

func (b *SelectBuilder) LimitTo(count int) *SelectBuilder {
	b.Limit.SetLimit(count)
	return b
}

func (b *SelectBuilder) OffsetBy(offset int) *SelectBuilder {
	b.Limit.SetOffset(offset)
	return b
}

func (b *SelectBuilder) GetResult() *SelectStatement {
	statement := &SelectStatement{
		From:    b.from,
		Select:  b.Select.GetResult(),
		Joins:   b.Joins.GetResult(),
		Where:   b.Where.GetResult(),
		GroupBy: b.GroupBy.GetResult(),
		Having:  b.Having.GetResult(),
		OrderBy: b.OrderBy.GetResult(),
		Limit:   b.Limit.GetResult(),
	}
	b.Reset()
	return statement
}

// InsertBuilder assembles an InsertStatement.
type InsertBuilder struct {
	into   string
	Values ValuesClauseBuilder
}

func NewInsertBuilder(table string) *InsertBuilder {
	b := &InsertBuilder{into: table}
	b.Values.Reset()
	return b
}

func (b *InsertBuilder) Reset() { b.Values.Reset() }

func (b *InsertBuilder) Columns(columns ...*Column) *InsertBuilder {
	b.Values.SetColumns(columns...)
	return b
}

func (b *InsertBuilder) Row(values ...any) *InsertBuilder {
	b.Values.AddRow(values...)
	return b
}

func (b *InsertBuilder) GetResult() *InsertStatement {
	statement := &InsertStatement{Into: b.into, Values: b.Values.GetResult()}
	b.Reset()
	return statement
}

// UpdateBuilder assembles an UpdateStatement.
type UpdateBuilder struct {
	target string
	Set    SetClauseBuilder
	Where  WhereClauseBuilder
}

func NewUpdateBuilder(table string) *UpdateBuilder {
	b := &UpdateBuilder{target: table}
	b.Set.Reset()
	b.Where.Reset()
	return b
}

func (b *UpdateBuilder) Reset() {
	b.Set.Reset()
	b.Where.Reset()
}

func (b *UpdateBuilder) SetValue(column *Column, value any) *UpdateBuilder {
	b.Set.Set(column, value)
	return b
}

func (b *UpdateBuilder) WhereCond(condition Expression) *UpdateBuilder {
	b.Where.AddCondition(condition)
	return b
}

func (b *UpdateBuilder) GetResult() *UpdateStatement {
	statement := &UpdateStatement{
		Target: b.target,
		Set:    b.Set.GetResult(),
		Where:  b.Where.GetResult(),
	}
	b.Reset()
	return statement
}

// DeleteBuilder assembles a DeleteStatement.
type DeleteBuilder struct {
	from  string
	Where WhereClauseBuilder
}

func NewDeleteBuilder(table string) *DeleteBuilder {
	b := &DeleteBuilder{from: table}
	b.Where.Reset()
	return b
}

func (b *DeleteBuilder) Reset() { b.Where.Reset() }

func (b *DeleteBuilder) WhereCond(condition Expression) *DeleteBuilder {
	b.Where.AddCondition(condition)
	return b
}

func (b *DeleteBuilder) GetResult() *DeleteStatement {
	statement := &DeleteStatement{
		FromTable: b.from,
		Where:     b.Where.GetResult(),
	}
	b.Reset()
	return statement
}
