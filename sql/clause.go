package sql

type ClauseKind int

const (
	SelectClauseKind ClauseKind = iota
	JoinClauseKind
	WhereClauseKind
	GroupByClauseKind
	HavingClauseKind
	OrderByClauseKind
	LimitClauseKind
	SetClauseKind
	ValuesClauseKind
)

// Clause is one building block of a statement. Validation is recursive:
// a clause is valid only if every child expression is valid.
type Clause interface {
	Kind() ClauseKind
	Validate() error
	Clone() Clause
}

type SelectClause struct {
	Columns  []Expression
	Distinct bool
}

func (c *SelectClause) Kind() ClauseKind { return SelectClauseKind }

func (c *SelectClause) Validate() error {
	if len(c.Columns) == 0 {
		return &ValidationError{Message: "select clause requires at least one column"}
	}
	for _, column := range c.Columns {
		if err := column.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *SelectClause) Clone() Clause {
	clone := &SelectClause{Distinct: c.Distinct}
	for _, column := range c.Columns {
		clone.Columns = append(clone.Columns, column.Clone())
	}
	return clone
}

// WhereClause is a conjunction of conditions.
type WhereClause struct {
	Conditions []Expression
}

func (c *WhereClause) Kind() ClauseKind { return WhereClauseKind }

func (c *WhereClause) Validate() error {
	if len(c.Conditions) == 0 {
		return &ValidationError{Message: "where clause requires at least one condition"}
	}
	for _, condition := range c.Conditions {
		if err := condition.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *WhereClause) Clone() Clause {
	clone := &WhereClause{}
	for _, condition := range c.Conditions {
		clone.Conditions = append(clone.Conditions, condition.Clone())
	}
	return clone
}

// Predicate folds all conditions into one AND expression.
func (c *WhereClause) Predicate() Expression {
	return Conjoin(c.Conditions)
}

type JoinType int

const (
	InnerJoin JoinType = iota
	LeftJoin
	RightJoin
)

type JoinClause struct {
	Table     string
	Condition Expression
	JoinType  JoinType
}

func (c *JoinClause) Kind() ClauseKind { return JoinClauseKind }

func (c *JoinClause) Validate() error {
	if err := ValidateIdentifier(c.Table, "table name"); err != nil {
		return err
	}
	if c.Condition == nil {
		return &ValidationError{Message: "join clause requires a condition"}
	}
	return c.Condition.Validate()
}

func (c *JoinClause) Clone() Clause {
	return &JoinClause{Table: c.Table, Condition: c.Condition.Clone(), JoinType: c.JoinType}
}

type GroupByClause struct {
	Columns []*Column
}

func (c *GroupByClause) Kind() ClauseKind { return GroupByClauseKind }

func (c *GroupByClause) Validate() error {
	if len(c.Columns) == 0 {
		return &ValidationError{Message: "group by clause requires at least one column"}
	}
	for _, column := range c.Columns {
		if err := column.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *GroupByClause) Clone() Clause {
	clone := &GroupByClause{}
	for _, column := range c.Columns {
		clone.Columns = append(clone.Columns, column.Clone().(*Column))
	}
	return clone
}

type HavingClause struct {
	Condition Expression
}

func (c *HavingClause) Kind() ClauseKind { return HavingClauseKind }

func (c *HavingClause) Validate() error {
	if c.Condition == nil {
		return &ValidationError{Message: "having clause requires a condition"}
	}
	return c.Condition.Validate()
}

func (c *HavingClause) Clone() Clause {
	return &HavingClause{Condition: c.Condition.Clone()}
}

type OrderKey struct {
	Column     *Column
	Descending bool
}

type OrderByClause struct {
	Keys []OrderKey
}

func (c *OrderByClause) Kind() ClauseKind { return OrderByClauseKind }

func (c *OrderByClause) Validate() error {
	if len(c.Keys) == 0 {
		return &ValidationError{Message: "order by clause requires at least one key"}
	}
	for _, key := range c.Keys {
		if err := key.Column.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *OrderByClause) Clone() Clause {
	clone := &OrderByClause{}
	for _, key := range c.Keys {
		clone.Keys = append(clone.Keys, OrderKey{
			Column:     key.Column.Clone().(*Column),
			Descending: key.Descending,
		})
	}
	return clone
}

type LimitClause struct {
	Count  int
	Offset int
}

func (c *LimitClause) Kind() ClauseKind { return LimitClauseKind }

func (c *LimitClause) Validate() error {
	if c.Count < 0 || c.Offset < 0 {
		return &ValidationError{Message: "limit and offset must not be negative"}
	}
	return nil
}

func (c *LimitClause) Clone() Clause {
	return &LimitClause{Count: c.Count, Offset: c.Offset}
}

type Assignment struct {
	Column *Column
	Value  Expression
}

type SetClause struct {
	Assignments []Assignment
}

func (c *SetClause) Kind() ClauseKind { return SetClauseKind }

func (c *SetClause) Validate() error {
	if len(c.Assignments) == 0 {
		return &ValidationError{Message: "set clause requires at least one assignment"}
	}
	for _, assignment := range c.Assignments {
		if err := assignment.Column.Validate(); err != nil {
			return err
		}
		if err := assignment.Value.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *SetClause) Clone() Clause {
	clone := &SetClause{}
	for _, assignment := range c.Assignments {
		clone.Assignments = append(clone.Assignments, Assignment{
			Column: assignment.Column.Clone().(*Column),
			Value:  assignment.Value.Clone(),
		})
	}
	return clone
}

type ValuesClause struct {
	Columns []*Column
	Rows    [][]Expression
}

func (c *ValuesClause) Kind() ClauseKind { return ValuesClauseKind }

func (c *ValuesClause) Validate() error {
	if len(c.Columns) == 0 {
		return &ValidationError{Message: "values clause requires at least one column"}
	}
	if len(c.Rows) == 0 {
		return &ValidationError{Message: "values clause requires at least one row"}
	}
	for _, column := range c.Columns {
		if err := column.Validate(); err != nil {
			return err
		}
	}
	for _, row := range c.Rows {
		if len(row) != len(c.Columns) {
			return &ValidationError{Message: "values row length does not match column list"}
		}
		for _, value := range row {
			if err := value.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *ValuesClause) Clone() Clause {
	clone := &ValuesClause{}
	for _, column := range c.Columns {
		clone.Columns = append(clone.Columns, column.Clone().(*Column))
	}
	for _, row := range c.Rows {
		cloned := make([]Expression, len(row))
		for i, value := range row {
			cloned[i] = value.Clone()
		}
		clone.Rows = append(clone.Rows, cloned)
	}
	return clone
}
