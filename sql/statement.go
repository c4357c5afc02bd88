package sql

type StatementType int

const (
	SelectStatementType StatementType = iota
	InsertStatementType
	UpdateStatementType
	DeleteStatementType
)

// Statement is one complete SQL-like statement. Clauses returns the
// owned clauses in canonical order (select, joins, where, group-by,
// having, order-by, limit); the security validator's complexity analysis
// relies on that order.
type Statement interface {
	Type() StatementType
	Table() string
	Clauses() []Clause
	Validate() error
	Clone() Statement
}

type SelectStatement struct {
	From    string
	Select  *SelectClause
	Joins   []*JoinClause
	Where   *WhereClause
	GroupBy *GroupByClause
	Having  *HavingClause
	OrderBy *OrderByClause
	Limit   *LimitClause
}

func (s *SelectStatement) Type() StatementType { return SelectStatementType }

func (s *SelectStatement) Table() string { return s.From }

func (s *SelectStatement) Clauses() []Clause {
	var clauses []Clause
	if s.Select != nil {
		clauses = append(clauses, s.Select)
	}
	for _, join := range s.Joins {
		clauses = append(clauses, join)
	}
	if s.Where != nil {
		clauses = append(clauses, s.Where)
	}
	if s.GroupBy != nil {
		clauses = append(clauses, s.GroupBy)
	}
	if s.Having != nil {
		clauses = append(clauses, s.Having)
	}
	if s.OrderBy != nil {
		clauses = append(clauses, s.OrderBy)
	}
	if s.Limit != nil {
		clauses = append(clauses, s.Limit)
	}
	return clauses
}

func (s *SelectStatement) Validate() error {
	if err := ValidateIdentifier(s.From, "table name"); err != nil {
		return err
	}
	if s.Select == nil {
		return &ValidationError{Message: "select statement requires a select clause"}
	}
	for _, clause := range s.Clauses() {
		if err := clause.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *SelectStatement) Clone() Statement {
	clone := &SelectStatement{From: s.From}
	if s.Select != nil {
		clone.Select = s.Select.Clone().(*SelectClause)
	}
	for _, join := range s.Joins {
		clone.Joins = append(clone.Joins, join.Clone().(*JoinClause))
	}
	if s.Where != nil {
		clone.Where = s.Where.Clone().(*WhereClause)
	}
	if s.GroupBy != nil {
		clone.GroupBy = s.GroupBy.Clone().(*GroupByClause)
	}
	if s.Having != nil {
		clone.Having = s.Having.Clone().(*HavingClause)
	}
	if s.OrderBy != nil {
		clone.OrderBy = s.OrderBy.Clone().(*OrderByClause)
	}
	if s.Limit != nil {
		clone.Limit = s.Limit.Clone().(*LimitClause)
	}
	return clone
}

type InsertStatement struct {
	Into   string
	Values *ValuesClause
}

func (s *InsertStatement) Type() StatementType { return InsertStatementType }

func (s *InsertStatement) Table() string { return s.Into }

func (s *InsertStatement) Clauses() []Clause {
	if s.Values == nil {
		return nil
	}
	return []Clause{s.Values}
}

func (s *InsertStatement) Validate() error {
	if err := ValidateIdentifier(s.Into, "table name"); err != nil {
		return err
	}
	if s.Values == nil {
		return &ValidationError{Message: "insert statement requires a values clause"}
	}
	return s.Values.Validate()
}

func (s *InsertStatement) Clone() Statement {
	clone := &InsertStatement{Into: s.Into}
	if s.Values != nil {
		clone.Values = s.Values.Clone().(*ValuesClause)
	}
	return clone
}

type UpdateStatement struct {
	Target string
	Set    *SetClause
	Where  *WhereClause
}

func (s *UpdateStatement) Type() StatementType { return UpdateStatementType }

func (s *UpdateStatement) Table() string { return s.Target }

func (s *UpdateStatement) Clauses() []Clause {
	var clauses []Clause
	if s.Set != nil {
		clauses = append(clauses, s.Set)
	}
	if s.Where != nil {
		clauses = append(clauses, s.Where)
	}
	return clauses
}

func (s *UpdateStatement) Validate() error {
	if err := ValidateIdentifier(s.Target, "table name"); err != nil {
		return err
	}
	if s.Set == nil {
		return &ValidationError{Message: "update statement requires a set clause"}
	}
	for _, clause := range s.Clauses() {
		if err := clause.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (s *UpdateStatement) Clone() Statement {
	clone := &UpdateStatement{Target: s.Target}
	if s.Set != nil {
		clone.Set = s.Set.Clone().(*SetClause)
	}
	if s.Where != nil {
		clone.Where = s.Where.Clone().(*WhereClause)
	}
	return clone
}

type DeleteStatement struct {
	FromTable string
	Where     *WhereClause
}

func (s *DeleteStatement) Type() StatementType { return DeleteStatementType }

func (s *DeleteStatement) Table() string { return s.FromTable }

func (s *DeleteStatement) Clauses() []Clause {
	if s.Where == nil {
		return nil
	}
	return []Clause{s.Where}
}

func (s *DeleteStatement) Validate() error {
	if err := ValidateIdentifier(s.FromTable, "table name"); err != nil {
		return err
	}
	if s.Where != nil {
		return s.Where.Validate()
	}
	return nil
}

func (s *DeleteStatement) Clone() Statement {
	clone := &DeleteStatement{FromTable: s.FromTable}
	if s.Where != nil {
		clone.Where = s.Where.Clone().(*WhereClause)
	}
	return clone
}
