package sql

import (
	"fmt"
	"strings"
)

type ExpressionKind int

const (
	ColumnExpression ExpressionKind = iota
	LiteralExpression
	FunctionExpression
	BinaryExpression
	UnaryExpression
	SubqueryExpression
)

// BinaryOperators is the closed set of operators accepted by
// BinaryOperator expressions.
var BinaryOperators = map[string]bool{
	"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
	"AND": true, "OR": true,
	"+": true, "-": true, "*": true, "/": true,
}

// UnaryOperators is the closed set of operators accepted by
// UnaryOperator expressions.
var UnaryOperators = map[string]bool{
	"NOT": true, "-": true, "+": true,
}

// Expression is one node of a predicate or projection tree. Expressions
// are immutable once built; Validate checks identifiers and literal
// types before an expression may reach planning or storage.
type Expression interface {
	Kind() ExpressionKind
	Validate() error
	Clone() Expression
	String() string
}

type Column struct {
	Table string
	Name  string
	Alias string
}

// Col builds a table-qualified column reference.
func Col(table, name string) *Column {
	return &Column{Table: table, Name: name}
}

// BareCol builds an unqualified column reference.
func BareCol(name string) *Column {
	return &Column{Name: name}
}

// As returns a copy of the column carrying an output alias.
func (c *Column) As(alias string) *Column {
	clone := *c
	clone.Alias = alias
	return &clone
}

func (c *Column) Kind() ExpressionKind { return ColumnExpression }

func (c *Column) Validate() error {
	if err := ValidateIdentifier(c.Name, "column name"); err != nil {
		return err
	}
	if c.Table != "" {
		if err := ValidateIdentifier(c.Table, "table name"); err != nil {
			return err
		}
	}
	if c.Alias != "" {
		return ValidateIdentifier(c.Alias, "alias")
	}
	return nil
}

func (c *Column) Clone() Expression {
	clone := *c
	return &clone
}

func (c *Column) String() string {
	if c.Table != "" {
		return c.Table + "." + c.Name
	}
	return c.Name
}

// OutputName is the key the column's value appears under in result rows.
func (c *Column) OutputName() string {
	if c.Alias != "" {
		return c.Alias
	}
	return c.String()
}

type Literal struct {
	Value any
}

// Lit builds a literal. String values are sanitized immediately; type
// acceptance is checked by Validate.
func Lit(value any) *Literal {
	if s, ok := value.(string); ok {
		value = sanitizeString(s)
	}
	return &Literal{Value: value}
}

func (l *Literal) Kind() ExpressionKind { return LiteralExpression }

func (l *Literal) Validate() error {
	_, err := SanitizeValue(l.Value)
	return err
}

func (l *Literal) Clone() Expression {
	clone := *l
	return &clone
}

func (l *Literal) String() string {
	if s, ok := l.Value.(string); ok {
		return "'" + s + "'"
	}
	return fmt.Sprintf("%v", l.Value)
}

type Function struct {
	Name     string
	Args     []Expression
	Distinct bool
	Alias    string
}

// Fn builds a function call expression.
func Fn(name string, args ...Expression) *Function {
	return &Function{Name: name, Args: args}
}

// As returns a copy of the function carrying an output alias.
func (f *Function) As(alias string) *Function {
	clone := f.cloneFunction()
	clone.Alias = alias
	return clone
}

func (f *Function) Kind() ExpressionKind { return FunctionExpression }

func (f *Function) Validate() error {
	if err := ValidateIdentifier(f.Name, "function name"); err != nil {
		return err
	}
	for _, arg := range f.Args {
		if err := arg.Validate(); err != nil {
			return err
		}
	}
	if f.Alias != "" {
		return ValidateIdentifier(f.Alias, "alias")
	}
	return nil
}

func (f *Function) cloneFunction() *Function {
	clone := &Function{Name: f.Name, Distinct: f.Distinct, Alias: f.Alias}
	for _, arg := range f.Args {
		clone.Args = append(clone.Args, arg.Clone())
	}
	return clone
}

func (f *Function) Clone() Expression { return f.cloneFunction() }

func (f *Function) String() string {
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = arg.String()
	}
	distinct := ""
	if f.Distinct {
		distinct = "DISTINCT "
	}
	return strings.ToUpper(f.Name) + "(" + distinct + strings.Join(args, ", ") + ")"
}

// OutputName is the key the function's value appears under in result rows.
func (f *Function) OutputName() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.String()
}

type BinaryOperator struct {
	Left     Expression
	Operator string
	Right    Expression
}

func (b *BinaryOperator) Kind() ExpressionKind { return BinaryExpression }

func (b *BinaryOperator) Validate() error {
	if !BinaryOperators[b.Operator] {
		return &ValidationError{Message: fmt.Sprintf("invalid operator: %s", b.Operator)}
	}
	if err := b.Left.Validate(); err != nil {
		return err
	}
	return b.Right.Validate()
}

func (b *BinaryOperator) Clone() Expression {
	return &BinaryOperator{Left: b.Left.Clone(), Operator: b.Operator, Right: b.Right.Clone()}
}

func (b *BinaryOperator) String() string {
	return "(" + b.Left.String() + " " + b.Operator + " " + b.Right.String() + ")"
}

type UnaryOperator struct {
	Operator string
	Operand  Expression
}

func (u *UnaryOperator) Kind() ExpressionKind { return UnaryExpression }

func (u *UnaryOperator) Validate() error {
	if !UnaryOperators[u.Operator] {
		return &ValidationError{Message: fmt.Sprintf("invalid operator: %s", u.Operator)}
	}
	return u.Operand.Validate()
}

func (u *UnaryOperator) Clone() Expression {
	return &UnaryOperator{Operator: u.Operator, Operand: u.Operand.Clone()}
}

func (u *UnaryOperator) String() string {
	if u.Operator == "NOT" {
		return "NOT " + u.Operand.String()
	}
	return u.Operator + u.Operand.String()
}

// Subquery embeds a SELECT statement as an expression. The security
// validator counts subqueries toward query depth; the planner does not
// execute them.
type Subquery struct {
	Statement *SelectStatement
}

func (s *Subquery) Kind() ExpressionKind { return SubqueryExpression }

func (s *Subquery) Validate() error {
	if s.Statement == nil {
		return &ValidationError{Message: "subquery without statement"}
	}
	return s.Statement.Validate()
}

func (s *Subquery) Clone() Expression {
	return &Subquery{Statement: s.Statement.Clone().(*SelectStatement)}
}

func (s *Subquery) String() string { return "(subquery)" }

// asExpr lifts plain Go values into Literal expressions so comparisons
// compose fluently, e.g. Col("users", "age").Gt(18).
func asExpr(value any) Expression {
	if expr, ok := value.(Expression); ok {
		return expr
	}
	return Lit(value)
}

func binary(left Expression, operator string, right any) *BinaryOperator {
	return &BinaryOperator{Left: left, Operator: operator, Right: asExpr(right)}
}

// Comparison and logical combinators. Each yields a BinaryOperator by
// direct composition.

func Eq(left Expression, right any) *BinaryOperator  { return binary(left, "=", right) }
func Ne(left Expression, right any) *BinaryOperator  { return binary(left, "!=", right) }
func Lt(left Expression, right any) *BinaryOperator  { return binary(left, "<", right) }
func Le(left Expression, right any) *BinaryOperator  { return binary(left, "<=", right) }
func Gt(left Expression, right any) *BinaryOperator  { return binary(left, ">", right) }
func Ge(left Expression, right any) *BinaryOperator  { return binary(left, ">=", right) }
func And(left, right Expression) *BinaryOperator     { return binary(left, "AND", right) }
func Or(left, right Expression) *BinaryOperator      { return binary(left, "OR", right) }
func Add(left Expression, right any) *BinaryOperator { return binary(left, "+", right) }
func Sub(left Expression, right any) *BinaryOperator { return binary(left, "-", right) }
func Mul(left Expression, right any) *BinaryOperator { return binary(left, "*", right) }
func Div(left Expression, right any) *BinaryOperator { return binary(left, "/", right) }

func Not(operand Expression) *UnaryOperator {
	return &UnaryOperator{Operator: "NOT", Operand: operand}
}

// Fluent comparison methods on columns.

func (c *Column) Eq(right any) *BinaryOperator { return Eq(c, right) }
func (c *Column) Ne(right any) *BinaryOperator { return Ne(c, right) }
func (c *Column) Lt(right any) *BinaryOperator { return Lt(c, right) }
func (c *Column) Le(right any) *BinaryOperator { return Le(c, right) }
func (c *Column) Gt(right any) *BinaryOperator { return Gt(c, right) }
func (c *Column) Ge(right any) *BinaryOperator { return Ge(c, right) }

// Aggregate function shorthands.

func Count(expr Expression) *Function { return Fn("COUNT", expr) }
func Sum(expr Expression) *Function   { return Fn("SUM", expr) }
func Avg(expr Expression) *Function   { return Fn("AVG", expr) }
func Min(expr Expression) *Function   { return Fn("MIN", expr) }
func Max(expr Expression) *Function   { return Fn("MAX", expr) }

// ColumnsIn collects every column referenced anywhere in the expression.
func ColumnsIn(expr Expression) []*Column {
	var columns []*Column
	walkColumns(expr, &columns)
	return columns
}

func walkColumns(expr Expression, out *[]*Column) {
	switch e := expr.(type) {
	case *Column:
		*out = append(*out, e)
	case *Function:
		for _, arg := range e.Args {
			walkColumns(arg, out)
		}
	case *BinaryOperator:
		walkColumns(e.Left, out)
		walkColumns(e.Right, out)
	case *UnaryOperator:
		walkColumns(e.Operand, out)
	}
}

// Conjuncts splits an expression into its top-level AND parts.
func Conjuncts(expr Expression) []Expression {
	if b, ok := expr.(*BinaryOperator); ok && b.Operator == "AND" {
		return append(Conjuncts(b.Left), Conjuncts(b.Right)...)
	}
	return []Expression{expr}
}

// Conjoin rebuilds a single predicate from conjuncts, left to right.
// Returns nil for an empty list.
func Conjoin(conjuncts []Expression) Expression {
	var result Expression
	for _, conjunct := range conjuncts {
		if result == nil {
			result = conjunct
		} else {
			result = And(result, conjunct)
		}
	}
	return result
}
