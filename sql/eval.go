package sql

import (
	"fmt"
	"time"

	"github.com/alaamer12/json-orm/core"
)

// EvaluationError reports a failure while evaluating an expression
// against a row. It is terminal for the query; storage is untouched.
type EvaluationError struct {
	Message string
}

func (e *EvaluationError) Error() string {
	return "evaluation: " + e.Message
}

func evalErrorf(format string, args ...any) error {
	return &EvaluationError{Message: fmt.Sprintf(format, args...)}
}

// Evaluate resolves an expression against a single row. Evaluation is
// deterministic: the same expression and row always produce the same
// result.
//
// Columns resolve by qualified "table.name" key first, then by bare
// name; a column absent from the row evaluates to nil. Function
// expressions resolve against already-computed aggregate outputs stored
// in the row (the Aggregate plan node computes them); any other function
// is unknown at row level and fails.
func Evaluate(expr Expression, row core.Row) (any, error) {
	switch e := expr.(type) {
	case *Literal:
		return e.Value, nil
	case *Column:
		value, _ := row.Lookup(e.Table, e.Name)
		return value, nil
	case *Function:
		if value, ok := row[e.OutputName()]; ok {
			return value, nil
		}
		if value, ok := row[e.String()]; ok {
			return value, nil
		}
		return nil, evalErrorf("unknown function: %s", e.Name)
	case *BinaryOperator:
		return evalBinary(e, row)
	case *UnaryOperator:
		return evalUnary(e, row)
	case *Subquery:
		return nil, evalErrorf("subquery cannot be evaluated against a row")
	default:
		return nil, evalErrorf("unknown expression kind: %d", expr.Kind())
	}
}

// EvaluateBool evaluates a predicate, treating nil as false.
func EvaluateBool(expr Expression, row core.Row) (bool, error) {
	value, err := Evaluate(expr, row)
	if err != nil {
		return false, err
	}
	if value == nil {
		return false, nil
	}
	b, ok := value.(bool)
	if !ok {
		return false, evalErrorf("predicate did not evaluate to a boolean: %v", value)
	}
	return b, nil
}

func evalBinary(expr *BinaryOperator, row core.Row) (any, error) {
	switch expr.Operator {
	case "AND", "OR":
		return evalLogical(expr, row)
	}

	left, err := Evaluate(expr.Left, row)
	if err != nil {
		return nil, err
	}
	right, err := Evaluate(expr.Right, row)
	if err != nil {
		return nil, err
	}

	switch expr.Operator {
	case "=":
		return equalValues(left, right), nil
	case "!=":
		return !equalValues(left, right), nil
	case "<", "<=", ">", ">=":
		cmp, comparable := CompareValues(left, right)
		if !comparable {
			return false, nil
		}
		switch expr.Operator {
		case "<":
			return cmp < 0, nil
		case "<=":
			return cmp <= 0, nil
		case ">":
			return cmp > 0, nil
		default:
			return cmp >= 0, nil
		}
	case "+", "-", "*", "/":
		return evalArithmetic(expr.Operator, left, right)
	default:
		return nil, evalErrorf("unknown operator: %s", expr.Operator)
	}
}

func evalLogical(expr *BinaryOperator, row core.Row) (any, error) {
	left, err := EvaluateBool(expr.Left, row)
	if err != nil {
		return nil, err
	}
	// No short circuit: both sides must be well-formed.
	right, err := EvaluateBool(expr.Right, row)
	if err != nil {
		return nil, err
	}
	if expr.Operator == "AND" {
		return left && right, nil
	}
	return left || right, nil
}

func evalUnary(expr *UnaryOperator, row core.Row) (any, error) {
	value, err := Evaluate(expr.Operand, row)
	if err != nil {
		return nil, err
	}

	switch expr.Operator {
	case "NOT":
		b, ok := value.(bool)
		if !ok {
			return nil, evalErrorf("NOT requires a boolean operand, got %T", value)
		}
		return !b, nil
	case "-":
		if i, ok := asInt(value); ok {
			return -i, nil
		}
		if f, ok := AsFloat(value); ok {
			return -f, nil
		}
		return nil, evalErrorf("cannot negate %T", value)
	case "+":
		if _, ok := AsFloat(value); !ok {
			return nil, evalErrorf("unary + requires a numeric operand, got %T", value)
		}
		return value, nil
	default:
		return nil, evalErrorf("unknown operator: %s", expr.Operator)
	}
}

func evalArithmetic(operator string, left, right any) (any, error) {
	// Division always yields a float; everything else stays integral
	// when both operands are integral.
	if operator != "/" {
		if li, lok := asInt(left); lok {
			if ri, rok := asInt(right); rok {
				switch operator {
				case "+":
					return li + ri, nil
				case "-":
					return li - ri, nil
				case "*":
					return li * ri, nil
				}
			}
		}
	}

	lf, lok := AsFloat(left)
	rf, rok := AsFloat(right)
	if !lok || !rok {
		return nil, evalErrorf("arithmetic %s requires numeric operands, got %T and %T", operator, left, right)
	}

	switch operator {
	case "+":
		return lf + rf, nil
	case "-":
		return lf - rf, nil
	case "*":
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, evalErrorf("division by zero")
		}
		return lf / rf, nil
	default:
		return nil, evalErrorf("unknown operator: %s", operator)
	}
}

func asInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

// AsFloat coerces integral and floating values to float64.
func AsFloat(value any) (float64, bool) {
	if i, ok := asInt(value); ok {
		return float64(i), true
	}
	switch v := value.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}

// equalValues compares for equality with numeric coercion, so an int 1
// from a caller matches the float64 1 that JSON decoding produces.
func equalValues(left, right any) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if cmp, comparable := CompareValues(left, right); comparable {
		return cmp == 0
	}
	return left == right
}

// CompareValues orders two values. Returns comparable=false when the
// values have no defined ordering (mixed non-numeric types, nil).
func CompareValues(left, right any) (int, bool) {
	lf, lok := AsFloat(left)
	rf, rok := AsFloat(right)
	if lok && rok {
		switch {
		case lf < rf:
			return -1, true
		case lf > rf:
			return 1, true
		default:
			return 0, true
		}
	}

	switch lv := left.(type) {
	case string:
		if rv, ok := right.(string); ok {
			switch {
			case lv < rv:
				return -1, true
			case lv > rv:
				return 1, true
			default:
				return 0, true
			}
		}
	case bool:
		if rv, ok := right.(bool); ok {
			if lv == rv {
				return 0, true
			}
			if !lv {
				return -1, true
			}
			return 1, true
		}
	case time.Time:
		if rv, ok := right.(time.Time); ok {
			switch {
			case lv.Before(rv):
				return -1, true
			case lv.After(rv):
				return 1, true
			default:
				return 0, true
			}
		}
	}

	return 0, false
}
