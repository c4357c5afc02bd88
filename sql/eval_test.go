package sql

import (
	"errors"
	"reflect"
	"testing"

	"github.com/alaamer12/json-orm/core"
)

func TestEvaluateColumnLookup(t *testing.T) {
	row := core.Row{"users.id": 1, "name": "Alice"}

	value, err := Evaluate(Col("users", "id"), row)
	if err != nil {
		t.Fatalf("Failed to evaluate qualified column: %v", err)
	}
	if value != 1 {
		t.Errorf("Expected 1, got %v", value)
	}

	value, err = Evaluate(BareCol("name"), row)
	if err != nil {
		t.Fatalf("Failed to evaluate bare column: %v", err)
	}
	if value != "Alice" {
		t.Errorf("Expected Alice, got %v", value)
	}

	// Absent columns evaluate to nil, not an error
	value, err = Evaluate(BareCol("missing"), row)
	if err != nil {
		t.Fatalf("Unexpected error for missing column: %v", err)
	}
	if value != nil {
		t.Errorf("Expected nil for missing column, got %v", value)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	row := core.Row{"age": 30, "score": 4.5}
	expr := And(BareCol("age").Ge(18), BareCol("score").Lt(5))

	first, err := Evaluate(expr, row)
	if err != nil {
		t.Fatalf("Failed to evaluate: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Evaluate(expr, row)
		if err != nil {
			t.Fatalf("Failed to evaluate on repeat %d: %v", i, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("Evaluation not deterministic: %v then %v", first, again)
		}
	}
}

func TestEvaluateComparisons(t *testing.T) {
	row := core.Row{"age": 30, "name": "Alice"}

	cases := []struct {
		expr Expression
		want bool
	}{
		{BareCol("age").Eq(30), true},
		{BareCol("age").Eq(31), false},
		{BareCol("age").Ne(31), true},
		{BareCol("age").Lt(31), true},
		{BareCol("age").Le(30), true},
		{BareCol("age").Gt(30), false},
		{BareCol("age").Ge(30), true},
		{BareCol("name").Eq("Alice"), true},
		{BareCol("name").Lt("Bob"), true},
		// JSON decoding yields float64; integers must still match
		{Eq(Lit(float64(30)), 30), true},
	}

	for _, tc := range cases {
		got, err := Evaluate(tc.expr, row)
		if err != nil {
			t.Fatalf("Failed to evaluate %s: %v", tc.expr.String(), err)
		}
		if got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.expr.String(), tc.want, got)
		}
	}
}

func TestEvaluateIncomparableIsFalse(t *testing.T) {
	row := core.Row{"name": "Alice"}

	got, err := Evaluate(BareCol("name").Lt(10), row)
	if err != nil {
		t.Fatalf("Failed to evaluate: %v", err)
	}
	if got != false {
		t.Errorf("Expected false for incomparable operands, got %v", got)
	}
}

func TestEvaluateLogical(t *testing.T) {
	row := core.Row{"a": true, "b": false}

	and, err := Evaluate(And(BareCol("a"), BareCol("b")), row)
	if err != nil {
		t.Fatalf("Failed to evaluate AND: %v", err)
	}
	if and != false {
		t.Errorf("Expected false, got %v", and)
	}

	or, err := Evaluate(Or(BareCol("a"), BareCol("b")), row)
	if err != nil {
		t.Fatalf("Failed to evaluate OR: %v", err)
	}
	if or != true {
		t.Errorf("Expected true, got %v", or)
	}

	not, err := Evaluate(Not(BareCol("b")), row)
	if err != nil {
		t.Fatalf("Failed to evaluate NOT: %v", err)
	}
	if not != true {
		t.Errorf("Expected true, got %v", not)
	}
}

func TestEvaluateArithmetic(t *testing.T) {
	row := core.Row{"x": 10, "y": 4}

	sum, err := Evaluate(Add(BareCol("x"), BareCol("y")), row)
	if err != nil {
		t.Fatalf("Failed to evaluate addition: %v", err)
	}
	if sum != int64(14) {
		t.Errorf("Expected int64 14, got %v (%T)", sum, sum)
	}

	product, err := Evaluate(Mul(BareCol("x"), 2.5), row)
	if err != nil {
		t.Fatalf("Failed to evaluate multiplication: %v", err)
	}
	if product != 25.0 {
		t.Errorf("Expected 25.0, got %v", product)
	}

	// Division always yields a float
	quotient, err := Evaluate(Div(BareCol("x"), BareCol("y")), row)
	if err != nil {
		t.Fatalf("Failed to evaluate division: %v", err)
	}
	if quotient != 2.5 {
		t.Errorf("Expected 2.5, got %v", quotient)
	}
}

func TestEvaluateDivisionByZero(t *testing.T) {
	_, err := Evaluate(Div(Lit(1), Lit(0)), nil)
	if err == nil {
		t.Fatal("Expected error for division by zero")
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Errorf("Expected EvaluationError, got %T", err)
	}
}

func TestEvaluateBoolNilIsFalse(t *testing.T) {
	got, err := EvaluateBool(BareCol("missing"), core.Row{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got {
		t.Error("Expected nil to evaluate to false")
	}
}

func TestConjunctsRoundTrip(t *testing.T) {
	a := BareCol("a").Eq(1)
	b := BareCol("b").Eq(2)
	c := BareCol("c").Eq(3)

	conjuncts := Conjuncts(And(And(a, b), c))
	if len(conjuncts) != 3 {
		t.Fatalf("Expected 3 conjuncts, got %d", len(conjuncts))
	}

	rebuilt := Conjoin(conjuncts)
	if rebuilt.String() != And(And(a, b), c).String() {
		t.Errorf("Conjoin did not rebuild the predicate: %s", rebuilt.String())
	}

	if Conjoin(nil) != nil {
		t.Error("Expected nil for empty conjunct list")
	}
}
