package sql

import (
	"testing"
)

func TestSelectBuilderAssemblesClauses(t *testing.T) {
	statement := NewSelectBuilder("users").
		Columns(BareCol("id"), BareCol("name")).
		Join("orders", Col("orders", "user_id").Eq(Col("users", "id"))).
		WhereCond(BareCol("age").Gt(18)).
		GroupByCols(BareCol("name")).
		HavingCond(Gt(Count(BareCol("id")).As("n"), 1)).
		OrderByKey(BareCol("name"), false).
		LimitTo(10).
		OffsetBy(5).
		GetResult()

	if statement.From != "users" {
		t.Errorf("Expected table users, got %s", statement.From)
	}
	if statement.Select == nil || len(statement.Select.Columns) != 2 {
		t.Fatal("Expected 2 select columns")
	}
	if len(statement.Joins) != 1 || statement.Joins[0].Table != "orders" {
		t.Fatal("Expected one join on orders")
	}
	if statement.Joins[0].JoinType != InnerJoin {
		t.Errorf("Expected inner join, got %v", statement.Joins[0].JoinType)
	}
	if statement.Where == nil || len(statement.Where.Conditions) != 1 {
		t.Fatal("Expected one where condition")
	}
	if statement.GroupBy == nil || len(statement.GroupBy.Columns) != 1 {
		t.Fatal("Expected one group-by column")
	}
	if statement.Having == nil {
		t.Fatal("Expected a having clause")
	}
	if statement.OrderBy == nil || len(statement.OrderBy.Keys) != 1 {
		t.Fatal("Expected one order key")
	}
	if statement.Limit == nil || statement.Limit.Count != 10 || statement.Limit.Offset != 5 {
		t.Fatalf("Expected limit 10 offset 5, got %+v", statement.Limit)
	}

	if err := statement.Validate(); err != nil {
		t.Errorf("Expected statement to validate: %v", err)
	}
}

func TestSelectBuilderResetsAfterGetResult(t *testing.T) {
	builder := NewSelectBuilder("users")

	first := builder.Columns(BareCol("id")).WhereCond(BareCol("age").Gt(18)).GetResult()
	if first.Where == nil {
		t.Fatal("Expected first statement to carry a where clause")
	}

	second := builder.Columns(BareCol("name")).GetResult()
	if second.Where != nil {
		t.Error("Expected builder state to reset between statements")
	}
	if len(second.Select.Columns) != 1 || second.Select.Columns[0].(*Column).Name != "name" {
		t.Error("Expected second statement to carry only its own columns")
	}
}

func TestSelectStatementClauseOrder(t *testing.T) {
	statement := NewSelectBuilder("users").
		Columns(BareCol("id")).
		WhereCond(BareCol("age").Gt(18)).
		LimitTo(1).
		GetResult()

	clauses := statement.Clauses()
	if len(clauses) != 3 {
		t.Fatalf("Expected 3 clauses, got %d", len(clauses))
	}
	kinds := []ClauseKind{clauses[0].Kind(), clauses[1].Kind(), clauses[2].Kind()}
	want := []ClauseKind{SelectClauseKind, WhereClauseKind, LimitClauseKind}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Clause %d: expected kind %v, got %v", i, want[i], kinds[i])
		}
	}
}

func TestInsertBuilder(t *testing.T) {
	statement := NewInsertBuilder("users").
		Columns(BareCol("id"), BareCol("name")).
		Row(1, "Alice").
		Row(2, "Bob").
		GetResult()

	if statement.Into != "users" {
		t.Errorf("Expected table users, got %s", statement.Into)
	}
	if statement.Values == nil || len(statement.Values.Rows) != 2 {
		t.Fatal("Expected two value rows")
	}
	if len(statement.Values.Columns) != 2 {
		t.Fatal("Expected two columns")
	}
	if err := statement.Validate(); err != nil {
		t.Errorf("Expected statement to validate: %v", err)
	}
}

func TestUpdateBuilder(t *testing.T) {
	statement := NewUpdateBuilder("users").
		SetValue(BareCol("name"), "Carol").
		WhereCond(BareCol("id").Eq(1)).
		GetResult()

	if statement.Target != "users" {
		t.Errorf("Expected table users, got %s", statement.Target)
	}
	if statement.Set == nil || len(statement.Set.Assignments) != 1 {
		t.Fatal("Expected one assignment")
	}
	if statement.Where == nil {
		t.Fatal("Expected a where clause")
	}
}

func TestDeleteBuilder(t *testing.T) {
	statement := NewDeleteBuilder("users").
		WhereCond(BareCol("id").Eq(1)).
		GetResult()

	if statement.FromTable != "users" {
		t.Errorf("Expected table users, got %s", statement.FromTable)
	}
	if statement.Where == nil {
		t.Fatal("Expected a where clause")
	}
	if statement.Type() != DeleteStatementType {
		t.Errorf("Expected delete statement type, got %v", statement.Type())
	}
}
