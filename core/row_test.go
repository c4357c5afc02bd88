package core

import "testing"

func TestRowLookup(t *testing.T) {
	row := Row{"users.id": 1, "name": "Alice"}

	if value, ok := row.Lookup("users", "id"); !ok || value != 1 {
		t.Errorf("Expected qualified lookup to find 1, got %v", value)
	}
	if value, ok := row.Lookup("", "name"); !ok || value != "Alice" {
		t.Errorf("Expected bare lookup to find Alice, got %v", value)
	}
	// A bare name falls back to a qualified key.
	if value, ok := row.Lookup("", "id"); !ok || value != 1 {
		t.Errorf("Expected bare lookup to find qualified id, got %v", value)
	}
	if _, ok := row.Lookup("users", "missing"); ok {
		t.Error("Expected missing column to not resolve")
	}
}

func TestRowQualify(t *testing.T) {
	row := Row{"id": 1, "orders.total": 50.0}
	qualified := row.Qualify("users")

	if qualified["users.id"] != 1 {
		t.Errorf("Expected bare key prefixed, got %v", qualified)
	}
	if qualified["orders.total"] != 50.0 {
		t.Errorf("Expected already qualified key untouched, got %v", qualified)
	}
}

func TestRowsCursor(t *testing.T) {
	rs := NewRows([]Row{{"id": 1}, {"id": 2}, {"id": 3}})

	first, ok := rs.Next()
	if !ok || first["id"] != 1 {
		t.Fatalf("Expected first row, got %v", first)
	}
	rest := rs.All()
	if len(rest) != 2 || rest[0]["id"] != 2 {
		t.Errorf("Expected All to drain the remaining rows, got %v", rest)
	}
	if _, ok := rs.Next(); ok {
		t.Error("Expected exhausted set to stay exhausted")
	}
}

func TestSchemaRegistrationOrder(t *testing.T) {
	schema := NewSchema()
	schema.Register(Table{Name: "users"})
	schema.Register(Table{Name: "orders"})
	schema.Register(Table{Name: "users"}) // replace, not reorder

	names := schema.Tables()
	if len(names) != 2 || names[0] != "users" || names[1] != "orders" {
		t.Errorf("Expected registration order preserved, got %v", names)
	}

	if err := schema.Register(Table{}); err == nil {
		t.Error("Expected registering a nameless table to fail")
	}
}

func TestIndexedColumns(t *testing.T) {
	table := Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", PrimaryKey: true},
			{Name: "name"},
			{Name: "email", Unique: true},
			{Name: "age", Indexed: true},
		},
	}

	indexed := table.IndexedColumns()
	if len(indexed) != 3 {
		t.Fatalf("Expected 3 indexed columns, got %d", len(indexed))
	}
	if indexed[0].Name != "id" || indexed[1].Name != "email" || indexed[2].Name != "age" {
		t.Errorf("Expected declaration order, got %v", indexed)
	}
}

func TestKeyRangeEquality(t *testing.T) {
	if !EqualityRange(5).IsEquality() {
		t.Error("Expected equality range to report equality")
	}
	open := KeyRange{Low: 5, LowInclusive: true}
	if open.IsEquality() {
		t.Error("Expected half-open range to not report equality")
	}
}
