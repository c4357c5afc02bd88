package jsonorm

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alaamer12/json-orm/core"
	"github.com/alaamer12/json-orm/security"
	"github.com/alaamer12/json-orm/sql"
)

// TestFunc is the signature for test functions that work with any backend
type TestFunc func(t *testing.T, db *Database)

// runWithBothBackends runs a test function with both memory and file
// backed databases.
func runWithBothBackends(t *testing.T, testFunc TestFunc) {
	t.Run("Memory", func(t *testing.T) {
		testFunc(t, OpenMemory())
	})

	t.Run("File", func(t *testing.T) {
		db, err := Open(t.TempDir())
		if err != nil {
			t.Fatalf("Failed to open file database: %v", err)
		}
		testFunc(t, db)
	})
}

func registerFixture(t *testing.T, db *Database) {
	t.Helper()
	tables := []core.Table{
		{
			Name: "users",
			Columns: []core.Column{
				{Name: "id", Type: core.IntType, PrimaryKey: true},
				{Name: "name", Type: core.StringType},
				{Name: "age", Type: core.IntType, Indexed: true},
			},
		},
		{
			Name: "orders",
			Columns: []core.Column{
				{Name: "id", Type: core.IntType, PrimaryKey: true},
				{Name: "user_id", Type: core.IntType, Indexed: true},
				{Name: "total", Type: core.FloatType},
			},
		},
	}
	for _, table := range tables {
		if err := db.RegisterTable(table); err != nil {
			t.Fatalf("Failed to register %s: %v", table.Name, err)
		}
	}
}

func insertFixture(t *testing.T, db *Database) {
	t.Helper()
	users := sql.NewInsertBuilder("users").
		Columns(sql.BareCol("id"), sql.BareCol("name"), sql.BareCol("age")).
		Row(1, "Alice", 30).
		Row(2, "Bob", 17).
		Row(3, "Carol", 25).
		Row(4, "Dave", 41).
		GetResult()
	if _, err := db.Query(users); err != nil {
		t.Fatalf("Failed to insert users: %v", err)
	}

	orders := sql.NewInsertBuilder("orders").
		Columns(sql.BareCol("id"), sql.BareCol("user_id"), sql.BareCol("total")).
		Row(10, 1, 50.0).
		Row(11, 1, 30.0).
		Row(12, 3, 20.0).
		Row(13, 4, 90.0).
		GetResult()
	if _, err := db.Query(orders); err != nil {
		t.Fatalf("Failed to insert orders: %v", err)
	}
}

func queryRows(t *testing.T, db *Database, statement sql.Statement) []core.Row {
	t.Helper()
	result, err := db.Query(statement)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	return result.All()
}

// TestIntegrationWorkflow drives the full pipeline: insert, filter,
// sort, paginate, update and delete.
func TestIntegrationWorkflow(t *testing.T) {
	runWithBothBackends(t, func(t *testing.T, db *Database) {
		registerFixture(t, db)
		insertFixture(t, db)

		// Count
		count := queryRows(t, db, sql.NewSelectBuilder("users").
			Columns(sql.Count(sql.BareCol("id")).As("n")).
			GetResult())
		if count[0]["n"] != int64(4) {
			t.Errorf("Expected 4 users, got %v", count[0]["n"])
		}

		// WHERE with comparison
		adults := queryRows(t, db, sql.NewSelectBuilder("users").
			Columns(sql.BareCol("name")).
			WhereCond(sql.BareCol("age").Ge(18)).
			GetResult())
		if len(adults) != 3 {
			t.Errorf("Expected 3 adults, got %d", len(adults))
		}

		// ORDER BY with LIMIT and OFFSET
		page := queryRows(t, db, sql.NewSelectBuilder("users").
			Columns(sql.BareCol("name"), sql.BareCol("age")).
			OrderByKey(sql.BareCol("age"), true).
			LimitTo(2).
			OffsetBy(1).
			GetResult())
		if len(page) != 2 || page[0]["name"] != "Alice" || page[1]["name"] != "Carol" {
			t.Errorf("Expected Alice and Carol on page 2, got %v", page)
		}

		// UPDATE
		updated := queryRows(t, db, sql.NewUpdateBuilder("users").
			SetValue(sql.BareCol("age"), 18).
			WhereCond(sql.BareCol("id").Eq(2)).
			GetResult())
		if updated[0]["count"] != 1 {
			t.Errorf("Expected 1 row updated, got %v", updated[0]["count"])
		}
		bob := queryRows(t, db, sql.NewSelectBuilder("users").
			Columns(sql.BareCol("age")).
			WhereCond(sql.BareCol("id").Eq(2)).
			GetResult())
		if got, _ := sql.AsFloat(bob[0]["age"]); got != 18 {
			t.Errorf("Expected Bob aged 18, got %v", bob[0]["age"])
		}

		// DELETE
		deleted := queryRows(t, db, sql.NewDeleteBuilder("users").
			WhereCond(sql.BareCol("id").Eq(4)).
			GetResult())
		if deleted[0]["count"] != 1 {
			t.Errorf("Expected 1 row deleted, got %v", deleted[0]["count"])
		}
		count = queryRows(t, db, sql.NewSelectBuilder("users").
			Columns(sql.Count(sql.BareCol("id")).As("n")).
			GetResult())
		if count[0]["n"] != int64(3) {
			t.Errorf("Expected 3 users after delete, got %v", count[0]["n"])
		}
	})
}

// TestIntegrationJoinAggregate joins two tables, groups and filters the
// groups.
func TestIntegrationJoinAggregate(t *testing.T) {
	runWithBothBackends(t, func(t *testing.T, db *Database) {
		registerFixture(t, db)
		insertFixture(t, db)

		spent := sql.Sum(sql.Col("orders", "total")).As("spent")
		statement := sql.NewSelectBuilder("users").
			Columns(sql.Col("users", "name"), spent).
			Join("orders", sql.Col("orders", "user_id").Eq(sql.Col("users", "id"))).
			GroupByCols(sql.Col("users", "name")).
			HavingCond(sql.Gt(spent, 25)).
			OrderByKey(sql.Col("users", "name"), false).
			GetResult()

		rows := queryRows(t, db, statement)
		if len(rows) != 2 {
			t.Fatalf("Expected 2 groups past HAVING, got %d: %v", len(rows), rows)
		}
		if rows[0]["users.name"] != "Alice" || rows[0]["spent"] != 80.0 {
			t.Errorf("Expected Alice with 80 spent, got %v", rows[0])
		}
		if rows[1]["users.name"] != "Dave" || rows[1]["spent"] != 90.0 {
			t.Errorf("Expected Dave with 90 spent, got %v", rows[1])
		}
	})
}

// TestIntegrationDistinct deduplicates projected rows.
func TestIntegrationDistinct(t *testing.T) {
	runWithBothBackends(t, func(t *testing.T, db *Database) {
		registerFixture(t, db)

		insert := sql.NewInsertBuilder("users").
			Columns(sql.BareCol("id"), sql.BareCol("name"), sql.BareCol("age")).
			Row(1, "Alice", 30).
			Row(2, "Bob", 30).
			Row(3, "Carol", 25).
			GetResult()
		if _, err := db.Query(insert); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}

		statement := sql.NewSelectBuilder("users").
			Columns(sql.BareCol("age")).
			Distinct().
			GetResult()

		rows := queryRows(t, db, statement)
		if len(rows) != 2 {
			t.Errorf("Expected 2 distinct ages, got %d: %v", len(rows), rows)
		}
	})
}

// TestIntegrationSecurity verifies that unauthorized statements never
// reach the planner.
func TestIntegrationSecurity(t *testing.T) {
	runWithBothBackends(t, func(t *testing.T, db *Database) {
		registerFixture(t, db)

		statement := sql.NewSelectBuilder("secrets").
			Columns(sql.BareCol("key")).
			GetResult()

		_, err := db.Query(statement)
		var secErr *security.SecurityError
		if !errors.As(err, &secErr) {
			t.Fatalf("Expected security error for unregistered table, got %v", err)
		}
		if secErr.Rule != security.RuleTableAccess {
			t.Errorf("Expected %s rule, got %s", security.RuleTableAccess, secErr.Rule)
		}
	})
}

// TestIntegrationTransaction rolls back every table when the callback
// fails and commits when it succeeds.
func TestIntegrationTransaction(t *testing.T) {
	runWithBothBackends(t, func(t *testing.T, db *Database) {
		registerFixture(t, db)
		insertFixture(t, db)

		failure := errors.New("charge declined")
		err := db.Transaction(func(db *Database) error {
			insert := sql.NewInsertBuilder("orders").
				Columns(sql.BareCol("id"), sql.BareCol("user_id"), sql.BareCol("total")).
				Row(14, 2, 10.0).
				GetResult()
			if _, err := db.Query(insert); err != nil {
				return err
			}
			return failure
		})
		if !errors.Is(err, failure) {
			t.Fatalf("Expected the callback error back, got %v", err)
		}

		count := queryRows(t, db, sql.NewSelectBuilder("orders").
			Columns(sql.Count(sql.BareCol("id")).As("n")).
			GetResult())
		if count[0]["n"] != int64(4) {
			t.Errorf("Expected rollback to drop the new order, got %v", count[0]["n"])
		}

		err = db.Transaction(func(db *Database) error {
			insert := sql.NewInsertBuilder("orders").
				Columns(sql.BareCol("id"), sql.BareCol("user_id"), sql.BareCol("total")).
				Row(14, 2, 10.0).
				GetResult()
			_, err := db.Query(insert)
			return err
		})
		if err != nil {
			t.Fatalf("Failed to commit transaction: %v", err)
		}

		count = queryRows(t, db, sql.NewSelectBuilder("orders").
			Columns(sql.Count(sql.BareCol("id")).As("n")).
			GetResult())
		if count[0]["n"] != int64(5) {
			t.Errorf("Expected committed order to survive, got %v", count[0]["n"])
		}
	})
}

// TestIntegrationExportImport round-trips a table through a JSD
// document.
func TestIntegrationExportImport(t *testing.T) {
	source := OpenMemory()
	registerFixture(t, source)
	insertFixture(t, source)

	path := filepath.Join(t.TempDir(), "users.json")
	if err := source.ExportTable("users", path); err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	target := OpenMemory()
	registerFixture(t, target)
	if err := target.ImportTable("users", path); err != nil {
		t.Fatalf("Failed to import: %v", err)
	}

	rows := queryRows(t, target, sql.NewSelectBuilder("users").
		Columns(sql.BareCol("name")).
		OrderByKey(sql.BareCol("id"), false).
		GetResult())
	if len(rows) != 4 || rows[0]["name"] != "Alice" || rows[3]["name"] != "Dave" {
		t.Errorf("Expected imported users in id order, got %v", rows)
	}
}

// TestFilePersistenceReopen verifies data survives closing and reopening
// a file-backed database.
func TestFilePersistenceReopen(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	registerFixture(t, first)
	insertFixture(t, first)

	second, err := Open(dir)
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	registerFixture(t, second)

	rows := queryRows(t, second, sql.NewSelectBuilder("users").
		Columns(sql.BareCol("name")).
		WhereCond(sql.BareCol("age").Ge(18)).
		GetResult())
	if len(rows) != 3 {
		t.Errorf("Expected 3 persisted adults, got %d: %v", len(rows), rows)
	}

	// Index files survive too: an equality probe goes through them.
	ranged := queryRows(t, second, sql.NewSelectBuilder("users").
		Columns(sql.BareCol("name")).
		WhereCond(sql.BareCol("id").Eq(1)).
		GetResult())
	if len(ranged) != 1 || ranged[0]["name"] != "Alice" {
		t.Errorf("Expected Alice via reloaded index, got %v", ranged)
	}
}

// TestIntegrationMaxRowsCap trims results at the configured row cap.
func TestIntegrationMaxRowsCap(t *testing.T) {
	db := OpenMemory()
	registerFixture(t, db)

	insert := sql.NewInsertBuilder("users").
		Columns(sql.BareCol("id"), sql.BareCol("name"), sql.BareCol("age"))
	for i := 1; i <= 10; i++ {
		insert.Row(i, fmt.Sprintf("user%d", i), 20+i)
	}
	if _, err := db.Query(insert.GetResult()); err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}

	rows := queryRows(t, db, sql.NewSelectBuilder("users").
		Columns(sql.BareCol("name")).
		GetResult())
	if len(rows) != 10 {
		t.Fatalf("Expected all 10 rows under the default cap, got %d", len(rows))
	}

	limits := security.DefaultLimits()
	limits.MaxRows = 5
	db.Security().SetLimits(limits)

	rows = queryRows(t, db, sql.NewSelectBuilder("users").
		Columns(sql.BareCol("name")).
		GetResult())
	if len(rows) != 5 {
		t.Errorf("Expected results capped at 5 rows, got %d", len(rows))
	}
}
