// Package easysqlite provides a small convenience layer over an embedded
// SQLite database (modernc.org/sqlite, pure Go, no cgo).
//
// It wraps schema management (create/alter/describe tables), row operations
// driven by a compact condition DSL, join queries, raw parameterized query
// execution, and database file management into a single handle type, plus
// table import/export in CSV, TSV, XLSX, and Parquet formats with optional
// compression.
//
// Basic usage:
//
//	db, err := easysqlite.Open("data/app.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer db.Close()
//
//	ctx := context.Background()
//	err = db.CreateTable(ctx, "users", []easysqlite.Column{
//		{Name: "id", Type: "INTEGER PRIMARY KEY"},
//		{Name: "name", Type: "TEXT NOT NULL"},
//		{Name: "score", Type: "INTEGER"},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	id, err := db.AddRow(ctx, "users", map[string]any{"name": "Alice", "score": 100})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	rows, err := db.GetRows(ctx, "users", easysqlite.NewSelectOptions().
//		WithWhere(easysqlite.Condition{Column: "score", Operator: ">", Value: 50}).
//		WithOrderBy("name ASC"))
//
// Transaction scoping:
//
// Outside of Use, every mutating call auto-commits through the engine's
// default transaction behavior. Use runs a function against a handle whose
// operations share a single transaction, committed when the function returns
// nil and rolled back otherwise; the handle is closed on every exit path:
//
//	err := easysqlite.Use(ctx, "data/app.db", func(db *easysqlite.DB) error {
//		if _, err := db.AddRow(ctx, "users", map[string]any{"name": "Bob"}); err != nil {
//			return err
//		}
//		_, err := db.UpdateRows(ctx, "users",
//			map[string]any{"score": 0},
//			[]easysqlite.Condition{{Column: "name", Value: "Bob"}}, easysqlite.LogicAnd)
//		return err
//	})
//
// Error handling:
//
// All errors wrap one of the package sentinel errors (ErrDatabase, ErrTable,
// ErrColumn, ErrRow, ErrQuery, ErrJoin, ErrInvalidArgument, ...) and can be
// classified with errors.Is. ExecuteQuery is the one escape hatch that
// reports engine failures as data instead of returning an error.
//
// Concurrency:
//
// A DB holds a single connection and is not safe for concurrent use from
// multiple goroutines without external synchronization.
package easysqlite
