package easysqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedJoinTables creates the users/orders fixture shared by join tests.
// User 3 has no orders so outer joins produce a NULL side for them.
func seedJoinTables(t *testing.T, ctx context.Context, db *DB) {
	t.Helper()
	require.NoError(t, db.CreateTable(ctx, "users", []Column{
		{Name: "id", Type: "INTEGER PRIMARY KEY"},
		{Name: "name", Type: "TEXT"},
	}))
	require.NoError(t, db.CreateTable(ctx, "orders", []Column{
		{Name: "id", Type: "INTEGER PRIMARY KEY"},
		{Name: "user_id", Type: "INTEGER"},
		{Name: "amount", Type: "REAL"},
	}))
	_, err := db.AddRows(ctx, "users", []map[string]any{
		{"id": 1, "name": "Alice"},
		{"id": 2, "name": "Bob"},
		{"id": 3, "name": "Carol"},
	})
	require.NoError(t, err)
	_, err = db.AddRows(ctx, "orders", []map[string]any{
		{"id": 10, "user_id": 1, "amount": 25.0},
		{"id": 11, "user_id": 1, "amount": 70.0},
		{"id": 12, "user_id": 2, "amount": 12.5},
	})
	require.NoError(t, err)
}

func TestDB_JoinRows(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("inner join", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		seedJoinTables(t, ctx, db)

		rows, err := db.JoinRows(ctx, "users", []Join{
			{Type: JoinInner, Table: "orders", On: "users.id = orders.user_id"},
		})
		require.NoError(t, err)
		assert.Len(t, rows, 3, "only users with orders appear")
	})

	t.Run("left join keeps unmatched base rows", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		seedJoinTables(t, ctx, db)

		rows, err := db.JoinRows(ctx, "users", []Join{
			{Type: JoinLeft, Table: "orders", On: "users.id = orders.user_id"},
		}, NewSelectOptions().
			WithColumns("users.name", "orders.amount").
			WithOrderBy("users.id"))
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, "Carol", rows[3]["name"])
		assert.Nil(t, rows[3]["amount"], "unmatched side of an outer join is NULL")
	})

	t.Run("condition on qualified column", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		seedJoinTables(t, ctx, db)

		rows, err := db.JoinRows(ctx, "users", []Join{
			{Type: JoinInner, Table: "orders", On: "users.id = orders.user_id"},
		}, NewSelectOptions().
			WithWhere(Condition{Column: "orders.amount", Operator: ">", Value: 20}))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		for _, row := range rows {
			assert.Equal(t, "Alice", row["name"])
		}
	})

	t.Run("lowercase join type accepted", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		seedJoinTables(t, ctx, db)

		rows, err := db.JoinRows(ctx, "users", []Join{
			{Type: "inner", Table: "orders", On: "users.id = orders.user_id"},
		})
		require.NoError(t, err)
		assert.Len(t, rows, 3)
	})

	t.Run("chained joins", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		seedJoinTables(t, ctx, db)
		require.NoError(t, db.CreateTable(ctx, "shipments", []Column{
			{Name: "order_id", Type: "INTEGER"},
			{Name: "carrier", Type: "TEXT"},
		}))
		_, err := db.AddRow(ctx, "shipments", map[string]any{"order_id": 10, "carrier": "DHL"})
		require.NoError(t, err)

		rows, err := db.JoinRows(ctx, "users", []Join{
			{Type: JoinInner, Table: "orders", On: "users.id = orders.user_id"},
			{Type: JoinInner, Table: "shipments", On: "orders.id = shipments.order_id"},
		}, NewSelectOptions().WithColumns("users.name", "shipments.carrier"))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "Alice", rows[0]["name"])
		assert.Equal(t, "DHL", rows[0]["carrier"])
	})

	t.Run("invalid join type", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		seedJoinTables(t, ctx, db)

		_, err := db.JoinRows(ctx, "users", []Join{
			{Type: "CROSS", Table: "orders", On: "1 = 1"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrJoin)
	})

	t.Run("empty ON predicate", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		seedJoinTables(t, ctx, db)

		_, err := db.JoinRows(ctx, "users", []Join{
			{Type: JoinInner, Table: "orders", On: "  "},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrJoin)
	})

	t.Run("no joins given", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		seedJoinTables(t, ctx, db)

		_, err := db.JoinRows(ctx, "users", nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrJoin)
	})

	t.Run("invalid join table name", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		seedJoinTables(t, ctx, db)

		_, err := db.JoinRows(ctx, "users", []Join{
			{Type: JoinInner, Table: "orders; DROP TABLE users", On: "1 = 1"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrJoin)
	})
}
