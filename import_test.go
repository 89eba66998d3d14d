package easysqlite

import (
	"compress/gzip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestFile writes a file into a fresh temp directory and returns its path.
func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestDB_ImportFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("csv creates the table from the header", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		path := writeTestFile(t, "users.csv", []byte("id,name\n1,Alice\n2,Bob\n"))

		count, err := db.ImportFile(ctx, "users", path)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		info, err := db.DescribeTable(ctx, "users")
		require.NoError(t, err)
		require.Len(t, info, 2)
		assert.Equal(t, "id", info[0].Name)
		assert.Equal(t, "TEXT", info[0].Type)

		rows, err := db.GetRows(ctx, "users", NewSelectOptions().WithOrderBy("id"))
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "Alice", rows[0]["name"])
	})

	t.Run("appends to an existing table", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		require.NoError(t, db.CreateTable(ctx, "users", []Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "name", Type: "TEXT"},
		}))
		_, err := db.AddRow(ctx, "users", map[string]any{"id": 1, "name": "Existing"})
		require.NoError(t, err)

		path := writeTestFile(t, "users.csv", []byte("id,name\n2,Imported\n"))
		count, err := db.ImportFile(ctx, "users", path)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		total, err := db.CountRows(ctx, "users", nil, LogicAnd)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})

	t.Run("tsv", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		path := writeTestFile(t, "items.tsv", []byte("sku\tprice\nA1\t10\n"))

		count, err := db.ImportFile(ctx, "items", path)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("gzip compressed csv", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)

		path := filepath.Join(t.TempDir(), "users.csv.gz")
		file, err := os.Create(path)
		require.NoError(t, err)
		gz := gzip.NewWriter(file)
		_, err = gz.Write([]byte("id,name\n1,Alice\n"))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
		require.NoError(t, file.Close())

		count, err := db.ImportFile(ctx, "users", path)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})

	t.Run("short records pad with NULL", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		path := writeTestFile(t, "users.csv", []byte("id,name,note\n1,Alice\n"))

		count, err := db.ImportFile(ctx, "users", path)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		rows, err := db.GetRows(ctx, "users")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Nil(t, rows[0]["note"])
	})

	t.Run("header only imports nothing", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		path := writeTestFile(t, "users.csv", []byte("id,name\n"))

		count, err := db.ImportFile(ctx, "users", path)
		require.NoError(t, err)
		assert.Zero(t, count)

		tables, err := db.ListTables(ctx)
		require.NoError(t, err)
		assert.Contains(t, tables, "users", "the table is still created from the header")
	})

	t.Run("file larger than one statement's bind limit", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)

		// 20000 rows x 2 columns is 40000 parameters, more than a single
		// INSERT may bind.
		var sb strings.Builder
		sb.WriteString("id,name\n")
		for i := 0; i < 20000; i++ {
			fmt.Fprintf(&sb, "%d,user%d\n", i, i)
		}
		path := writeTestFile(t, "big.csv", []byte(sb.String()))

		count, err := db.ImportFile(ctx, "big", path)
		require.NoError(t, err)
		assert.EqualValues(t, 20000, count)

		total, err := db.CountRows(ctx, "big", nil, LogicAnd)
		require.NoError(t, err)
		assert.EqualValues(t, 20000, total)

		rows, err := db.GetRows(ctx, "big", NewSelectOptions().
			WithWhere(Condition{Column: "id", Value: "19999"}))
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "user19999", rows[0]["name"])
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)

		_, err := db.ImportFile(ctx, "users", filepath.Join(t.TempDir(), "absent.csv"))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unsupported file type", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		path := writeTestFile(t, "users.json", []byte(`[{"id":1}]`))

		_, err := db.ImportFile(ctx, "users", path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("invalid header column name", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		path := writeTestFile(t, "users.csv", []byte("id,bad name\n1,x\n"))

		_, err := db.ImportFile(ctx, "users", path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrColumn)
	})

	t.Run("invalid table name", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		path := writeTestFile(t, "users.csv", []byte("id\n1\n"))

		_, err := db.ImportFile(ctx, "bad;name", path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrTable)
	})

	t.Run("closed handle", func(t *testing.T) {
		t.Parallel()
		db, _ := newTestDB(t)
		require.NoError(t, db.Close())
		path := writeTestFile(t, "users.csv", []byte("id\n1\n"))

		_, err := db.ImportFile(ctx, "users", path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNotConnected)
	})
}
