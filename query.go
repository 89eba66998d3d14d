package easysqlite

import (
	"context"
	"database/sql"
	"strings"
)

// QueryResult is the uniform outcome record of ExecuteQuery. Engine failures
// are reported through Error instead of a Go error.
type QueryResult struct {
	// Success reports whether the statement executed without an engine error
	Success bool
	// Data holds result rows for row-returning statements, nil otherwise
	Data []Row
	// RowCount is the affected-row count for DML; -1 for row-returning
	// statements and failures
	RowCount int64
	// LastInsertID is set after INSERT/REPLACE statements, nil otherwise
	LastInsertID *int64
	// Error carries the engine error message on failure, empty on success
	Error string
}

// rowReturningVerbs lead statements whose results are read with Query rather
// than Exec.
var rowReturningVerbs = map[string]struct{}{
	"SELECT": {}, "PRAGMA": {}, "WITH": {}, "VALUES": {}, "EXPLAIN": {},
}

// ExecuteQuery executes arbitrary parameterized SQL directly, bypassing the
// condition DSL. It never returns a Go error: engine failures are captured
// in the result record. This is the one escape hatch for statements the
// structured API cannot express.
func (d *DB) ExecuteQuery(ctx context.Context, query string, args ...any) QueryResult {
	q, err := d.querier()
	if err != nil {
		return QueryResult{Success: false, RowCount: -1, Error: err.Error()}
	}

	verb := strings.ToUpper(firstWord(query))
	if _, returnsRows := rowReturningVerbs[verb]; returnsRows {
		return d.runRowQuery(ctx, q, query, args)
	}
	return d.runExec(ctx, q, verb, query, args)
}

// runRowQuery handles row-returning statements.
func (d *DB) runRowQuery(ctx context.Context, q execQuerier, query string, args []any) QueryResult {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return QueryResult{Success: false, RowCount: -1, Error: err.Error()}
	}
	defer rows.Close()

	data, err := scanRows(rows)
	if err != nil {
		return QueryResult{Success: false, RowCount: -1, Error: err.Error()}
	}
	// Row counts are not reported for cursor-style reads.
	return QueryResult{Success: true, Data: data, RowCount: -1}
}

// runExec handles DML/DDL statements.
func (d *DB) runExec(ctx context.Context, q execQuerier, verb, query string, args []any) QueryResult {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return QueryResult{Success: false, RowCount: -1, Error: err.Error()}
	}

	rowCount, err := result.RowsAffected()
	if err != nil {
		rowCount = -1
	}

	out := QueryResult{Success: true, RowCount: rowCount}
	if verb == "INSERT" || verb == "REPLACE" {
		if id, err := result.LastInsertId(); err == nil {
			out.LastInsertID = &id
		}
	}
	return out
}

// firstWord extracts the leading SQL verb of a statement.
func firstWord(query string) string {
	fields := strings.Fields(strings.TrimSpace(query))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// scanRows drains sql.Rows into Row maps keyed by result column name.
func scanRows(rows *sql.Rows) ([]Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}
