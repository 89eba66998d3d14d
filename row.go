package easysqlite

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Row is a single result row keyed by column name. Values carry the engine's
// native scan types (int64, float64, string, []byte, nil).
type Row map[string]any

// AddRow inserts a single row and returns the new row identifier.
// Constraint violations and other DML failures are reported as ErrRow.
func (d *DB) AddRow(ctx context.Context, table string, values map[string]any) (int64, error) {
	q, err := d.querier()
	if err != nil {
		return 0, err
	}
	if err := validateTableName(table); err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: row values must not be empty", ErrInvalidArgument)
	}

	columns := sortedKeys(values)
	quoted := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		if err := validateColumnName(col); err != nil {
			return 0, err
		}
		quoted[i] = quoteIdentifier(col)
		args[i] = values[col]
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(table),
		strings.Join(quoted, ", "),
		placeholders(len(columns)))

	result, err := q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: insert into %q: %w", ErrRow, table, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: insert into %q: %w", ErrRow, table, err)
	}
	return id, nil
}

// AddRows inserts multiple rows with a single batched INSERT and returns the
// inserted count. Every map must share the identical key set; otherwise
// ErrInvalidArgument is returned before anything is written. An empty input
// returns 0 without touching the engine.
func (d *DB) AddRows(ctx context.Context, table string, rows []map[string]any) (int64, error) {
	q, err := d.querier()
	if err != nil {
		return 0, err
	}
	if err := validateTableName(table); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	columns := sortedKeys(rows[0])
	if len(columns) == 0 {
		return 0, fmt.Errorf("%w: row values must not be empty", ErrInvalidArgument)
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		if err := validateColumnName(col); err != nil {
			return 0, err
		}
		quoted[i] = quoteIdentifier(col)
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("%w: row %d has a different key set", ErrInvalidArgument, i)
		}
		for _, col := range columns {
			if _, ok := row[col]; !ok {
				return 0, fmt.Errorf("%w: row %d is missing key %q", ErrInvalidArgument, i, col)
			}
		}
	}

	group := "(" + placeholders(len(columns)) + ")"
	groups := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		groups[i] = group
		for _, col := range columns {
			args = append(args, row[col])
		}
	}

	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		quoteIdentifier(table),
		strings.Join(quoted, ", "),
		strings.Join(groups, ", "))

	result, err := q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: batch insert into %q: %w", ErrRow, table, err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: batch insert into %q: %w", ErrRow, table, err)
	}
	return count, nil
}

// GetRows selects rows from a table, preserving the engine's return order.
func (d *DB) GetRows(ctx context.Context, table string, opts ...SelectOptions) ([]Row, error) {
	q, err := d.querier()
	if err != nil {
		return nil, err
	}
	if err := validateTableName(table); err != nil {
		return nil, err
	}

	options := NewSelectOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	columns, err := options.selectList()
	if err != nil {
		return nil, err
	}
	tail, args, err := options.selectTail()
	if err != nil {
		return nil, err
	}

	stmt := fmt.Sprintf("SELECT %s FROM %s%s", columns, quoteIdentifier(table), tail)
	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: select from %q: %w", ErrRow, table, err)
	}
	defer rows.Close()

	results, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: select from %q: %w", ErrRow, table, err)
	}
	return results, nil
}

// UpdateRows updates matching rows and returns the affected count. Both the
// data map and the condition list must be non-empty: unconditional blanket
// updates are not available through this path.
func (d *DB) UpdateRows(ctx context.Context, table string, data map[string]any, conds []Condition, logic Logic) (int64, error) {
	q, err := d.querier()
	if err != nil {
		return 0, err
	}
	if err := validateTableName(table); err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: update data must not be empty", ErrInvalidArgument)
	}
	if len(conds) == 0 {
		return 0, fmt.Errorf("%w: update requires a condition", ErrInvalidArgument)
	}

	columns := sortedKeys(data)
	assignments := make([]string, len(columns))
	args := make([]any, 0, len(columns)+len(conds))
	for i, col := range columns {
		if err := validateColumnName(col); err != nil {
			return 0, err
		}
		assignments[i] = quoteIdentifier(col) + " = ?"
		args = append(args, data[col])
	}

	where, whereArgs, err := buildWhere(conds, logic)
	if err != nil {
		return 0, err
	}
	args = append(args, whereArgs...)

	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		quoteIdentifier(table), strings.Join(assignments, ", "), where)

	result, err := q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: update %q: %w", ErrRow, table, err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: update %q: %w", ErrRow, table, err)
	}
	return count, nil
}

// DeleteRows deletes matching rows and returns the affected count. An empty
// condition list deletes every row, which must be ordered explicitly with
// forceDeleteAll; otherwise ErrInvalidArgument is returned.
func (d *DB) DeleteRows(ctx context.Context, table string, conds []Condition, logic Logic, forceDeleteAll bool) (int64, error) {
	q, err := d.querier()
	if err != nil {
		return 0, err
	}
	if err := validateTableName(table); err != nil {
		return 0, err
	}
	if len(conds) == 0 && !forceDeleteAll {
		return 0, fmt.Errorf("%w: delete without condition requires forceDeleteAll", ErrInvalidArgument)
	}

	where, args, err := buildWhere(conds, logic)
	if err != nil {
		return 0, err
	}

	stmt := "DELETE FROM " + quoteIdentifier(table)
	if where != "" {
		stmt += " WHERE " + where
	}

	result, err := q.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: delete from %q: %w", ErrRow, table, err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: delete from %q: %w", ErrRow, table, err)
	}
	return count, nil
}

// CountRows returns the number of rows matching the conditions.
func (d *DB) CountRows(ctx context.Context, table string, conds []Condition, logic Logic) (int64, error) {
	q, err := d.querier()
	if err != nil {
		return 0, err
	}
	if err := validateTableName(table); err != nil {
		return 0, err
	}

	where, args, err := buildWhere(conds, logic)
	if err != nil {
		return 0, err
	}

	stmt := "SELECT COUNT(*) FROM " + quoteIdentifier(table)
	if where != "" {
		stmt += " WHERE " + where
	}

	var count int64
	if err := q.QueryRowContext(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count rows in %q: %w", ErrRow, table, err)
	}
	return count, nil
}

// sortedKeys returns map keys in deterministic order for SQL assembly.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// placeholders renders "?, ?, ..." for n bound parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
