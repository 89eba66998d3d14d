package easysqlite

import (
	"context"
	"fmt"
	"strings"
)

// JoinType selects the SQL join flavor.
type JoinType string

const (
	// JoinInner is an INNER JOIN
	JoinInner JoinType = "INNER"
	// JoinLeft is a LEFT JOIN
	JoinLeft JoinType = "LEFT"
	// JoinRight is a RIGHT JOIN (SQLite >= 3.39.0)
	JoinRight JoinType = "RIGHT"
	// JoinFull is a FULL JOIN (SQLite >= 3.39.0)
	JoinFull JoinType = "FULL"
)

// Join describes one join clause. On is a raw predicate string
// ("users.id = posts.user_id") trusted as-is.
type Join struct {
	Type  JoinType
	Table string
	On    string
}

// JoinRows selects rows across joined tables. Join clauses chain
// left-to-right in the given order, so join order is significant. Every join
// specification is validated before any SQL executes; an unknown join type
// fails with ErrJoin. Columns of the non-matched side of an outer join come
// back as nil.
func (d *DB) JoinRows(ctx context.Context, baseTable string, joins []Join, opts ...SelectOptions) ([]Row, error) {
	q, err := d.querier()
	if err != nil {
		return nil, err
	}
	if err := validateTableName(baseTable); err != nil {
		return nil, err
	}
	if len(joins) == 0 {
		return nil, fmt.Errorf("%w: at least one join is required", ErrJoin)
	}

	clauses := make([]string, len(joins))
	for i, join := range joins {
		joinType := JoinType(strings.ToUpper(strings.TrimSpace(string(join.Type))))
		switch joinType {
		case JoinInner, JoinLeft, JoinRight, JoinFull:
		default:
			return nil, fmt.Errorf("%w: unsupported join type %q", ErrJoin, join.Type)
		}
		if !isValidIdentifier(join.Table) {
			return nil, fmt.Errorf("%w: invalid join target table %q", ErrJoin, join.Table)
		}
		if strings.TrimSpace(join.On) == "" {
			return nil, fmt.Errorf("%w: join on table %q has an empty ON predicate", ErrJoin, join.Table)
		}
		clauses[i] = fmt.Sprintf("%s JOIN %s ON (%s)", joinType, quoteIdentifier(join.Table), join.On)
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

	stmt := fmt.Sprintf("SELECT %s FROM %s %s%s",
		columns, quoteIdentifier(baseTable), strings.Join(clauses, " "), tail)

	rows, err := q.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: join select from %q: %w", ErrJoin, baseTable, err)
	}
	defer rows.Close()

	results, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: join select from %q: %w", ErrJoin, baseTable, err)
	}
	return results, nil
}
