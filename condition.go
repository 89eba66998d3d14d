package easysqlite

import (
	"fmt"
	"reflect"
	"strings"
)

// Logic joins all conditions of a WHERE clause uniformly. There is no mixed
// precedence: every condition in a call is combined with the same joiner.
type Logic string

const (
	// LogicAnd combines conditions with AND (the default)
	LogicAnd Logic = "AND"
	// LogicOr combines conditions with OR
	LogicOr Logic = "OR"
)

// Condition compares a single column (optionally table-qualified) against a
// value. An empty Operator means "=". For IN and NOT IN the value must be a
// non-empty slice or array; for IS and IS NOT a nil value renders a literal
// NULL comparison.
type Condition struct {
	Column   string
	Operator string
	Value    any
}

// allowedOperators is the comparison operator whitelist for conditions.
var allowedOperators = map[string]struct{}{
	"=": {}, "==": {}, "!=": {}, "<>": {},
	"<": {}, "<=": {}, ">": {}, ">=": {},
	"LIKE": {}, "NOT LIKE": {}, "GLOB": {},
	"IN": {}, "NOT IN": {},
	"IS": {}, "IS NOT": {},
}

// buildWhere translates conditions into a parameterized WHERE body
// (without the WHERE keyword). An empty condition list yields an empty
// clause. Validation happens before any SQL execution.
func buildWhere(conds []Condition, logic Logic) (string, []any, error) {
	if len(conds) == 0 {
		return "", nil, nil
	}

	joiner, err := normalizeLogic(logic)
	if err != nil {
		return "", nil, err
	}

	clauses := make([]string, 0, len(conds))
	args := make([]any, 0, len(conds))
	for _, cond := range conds {
		if err := validateColumnRef(cond.Column); err != nil {
			return "", nil, err
		}

		op := strings.ToUpper(strings.TrimSpace(cond.Operator))
		if op == "" {
			op = "="
		}
		if _, ok := allowedOperators[op]; !ok {
			return "", nil, fmt.Errorf("%w: unsupported operator %q for column %q", ErrQuery, cond.Operator, cond.Column)
		}

		col := quoteIdentifier(cond.Column)
		switch op {
		case "IN", "NOT IN":
			values, err := sliceValues(cond.Value)
			if err != nil {
				return "", nil, fmt.Errorf("%w: operator %s on column %q: %w", ErrQuery, op, cond.Column, err)
			}
			placeholders := strings.TrimSuffix(strings.Repeat("?,", len(values)), ",")
			clauses = append(clauses, fmt.Sprintf("%s %s (%s)", col, op, placeholders))
			args = append(args, values...)
		case "IS", "IS NOT":
			if cond.Value == nil {
				// NULL must be a literal; a bound parameter cannot express it here
				clauses = append(clauses, fmt.Sprintf("%s %s NULL", col, op))
				continue
			}
			clauses = append(clauses, fmt.Sprintf("%s %s ?", col, op))
			args = append(args, cond.Value)
		default:
			clauses = append(clauses, fmt.Sprintf("%s %s ?", col, op))
			args = append(args, cond.Value)
		}
	}

	return strings.Join(clauses, " "+joiner+" "), args, nil
}

// normalizeLogic validates the logic joiner, defaulting to AND.
func normalizeLogic(logic Logic) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(string(logic))) {
	case "", "AND":
		return "AND", nil
	case "OR":
		return "OR", nil
	default:
		return "", fmt.Errorf("%w: condition logic must be AND or OR, got %q", ErrQuery, logic)
	}
}

// sliceValues flattens a slice or array value into []any for IN binding.
func sliceValues(value any) ([]any, error) {
	if value == nil {
		return nil, fmt.Errorf("requires a non-empty slice, got nil")
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("requires a slice, got %T", value)
	}
	if rv.Len() == 0 {
		return nil, fmt.Errorf("requires a non-empty slice")
	}
	values := make([]any, rv.Len())
	for i := range values {
		values[i] = rv.Index(i).Interface()
	}
	return values, nil
}

// SelectOptions configures column selection, filtering, ordering, and paging
// for GetRows, CountRows, and JoinRows.
//
// Example:
//
//	opts := easysqlite.NewSelectOptions().
//		WithColumns("id", "name").
//		WithWhere(easysqlite.Condition{Column: "score", Operator: ">", Value: 100}).
//		WithOrderBy("name ASC").
//		WithLimit(10)
type SelectOptions struct {
	// Columns holds the select list; empty means "*"
	Columns []string
	// Where holds the conditions combined with Logic
	Where []Condition
	// Logic joins all conditions (AND when empty)
	Logic Logic
	// OrderBy holds raw ORDER BY terms, e.g. "name ASC"
	OrderBy []string
	// Limit caps returned rows; zero or negative means no limit
	Limit int
	// Offset skips rows; zero or negative means no offset. Requires Limit.
	Offset int
}

// NewSelectOptions creates default select options (all columns, no
// filtering, no paging). The zero value SelectOptions{} behaves the same.
func NewSelectOptions() SelectOptions {
	return SelectOptions{Logic: LogicAnd}
}

// WithColumns sets the select list. Column references may be
// table-qualified ("users.name").
func (o SelectOptions) WithColumns(columns ...string) SelectOptions {
	o.Columns = columns
	return o
}

// WithWhere sets the filter conditions.
func (o SelectOptions) WithWhere(conds ...Condition) SelectOptions {
	o.Where = conds
	return o
}

// WithLogic sets the joiner applied across all conditions.
func (o SelectOptions) WithLogic(logic Logic) SelectOptions {
	o.Logic = logic
	return o
}

// WithOrderBy sets raw ORDER BY terms in priority order.
func (o SelectOptions) WithOrderBy(terms ...string) SelectOptions {
	o.OrderBy = terms
	return o
}

// WithLimit caps the number of returned rows.
func (o SelectOptions) WithLimit(limit int) SelectOptions {
	o.Limit = limit
	return o
}

// WithOffset skips rows before returning results. SQLite applies OFFSET only
// together with LIMIT, so setting an offset without a limit is rejected.
func (o SelectOptions) WithOffset(offset int) SelectOptions {
	o.Offset = offset
	return o
}

// selectTail builds the shared "[WHERE ...][ORDER BY ...][LIMIT ...][OFFSET ...]"
// suffix for SELECT-like statements.
func (o SelectOptions) selectTail() (string, []any, error) {
	if o.Offset > 0 && o.Limit <= 0 {
		return "", nil, fmt.Errorf("%w: offset requires an explicit limit", ErrInvalidArgument)
	}

	var sb strings.Builder
	where, args, err := buildWhere(o.Where, o.Logic)
	if err != nil {
		return "", nil, err
	}
	if where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(where)
	}
	if len(o.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(o.OrderBy, ", "))
	}
	if o.Limit > 0 {
		sb.WriteString(" LIMIT ")
		fmt.Fprintf(&sb, "%d", o.Limit)
	}
	if o.Offset > 0 {
		sb.WriteString(" OFFSET ")
		fmt.Fprintf(&sb, "%d", o.Offset)
	}
	return sb.String(), args, nil
}

// selectList renders the validated column list, defaulting to "*".
func (o SelectOptions) selectList() (string, error) {
	if len(o.Columns) == 0 {
		return "*", nil
	}
	quoted := make([]string, len(o.Columns))
	for i, col := range o.Columns {
		if col == "*" {
			quoted[i] = "*"
			continue
		}
		if err := validateColumnRef(col); err != nil {
			return "", err
		}
		quoted[i] = quoteIdentifier(col)
	}
	return strings.Join(quoted, ", "), nil
}
