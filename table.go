package easysqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Column defines one column of a CREATE TABLE statement. Type is the raw
// SQLite type string, including inline modifiers ("INTEGER PRIMARY KEY",
// "TEXT NOT NULL", ...).
type Column struct {
	Name string
	Type string
}

// ColumnInfo describes one column as reported by PRAGMA table_info, in
// schema-declared order.
type ColumnInfo struct {
	// CID is the column position in the schema
	CID int
	// Name is the column name
	Name string
	// Type is the declared type string
	Type string
	// NotNull reports a NOT NULL constraint
	NotNull bool
	// DefaultValue is the declared default, nil when absent. SQLite stores
	// defaults as source text, so string defaults keep their quotes ("'N/A'").
	DefaultValue *string
	// PrimaryKey reports membership in the primary key
	PrimaryKey bool
}

// CreateTableOptions configures CreateTable.
//
// Example:
//
//	opts := easysqlite.NewCreateTableOptions().
//		WithPrimaryKey("sku").
//		WithConstraints("CHECK (price > 0)").
//		WithIfNotExists()
type CreateTableOptions struct {
	// PrimaryKey names a column for a table-level PRIMARY KEY clause
	PrimaryKey string
	// Constraints holds raw table-level constraint strings
	Constraints []string
	// IfNotExists makes creation a no-op when the table already exists
	IfNotExists bool
}

// NewCreateTableOptions creates default table creation options.
func NewCreateTableOptions() CreateTableOptions {
	return CreateTableOptions{}
}

// WithPrimaryKey adds a table-level PRIMARY KEY clause on the given column.
func (o CreateTableOptions) WithPrimaryKey(column string) CreateTableOptions {
	o.PrimaryKey = column
	return o
}

// WithConstraints appends raw table-level constraint strings, e.g.
// "CHECK (price > 0)" or "UNIQUE (sku)". The strings are trusted as-is.
func (o CreateTableOptions) WithConstraints(constraints ...string) CreateTableOptions {
	o.Constraints = append(o.Constraints, constraints...)
	return o
}

// WithIfNotExists emits CREATE TABLE IF NOT EXISTS.
func (o CreateTableOptions) WithIfNotExists() CreateTableOptions {
	o.IfNotExists = true
	return o
}

// CreateTable creates a table from ordered column definitions. Table and
// column names are validated before any DDL is assembled. Creating an
// existing table fails with ErrTable unless IF NOT EXISTS is requested.
func (d *DB) CreateTable(ctx context.Context, name string, columns []Column, opts ...CreateTableOptions) error {
	q, err := d.querier()
	if err != nil {
		return err
	}

	options := NewCreateTableOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	if err := validateTableName(name); err != nil {
		return err
	}
	if len(columns) == 0 {
		return fmt.Errorf("%w: table %q needs at least one column", ErrInvalidArgument, name)
	}

	defs := make([]string, 0, len(columns)+len(options.Constraints)+1)
	for _, col := range columns {
		if err := validateColumnName(col.Name); err != nil {
			return err
		}
		defs = append(defs, quoteIdentifier(col.Name)+" "+col.Type)
	}
	if options.PrimaryKey != "" {
		if err := validateColumnName(options.PrimaryKey); err != nil {
			return err
		}
		defs = append(defs, "PRIMARY KEY ("+quoteIdentifier(options.PrimaryKey)+")")
	}
	defs = append(defs, options.Constraints...)

	if !options.IfNotExists {
		exists, err := d.tableExists(ctx, name)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: table %q already exists", ErrTable, name)
		}
	}

	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	if options.IfNotExists {
		sb.WriteString("IF NOT EXISTS ")
	}
	sb.WriteString(quoteIdentifier(name))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(defs, ", "))
	sb.WriteString(")")

	if _, err := q.ExecContext(ctx, sb.String()); err != nil {
		return fmt.Errorf("%w: create table %q: %w", ErrTable, name, err)
	}
	d.logger.Debug("easysqlite: created table", "table", name)
	return nil
}

// ListTables returns user table names from the catalog in creation order.
func (d *DB) ListTables(ctx context.Context) ([]string, error) {
	q, err := d.querier()
	if err != nil {
		return nil, err
	}

	rows, err := q.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, fmt.Errorf("%w: list tables: %w", ErrTable, err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: list tables: %w", ErrTable, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list tables: %w", ErrTable, err)
	}
	return names, nil
}

// DescribeTable returns column metadata in schema-declared order, failing
// with ErrTable when the table does not exist.
func (d *DB) DescribeTable(ctx context.Context, name string) ([]ColumnInfo, error) {
	q, err := d.querier()
	if err != nil {
		return nil, err
	}
	if err := validateTableName(name); err != nil {
		return nil, err
	}

	// PRAGMA arguments cannot be bound; the name is validated above.
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdentifier(name)))
	if err != nil {
		return nil, fmt.Errorf("%w: describe table %q: %w", ErrTable, name, err)
	}
	defer rows.Close()

	var columns []ColumnInfo
	for rows.Next() {
		var (
			info    ColumnInfo
			notNull int
			pk      int
			dflt    sql.NullString
		)
		if err := rows.Scan(&info.CID, &info.Name, &info.Type, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("%w: describe table %q: %w", ErrTable, name, err)
		}
		info.NotNull = notNull != 0
		info.PrimaryKey = pk != 0
		if dflt.Valid {
			value := dflt.String
			info.DefaultValue = &value
		}
		columns = append(columns, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: describe table %q: %w", ErrTable, name, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %q does not exist", ErrTable, name)
	}
	return columns, nil
}

// RenameTable renames an existing table.
func (d *DB) RenameTable(ctx context.Context, oldName, newName string) error {
	q, err := d.querier()
	if err != nil {
		return err
	}
	if err := validateTableName(oldName); err != nil {
		return err
	}
	if err := validateTableName(newName); err != nil {
		return err
	}

	exists, err := d.tableExists(ctx, oldName)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: table %q does not exist", ErrTable, oldName)
	}

	stmt := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", quoteIdentifier(oldName), quoteIdentifier(newName))
	if _, err := q.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: rename table %q to %q: %w", ErrTable, oldName, newName, err)
	}
	return nil
}

// DeleteTable drops a table (DROP TABLE IF EXISTS, so a missing table is not
// an error). Without force, a y/n confirmation is read from standard input.
// The returned bool reports whether the drop was executed.
func (d *DB) DeleteTable(ctx context.Context, name string, force bool) (bool, error) {
	q, err := d.querier()
	if err != nil {
		return false, err
	}
	if err := validateTableName(name); err != nil {
		return false, err
	}

	if !force && !confirmPrompt(fmt.Sprintf("Drop table %q? [y/N]: ", name)) {
		return false, nil
	}

	if _, err := q.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdentifier(name)); err != nil {
		return false, fmt.Errorf("%w: drop table %q: %w", ErrTable, name, err)
	}
	d.logger.Debug("easysqlite: dropped table", "table", name)
	return true, nil
}

// AddColumn adds a column to an existing table, optionally with a default
// value. String defaults are quoted; other values are rendered literally.
func (d *DB) AddColumn(ctx context.Context, table, name, colType string, defaultValue ...any) error {
	q, err := d.querier()
	if err != nil {
		return err
	}
	if err := validateTableName(table); err != nil {
		return err
	}
	if err := validateColumnName(name); err != nil {
		return err
	}

	exists, err := d.tableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: table %q does not exist", ErrTable, table)
	}

	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s",
		quoteIdentifier(table), quoteIdentifier(name), colType)
	if len(defaultValue) > 0 {
		stmt += " DEFAULT " + formatDefaultValue(defaultValue[0])
	}

	if _, err := q.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: add column %q to table %q: %w", ErrColumn, name, table, err)
	}
	return nil
}

// RenameColumn renames a column. Requires SQLite >= 3.25.0; older engines
// fail with an error matching both ErrColumn and ErrUnsupported.
func (d *DB) RenameColumn(ctx context.Context, table, oldName, newName string) error {
	q, err := d.querier()
	if err != nil {
		return err
	}
	if err := validateTableName(table); err != nil {
		return err
	}
	if err := validateColumnName(oldName); err != nil {
		return err
	}
	if err := validateColumnName(newName); err != nil {
		return err
	}

	if err := d.ensureColumnExists(ctx, table, oldName); err != nil {
		return err
	}
	if err := d.requireVersion(ctx, 3, 25, 0); err != nil {
		return fmt.Errorf("%w: rename column: %w", ErrColumn, err)
	}

	stmt := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s",
		quoteIdentifier(table), quoteIdentifier(oldName), quoteIdentifier(newName))
	if _, err := q.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: rename column %q to %q in table %q: %w", ErrColumn, oldName, newName, table, err)
	}
	return nil
}

// DeleteColumn drops a column. Requires SQLite >= 3.35.0; older engines fail
// with an error matching both ErrColumn and ErrUnsupported.
func (d *DB) DeleteColumn(ctx context.Context, table, name string) error {
	q, err := d.querier()
	if err != nil {
		return err
	}
	if err := validateTableName(table); err != nil {
		return err
	}
	if err := validateColumnName(name); err != nil {
		return err
	}

	if err := d.ensureColumnExists(ctx, table, name); err != nil {
		return err
	}
	if err := d.requireVersion(ctx, 3, 35, 0); err != nil {
		return fmt.Errorf("%w: drop column: %w", ErrColumn, err)
	}

	stmt := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		quoteIdentifier(table), quoteIdentifier(name))
	if _, err := q.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("%w: drop column %q from table %q: %w", ErrColumn, name, table, err)
	}
	return nil
}

// tableExists reports whether a user table with the given name exists.
func (d *DB) tableExists(ctx context.Context, name string) (bool, error) {
	q, err := d.querier()
	if err != nil {
		return false, err
	}
	var count int
	err = q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("%w: check table %q: %w", ErrTable, name, err)
	}
	return count > 0, nil
}

// ensureColumnExists fails with ErrTable when the table is missing and with
// ErrColumn when the column is.
func (d *DB) ensureColumnExists(ctx context.Context, table, column string) error {
	columns, err := d.DescribeTable(ctx, table)
	if err != nil {
		return err
	}
	for _, info := range columns {
		if info.Name == column {
			return nil
		}
	}
	return fmt.Errorf("%w: column %q does not exist in table %q", ErrColumn, column, table)
}

// requireVersion fails with ErrUnsupported when the linked SQLite engine is
// older than the given version.
func (d *DB) requireVersion(ctx context.Context, major, minor, patch int) error {
	gotMajor, gotMinor, gotPatch, err := d.sqliteVersion(ctx)
	if err != nil {
		return err
	}
	got := gotMajor*1_000_000 + gotMinor*1_000 + gotPatch
	want := major*1_000_000 + minor*1_000 + patch
	if got < want {
		return fmt.Errorf("%w: requires SQLite >= %d.%d.%d, have %d.%d.%d",
			ErrUnsupported, major, minor, patch, gotMajor, gotMinor, gotPatch)
	}
	return nil
}

// sqliteVersion reports the linked engine version.
func (d *DB) sqliteVersion(ctx context.Context) (major, minor, patch int, err error) {
	q, err := d.querier()
	if err != nil {
		return 0, 0, 0, err
	}
	var version string
	if err := q.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: sqlite_version: %w", ErrDatabase, err)
	}
	parts := strings.Split(version, ".")
	nums := make([]int, 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		n, convErr := strconv.Atoi(parts[i])
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("%w: unparsable sqlite version %q", ErrDatabase, version)
		}
		nums[i] = n
	}
	return nums[0], nums[1], nums[2], nil
}

// formatDefaultValue renders a DEFAULT clause literal. ALTER TABLE does not
// accept bound parameters in DDL, so the value is inlined.
func formatDefaultValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case bool:
		if v {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", v)
	}
}
