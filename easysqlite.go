package easysqlite

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DriverName is the database/sql driver name used to open connections.
const DriverName = "sqlite"

// databaseExtensions lists the file extensions recognized by ListDatabases.
var databaseExtensions = []string{".db", ".sqlite", ".sqlite3"}

// Prompt streams for destructive-operation confirmations. Overridable in tests.
var (
	promptIn  io.Reader = os.Stdin
	promptOut io.Writer = os.Stdout
)

// DB is a handle to a single SQLite database file.
//
// The handle owns one connection (the pool is capped at a single open
// connection) and is not safe for concurrent use from multiple goroutines
// without external synchronization. Outside of Use, every mutating operation
// auto-commits through SQLite's default transaction behavior.
type DB struct {
	path   string
	sdb    *sql.DB
	tx     *sql.Tx // non-nil only inside Use
	logger *slog.Logger
}

// Option configures a DB handle.
type Option func(*DB)

// WithLogger sets the logger for operational logging.
// Uses slog.Default() if not set.
func WithLogger(logger *slog.Logger) Option {
	return func(d *DB) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Open opens the SQLite database at path, creating missing parent
// directories and the database file itself if absent.
func Open(path string, opts ...Option) (*DB, error) {
	return OpenContext(context.Background(), path, opts...)
}

// OpenContext opens the SQLite database at path with context support,
// creating missing parent directories and the database file itself if absent.
func OpenContext(ctx context.Context, path string, opts ...Option) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty database path", ErrDatabase)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("%w: create parent directories: %w", ErrDatabase, err)
		}
	}

	sdb, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrDatabase, path, err)
	}
	// The handle owns exactly one connection.
	sdb.SetMaxOpenConns(1)

	// sql.Open is lazy; ping so the file exists before Open returns.
	if err := sdb.PingContext(ctx); err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("%w: open %s: %w", ErrDatabase, path, err)
	}

	d := &DB{
		path:   path,
		sdb:    sdb,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger.Debug("easysqlite: opened database", "path", path)
	return d, nil
}

// Close releases the underlying connection. Closing an already closed handle
// is a no-op. Any operation after Close fails with ErrNotConnected.
func (d *DB) Close() error {
	if d.sdb == nil {
		return nil
	}
	err := d.sdb.Close()
	d.sdb = nil
	d.tx = nil
	if err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrDatabase, d.path, err)
	}
	d.logger.Debug("easysqlite: closed database", "path", d.path)
	return nil
}

// Path returns the database file path this handle was opened with.
func (d *DB) Path() string {
	return d.path
}

// Use opens the database at path, runs fn against a handle whose operations
// all share a single transaction, and closes the handle on every exit path.
// The transaction commits when fn returns nil and rolls back otherwise, so a
// failure after earlier successful writes discards those writes too.
func Use(ctx context.Context, path string, fn func(*DB) error, opts ...Option) error {
	d, err := OpenContext(ctx, path, opts...)
	if err != nil {
		return err
	}

	tx, err := d.sdb.BeginTx(ctx, nil)
	if err != nil {
		_ = d.Close()
		return fmt.Errorf("%w: begin transaction: %w", ErrDatabase, err)
	}
	d.tx = tx

	if err := fn(d); err != nil {
		_ = tx.Rollback()
		_ = d.Close()
		return err
	}

	d.tx = nil
	if err := tx.Commit(); err != nil {
		_ = d.Close()
		return fmt.Errorf("%w: commit transaction: %w", ErrDatabase, err)
	}
	return d.Close()
}

// execQuerier is satisfied by both *sql.DB and *sql.Tx, so every operation
// transparently runs on the active transaction inside Use.
type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// querier returns the statement target for the current handle state.
func (d *DB) querier() (execQuerier, error) {
	switch {
	case d.tx != nil:
		return d.tx, nil
	case d.sdb != nil:
		return d.sdb, nil
	default:
		return nil, ErrNotConnected
	}
}

// ListDatabases returns the SQLite database files (.db, .sqlite, .sqlite3)
// directly inside dir, without recursing into subdirectories.
func ListDatabases(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: directory %s", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("%w: read directory %s: %w", ErrDatabase, dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, dbExt := range databaseExtensions {
			if ext == dbExt {
				paths = append(paths, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}
	return paths, nil
}

// DeleteDatabase removes the database file at path. A missing file returns
// (false, nil). With confirm set, a single y/n line is read from standard
// input and only a case-insensitive "y" proceeds. The returned bool reports
// whether the file was actually deleted.
func DeleteDatabase(path string, confirm bool) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %s: %w", ErrDatabase, path, err)
	}

	if confirm && !confirmPrompt(fmt.Sprintf("Delete database %q? [y/N]: ", path)) {
		return false, nil
	}

	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("%w: delete %s: %w", ErrDatabase, path, err)
	}
	return true, nil
}

// confirmPrompt writes msg and reads a single line; only "y" (any case) is
// treated as consent.
func confirmPrompt(msg string) bool {
	fmt.Fprint(promptOut, msg)
	line, err := bufio.NewReader(promptIn).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}
