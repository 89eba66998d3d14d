package easysqlite

import (
	"errors"
	"fmt"
)

// Sentinel errors for the easysqlite error taxonomy. Every error returned by
// this package wraps exactly one of these kinds, so callers can classify
// failures with errors.Is without parsing messages.
var (
	// ErrDatabase indicates a connection or database-file level failure
	ErrDatabase = errors.New("easysqlite: database error")

	// ErrNotConnected is returned when an operation is attempted after Close.
	// It wraps ErrDatabase.
	ErrNotConnected = fmt.Errorf("%w: not connected", ErrDatabase)

	// ErrNotFound indicates a missing file or directory
	ErrNotFound = errors.New("easysqlite: not found")

	// ErrTable indicates a table existence, naming, or DDL failure
	ErrTable = errors.New("easysqlite: table error")

	// ErrColumn indicates a column existence, naming, or DDL failure
	ErrColumn = errors.New("easysqlite: column error")

	// ErrUnsupported indicates the linked SQLite version lacks the requested
	// DDL capability (e.g. RENAME COLUMN before 3.25.0)
	ErrUnsupported = errors.New("easysqlite: unsupported by this SQLite version")

	// ErrRow indicates a row-level DML failure such as a constraint violation
	ErrRow = errors.New("easysqlite: row error")

	// ErrQuery indicates malformed query construction (bad operator, bad
	// condition value, unknown logic joiner)
	ErrQuery = errors.New("easysqlite: query error")

	// ErrJoin indicates an invalid join specification
	ErrJoin = errors.New("easysqlite: join error")

	// ErrInvalidArgument indicates an argument-shape violation caught before
	// any SQL is executed (empty required maps, inconsistent batch keys,
	// offset without limit)
	ErrInvalidArgument = errors.New("easysqlite: invalid argument")
)
