package easysqlite

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierPattern matches safe SQL identifiers: a letter or underscore
// followed by letters, digits, or underscores.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedWords are SQLite keywords rejected as table or column names.
// Values quoted per the SQLite keyword list; only the ones likely to collide
// with user schema names are included.
var reservedWords = map[string]struct{}{
	"add": {}, "all": {}, "alter": {}, "and": {}, "as": {}, "autoincrement": {},
	"between": {}, "by": {}, "case": {}, "check": {}, "collate": {},
	"column": {}, "commit": {}, "constraint": {}, "create": {}, "default": {},
	"delete": {}, "distinct": {}, "drop": {}, "else": {}, "exists": {},
	"foreign": {}, "from": {}, "group": {}, "having": {}, "in": {},
	"index": {}, "insert": {}, "into": {}, "is": {}, "join": {},
	"like": {}, "limit": {}, "not": {}, "null": {}, "offset": {}, "on": {},
	"or": {}, "order": {}, "primary": {}, "references": {}, "rollback": {},
	"select": {}, "set": {}, "table": {}, "then": {}, "to": {},
	"transaction": {}, "union": {}, "unique": {}, "update": {}, "values": {},
	"when": {}, "where": {},
}

// isValidIdentifier reports whether name is a safe, non-reserved identifier.
func isValidIdentifier(name string) bool {
	if !identifierPattern.MatchString(name) {
		return false
	}
	_, reserved := reservedWords[strings.ToLower(name)]
	return !reserved
}

// validateTableName validates a table name, classifying failures as ErrTable.
func validateTableName(name string) error {
	if !isValidIdentifier(name) {
		return fmt.Errorf("%w: invalid table name %q", ErrTable, name)
	}
	return nil
}

// validateColumnName validates a bare column name, classifying failures as
// ErrColumn.
func validateColumnName(name string) error {
	if !isValidIdentifier(name) {
		return fmt.Errorf("%w: invalid column name %q", ErrColumn, name)
	}
	return nil
}

// validateColumnRef validates a column reference that may be table-qualified
// ("table.column"), as used in conditions and select lists.
func validateColumnRef(ref string) error {
	parts := strings.Split(ref, ".")
	if len(parts) > 2 {
		return fmt.Errorf("%w: invalid column reference %q", ErrQuery, ref)
	}
	for _, part := range parts {
		if !isValidIdentifier(part) {
			return fmt.Errorf("%w: invalid column reference %q", ErrQuery, ref)
		}
	}
	return nil
}

// quoteIdentifier brackets an already validated identifier so it never
// clashes with SQL syntax. Qualified references are quoted per part.
func quoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, part := range parts {
		parts[i] = "[" + part + "]"
	}
	return strings.Join(parts, ".")
}
