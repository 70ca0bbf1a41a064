package database

import (
	"database/sql"
	"errors"
	"regexp"
	"strconv"
)

// Dialect defines the interface for database-specific operations
type Dialect interface {
	// DriverName returns the driver name for sql.Open
	DriverName() string

	// DSN returns the data source name for the connection
	DSN(cfg Config) string

	// RewriteQuery converts placeholder syntax if needed (e.g., ? to $1 for postgres)
	RewriteQuery(query string) string

	// ConfigureConnection applies any database-specific connection settings
	ConfigureConnection(db *sql.DB) error

	// MigrationsSubdir returns the subdirectory name for migrations
	MigrationsSubdir() string

	// CreateMigrationsTableQuery returns the SQL to create the migrations tracking table
	CreateMigrationsTableQuery() string

	// UTCDateExpr renders a unix-seconds column as a 'YYYY-MM-DD' UTC date
	UTCDateExpr(column string) string

	// IsUniqueViolation reports whether err was raised by a unique constraint
	IsUniqueViolation(err error) bool
}

// placeholderRegexp matches ? placeholders
var placeholderRegexp = regexp.MustCompile(`\?`)

// rewritePlaceholdersToNumbered converts ? placeholders to $1, $2, etc.
func rewritePlaceholdersToNumbered(query string) string {
	counter := 0
	return placeholderRegexp.ReplaceAllStringFunc(query, func(match string) string {
		counter++
		return "$" + strconv.Itoa(counter)
	})
}

// IsUniqueViolation checks err against every known dialect.
// Services use it without holding a dialect reference.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return true
	}
	return NewSQLiteDialect().IsUniqueViolation(err) || NewPostgresDialect().IsUniqueViolation(err)
}

// DuplicateError marks a write rejected by a uniqueness constraint
type DuplicateError struct {
	Constraint string
	Err        error
}

func (e *DuplicateError) Error() string {
	if e.Constraint != "" {
		return "duplicate " + e.Constraint + ": " + e.Err.Error()
	}
	return "duplicate entry: " + e.Err.Error()
}

func (e *DuplicateError) Unwrap() error { return e.Err }
