package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "sqlite" {
			t.Errorf("DriverName() = %v, want sqlite", got)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "sqlite" {
			t.Errorf("MigrationsSubdir() = %v, want sqlite", got)
		}
	})

	t.Run("RewriteQuery keeps placeholders", func(t *testing.T) {
		q := "SELECT * FROM runs WHERE user_id = ? AND start_time >= ?"
		if got := dialect.RewriteQuery(q); got != q {
			t.Errorf("RewriteQuery() = %v, want %v", got, q)
		}
	})

	t.Run("UTCDateExpr", func(t *testing.T) {
		if got := dialect.UTCDateExpr("start_time"); got != "date(start_time, 'unixepoch')" {
			t.Errorf("UTCDateExpr() = %v", got)
		}
	})

	t.Run("DSN defaults to memory", func(t *testing.T) {
		if got := dialect.DSN(Config{}); got != ":memory:" {
			t.Errorf("DSN() = %v, want :memory:", got)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "pgx" {
			t.Errorf("DriverName() = %v, want pgx", got)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "postgres" {
			t.Errorf("MigrationsSubdir() = %v, want postgres", got)
		}
	})

	t.Run("DSN uses URL", func(t *testing.T) {
		url := "postgres://runner@localhost/runs"
		if got := dialect.DSN(Config{URL: url, Path: "ignored"}); got != url {
			t.Errorf("DSN() = %v, want %v", got, url)
		}
	})

	t.Run("IsUniqueViolation", func(t *testing.T) {
		wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
		if !dialect.IsUniqueViolation(wrapped) {
			t.Error("expected 23505 to be a unique violation")
		}
		if dialect.IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
			t.Error("foreign key violation reported as unique violation")
		}
	})
}

func TestRewritePlaceholdersToNumbered(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no placeholders", "SELECT 1", "SELECT 1"},
		{"single", "SELECT * FROM runs WHERE id = ?", "SELECT * FROM runs WHERE id = $1"},
		{
			"multiple",
			"UPDATE user_challenges SET status = ? WHERE id = ? AND user_id = ?",
			"UPDATE user_challenges SET status = $1 WHERE id = $2 AND user_id = $3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rewritePlaceholdersToNumbered(tt.input); got != tt.want {
				t.Errorf("rewritePlaceholdersToNumbered() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"sqlite message", errors.New("constraint failed: UNIQUE constraint failed: user_challenges.user_id (2067)"), true},
		{"postgres", &pgconn.PgError{Code: "23505"}, true},
		{"duplicate error", &DuplicateError{Err: errors.New("x")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err); got != tt.want {
				t.Errorf("IsUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
