package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Negixaab/runningbuddy/internal/database"
	"github.com/Negixaab/runningbuddy/internal/database/dbtest"
)

func TestOpenUnsupportedType(t *testing.T) {
	if _, err := database.Open(database.Config{Type: "oracle"}); err == nil {
		t.Fatal("expected error for unsupported database type")
	}
}

func TestMigrateSeedsTemplates(t *testing.T) {
	db := dbtest.Open(t)

	var count int
	if err := db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM challenges WHERE is_active = ?", true).Scan(&count); err != nil {
		t.Fatalf("count templates: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 seeded templates, got %d", count)
	}

	// Re-running is a no-op
	if err := database.Migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSingleActiveIndex(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	insert := `INSERT INTO user_challenges (id, user_id, challenge_id, status, progress, created_at)
		VALUES (?, 'u1', 'e4eaaaf2-d142-11e1-b3e4-080027620cdd', ?, 0, 0)`

	if _, err := db.ExecContext(ctx, insert, "a", "active"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := db.ExecContext(ctx, insert, "b", "active")
	if !database.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if _, err := db.ExecContext(ctx, insert, "c", "completed"); err != nil {
		t.Fatalf("terminal instances are not constrained: %v", err)
	}
}

func TestTransactionRollback(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	sentinel := errors.New("stop")

	err := db.Transaction(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, user_id, name, distance_km, duration_seconds, start_time, created_at)
			 VALUES ('r1', 'u1', 'Run', 1, 60, 0, 0)`); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&count); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d runs", count)
	}
}
