package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Negixaab/runningbuddy/internal/database"
	"github.com/Negixaab/runningbuddy/internal/models"
	"github.com/Negixaab/runningbuddy/internal/spatial"
)

const runColumns = `id, user_id, name, distance_km, duration_seconds, start_time, path, created_at`

// RunRepository handles database operations for runs
type RunRepository struct {
	db database.DBTX
}

// NewRunRepository creates a new run repository
func NewRunRepository(db database.DBTX) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a run. The path is stored as a GeoJSON LineString.
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	path, err := spatial.MarshalPath(run.Path)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.UserID, run.Name, run.DistanceKm, run.DurationSeconds,
		run.StartTime.Unix(), toNullString(path), run.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// ListByUser returns a user's runs, newest start time first
func (r *RunRepository) ListByUser(ctx context.Context, userID string) ([]models.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE user_id = ? ORDER BY start_time DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	return scanRuns(rows)
}

// ListInWindow returns a user's runs with start <= start_time < end, oldest first
func (r *RunRepository) ListInWindow(ctx context.Context, userID string, start, end time.Time) ([]models.Run, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs
		WHERE user_id = ? AND start_time >= ? AND start_time < ?
		ORDER BY start_time ASC, id ASC`,
		userID, start.Unix(), end.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs in window: %w", err)
	}
	return scanRuns(rows)
}

// SumInWindow sums distance (km) or duration (seconds) over a user's runs
// with start <= start_time < end
func (r *RunRepository) SumInWindow(ctx context.Context, userID string, goal models.GoalType, start, end time.Time) (float64, error) {
	var column string
	switch goal {
	case models.GoalDistance:
		column = "distance_km"
	case models.GoalDuration:
		column = "duration_seconds"
	default:
		return 0, fmt.Errorf("unknown goal type %q", goal)
	}

	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(`+column+`), 0) FROM runs
		WHERE user_id = ? AND start_time >= ? AND start_time < ?`,
		userID, start.Unix(), end.Unix(),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum %s: %w", column, err)
	}
	return total, nil
}

// ActiveDates returns the distinct UTC dates with at least one run, newest first
func (r *RunRepository) ActiveDates(ctx context.Context, userID string) ([]time.Time, error) {
	day := r.db.GetDialect().UTCDateExpr("start_time")
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT `+day+` AS run_date FROM runs WHERE user_id = ? ORDER BY run_date DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query run dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan run date: %w", err)
		}
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse run date %q: %w", s, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func scanRuns(rows *sql.Rows) ([]models.Run, error) {
	defer rows.Close()

	runs := []models.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		run       models.Run
		startTime int64
		createdAt int64
		path      sql.NullString
	)
	err := row.Scan(&run.ID, &run.UserID, &run.Name, &run.DistanceKm, &run.DurationSeconds,
		&startTime, &path, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.StartTime = fromUnix(startTime)
	run.CreatedAt = fromUnix(createdAt)
	if path.Valid {
		points, err := spatial.UnmarshalPath(path.String)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", run.ID, err)
		}
		run.Path = points
	}
	return &run, nil
}
