package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Negixaab/runningbuddy/internal/database"
	"github.com/Negixaab/runningbuddy/internal/models"
)

const templateColumns = `c.id, c.title, c.description, c.goal_type, c.goal_value, c.goal_unit, c.is_active`

const instanceSelect = `SELECT uc.id, uc.user_id, uc.challenge_id, uc.status, uc.assigned_date,
		uc.start_time, uc.deadline, uc.progress, uc.completed_at, uc.created_at,
		c.title, c.description, c.goal_type, c.goal_value, c.goal_unit
	FROM user_challenges uc
	JOIN challenges c ON c.id = uc.challenge_id`

// ChallengeRepository handles database operations for challenge templates
// and user challenge instances
type ChallengeRepository struct {
	db database.DBTX
}

// NewChallengeRepository creates a new challenge repository
func NewChallengeRepository(db database.DBTX) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

// GetTemplate returns a template by id, or nil if it does not exist
func (r *ChallengeRepository) GetTemplate(ctx context.Context, id string) (*models.ChallengeTemplate, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM challenges c WHERE c.id = ?`, id)
	return scanTemplateRow(row)
}

// GetTemplateByTitle returns an active template by title, or nil
func (r *ChallengeRepository) GetTemplateByTitle(ctx context.Context, title string) (*models.ChallengeTemplate, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM challenges c WHERE c.title = ? AND c.is_active = ?`, title, true)
	return scanTemplateRow(row)
}

// ListActiveTemplates returns every active template
func (r *ChallengeRepository) ListActiveTemplates(ctx context.Context) ([]models.ChallengeTemplate, error) {
	return r.queryTemplates(ctx,
		`SELECT `+templateColumns+` FROM challenges c WHERE c.is_active = ? ORDER BY c.title`, true)
}

// ListTemplatesNotAssignedSince returns active templates that were not assigned
// to the user as a daily on any date after since (YYYY-MM-DD)
func (r *ChallengeRepository) ListTemplatesNotAssignedSince(ctx context.Context, userID, since string) ([]models.ChallengeTemplate, error) {
	return r.queryTemplates(ctx,
		`SELECT `+templateColumns+` FROM challenges c
		WHERE c.is_active = ?
		AND NOT EXISTS (
			SELECT 1 FROM user_challenges uc
			WHERE uc.challenge_id = c.id AND uc.user_id = ?
			AND uc.assigned_date IS NOT NULL AND uc.assigned_date > ?
		)
		ORDER BY c.title`,
		true, userID, since)
}

// ListAvailableTemplates returns active templates the user has neither
// completed nor currently holds active
func (r *ChallengeRepository) ListAvailableTemplates(ctx context.Context, userID string) ([]models.ChallengeTemplate, error) {
	return r.queryTemplates(ctx,
		`SELECT `+templateColumns+` FROM challenges c
		WHERE c.is_active = ?
		AND NOT EXISTS (
			SELECT 1 FROM user_challenges uc
			WHERE uc.challenge_id = c.id AND uc.user_id = ?
			AND uc.status IN ('active', 'completed')
		)
		ORDER BY c.title`,
		true, userID)
}

// GetDaily returns the user's daily instance for date (YYYY-MM-DD), or nil
func (r *ChallengeRepository) GetDaily(ctx context.Context, userID, date string) (*models.UserChallenge, error) {
	row := r.db.QueryRowContext(ctx,
		instanceSelect+` WHERE uc.user_id = ? AND uc.assigned_date = ?`, userID, date)
	return scanInstanceRow(row)
}

// GetActive returns the user's active instance, or nil
func (r *ChallengeRepository) GetActive(ctx context.Context, userID string) (*models.UserChallenge, error) {
	row := r.db.QueryRowContext(ctx,
		instanceSelect+` WHERE uc.user_id = ? AND uc.status = ?`, userID, string(models.StatusActive))
	return scanInstanceRow(row)
}

// GetInstance returns one of the user's instances by id, or nil
func (r *ChallengeRepository) GetInstance(ctx context.Context, userID, id string) (*models.UserChallenge, error) {
	row := r.db.QueryRowContext(ctx,
		instanceSelect+` WHERE uc.id = ? AND uc.user_id = ?`, id, userID)
	return scanInstanceRow(row)
}

// HasActive reports whether the user holds any active instance
func (r *ChallengeRepository) HasActive(ctx context.Context, userID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM user_challenges WHERE user_id = ? AND status = ?`,
		userID, string(models.StatusActive),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check active challenge: %w", err)
	}
	return n > 0, nil
}

// Insert stores a new instance. Uniqueness violations are returned wrapped
// so callers can classify them with database.IsUniqueViolation.
func (r *ChallengeRepository) Insert(ctx context.Context, uc *models.UserChallenge) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_challenges
		(id, user_id, challenge_id, status, assigned_date, start_time, deadline, progress, completed_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uc.ID, uc.UserID, uc.ChallengeID, string(uc.Status), toNullString(uc.AssignedDate),
		toNullUnix(uc.StartTime), toNullUnix(uc.Deadline), uc.Progress,
		toNullUnix(uc.CompletedAt), uc.CreatedAt.Unix(),
	)
	if err != nil {
		if r.db.GetDialect().IsUniqueViolation(err) {
			return &database.DuplicateError{Constraint: "user challenge", Err: err}
		}
		return fmt.Errorf("failed to insert user challenge: %w", err)
	}
	return nil
}

// Transition moves an active instance owned by userID to a terminal status.
// It reports false when no such active instance exists.
func (r *ChallengeRepository) Transition(ctx context.Context, userID, id string, to models.ChallengeStatus, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_challenges SET status = ?, completed_at = ?
		WHERE id = ? AND user_id = ? AND status = ?`,
		string(to), at.Unix(), id, userID, string(models.StatusActive),
	)
	if err != nil {
		return false, fmt.Errorf("failed to transition user challenge: %w", err)
	}
	return affected(res)
}

// Complete marks an active instance completed with its final progress
func (r *ChallengeRepository) Complete(ctx context.Context, id string, progress float64, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_challenges SET status = ?, progress = ?, completed_at = ?
		WHERE id = ? AND status = ?`,
		string(models.StatusCompleted), progress, at.Unix(), id, string(models.StatusActive),
	)
	if err != nil {
		return false, fmt.Errorf("failed to complete user challenge: %w", err)
	}
	return affected(res)
}

// UpdateProgress stores progress on an active instance
func (r *ChallengeRepository) UpdateProgress(ctx context.Context, id string, progress float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_challenges SET progress = ? WHERE id = ? AND status = ?`,
		progress, id, string(models.StatusActive),
	)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// ExpireOverdue fails the user's active instances whose deadline is before now,
// compared in whole seconds as UserChallenge.Expired does
func (r *ChallengeRepository) ExpireOverdue(ctx context.Context, userID string, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_challenges SET status = ?, completed_at = ?
		WHERE user_id = ? AND status = ? AND deadline IS NOT NULL AND deadline < ?`,
		string(models.StatusFailed), now.Unix(), userID, string(models.StatusActive), now.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to expire challenges: %w", err)
	}
	return res.RowsAffected()
}

func (r *ChallengeRepository) queryTemplates(ctx context.Context, query string, args ...any) ([]models.ChallengeTemplate, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	templates := []models.ChallengeTemplate{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}

func scanTemplateRow(row *sql.Row) (*models.ChallengeTemplate, error) {
	t, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func scanTemplate(row rowScanner) (*models.ChallengeTemplate, error) {
	var t models.ChallengeTemplate
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.GoalType, &t.GoalValue, &t.GoalUnit, &t.IsActive)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan challenge: %w", err)
	}
	return &t, nil
}

func scanInstanceRow(row *sql.Row) (*models.UserChallenge, error) {
	var (
		uc           models.UserChallenge
		assignedDate sql.NullString
		startTime    sql.NullInt64
		deadline     sql.NullInt64
		completedAt  sql.NullInt64
		createdAt    int64
	)
	err := row.Scan(&uc.ID, &uc.UserID, &uc.ChallengeID, &uc.Status, &assignedDate,
		&startTime, &deadline, &uc.Progress, &completedAt, &createdAt,
		&uc.Title, &uc.Description, &uc.GoalType, &uc.GoalValue, &uc.GoalUnit)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user challenge: %w", err)
	}

	uc.AssignedDate = fromNullString(assignedDate)
	uc.StartTime = fromNullUnix(startTime)
	uc.Deadline = fromNullUnix(deadline)
	uc.CompletedAt = fromNullUnix(completedAt)
	uc.CreatedAt = fromUnix(createdAt)
	uc.Completed = uc.Status == models.StatusCompleted
	return &uc, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n > 0, nil
}
