package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Negixaab/runningbuddy/internal/models"
	"github.com/Negixaab/runningbuddy/internal/spatial"
	"github.com/Negixaab/runningbuddy/internal/stats"
)

const defaultRunName = "Run"

// RunStore is the persistence used by RunService
type RunStore interface {
	Create(ctx context.Context, run *models.Run) error
	ListByUser(ctx context.Context, userID string) ([]models.Run, error)
	ListInWindow(ctx context.Context, userID string, start, end time.Time) ([]models.Run, error)
}

// ChallengeEvaluator re-evaluates challenge progress after a run is stored
type ChallengeEvaluator interface {
	EvaluateDaily(ctx context.Context, userID string) error
}

// RunService handles business logic for runs
type RunService struct {
	runs         RunStore
	evaluator    ChallengeEvaluator
	streaks      StreakCache
	weeklyGoalKm float64
	now          func() time.Time
}

// NewRunService creates a new run service
func NewRunService(runs RunStore, evaluator ChallengeEvaluator, streaks StreakCache, weeklyGoalKm float64) *RunService {
	if streaks == nil {
		streaks = NopStreakCache{}
	}
	return &RunService{
		runs:         runs,
		evaluator:    evaluator,
		streaks:      streaks,
		weeklyGoalKm: weeklyGoalKm,
		now:          time.Now,
	}
}

// Create validates and stores a run, then attempts exactly one challenge
// re-evaluation. A failed re-evaluation is logged and does not fail the write.
func (s *RunService) Create(ctx context.Context, userID string, in models.RunInput) (*models.Run, error) {
	const op = "create run"

	if userID == "" {
		return nil, validationError(op, "user is required")
	}
	if in.DurationSeconds == nil || !finite(*in.DurationSeconds) {
		return nil, validationError(op, "duration must be a number")
	}
	duration := int64(math.Round(*in.DurationSeconds))
	if duration <= 0 {
		return nil, validationError(op, "duration must be greater than 0")
	}
	if in.DistanceKm == nil || !finite(*in.DistanceKm) {
		return nil, validationError(op, "distance must be a number")
	}
	if *in.DistanceKm < 0 {
		return nil, validationError(op, "distance must not be negative")
	}
	if in.StartTime == nil || in.StartTime.IsZero() {
		return nil, validationError(op, "start_time is required")
	}

	// Re-encode the path so what is stored is the server's own geometry
	var path []models.TrackPoint
	if len(in.Path) > 0 {
		points, err := spatial.DecodeLineString(spatial.EncodeLineString(in.Path))
		if err != nil {
			return nil, validationError(op, "invalid path: %v", err)
		}
		path = points
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = defaultRunName
	}

	run := &models.Run{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            name,
		DistanceKm:      *in.DistanceKm,
		DurationSeconds: duration,
		StartTime:       in.StartTime.UTC().Truncate(time.Second),
		Path:            path,
		CreatedAt:       s.now().UTC().Truncate(time.Second),
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.streaks.Invalidate(ctx, userID, s.now()); err != nil {
		log.Printf("[RunService] failed to invalidate streak cache for user %s: %v", userID, err)
	}
	if s.evaluator != nil {
		if err := s.evaluator.EvaluateDaily(ctx, userID); err != nil {
			log.Printf("[RunService] challenge re-evaluation failed for user %s after run %s: %v", userID, run.ID, err)
		}
	}

	decorate(run)
	return run, nil
}

// List returns the user's runs, newest first
func (s *RunService) List(ctx context.Context, userID string) ([]models.Run, error) {
	runs, err := s.runs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	for i := range runs {
		decorate(&runs[i])
	}
	return runs, nil
}

// WeeklySummary aggregates the user's runs since Sunday (UTC)
func (s *RunService) WeeklySummary(ctx context.Context, userID string) (*models.WeeklySummary, error) {
	start := WeekStart(s.now())
	runs, err := s.runs.ListInWindow(ctx, userID, start, start.AddDate(0, 0, 7))
	if err != nil {
		return nil, fmt.Errorf("weekly summary: %w", err)
	}

	distances := make([]float64, len(runs))
	durations := make([]int64, len(runs))
	for i, r := range runs {
		distances[i] = r.DistanceKm
		durations[i] = r.DurationSeconds
	}

	summary := &models.WeeklySummary{
		WeekStart:            start,
		RunCount:             len(runs),
		TotalDistanceKm:      stats.Sum(distances),
		TotalDurationSeconds: stats.Sum(durations),
		AvgRunKm:             stats.Mean(distances),
		LongestRunKm:         stats.Max(distances),
		GoalKm:               s.weeklyGoalKm,
	}
	if summary.TotalDistanceKm > 0 {
		summary.AvgPaceMinPerKm = float64(summary.TotalDurationSeconds) / 60 / summary.TotalDistanceKm
	}
	summary.GoalPercent = stats.Percent(summary.TotalDistanceKm, s.weeklyGoalKm)
	return summary, nil
}

// decorate fills the outbound path representation
func decorate(run *models.Run) {
	run.PathGeoJSON = spatial.EncodeLineString(run.Path)
	run.PathKm = spatial.PathLengthKm(run.Path)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
