package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Negixaab/runningbuddy/internal/models"
)

// RunTotals sums run metrics over a time window
type RunTotals interface {
	SumInWindow(ctx context.Context, userID string, goal models.GoalType, start, end time.Time) (float64, error)
}

// Window is the half-open interval [Start, End)
type Window struct {
	Start time.Time
	End   time.Time
}

// TodayWindow is the UTC calendar day containing now
func TodayWindow(now time.Time) Window {
	start := DayStart(now)
	return Window{Start: start, End: start.Add(24 * time.Hour)}
}

// SinceWindow covers start up to and including now's second
func SinceWindow(start, now time.Time) Window {
	return Window{Start: start, End: now.Truncate(time.Second).Add(time.Second)}
}

// ProgressService computes challenge progress from runs
type ProgressService struct {
	runs RunTotals
}

// NewProgressService creates a new progress service
func NewProgressService(runs RunTotals) *ProgressService {
	return &ProgressService{runs: runs}
}

// Compute returns the raw sum of distance (km) or duration (seconds) over the
// user's runs starting inside w. The result may exceed the goal.
func (s *ProgressService) Compute(ctx context.Context, userID string, goal models.GoalType, w Window) (float64, error) {
	if !goal.Valid() {
		return 0, validationError("compute progress", "unknown goal type %q", goal)
	}
	total, err := s.runs.SumInWindow(ctx, userID, goal, w.Start, w.End)
	if err != nil {
		return 0, fmt.Errorf("failed to compute progress: %w", err)
	}
	return total, nil
}

// Clamp limits progress to [0, goal] for display
func Clamp(progress, goal float64) float64 {
	return math.Max(0, math.Min(progress, goal))
}
