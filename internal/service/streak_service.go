package service

import (
	"context"
	"fmt"
	"log"
	"time"
)

// ActiveDateSource lists the distinct UTC dates a user ran on, newest first
type ActiveDateSource interface {
	ActiveDates(ctx context.Context, userID string) ([]time.Time, error)
}

// StreakService computes consecutive-day streaks from run history
type StreakService struct {
	runs  ActiveDateSource
	cache StreakCache
	now   func() time.Time
}

// NewStreakService creates a new streak service
func NewStreakService(runs ActiveDateSource, cache StreakCache) *StreakService {
	if cache == nil {
		cache = NopStreakCache{}
	}
	return &StreakService{runs: runs, cache: cache, now: time.Now}
}

// Compute returns the user's current streak. Cache failures fall through
// to recomputation.
func (s *StreakService) Compute(ctx context.Context, userID string) (int, error) {
	today := DayStart(s.now())

	if streak, ok, err := s.cache.Get(ctx, userID, today); err != nil {
		log.Printf("[StreakService] cache read failed for user %s: %v", userID, err)
	} else if ok {
		return streak, nil
	}

	dates, err := s.runs.ActiveDates(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("compute streak: %w", err)
	}
	streak := ComputeFromDates(dates, today)

	if err := s.cache.Set(ctx, userID, today, streak); err != nil {
		log.Printf("[StreakService] cache write failed for user %s: %v", userID, err)
	}
	return streak, nil
}

// ComputeFromDates counts consecutive days ending at the most recent date.
// dates must be distinct UTC midnights sorted newest first. The streak is 0
// unless the most recent date is today or yesterday.
func ComputeFromDates(dates []time.Time, today time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	today = DayStart(today)
	mostRecent := DayStart(dates[0])
	if !mostRecent.Equal(today) && !mostRecent.Equal(today.AddDate(0, 0, -1)) {
		return 0
	}

	streak := 1
	for i := 0; i+1 < len(dates); i++ {
		if !DayStart(dates[i+1]).Equal(DayStart(dates[i]).AddDate(0, 0, -1)) {
			break
		}
		streak++
	}
	return streak
}
