package service

import (
	"context"
	"testing"
	"time"

	"github.com/Negixaab/runningbuddy/internal/database"
	"github.com/Negixaab/runningbuddy/internal/database/dbtest"
	"github.com/Negixaab/runningbuddy/internal/models"
	"github.com/Negixaab/runningbuddy/internal/repository"
)

// noon on a Wednesday
var testNow = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	db         *database.DB
	clock      *clock
	runRepo    *repository.RunRepository
	chRepo     *repository.ChallengeRepository
	progress   *ProgressService
	challenges *ChallengeService
	runs       *RunService
	streaks    *StreakService
}

// newFixture wires services over a fresh database. pick chooses among
// templates ordered by title: "30 Minute Run", "Daily 5K", "The Ten-K".
func newFixture(t *testing.T, pick func(int) int) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	c := &clock{t: testNow}

	f := &fixture{db: db, clock: c}
	f.runRepo = repository.NewRunRepository(db)
	f.chRepo = repository.NewChallengeRepository(db)
	f.progress = NewProgressService(f.runRepo)
	f.challenges = NewChallengeService(f.chRepo, f.progress, "The Ten-K",
		WithClock(c.Now), WithPicker(pick), WithTransactions(db, txChallengeStore))
	f.runs = NewRunService(f.runRepo, f.challenges, nil, 25)
	f.runs.now = c.Now
	f.streaks = NewStreakService(f.runRepo, nil)
	f.streaks.now = c.Now
	return f
}

func txChallengeStore(tx database.DBTX) ChallengeStore {
	return repository.NewChallengeRepository(tx)
}

func pickIndex(i int) func(int) int {
	return func(n int) int {
		if i >= n {
			return n - 1
		}
		return i
	}
}

func (f *fixture) template(t *testing.T, title string) *models.ChallengeTemplate {
	t.Helper()
	for _, tpl := range mustTemplates(t, f) {
		if tpl.Title == title {
			return &tpl
		}
	}
	t.Fatalf("template %q not seeded", title)
	return nil
}

func mustTemplates(t *testing.T, f *fixture) []models.ChallengeTemplate {
	t.Helper()
	all, err := f.chRepo.ListActiveTemplates(context.Background())
	if err != nil {
		t.Fatalf("list templates: %v", err)
	}
	return all
}

func (f *fixture) addRun(t *testing.T, user string, start time.Time, km float64, secs float64) *models.Run {
	t.Helper()
	run, err := f.runs.Create(context.Background(), user, models.RunInput{
		Name:            "test",
		DistanceKm:      &km,
		DurationSeconds: &secs,
		StartTime:       &start,
	})
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	return run
}
