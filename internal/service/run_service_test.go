package service

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/Negixaab/runningbuddy/internal/models"
)

type countingEvaluator struct {
	calls int
	err   error
}

func (e *countingEvaluator) EvaluateDaily(context.Context, string) error {
	e.calls++
	return e.err
}

func ptr[T any](v T) *T { return &v }

func TestRunCreateValidation(t *testing.T) {
	f := newFixture(t, pickIndex(0))
	start := testNow.Add(-time.Hour)
	valid := func() models.RunInput {
		return models.RunInput{
			Name:            "Lunch",
			DistanceKm:      ptr(5.0),
			DurationSeconds: ptr(1500.0),
			StartTime:       &start,
		}
	}

	tests := []struct {
		name   string
		mutate func(*models.RunInput)
	}{
		{"missing duration", func(in *models.RunInput) { in.DurationSeconds = nil }},
		{"zero duration", func(in *models.RunInput) { in.DurationSeconds = ptr(0.0) }},
		{"negative duration", func(in *models.RunInput) { in.DurationSeconds = ptr(-30.0) }},
		{"duration rounds to zero", func(in *models.RunInput) { in.DurationSeconds = ptr(0.4) }},
		{"duration not a number", func(in *models.RunInput) { in.DurationSeconds = ptr(math.NaN()) }},
		{"missing distance", func(in *models.RunInput) { in.DistanceKm = nil }},
		{"negative distance", func(in *models.RunInput) { in.DistanceKm = ptr(-1.0) }},
		{"infinite distance", func(in *models.RunInput) { in.DistanceKm = ptr(math.Inf(1)) }},
		{"missing start time", func(in *models.RunInput) { in.StartTime = nil }},
		{"single point path", func(in *models.RunInput) { in.Path = []models.TrackPoint{{Longitude: 1, Latitude: 1}} }},
		{"path out of range", func(in *models.RunInput) {
			in.Path = []models.TrackPoint{{Longitude: 1, Latitude: 1}, {Longitude: 200, Latitude: 1}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := f.runs.Create(context.Background(), "u1", in)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("got %v, want validation error", err)
			}
		})
	}

	runs, err := f.runs.List(context.Background(), "u1")
	if err != nil || len(runs) != 0 {
		t.Fatalf("rejected input was stored: %v, %v", runs, err)
	}
}

func TestRunCreateStoresAndDecorates(t *testing.T) {
	f := newFixture(t, pickIndex(0))
	start := testNow.Add(-time.Hour)
	path := []models.TrackPoint{{Longitude: -0.12, Latitude: 51.5}, {Longitude: -0.12, Latitude: 51.51}}

	run, err := f.runs.Create(context.Background(), "u1", models.RunInput{
		Name:            "   ",
		DistanceKm:      ptr(1.11),
		DurationSeconds: ptr(420.6),
		StartTime:       &start,
		Path:            path,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if run.Name != "Run" {
		t.Fatalf("blank name should default, got %q", run.Name)
	}
	if run.DurationSeconds != 421 {
		t.Fatalf("duration = %d, want 421", run.DurationSeconds)
	}
	if run.PathGeoJSON == nil || run.PathGeoJSON.Type != "LineString" {
		t.Fatalf("missing recomputed geometry: %+v", run.PathGeoJSON)
	}
	if !reflect.DeepEqual(run.PathGeoJSON.Coordinates, [][]float64{{-0.12, 51.5}, {-0.12, 51.51}}) {
		t.Fatalf("coordinates = %v", run.PathGeoJSON.Coordinates)
	}
	if math.Abs(run.PathKm-1.112) > 0.001 {
		t.Fatalf("path length = %v", run.PathKm)
	}
}

func TestRunCreateEvaluatesOnceAndSwallowsFailure(t *testing.T) {
	f := newFixture(t, pickIndex(0))
	eval := &countingEvaluator{err: errors.New("challenge store down")}
	svc := NewRunService(f.runRepo, eval, nil, 25)
	svc.now = f.clock.Now
	start := testNow

	run, err := svc.Create(context.Background(), "u1", models.RunInput{
		DistanceKm:      ptr(2.0),
		DurationSeconds: ptr(600.0),
		StartTime:       &start,
	})
	if err != nil {
		t.Fatalf("run write must succeed despite evaluation failure: %v", err)
	}
	if eval.calls != 1 {
		t.Fatalf("evaluator called %d times, want 1", eval.calls)
	}

	runs, err := svc.List(context.Background(), "u1")
	if err != nil || len(runs) != 1 || runs[0].ID != run.ID {
		t.Fatalf("run not stored: %v, %v", runs, err)
	}
}

func TestRunListIsIdempotent(t *testing.T) {
	f := newFixture(t, pickIndex(0))
	day := DayStart(testNow)

	f.addRun(t, "u1", day.Add(6*time.Hour), 3, 900)
	f.addRun(t, "u1", day.Add(-30*time.Hour), 10, 3600)
	f.addRun(t, "u1", day.Add(9*time.Hour), 5, 1500)

	first, err := f.runs.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	second, err := f.runs.List(context.Background(), "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatal("two listings without writes differ")
	}
	for i := 1; i < len(first); i++ {
		if first[i].StartTime.After(first[i-1].StartTime) {
			t.Fatalf("runs not newest first: %v then %v", first[i-1].StartTime, first[i].StartTime)
		}
	}
}

func TestWeeklySummary(t *testing.T) {
	f := newFixture(t, pickIndex(0))
	ctx := context.Background()

	// testNow is a Wednesday; the week starts on Sunday 2026-05-17
	sunday := time.Date(2026, 5, 17, 0, 0, 0, 0, time.UTC)
	f.addRun(t, "u1", sunday.Add(-time.Hour), 20, 7200)
	f.addRun(t, "u1", sunday.Add(8*time.Hour), 5, 1500)
	f.addRun(t, "u1", sunday.Add(32*time.Hour), 7.5, 2700)

	s, err := f.runs.WeeklySummary(ctx, "u1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !s.WeekStart.Equal(sunday) {
		t.Fatalf("week start = %v, want %v", s.WeekStart, sunday)
	}
	if s.RunCount != 2 || s.TotalDistanceKm != 12.5 || s.TotalDurationSeconds != 4200 {
		t.Fatalf("unexpected totals %+v", s)
	}
	if s.LongestRunKm != 7.5 || s.AvgRunKm != 6.25 {
		t.Fatalf("unexpected per-run stats %+v", s)
	}
	if s.AvgPaceMinPerKm != 5.6 {
		t.Fatalf("pace = %v, want 5.6", s.AvgPaceMinPerKm)
	}
	if s.GoalKm != 25 || s.GoalPercent != 50 {
		t.Fatalf("goal = %v (%v%%), want 25 (50%%)", s.GoalKm, s.GoalPercent)
	}
}
