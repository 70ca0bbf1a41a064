package models

import "time"

// Run is a completed run owned by a single user. Runs are immutable once stored.
type Run struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Name            string       `json:"name"`
	DistanceKm      float64      `json:"distance"`
	DurationSeconds int64        `json:"duration"`
	StartTime       time.Time    `json:"start_time"`
	Path            []TrackPoint `json:"-"`
	PathGeoJSON     *LineString  `json:"path_geojson"`
	PathKm          float64      `json:"path_km,omitempty"` // length of the stored path
	CreatedAt       time.Time    `json:"created_at"`
}

// RunInput is the unvalidated payload for creating a run.
// Pointer fields distinguish "missing" from zero.
type RunInput struct {
	Name            string
	DistanceKm      *float64
	DurationSeconds *float64
	StartTime       *time.Time
	Path            []TrackPoint
}

// WeeklySummary aggregates a user's runs since the start of the current week
type WeeklySummary struct {
	WeekStart            time.Time `json:"week_start"`
	RunCount             int       `json:"run_count"`
	TotalDistanceKm      float64   `json:"total_distance_km"`
	TotalDurationSeconds int64     `json:"total_duration_seconds"`
	AvgPaceMinPerKm      float64   `json:"avg_pace_min_per_km"`
	AvgRunKm             float64   `json:"avg_run_km"`
	LongestRunKm         float64   `json:"longest_run_km"`
	GoalKm               float64   `json:"goal_km"`
	GoalPercent          float64   `json:"goal_percent"`
}
