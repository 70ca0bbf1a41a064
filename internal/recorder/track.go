package recorder

import (
	"math"
	"time"

	"github.com/Negixaab/runningbuddy/internal/models"
	"github.com/Negixaab/runningbuddy/internal/spatial"
)

// Noise filter thresholds
const (
	MaxAccuracyM       = 20.0 // fixes with a larger accuracy radius are dropped
	MaxSegmentSpeedMps = 25.0 // about 90 km/h; faster segments are GPS jumps
)

// Position is a sensor fix stamped with the time it was taken
type Position struct {
	models.Coordinate
	Timestamp time.Time
}

// Verdict is the outcome of feeding one position to a Track
type Verdict int

const (
	Anchored Verdict = iota
	Accepted
	RejectedAccuracy
	RejectedJump
)

func (v Verdict) String() string {
	switch v {
	case Anchored:
		return "anchored"
	case Accepted:
		return "accepted"
	case RejectedAccuracy:
		return "rejected_accuracy"
	case RejectedJump:
		return "rejected_jump"
	}
	return "unknown"
}

// Stats is a point-in-time view of a track
type Stats struct {
	ElapsedSeconds int64               `json:"elapsed_seconds"`
	DistanceKm     float64             `json:"distance_km"`
	SpeedKmh       float64             `json:"speed_kmh"`
	Path           []models.TrackPoint `json:"-"`
}

// Track accumulates validated distance, speed and path from position fixes.
// It is not safe for concurrent use; the Recorder serialises access.
type Track struct {
	elapsedSeconds  int64
	totalDistanceKm float64
	path            []models.TrackPoint
	lastAccepted    *Position
	currentSpeedKmh float64
}

// Add feeds one fix to the track.
// The reference fix only advances when a segment is accepted, so a single
// bad fix cannot anchor the next comparison.
func (t *Track) Add(p Position) Verdict {
	if p.Accuracy > MaxAccuracyM {
		return RejectedAccuracy
	}

	if t.lastAccepted == nil {
		anchor := p
		t.lastAccepted = &anchor
		return Anchored
	}

	segmentKm := spatial.DistanceKm(t.lastAccepted.Coordinate, p.Coordinate)
	dt := p.Timestamp.Sub(t.lastAccepted.Timestamp).Seconds()
	if dt <= 0 || segmentKm*1000/dt >= MaxSegmentSpeedMps {
		return RejectedJump
	}

	t.totalDistanceKm += segmentKm
	t.path = append(t.path, models.TrackPoint{Longitude: p.Longitude, Latitude: p.Latitude})
	if p.Speed != nil && !math.IsNaN(*p.Speed) && *p.Speed >= 0 {
		t.currentSpeedKmh = *p.Speed * 3.6
	} else {
		t.currentSpeedKmh = segmentKm * 1000 / dt * 3.6
	}
	accepted := p
	t.lastAccepted = &accepted
	return Accepted
}

// Tick advances elapsed time by one second
func (t *Track) Tick() {
	t.elapsedSeconds++
}

// Stats returns a copy of the current state
func (t *Track) Stats() Stats {
	return Stats{
		ElapsedSeconds: t.elapsedSeconds,
		DistanceKm:     t.totalDistanceKm,
		SpeedKmh:       t.currentSpeedKmh,
		Path:           append([]models.TrackPoint(nil), t.path...),
	}
}

// Trajectory returns the finished trajectory
func (t *Track) Trajectory() Trajectory {
	return Trajectory{
		DistanceKm:      t.totalDistanceKm,
		DurationSeconds: t.elapsedSeconds,
		Path:            append([]models.TrackPoint(nil), t.path...),
	}
}

// Trajectory is the result of a finished recording
type Trajectory struct {
	DistanceKm      float64
	DurationSeconds int64
	Path            []models.TrackPoint
}

// RunInput converts the trajectory to a run payload ending at endedAt.
// Distance is rounded to two decimals; the path is only kept when it forms a line.
func (tr Trajectory) RunInput(name string, endedAt time.Time) models.RunInput {
	distance := math.Round(tr.DistanceKm*100) / 100
	duration := float64(tr.DurationSeconds)
	start := endedAt.Add(-time.Duration(tr.DurationSeconds) * time.Second).UTC()

	input := models.RunInput{
		Name:            name,
		DistanceKm:      &distance,
		DurationSeconds: &duration,
		StartTime:       &start,
	}
	if len(tr.Path) >= 2 {
		input.Path = tr.Path
	}
	return input
}
