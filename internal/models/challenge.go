package models

import "time"

// GoalType is what a challenge measures
type GoalType string

const (
	GoalDistance GoalType = "distance" // kilometers
	GoalDuration GoalType = "duration" // seconds
)

// Valid reports whether g is a known goal type
func (g GoalType) Valid() bool {
	return g == GoalDistance || g == GoalDuration
}

// ChallengeStatus is the lifecycle state of a user challenge.
// Every status other than active is terminal.
type ChallengeStatus string

const (
	StatusActive    ChallengeStatus = "active"
	StatusCompleted ChallengeStatus = "completed"
	StatusAbandoned ChallengeStatus = "abandoned"
	StatusFailed    ChallengeStatus = "failed"
)

// Terminal reports whether no further transition is allowed
func (s ChallengeStatus) Terminal() bool {
	return s != StatusActive
}

// ChallengeTemplate is a reusable challenge definition
type ChallengeTemplate struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	GoalType    GoalType `json:"goal_type"`
	GoalValue   float64  `json:"goal_value"`
	GoalUnit    string   `json:"goal_unit"`
	IsActive    bool     `json:"is_active"`
}

// UserChallenge is one user's attempt at a template, joined with the
// template's display and goal fields.
type UserChallenge struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	ChallengeID  string          `json:"challenge_id"`
	Status       ChallengeStatus `json:"status"`
	AssignedDate *string         `json:"assigned_date"` // YYYY-MM-DD, set for dailies only
	StartTime    *time.Time      `json:"start_time"`
	Deadline     *time.Time      `json:"deadline"`
	Progress     float64         `json:"progress"`
	CompletedAt  *time.Time      `json:"completed_at"`
	CreatedAt    time.Time       `json:"created_at"`

	Title       string   `json:"title"`
	Description string   `json:"description"`
	GoalType    GoalType `json:"goal_type"`
	GoalValue   float64  `json:"goal_value"`
	GoalUnit    string   `json:"goal_unit"`
	Completed   bool     `json:"completed"`
}

// IsDaily reports whether the instance was auto-assigned for a calendar day
func (uc *UserChallenge) IsDaily() bool {
	return uc.AssignedDate != nil
}

// Expired reports whether an active instance has passed its deadline.
// Deadlines are stored in whole seconds, so the comparison is too.
func (uc *UserChallenge) Expired(now time.Time) bool {
	if uc.Status.Terminal() || uc.Deadline == nil {
		return false
	}
	return now.Unix() > uc.Deadline.Unix()
}

// ApplyTemplate copies the template's display and goal fields
func (uc *UserChallenge) ApplyTemplate(t ChallengeTemplate) {
	uc.ChallengeID = t.ID
	uc.Title = t.Title
	uc.Description = t.Description
	uc.GoalType = t.GoalType
	uc.GoalValue = t.GoalValue
	uc.GoalUnit = t.GoalUnit
}

// Streak is the number of consecutive active days ending today or yesterday
type Streak struct {
	Streak int `json:"streak"`
}
