package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/Negixaab/runningbuddy/internal/database"
	"github.com/Negixaab/runningbuddy/internal/models"
)

// recentAssignmentDays is how far back a daily assignment excludes a template
const recentAssignmentDays = 7

// ChallengeStore is the persistence used by ChallengeService
type ChallengeStore interface {
	GetTemplate(ctx context.Context, id string) (*models.ChallengeTemplate, error)
	GetTemplateByTitle(ctx context.Context, title string) (*models.ChallengeTemplate, error)
	ListActiveTemplates(ctx context.Context) ([]models.ChallengeTemplate, error)
	ListTemplatesNotAssignedSince(ctx context.Context, userID, since string) ([]models.ChallengeTemplate, error)
	ListAvailableTemplates(ctx context.Context, userID string) ([]models.ChallengeTemplate, error)
	GetDaily(ctx context.Context, userID, date string) (*models.UserChallenge, error)
	GetActive(ctx context.Context, userID string) (*models.UserChallenge, error)
	HasActive(ctx context.Context, userID string) (bool, error)
	Insert(ctx context.Context, uc *models.UserChallenge) error
	Transition(ctx context.Context, userID, id string, to models.ChallengeStatus, at time.Time) (bool, error)
	Complete(ctx context.Context, id string, progress float64, at time.Time) (bool, error)
	UpdateProgress(ctx context.Context, id string, progress float64) error
	ExpireOverdue(ctx context.Context, userID string, now time.Time) (int64, error)
}

// ChallengeOption configures a ChallengeService
type ChallengeOption func(*ChallengeService)

// WithClock sets the time source
func WithClock(now func() time.Time) ChallengeOption {
	return func(s *ChallengeService) { s.now = now }
}

// WithTransactions runs each check-then-write sequence in one transaction on
// db, against the store newStore binds to it
func WithTransactions(db *database.DB, newStore func(database.DBTX) ChallengeStore) ChallengeOption {
	return func(s *ChallengeService) {
		s.db = db
		s.newTxStore = newStore
	}
}

// WithPicker sets how a template is chosen among n candidates
func WithPicker(pick func(n int) int) ChallengeOption {
	return func(s *ChallengeService) { s.pick = pick }
}

// ChallengeService manages the lifecycle of user challenges.
// A user holds at most one active challenge; the store's unique index on
// active instances is authoritative and the HasActive check only gives a
// faster, friendlier error.
type ChallengeService struct {
	store         ChallengeStore
	progress      *ProgressService
	fallbackTitle string
	now           func() time.Time
	pick          func(n int) int

	db         *database.DB
	newTxStore func(database.DBTX) ChallengeStore
}

// NewChallengeService creates a new challenge service
func NewChallengeService(store ChallengeStore, progress *ProgressService, fallbackTitle string, opts ...ChallengeOption) *ChallengeService {
	s := &ChallengeService{
		store:         store,
		progress:      progress,
		fallbackTitle: fallbackTitle,
		now:           time.Now,
		pick:          rand.Intn,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetOrAssignDaily returns today's daily challenge, assigning one if needed
func (s *ChallengeService) GetOrAssignDaily(ctx context.Context, userID string) (*models.UserChallenge, error) {
	const op = "get daily challenge"
	now := s.now().UTC()
	today := DateKey(now)

	uc, err := s.store.GetDaily(ctx, userID, today)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if uc == nil {
		uc, err = s.assignDaily(ctx, userID, now)
		if err != nil {
			return nil, err
		}
	}

	return s.withProgress(ctx, uc, now)
}

func (s *ChallengeService) assignDaily(ctx context.Context, userID string, now time.Time) (*models.UserChallenge, error) {
	const op = "assign daily challenge"

	today := DateKey(now)
	deadline := EndOfDay(now)
	uc := &models.UserChallenge{
		ID:           uuid.NewString(),
		UserID:       userID,
		Status:       models.StatusActive,
		AssignedDate: &today,
		Deadline:     &deadline,
		CreatedAt:    now,
	}

	err := s.atomically(ctx, func(store ChallengeStore) error {
		if err := s.expireOverdue(ctx, store, userID, now); err != nil {
			return err
		}
		tpl, err := s.selectTemplate(ctx, store, userID, now)
		if err != nil {
			return err
		}
		uc.ApplyTemplate(*tpl)
		return store.Insert(ctx, uc)
	})
	if database.IsUniqueViolation(err) {
		// Either a concurrent request assigned today's daily first, or another
		// challenge holds the single active slot
		existing, getErr := s.store.GetDaily(ctx, userID, today)
		if getErr != nil {
			return nil, fmt.Errorf("%s: %w", op, getErr)
		}
		if existing == nil {
			return nil, conflictError(op, "another challenge is already active", err)
		}
		return existing, nil
	}
	var kind *Error
	if errors.As(err, &kind) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Printf("[ChallengeService] assigned daily %q to user %s for %s", uc.Title, userID, today)
	return uc, nil
}

// selectTemplate picks a template not assigned in the last week, then the
// fallback template, then any active template
func (s *ChallengeService) selectTemplate(ctx context.Context, store ChallengeStore, userID string, now time.Time) (*models.ChallengeTemplate, error) {
	const op = "select challenge template"

	since := DateKey(now.AddDate(0, 0, -recentAssignmentDays))
	eligible, err := store.ListTemplatesNotAssignedSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(eligible) > 0 {
		return &eligible[s.pick(len(eligible))], nil
	}

	fallback, err := store.GetTemplateByTitle(ctx, s.fallbackTitle)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if fallback != nil {
		return fallback, nil
	}

	all, err := store.ListActiveTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(all) > 0 {
		return &all[s.pick(len(all))], nil
	}

	log.Printf("[ChallengeService] CONFIGURATION ERROR: no active challenge templates exist (fallback %q missing)", s.fallbackTitle)
	return nil, configurationError(op, "no challenge templates are configured")
}

// StartTimed starts a timed challenge from a template
func (s *ChallengeService) StartTimed(ctx context.Context, userID, templateID string, deadline time.Time) (*models.UserChallenge, error) {
	const op = "start challenge"
	now := s.now().UTC()

	if deadline.IsZero() {
		return nil, validationError(op, "deadline is required")
	}
	if !deadline.After(now) {
		return nil, validationError(op, "deadline must be in the future")
	}

	tpl, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if tpl == nil || !tpl.IsActive {
		return nil, notFoundError(op, "challenge not found")
	}

	start := now.Truncate(time.Second)
	deadline = deadline.UTC().Truncate(time.Second)
	uc := &models.UserChallenge{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    models.StatusActive,
		StartTime: &start,
		Deadline:  &deadline,
		CreatedAt: now,
	}
	uc.ApplyTemplate(*tpl)

	err = s.atomically(ctx, func(store ChallengeStore) error {
		if err := s.expireOverdue(ctx, store, userID, now); err != nil {
			return err
		}
		active, err := store.HasActive(ctx, userID)
		if err != nil {
			return err
		}
		if active {
			return conflictError(op, "a challenge is already active", nil)
		}
		return store.Insert(ctx, uc)
	})
	if database.IsUniqueViolation(err) {
		return nil, conflictError(op, "a challenge is already active", err)
	}
	var kind *Error
	if errors.As(err, &kind) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Printf("[ChallengeService] user %s started %q until %s", userID, tpl.Title, deadline.Format(time.RFC3339))
	return uc, nil
}

// GetActive returns the user's active challenge, or nil. An active challenge
// past its deadline is marked failed and nil is returned.
func (s *ChallengeService) GetActive(ctx context.Context, userID string) (*models.UserChallenge, error) {
	const op = "get active challenge"
	now := s.now().UTC()

	uc, err := s.store.GetActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if uc == nil {
		return nil, nil
	}

	if uc.Expired(now) {
		if _, err := s.store.Transition(ctx, userID, uc.ID, models.StatusFailed, now); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Printf("[ChallengeService] challenge %s for user %s expired", uc.ID, userID)
		return nil, nil
	}

	return s.withProgress(ctx, uc, now)
}

// End finishes the user's active challenge as completed or abandoned
func (s *ChallengeService) End(ctx context.Context, userID, instanceID string, outcome models.ChallengeStatus) error {
	const op = "end challenge"
	now := s.now().UTC()

	if outcome != models.StatusCompleted && outcome != models.StatusAbandoned {
		return validationError(op, "status must be completed or abandoned")
	}

	if err := s.expireOverdue(ctx, s.store, userID, now); err != nil {
		return err
	}

	ok, err := s.store.Transition(ctx, userID, instanceID, outcome, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return notFoundError(op, "no active challenge with that id")
	}
	return nil
}

// EvaluateDaily recomputes today's progress on the user's active daily
// challenge and completes it once the goal is reached
func (s *ChallengeService) EvaluateDaily(ctx context.Context, userID string) error {
	const op = "evaluate daily challenge"
	now := s.now().UTC()

	uc, err := s.store.GetDaily(ctx, userID, DateKey(now))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if uc == nil || uc.Status != models.StatusActive {
		return nil
	}

	progress, err := s.progress.Compute(ctx, userID, uc.GoalType, TodayWindow(now))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if progress >= uc.GoalValue {
		if _, err := s.store.Complete(ctx, uc.ID, uc.GoalValue, now); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Printf("[ChallengeService] user %s completed daily %q", userID, uc.Title)
		return nil
	}

	if err := s.store.UpdateProgress(ctx, uc.ID, progress); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListAvailable returns templates the user has neither completed nor holds active
func (s *ChallengeService) ListAvailable(ctx context.Context, userID string) ([]models.ChallengeTemplate, error) {
	templates, err := s.store.ListAvailableTemplates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	return templates, nil
}

func (s *ChallengeService) expireOverdue(ctx context.Context, store ChallengeStore, userID string, now time.Time) error {
	n, err := store.ExpireOverdue(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("expire challenges: %w", err)
	}
	if n > 0 {
		log.Printf("[ChallengeService] marked %d overdue challenge(s) failed for user %s", n, userID)
	}
	return nil
}

// atomically runs fn against a store bound to one transaction, or against the
// plain store when no transactions are configured. Inside fn only the given
// store may be used: SQLite has a single connection.
func (s *ChallengeService) atomically(ctx context.Context, fn func(ChallengeStore) error) error {
	if s.db == nil || s.newTxStore == nil {
		return fn(s.store)
	}
	return s.db.Transaction(ctx, func(tx *database.Tx) error {
		return fn(s.newTxStore(tx))
	})
}

// withProgress attaches display progress. Active instances are recomputed
// from runs; terminal instances keep their stored progress.
func (s *ChallengeService) withProgress(ctx context.Context, uc *models.UserChallenge, now time.Time) (*models.UserChallenge, error) {
	if !uc.Status.Terminal() {
		window := TodayWindow(now)
		if uc.IsDaily() {
			if day, err := time.Parse(time.DateOnly, *uc.AssignedDate); err == nil {
				window = TodayWindow(day)
			}
		} else if uc.StartTime != nil {
			window = SinceWindow(*uc.StartTime, now)
		}

		progress, err := s.progress.Compute(ctx, uc.UserID, uc.GoalType, window)
		if err != nil {
			return nil, err
		}
		uc.Progress = progress
	}

	uc.Progress = Clamp(uc.Progress, uc.GoalValue)
	uc.Completed = uc.Status == models.StatusCompleted
	return uc, nil
}
