package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Negixaab/runningbuddy/internal/database"
	"github.com/Negixaab/runningbuddy/internal/database/dbtest"
	"github.com/Negixaab/runningbuddy/internal/models"
)

const tenKID = "e4eaaaf2-d142-11e1-b3e4-080027620cdd"

func daily(id, user, date, template string) *models.UserChallenge {
	deadline := day.Add(24*time.Hour - time.Second)
	return &models.UserChallenge{
		ID:           id,
		UserID:       user,
		ChallengeID:  template,
		Status:       models.StatusActive,
		AssignedDate: &date,
		Deadline:     &deadline,
		CreatedAt:    day,
	}
}

func TestChallengeRepositoryTemplates(t *testing.T) {
	repo := NewChallengeRepository(dbtest.Open(t))
	ctx := context.Background()

	all, err := repo.ListActiveTemplates(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 seeded templates, got %d", len(all))
	}

	tenK, err := repo.GetTemplateByTitle(ctx, "The Ten-K")
	if err != nil || tenK == nil {
		t.Fatalf("fallback template missing: %v", err)
	}
	if tenK.GoalType != models.GoalDistance || tenK.GoalValue != 10 || !tenK.IsActive {
		t.Fatalf("unexpected template %+v", tenK)
	}

	missing, err := repo.GetTemplate(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing template, got %v, %v", missing, err)
	}
}

func TestChallengeRepositoryNotAssignedSince(t *testing.T) {
	repo := NewChallengeRepository(dbtest.Open(t))
	ctx := context.Background()

	old := daily("old", "u1", "2026-05-10", tenKID)
	old.Status = models.StatusCompleted
	if err := repo.Insert(ctx, old); err != nil {
		t.Fatalf("insert: %v", err)
	}

	eligible, err := repo.ListTemplatesNotAssignedSince(ctx, "u1", "2026-05-13")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(eligible) != 3 {
		t.Fatalf("assignment older than the window should not exclude, got %d", len(eligible))
	}

	eligible, err = repo.ListTemplatesNotAssignedSince(ctx, "u1", "2026-05-09")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(eligible) != 2 {
		t.Fatalf("expected 2 eligible templates, got %d", len(eligible))
	}
	for _, tpl := range eligible {
		if tpl.ID == tenKID {
			t.Fatal("recently assigned template was not excluded")
		}
	}
}

func TestChallengeRepositoryLifecycle(t *testing.T) {
	repo := NewChallengeRepository(dbtest.Open(t))
	ctx := context.Background()

	uc := daily("d1", "u1", "2026-05-20", tenKID)
	if err := repo.Insert(ctx, uc); err != nil {
		t.Fatalf("insert: %v", err)
	}

	dup := daily("d2", "u1", "2026-05-20", tenKID)
	dup.Status = models.StatusCompleted
	if err := repo.Insert(ctx, dup); !database.IsUniqueViolation(err) {
		t.Fatalf("second daily for the same date: got %v, want unique violation", err)
	}

	active, err := repo.GetActive(ctx, "u1")
	if err != nil || active == nil {
		t.Fatalf("get active: %v, %v", active, err)
	}
	if active.Title != "The Ten-K" || active.GoalValue != 10 || !active.IsDaily() {
		t.Fatalf("template fields not joined: %+v", active)
	}

	if err := repo.UpdateProgress(ctx, "d1", 4.5); err != nil {
		t.Fatalf("update progress: %v", err)
	}

	ok, err := repo.Transition(ctx, "someone-else", "d1", models.StatusAbandoned, day)
	if err != nil || ok {
		t.Fatalf("transition by another user must not match: %v, %v", ok, err)
	}

	ok, err = repo.Complete(ctx, "d1", 10, day.Add(time.Hour))
	if err != nil || !ok {
		t.Fatalf("complete: %v, %v", ok, err)
	}

	got, err := repo.GetDaily(ctx, "u1", "2026-05-20")
	if err != nil {
		t.Fatalf("get daily: %v", err)
	}
	if got.Status != models.StatusCompleted || !got.Completed || got.Progress != 10 || got.CompletedAt == nil {
		t.Fatalf("unexpected completed instance %+v", got)
	}

	// terminal instances cannot transition again
	ok, err = repo.Transition(ctx, "u1", "d1", models.StatusAbandoned, day)
	if err != nil || ok {
		t.Fatalf("terminal transition: %v, %v", ok, err)
	}

	has, err := repo.HasActive(ctx, "u1")
	if err != nil || has {
		t.Fatalf("expected no active instance: %v, %v", has, err)
	}
}

func TestChallengeRepositoryExpireOverdue(t *testing.T) {
	repo := NewChallengeRepository(dbtest.Open(t))
	ctx := context.Background()

	deadline := day.Add(time.Hour)
	uc := &models.UserChallenge{
		ID: "t1", UserID: "u1", ChallengeID: tenKID, Status: models.StatusActive,
		StartTime: &day, Deadline: &deadline, CreatedAt: day,
	}
	if err := repo.Insert(ctx, uc); err != nil {
		t.Fatalf("insert: %v", err)
	}

	n, err := repo.ExpireOverdue(ctx, "u1", deadline)
	if err != nil || n != 0 {
		t.Fatalf("not yet overdue at the deadline: %d, %v", n, err)
	}

	n, err = repo.ExpireOverdue(ctx, "u1", deadline.Add(500*time.Millisecond))
	if err != nil || n != 0 {
		t.Fatalf("not yet overdue within the deadline second: %d, %v", n, err)
	}

	n, err = repo.ExpireOverdue(ctx, "u1", deadline.Add(time.Second))
	if err != nil || n != 1 {
		t.Fatalf("expected one expiry: %d, %v", n, err)
	}

	got, err := repo.GetInstance(ctx, "u1", "t1")
	if err != nil {
		t.Fatalf("get instance: %v", err)
	}
	if got.Status != models.StatusFailed || got.CompletedAt == nil {
		t.Fatalf("unexpected expired instance %+v", got)
	}
}

func TestChallengeRepositoryAvailable(t *testing.T) {
	repo := NewChallengeRepository(dbtest.Open(t))
	ctx := context.Background()

	uc := daily("d1", "u1", "2026-05-20", tenKID)
	if err := repo.Insert(ctx, uc); err != nil {
		t.Fatalf("insert: %v", err)
	}

	available, err := repo.ListAvailableTemplates(ctx, "u1")
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if len(available) != 2 {
		t.Fatalf("expected 2 available templates, got %d", len(available))
	}

	if _, err := repo.Transition(ctx, "u1", "d1", models.StatusAbandoned, day); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	available, err = repo.ListAvailableTemplates(ctx, "u1")
	if err != nil || len(available) != 3 {
		t.Fatalf("abandoned templates are available again: %d, %v", len(available), err)
	}
}
