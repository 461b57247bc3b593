package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/terra-clan/math-practice/internal/models"
	"github.com/terra-clan/math-practice/internal/storage"
)

func TestCleaner_ClosesStaleSessions(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()

	stale, err := repo.CreateSession(ctx, models.CreateSessionRequest{PomodoroCount: 3})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	c := NewCleaner(repo, time.Minute, time.Hour)
	c.now = func() time.Time { return stale.StartTime.Add(2 * time.Hour) }

	if n := c.cleanup(ctx); n != 1 {
		t.Fatalf("expected 1 session closed, got %d", n)
	}

	open, _ := repo.ListOpenSessions(ctx)
	if len(open) != 0 {
		t.Errorf("expected no open sessions, got %d", len(open))
	}

	current, _ := repo.GetCurrentSession(ctx)
	if current != nil {
		t.Errorf("expected no current session, got %+v", current)
	}
}

func TestCleaner_KeepsFreshSessions(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()

	fresh, _ := repo.CreateSession(ctx, models.CreateSessionRequest{})

	c := NewCleaner(repo, time.Minute, time.Hour)
	c.now = func() time.Time { return fresh.StartTime.Add(10 * time.Minute) }

	if n := c.cleanup(ctx); n != 0 {
		t.Errorf("expected nothing closed, got %d", n)
	}

	current, _ := repo.GetCurrentSession(ctx)
	if current == nil || current.ID != fresh.ID {
		t.Errorf("fresh session should stay current, got %+v", current)
	}
}

func TestNewCleaner_Defaults(t *testing.T) {
	c := NewCleaner(storage.NewMemoryRepository(), 0, 0)
	if c.interval != 5*time.Minute || c.maxAge != 12*time.Hour {
		t.Errorf("unexpected defaults: interval=%v maxAge=%v", c.interval, c.maxAge)
	}
}
