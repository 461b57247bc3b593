package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/math-practice/internal/models"
)

// SessionStore is the part of the repository the cleaner needs
type SessionStore interface {
	ListOpenSessions(ctx context.Context) ([]*models.Session, error)
	UpdateSession(ctx context.Context, id int, patch models.SessionPatch) (*models.Session, error)
}

// Cleaner handles periodic closing of abandoned study sessions
type Cleaner struct {
	store    SessionStore
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
}

// NewCleaner creates a new cleanup worker
func NewCleaner(store SessionStore, interval, maxAge time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if maxAge <= 0 {
		maxAge = 12 * time.Hour
	}

	return &Cleaner{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval, "session_max_age", c.maxAge)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

// cleanup closes open sessions older than maxAge. It returns how many were closed.
func (c *Cleaner) cleanup(ctx context.Context) int {
	slog.Debug("running cleanup cycle")

	open, err := c.store.ListOpenSessions(ctx)
	if err != nil {
		slog.Error("failed to list open sessions", "error", err)
		return 0
	}

	now := c.now()
	closed := 0
	for _, s := range open {
		if s.Age(now) < c.maxAge {
			continue
		}

		end := s.StartTime.Add(c.maxAge)
		if _, err := c.store.UpdateSession(ctx, s.ID, models.SessionPatch{EndTime: &end}); err != nil {
			slog.Error("failed to close stale session",
				"error", err,
				"id", s.ID,
			)
			continue
		}

		slog.Info("stale session closed",
			"id", s.ID,
			"started_at", s.StartTime,
			"pomodoros", s.PomodoroCount,
		)
		closed++
	}

	if closed == 0 {
		slog.Debug("no stale sessions found")
	}
	return closed
}
