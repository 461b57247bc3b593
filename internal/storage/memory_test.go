package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/terra-clan/math-practice/internal/models"
)

func newExercises(section, n int) []models.NewExercise {
	result := make([]models.NewExercise, 0, n)
	for i := 0; i < n; i++ {
		result = append(result, models.NewExercise{SectionID: section, Topic: "T", Order: i})
	}
	return result
}

func TestMemoryRepository_Exercises(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.CreateExercises(ctx, append(newExercises(2, 2), newExercises(1, 2)...))
	if err != nil {
		t.Fatalf("CreateExercises failed: %v", err)
	}
	if created[0].ID != 1 || created[3].ID != 4 {
		t.Errorf("unexpected ids: %d..%d", created[0].ID, created[3].ID)
	}

	all, _ := repo.ListExercises(ctx)
	if len(all) != 4 {
		t.Fatalf("expected 4 exercises, got %d", len(all))
	}
	if all[0].SectionID != 1 || all[0].Order != 0 || all[3].SectionID != 2 || all[3].Order != 1 {
		t.Errorf("exercises not sorted by section then order: %+v", all)
	}

	section, _ := repo.ListExercisesBySection(ctx, 2)
	if len(section) != 2 || section[0].Order != 0 {
		t.Errorf("unexpected section 2 exercises: %+v", section)
	}

	ex, _ := repo.GetExercise(ctx, 3)
	if ex == nil || ex.SectionID != 1 {
		t.Errorf("unexpected exercise 3: %+v", ex)
	}
	missing, _ := repo.GetExercise(ctx, 99)
	if missing != nil {
		t.Errorf("expected nil for unknown id, got %+v", missing)
	}

	// Returned values are copies
	ex.Topic = "changed"
	again, _ := repo.GetExercise(ctx, 3)
	if again.Topic != "T" {
		t.Error("mutating a returned exercise changed the store")
	}
}

func TestMemoryRepository_ClearResetsIDs(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	repo.CreateExercises(ctx, newExercises(1, 3))
	if err := repo.ClearExercises(ctx); err != nil {
		t.Fatalf("ClearExercises failed: %v", err)
	}

	all, _ := repo.ListExercises(ctx)
	if len(all) != 0 {
		t.Errorf("expected empty set after clear, got %d", len(all))
	}

	ex, _ := repo.CreateExercise(ctx, models.NewExercise{SectionID: 1})
	if ex.ID != 1 {
		t.Errorf("expected id counter reset to 1, got %d", ex.ID)
	}
}

func TestMemoryRepository_ReplaceExercises(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	repo.CreateExercises(ctx, newExercises(1, 5))
	created, err := repo.ReplaceExercises(ctx, newExercises(3, 2))
	if err != nil {
		t.Fatalf("ReplaceExercises failed: %v", err)
	}
	if created[0].ID != 1 || created[1].ID != 2 {
		t.Errorf("expected ids restarted at 1, got %d, %d", created[0].ID, created[1].ID)
	}

	all, _ := repo.ListExercises(ctx)
	if len(all) != 2 || all[0].SectionID != 3 {
		t.Errorf("unexpected set after replace: %+v", all)
	}
}

func TestMemoryRepository_ReplaceIsAtomicForReaders(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	repo.ReplaceExercises(ctx, newExercises(1, 50))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			n := 50
			if i%2 == 0 {
				n = 80
			}
			repo.ReplaceExercises(ctx, newExercises(1, n))
		}
		close(stop)
	}()

	for {
		select {
		case <-stop:
			wg.Wait()
			return
		default:
		}
		all, _ := repo.ListExercises(ctx)
		if len(all) != 50 && len(all) != 80 {
			t.Fatalf("reader observed a partial set of %d exercises", len(all))
		}
	}
}

func TestMemoryRepository_UpsertResponse(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }

	first, err := repo.UpsertResponse(ctx, 7, "borrador")
	if err != nil {
		t.Fatalf("UpsertResponse failed: %v", err)
	}

	clock = clock.Add(time.Minute)
	second, err := repo.UpsertResponse(ctx, 7, "final")
	if err != nil {
		t.Fatalf("UpsertResponse failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected same response id, got %d and %d", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Error("createdAt changed across updates")
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Error("updatedAt did not advance")
	}

	got, _ := repo.GetResponse(ctx, 7)
	if got == nil || got.Content != "final" {
		t.Errorf("unexpected stored response: %+v", got)
	}

	// No exercise 7 exists; the response is still accepted
	none, _ := repo.GetResponse(ctx, 8)
	if none != nil {
		t.Errorf("expected nil response, got %+v", none)
	}
}

func TestMemoryRepository_Settings(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	s, _ := repo.GetSettings(ctx)
	if s.PomodoroMinutes != 25 || s.MaxTimeMinutes != 10 || s.GroqAPIKey != nil || s.GroqModelID != "llama-3.1-8b-instant" {
		t.Errorf("unexpected defaults: %+v", s)
	}

	minutes := 50
	key := "gsk_test"
	updated, err := repo.UpdateSettings(ctx, models.SettingsPatch{PomodoroMinutes: &minutes, GroqAPIKey: &key})
	if err != nil {
		t.Fatalf("UpdateSettings failed: %v", err)
	}
	if updated.PomodoroMinutes != 50 || updated.GroqAPIKey == nil || *updated.GroqAPIKey != key {
		t.Errorf("patch not applied: %+v", updated)
	}
	if updated.MaxTimeMinutes != 10 || updated.CurrentSection != 1 {
		t.Errorf("unpatched fields changed: %+v", updated)
	}
}

func TestMemoryRepository_Sessions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	current, _ := repo.GetCurrentSession(ctx)
	if current != nil {
		t.Fatalf("expected no current session, got %+v", current)
	}

	first, _ := repo.CreateSession(ctx, models.CreateSessionRequest{})
	second, _ := repo.CreateSession(ctx, models.CreateSessionRequest{PomodoroCount: 1})

	current, _ = repo.GetCurrentSession(ctx)
	if current == nil || current.ID != second.ID {
		t.Fatalf("expected newest session current, got %+v", current)
	}

	end := time.Now()
	if _, err := repo.UpdateSession(ctx, second.ID, models.SessionPatch{EndTime: &end}); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}

	current, _ = repo.GetCurrentSession(ctx)
	if current == nil || current.ID != first.ID {
		t.Errorf("expected first session current after ending second, got %+v", current)
	}

	open, _ := repo.ListOpenSessions(ctx)
	if len(open) != 1 || open[0].ID != first.ID {
		t.Errorf("unexpected open sessions: %+v", open)
	}

	if _, err := repo.UpdateSession(ctx, 99, models.SessionPatch{}); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}
