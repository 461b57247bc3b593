package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/terra-clan/math-practice/internal/models"
)

// exerciseSnapshot is an immutable exercise set. It is replaced, never mutated,
// once readers can see it.
type exerciseSnapshot struct {
	byID   map[int]*models.Exercise
	sorted []*models.Exercise // by section, then order
	nextID int
}

func emptySnapshot() *exerciseSnapshot {
	return &exerciseSnapshot{
		byID:   make(map[int]*models.Exercise),
		sorted: []*models.Exercise{},
		nextID: 1,
	}
}

// build returns a new snapshot holding the exercises of base plus exs
func (s *exerciseSnapshot) build(exs []models.NewExercise) (*exerciseSnapshot, []*models.Exercise) {
	next := &exerciseSnapshot{
		byID:   make(map[int]*models.Exercise, len(s.byID)+len(exs)),
		sorted: make([]*models.Exercise, 0, len(s.sorted)+len(exs)),
		nextID: s.nextID,
	}
	for id, ex := range s.byID {
		next.byID[id] = ex
	}
	next.sorted = append(next.sorted, s.sorted...)

	created := make([]*models.Exercise, 0, len(exs))
	for _, in := range exs {
		ex := &models.Exercise{
			ID:                next.nextID,
			SectionID:         in.SectionID,
			Topic:             in.Topic,
			Statement:         in.Statement,
			SupplementaryText: in.SupplementaryText,
			Order:             in.Order,
		}
		next.nextID++
		next.byID[ex.ID] = ex
		next.sorted = append(next.sorted, ex)
		created = append(created, ex)
	}

	sort.SliceStable(next.sorted, func(i, j int) bool {
		a, b := next.sorted[i], next.sorted[j]
		if a.SectionID != b.SectionID {
			return a.SectionID < b.SectionID
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return a.ID < b.ID
	})

	return next, created
}

// MemoryRepository implements Repository in process memory
type MemoryRepository struct {
	mu        sync.RWMutex
	exercises *exerciseSnapshot

	responses      map[int]*models.Response // by exercise id
	nextResponseID int

	settings models.Settings

	sessions      []*models.Session // creation order
	nextSessionID int

	now func() time.Time
}

// NewMemoryRepository creates an empty in-memory repository with default settings
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		exercises:      emptySnapshot(),
		responses:      make(map[int]*models.Response),
		nextResponseID: 1,
		settings:       models.DefaultSettings(),
		nextSessionID:  1,
		now:            time.Now,
	}
}

// Ping implements Repository
func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

// Close implements Repository
func (r *MemoryRepository) Close() error {
	return nil
}

// --- Exercises ---

// ListExercises returns every exercise by section, then order
func (r *MemoryRepository) ListExercises(ctx context.Context) ([]*models.Exercise, error) {
	r.mu.RLock()
	snap := r.exercises
	r.mu.RUnlock()

	return copyExercises(snap.sorted), nil
}

// ListExercisesBySection returns one section's exercises by order
func (r *MemoryRepository) ListExercisesBySection(ctx context.Context, sectionID int) ([]*models.Exercise, error) {
	r.mu.RLock()
	snap := r.exercises
	r.mu.RUnlock()

	result := make([]*models.Exercise, 0)
	for _, ex := range snap.sorted {
		if ex.SectionID == sectionID {
			cp := *ex
			result = append(result, &cp)
		}
	}
	return result, nil
}

// GetExercise returns nil when the id is unknown
func (r *MemoryRepository) GetExercise(ctx context.Context, id int) (*models.Exercise, error) {
	r.mu.RLock()
	snap := r.exercises
	r.mu.RUnlock()

	ex, ok := snap.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *ex
	return &cp, nil
}

// CreateExercise adds one exercise to the current set
func (r *MemoryRepository) CreateExercise(ctx context.Context, ex models.NewExercise) (*models.Exercise, error) {
	created, err := r.CreateExercises(ctx, []models.NewExercise{ex})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// CreateExercises adds exercises to the current set in one step
func (r *MemoryRepository) CreateExercises(ctx context.Context, exs []models.NewExercise) ([]*models.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	next, created := r.exercises.build(exs)
	r.exercises = next
	return copyExercises(created), nil
}

// ClearExercises empties the exercise set and resets the id counter
func (r *MemoryRepository) ClearExercises(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.exercises = emptySnapshot()
	return nil
}

// ReplaceExercises builds the new set aside and swaps it in under the write lock
func (r *MemoryRepository) ReplaceExercises(ctx context.Context, exs []models.NewExercise) ([]*models.Exercise, error) {
	next, created := emptySnapshot().build(exs)

	r.mu.Lock()
	r.exercises = next
	r.mu.Unlock()

	return copyExercises(created), nil
}

// --- Responses ---

// GetResponse returns nil when the exercise has no response
func (r *MemoryRepository) GetResponse(ctx context.Context, exerciseID int) (*models.Response, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resp, ok := r.responses[exerciseID]
	if !ok {
		return nil, nil
	}
	cp := *resp
	return &cp, nil
}

// UpsertResponse creates the response of an exercise or updates its content in place
func (r *MemoryRepository) UpsertResponse(ctx context.Context, exerciseID int, content string) (*models.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if existing, ok := r.responses[exerciseID]; ok {
		existing.Content = content
		existing.UpdatedAt = now
		cp := *existing
		return &cp, nil
	}

	resp := &models.Response{
		ID:         r.nextResponseID,
		ExerciseID: exerciseID,
		Content:    content,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.nextResponseID++
	r.responses[exerciseID] = resp

	cp := *resp
	return &cp, nil
}

// --- Settings ---

// GetSettings returns the singleton settings record
func (r *MemoryRepository) GetSettings(ctx context.Context) (*models.Settings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := r.settings
	return &s, nil
}

// UpdateSettings merges patch into the settings record
func (r *MemoryRepository) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	patch.Apply(&r.settings)
	s := r.settings
	return &s, nil
}

// --- Sessions ---

// GetCurrentSession returns the newest open session, or nil
func (r *MemoryRepository) GetCurrentSession(ctx context.Context) (*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := len(r.sessions) - 1; i >= 0; i-- {
		if r.sessions[i].IsOpen() {
			cp := *r.sessions[i]
			return &cp, nil
		}
	}
	return nil, nil
}

// CreateSession starts a new session
func (r *MemoryRepository) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &models.Session{
		ID:                 r.nextSessionID,
		StartTime:          r.now(),
		PomodoroCount:      req.PomodoroCount,
		ExercisesCompleted: req.ExercisesCompleted,
	}
	r.nextSessionID++
	r.sessions = append(r.sessions, s)

	cp := *s
	return &cp, nil
}

// UpdateSession merges patch into a session
func (r *MemoryRepository) UpdateSession(ctx context.Context, id int, patch models.SessionPatch) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.sessions {
		if s.ID == id {
			patch.Apply(s)
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrSessionNotFound
}

// ListOpenSessions returns sessions without an end time, oldest first
func (r *MemoryRepository) ListOpenSessions(ctx context.Context) ([]*models.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Session, 0)
	for _, s := range r.sessions {
		if s.IsOpen() {
			cp := *s
			result = append(result, &cp)
		}
	}
	return result, nil
}

func copyExercises(src []*models.Exercise) []*models.Exercise {
	result := make([]*models.Exercise, 0, len(src))
	for _, ex := range src {
		cp := *ex
		result = append(result, &cp)
	}
	return result
}
