// Package practice coordinates section files, the exercise store, the domain
// classifier and AI feedback behind one API used by the HTTP layer.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/terra-clan/math-practice/internal/bkt"
	"github.com/terra-clan/math-practice/internal/exercises"
	"github.com/terra-clan/math-practice/internal/feedback"
	"github.com/terra-clan/math-practice/internal/models"
	"github.com/terra-clan/math-practice/internal/sections"
	"github.com/terra-clan/math-practice/internal/storage"
)

var ErrExerciseNotFound = errors.New("exercise not found")

// Options holds the fallbacks used when neither the request nor the settings
// provide AI credentials
type Options struct {
	DefaultAPIKey string
	DefaultModel  string
}

// ReloadResult describes one exercise set generation
type ReloadResult struct {
	Generation string    `json:"generation"`
	Exercises  int       `json:"exercises"`
	Defaults   bool      `json:"defaults"`
	LoadedAt   time.Time `json:"loadedAt"`
}

// Manager implements the practice operations
type Manager struct {
	loader     *sections.Loader
	repo       storage.Repository
	classifier *bkt.Classifier
	feedback   *feedback.Service
	opts       Options

	reloads singleflight.Group
	// one rebuild at a time, so a later rebuild always lands last
	rebuild sync.Mutex

	mu   sync.RWMutex
	last *ReloadResult
}

// NewManager creates a new Manager
func NewManager(
	loader *sections.Loader,
	repo storage.Repository,
	classifier *bkt.Classifier,
	feedbackSvc *feedback.Service,
	opts Options,
) *Manager {
	if classifier == nil {
		classifier = bkt.NewClassifier(nil)
	}
	if opts.DefaultModel == "" {
		opts.DefaultModel = models.DefaultGroqModelID
	}

	return &Manager{
		loader:     loader,
		repo:       repo,
		classifier: classifier,
		feedback:   feedbackSvc,
		opts:       opts,
	}
}

// reloadTimeout bounds a rebuild detached from the caller's request
const reloadTimeout = 30 * time.Second

const reloadKey = "reload"

// Reload rebuilds the exercise set from the section files. Concurrent calls
// share one rebuild. A loader failure keeps the current set.
func (m *Manager) Reload(ctx context.Context) (*ReloadResult, error) {
	return m.doReload(ctx)
}

// reloadAfterWrite starts a rebuild that lists the folder after the caller's
// file change. A rebuild already in flight may predate the change, so it is
// not joined.
func (m *Manager) reloadAfterWrite(ctx context.Context) (*ReloadResult, error) {
	m.reloads.Forget(reloadKey)
	return m.doReload(ctx)
}

func (m *Manager) doReload(ctx context.Context) (*ReloadResult, error) {
	// The rebuild is shared, so it must not die with the first caller's request
	rebuildCtx := context.WithoutCancel(ctx)

	v, err, shared := m.reloads.Do(reloadKey, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(rebuildCtx, reloadTimeout)
		defer cancel()

		m.rebuild.Lock()
		defer m.rebuild.Unlock()
		return m.reload(ctx)
	})
	if err != nil {
		return nil, err
	}

	if shared {
		slog.Debug("reload shared with concurrent caller")
	}
	result := *v.(*ReloadResult)
	return &result, nil
}

func (m *Manager) reload(ctx context.Context) (*ReloadResult, error) {
	generation := uuid.NewString()
	start := time.Now()

	raw, err := m.loader.Load()
	if err != nil {
		slog.Error("failed to load section files, keeping current exercises",
			"generation", generation,
			"error", err,
		)
		return nil, fmt.Errorf("failed to load section files: %w", err)
	}

	processed := exercises.Process(raw)
	defaults := len(processed) == 0
	if defaults {
		processed = exercises.DefaultExercises()
	}

	created, err := m.repo.ReplaceExercises(ctx, processed)
	if err != nil {
		return nil, fmt.Errorf("failed to replace exercises: %w", err)
	}

	result := &ReloadResult{
		Generation: generation,
		Exercises:  len(created),
		Defaults:   defaults,
		LoadedAt:   time.Now(),
	}

	m.mu.Lock()
	m.last = result
	m.mu.Unlock()

	slog.Info("exercises reloaded",
		"generation", generation,
		"exercises", len(created),
		"defaults", defaults,
		"duration", time.Since(start),
	)

	return result, nil
}

// LastReload returns the most recent successful reload, or nil
func (m *Manager) LastReload() *ReloadResult {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.last == nil {
		return nil
	}
	result := *m.last
	return &result
}

// Exercises reloads from disk and returns every exercise.
// A failed reload is logged and the current set is returned.
func (m *Manager) Exercises(ctx context.Context) ([]*models.Exercise, error) {
	if _, err := m.Reload(ctx); err != nil {
		slog.Warn("reload before listing failed", "error", err)
	}
	return m.repo.ListExercises(ctx)
}

// SectionExercises returns the exercises of one section, ordered
func (m *Manager) SectionExercises(ctx context.Context, sectionID int) ([]*models.Exercise, error) {
	return m.repo.ListExercisesBySection(ctx, sectionID)
}

// Exercise returns one exercise by id
func (m *Manager) Exercise(ctx context.Context, id int) (*models.Exercise, error) {
	ex, err := m.repo.GetExercise(ctx, id)
	if err != nil {
		return nil, err
	}
	if ex == nil {
		return nil, ErrExerciseNotFound
	}
	return ex, nil
}

// SaveResponse creates or replaces the response to an exercise
func (m *Manager) SaveResponse(ctx context.Context, req models.SaveResponseRequest) (*models.Response, error) {
	resp, err := m.repo.UpsertResponse(ctx, req.ExerciseID, req.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to save response: %w", err)
	}

	slog.Debug("response saved", "exercise_id", req.ExerciseID, "length", len(req.Content))
	return resp, nil
}

// Response returns the response to an exercise, or nil
func (m *Manager) Response(ctx context.Context, exerciseID int) (*models.Response, error) {
	return m.repo.GetResponse(ctx, exerciseID)
}

// Settings returns the settings record
func (m *Manager) Settings(ctx context.Context) (*models.Settings, error) {
	return m.repo.GetSettings(ctx)
}

// UpdateSettings merges patch into the settings record
func (m *Manager) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error) {
	s, err := m.repo.UpdateSettings(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	slog.Info("settings updated")
	return s, nil
}

// CurrentSession returns the newest open session, or nil
func (m *Manager) CurrentSession(ctx context.Context) (*models.Session, error) {
	return m.repo.GetCurrentSession(ctx)
}

// CreateSession starts a study session
func (m *Manager) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	s, err := m.repo.CreateSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("session started", "id", s.ID)
	return s, nil
}

// UpdateSession applies patch to a session
func (m *Manager) UpdateSession(ctx context.Context, id int, patch models.SessionPatch) (*models.Session, error) {
	return m.repo.UpdateSession(ctx, id, patch)
}

// RecordPomodoro adds a completed pomodoro to the current session.
// A session is started when none is open.
func (m *Manager) RecordPomodoro(ctx context.Context) (*models.Session, error) {
	current, err := m.repo.GetCurrentSession(ctx)
	if err != nil {
		return nil, err
	}

	if current == nil {
		return m.CreateSession(ctx, models.CreateSessionRequest{PomodoroCount: 1})
	}

	count := current.PomodoroCount + 1
	return m.repo.UpdateSession(ctx, current.ID, models.SessionPatch{PomodoroCount: &count})
}

// Domains classifies every section of the current exercise set
func (m *Manager) Domains(ctx context.Context) ([]models.SectionDomainInfo, error) {
	all, err := m.repo.ListExercises(ctx)
	if err != nil {
		return nil, err
	}
	return m.classifier.Classify(all), nil
}

// ListSectionFiles returns the recognized files of the upload folder
func (m *Manager) ListSectionFiles(ctx context.Context) ([]string, error) {
	return m.loader.ListFiles()
}

// UploadSectionFile stores a section file and reloads the exercise set
func (m *Manager) UploadSectionFile(ctx context.Context, name string, content []byte) (*ReloadResult, error) {
	if err := m.loader.SaveFile(name, content); err != nil {
		return nil, err
	}

	slog.Info("section file uploaded", "file", name, "size", len(content))
	return m.reloadAfterWrite(ctx)
}

// DeleteSectionFile removes a section file and reloads the exercise set
func (m *Manager) DeleteSectionFile(ctx context.Context, name string) (*ReloadResult, error) {
	if err := m.loader.DeleteFile(name); err != nil {
		return nil, err
	}

	slog.Info("section file deleted", "file", name)
	return m.reloadAfterWrite(ctx)
}

// Solve asks the AI backend for a worked solution
func (m *Manager) Solve(ctx context.Context, req models.SolveRequest) (string, error) {
	creds, err := m.credentials(ctx, req.APIKey, req.ModelID)
	if err != nil {
		return "", err
	}
	return m.feedback.Solve(ctx, req.ExerciseText, req.Mode, creds)
}

// SectionFeedback asks the AI backend for feedback on a completed section
func (m *Manager) SectionFeedback(ctx context.Context, req models.FeedbackRequest) (string, error) {
	creds, err := m.credentials(ctx, req.APIKey, req.ModelID)
	if err != nil {
		return "", err
	}
	return m.feedback.SectionFeedback(ctx, req, creds)
}

// credentials resolves key and model: request, then settings, then defaults
func (m *Manager) credentials(ctx context.Context, apiKey, modelID string) (feedback.Credentials, error) {
	creds := feedback.Credentials{APIKey: apiKey, Model: modelID}
	if creds.APIKey != "" && creds.Model != "" {
		return creds, nil
	}

	s, err := m.repo.GetSettings(ctx)
	if err != nil {
		return creds, fmt.Errorf("failed to read settings: %w", err)
	}

	if creds.APIKey == "" && s.GroqAPIKey != nil {
		creds.APIKey = *s.GroqAPIKey
	}
	if creds.APIKey == "" {
		creds.APIKey = m.opts.DefaultAPIKey
	}
	if creds.Model == "" {
		creds.Model = s.GroqModelID
	}
	if creds.Model == "" {
		creds.Model = m.opts.DefaultModel
	}

	return creds, nil
}

// Ping checks the exercise store
func (m *Manager) Ping(ctx context.Context) error {
	return m.repo.Ping(ctx)
}
