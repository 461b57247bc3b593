package storage

import (
	"context"
	"errors"

	"github.com/terra-clan/math-practice/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

// Repository defines the interface for practice data persistence
type Repository interface {
	// Exercises
	ListExercises(ctx context.Context) ([]*models.Exercise, error)
	ListExercisesBySection(ctx context.Context, sectionID int) ([]*models.Exercise, error)
	GetExercise(ctx context.Context, id int) (*models.Exercise, error)
	CreateExercise(ctx context.Context, ex models.NewExercise) (*models.Exercise, error)
	CreateExercises(ctx context.Context, exs []models.NewExercise) ([]*models.Exercise, error)
	ClearExercises(ctx context.Context) error
	// ReplaceExercises clears the exercise table and its id counter and inserts exs.
	// Readers observe either the previous set or the new set in full.
	ReplaceExercises(ctx context.Context, exs []models.NewExercise) ([]*models.Exercise, error)

	// Responses
	GetResponse(ctx context.Context, exerciseID int) (*models.Response, error)
	UpsertResponse(ctx context.Context, exerciseID int, content string) (*models.Response, error)

	// Settings
	GetSettings(ctx context.Context) (*models.Settings, error)
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error)

	// Sessions
	GetCurrentSession(ctx context.Context) (*models.Session, error)
	CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error)
	UpdateSession(ctx context.Context, id int, patch models.SessionPatch) (*models.Session, error)
	ListOpenSessions(ctx context.Context) ([]*models.Session, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
