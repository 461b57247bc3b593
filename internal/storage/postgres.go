package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/terra-clan/math-practice/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN         string
	MaxConns    int32
	MinConns    int32
	MaxLifetime time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	} else {
		poolConfig.MaxConns = 10
	}

	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the connection pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// --- Exercises ---

const exerciseColumns = `id, section_id, tema, enunciado, ejercicio, "order"`

// ListExercises returns every exercise by section, then order
func (r *PostgresRepository) ListExercises(ctx context.Context) ([]*models.Exercise, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY section_id, "order", id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	defer rows.Close()

	return scanExercises(rows)
}

// ListExercisesBySection returns one section's exercises by order
func (r *PostgresRepository) ListExercisesBySection(ctx context.Context, sectionID int) ([]*models.Exercise, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE section_id = $1 ORDER BY "order", id`,
		sectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list section exercises: %w", err)
	}
	defer rows.Close()

	return scanExercises(rows)
}

// GetExercise returns nil when the id is unknown
func (r *PostgresRepository) GetExercise(ctx context.Context, id int) (*models.Exercise, error) {
	var ex models.Exercise
	err := r.pool.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id).Scan(
		&ex.ID,
		&ex.SectionID,
		&ex.Topic,
		&ex.Statement,
		&ex.SupplementaryText,
		&ex.Order,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get exercise: %w", err)
	}

	return &ex, nil
}

// CreateExercise inserts one exercise
func (r *PostgresRepository) CreateExercise(ctx context.Context, ex models.NewExercise) (*models.Exercise, error) {
	created, err := r.CreateExercises(ctx, []models.NewExercise{ex})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

// CreateExercises inserts exercises in one transaction
func (r *PostgresRepository) CreateExercises(ctx context.Context, exs []models.NewExercise) ([]*models.Exercise, error) {
	var created []*models.Exercise
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		created, err = insertExercises(ctx, tx, exs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// ClearExercises empties the table and restarts its id sequence
func (r *PostgresRepository) ClearExercises(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `TRUNCATE exercises RESTART IDENTITY`); err != nil {
		return fmt.Errorf("failed to clear exercises: %w", err)
	}
	return nil
}

// ReplaceExercises truncates and repopulates the table in one transaction
func (r *PostgresRepository) ReplaceExercises(ctx context.Context, exs []models.NewExercise) ([]*models.Exercise, error) {
	var created []*models.Exercise
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `TRUNCATE exercises RESTART IDENTITY`); err != nil {
			return fmt.Errorf("failed to clear exercises: %w", err)
		}

		var err error
		created, err = insertExercises(ctx, tx, exs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func insertExercises(ctx context.Context, tx pgx.Tx, exs []models.NewExercise) ([]*models.Exercise, error) {
	created := make([]*models.Exercise, 0, len(exs))
	for _, in := range exs {
		ex := &models.Exercise{
			SectionID:         in.SectionID,
			Topic:             in.Topic,
			Statement:         in.Statement,
			SupplementaryText: in.SupplementaryText,
			Order:             in.Order,
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO exercises (section_id, tema, enunciado, ejercicio, "order")
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, ex.SectionID, ex.Topic, ex.Statement, ex.SupplementaryText, ex.Order).Scan(&ex.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create exercise: %w", err)
		}

		created = append(created, ex)
	}
	return created, nil
}

func scanExercises(rows pgx.Rows) ([]*models.Exercise, error) {
	exercises := make([]*models.Exercise, 0)
	for rows.Next() {
		var ex models.Exercise
		if err := rows.Scan(
			&ex.ID,
			&ex.SectionID,
			&ex.Topic,
			&ex.Statement,
			&ex.SupplementaryText,
			&ex.Order,
		); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		exercises = append(exercises, &ex)
	}

	return exercises, rows.Err()
}

// --- Responses ---

// GetResponse returns nil when the exercise has no response
func (r *PostgresRepository) GetResponse(ctx context.Context, exerciseID int) (*models.Response, error) {
	var resp models.Response
	err := r.pool.QueryRow(ctx, `
		SELECT id, exercise_id, content, created_at, updated_at
		FROM responses
		WHERE exercise_id = $1
	`, exerciseID).Scan(&resp.ID, &resp.ExerciseID, &resp.Content, &resp.CreatedAt, &resp.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}

	return &resp, nil
}

// UpsertResponse relies on the unique exercise_id constraint for atomicity
func (r *PostgresRepository) UpsertResponse(ctx context.Context, exerciseID int, content string) (*models.Response, error) {
	var resp models.Response
	err := r.pool.QueryRow(ctx, `
		INSERT INTO responses (exercise_id, content, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (exercise_id) DO UPDATE
		SET content = EXCLUDED.content, updated_at = NOW()
		RETURNING id, exercise_id, content, created_at, updated_at
	`, exerciseID, content).Scan(&resp.ID, &resp.ExerciseID, &resp.Content, &resp.CreatedAt, &resp.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert response: %w", err)
	}

	return &resp, nil
}

// --- Settings ---

// GetSettings returns the singleton settings record, creating it on first use
func (r *PostgresRepository) GetSettings(ctx context.Context) (*models.Settings, error) {
	var s *models.Settings
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		s, err = loadSettings(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// UpdateSettings merges patch into the settings record under a row lock
func (r *PostgresRepository) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error) {
	var s *models.Settings
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		s, err = loadSettings(ctx, tx)
		if err != nil {
			return err
		}

		patch.Apply(s)

		_, err = tx.Exec(ctx, `
			UPDATE settings
			SET pomodoro_minutes = $1, max_time_minutes = $2, groq_api_key = $3, groq_model_id = $4,
			    feedback_prompt = $5, current_section = $6, current_exercise = $7
			WHERE id = 1
		`,
			s.PomodoroMinutes,
			s.MaxTimeMinutes,
			nullStringPtr(s.GroqAPIKey),
			s.GroqModelID,
			s.FeedbackPrompt,
			s.CurrentSection,
			s.CurrentExercise,
		)
		if err != nil {
			return fmt.Errorf("failed to update settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func loadSettings(ctx context.Context, tx pgx.Tx) (*models.Settings, error) {
	defaults := models.DefaultSettings()
	_, err := tx.Exec(ctx, `
		INSERT INTO settings (id, pomodoro_minutes, max_time_minutes, groq_model_id, feedback_prompt, current_section, current_exercise)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`,
		defaults.PomodoroMinutes,
		defaults.MaxTimeMinutes,
		defaults.GroqModelID,
		defaults.FeedbackPrompt,
		defaults.CurrentSection,
		defaults.CurrentExercise,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize settings: %w", err)
	}

	var s models.Settings
	var apiKey sql.NullString
	err = tx.QueryRow(ctx, `
		SELECT id, pomodoro_minutes, max_time_minutes, groq_api_key, groq_model_id, feedback_prompt, current_section, current_exercise
		FROM settings
		WHERE id = 1
		FOR UPDATE
	`).Scan(
		&s.ID,
		&s.PomodoroMinutes,
		&s.MaxTimeMinutes,
		&apiKey,
		&s.GroqModelID,
		&s.FeedbackPrompt,
		&s.CurrentSection,
		&s.CurrentExercise,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	if apiKey.Valid {
		s.GroqAPIKey = &apiKey.String
	}

	return &s, nil
}

// --- Sessions ---

const sessionColumns = `id, start_time, end_time, pomodoro_count, exercises_completed`

// GetCurrentSession returns the newest open session, or nil
func (r *PostgresRepository) GetCurrentSession(ctx context.Context) (*models.Session, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM study_sessions
		WHERE end_time IS NULL
		ORDER BY id DESC
		LIMIT 1
	`)

	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get current session: %w", err)
	}
	return s, nil
}

// CreateSession starts a new session
func (r *PostgresRepository) CreateSession(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO study_sessions (start_time, pomodoro_count, exercises_completed)
		VALUES (NOW(), $1, $2)
		RETURNING `+sessionColumns,
		req.PomodoroCount,
		req.ExercisesCompleted,
	)

	s, err := scanSession(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// UpdateSession merges patch into a session
func (r *PostgresRepository) UpdateSession(ctx context.Context, id int, patch models.SessionPatch) (*models.Session, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE study_sessions
		SET end_time = COALESCE($2, end_time),
		    pomodoro_count = COALESCE($3, pomodoro_count),
		    exercises_completed = COALESCE($4, exercises_completed)
		WHERE id = $1
		RETURNING `+sessionColumns,
		id,
		nullTime(patch.EndTime),
		patch.PomodoroCount,
		patch.ExercisesCompleted,
	)

	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return s, nil
}

// ListOpenSessions returns sessions without an end time, oldest first
func (r *PostgresRepository) ListOpenSessions(ctx context.Context) ([]*models.Session, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM study_sessions
		WHERE end_time IS NULL
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*models.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	var endTime sql.NullTime
	if err := row.Scan(&s.ID, &s.StartTime, &endTime, &s.PomodoroCount, &s.ExercisesCompleted); err != nil {
		return nil, err
	}
	if endTime.Valid {
		s.EndTime = &endTime.Time
	}
	return &s, nil
}

// Helper functions for nullable values

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
