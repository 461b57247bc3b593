package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/math-practice/internal/api"
	"github.com/terra-clan/math-practice/internal/config"
	"github.com/terra-clan/math-practice/internal/feedback"
	"github.com/terra-clan/math-practice/internal/llm"
	"github.com/terra-clan/math-practice/internal/models"
	"github.com/terra-clan/math-practice/internal/practice"
	"github.com/terra-clan/math-practice/internal/sections"
	"github.com/terra-clan/math-practice/internal/storage"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"content": "x = 2"}}]}`))
	}))
	t.Cleanup(upstream.Close)

	manager := practice.NewManager(
		sections.NewLoader(filepath.Join(t.TempDir(), "sube-seccion"), []string{".json", ".yaml", ".yml"}),
		storage.NewMemoryRepository(),
		nil,
		feedback.NewService(llm.NewOpenAIProvider(llm.OpenAIConfig{BaseURL: upstream.URL}), nil, time.Hour),
		practice.Options{DefaultAPIKey: "test-key"},
	)
	server := httptest.NewServer(api.NewServer(config.ServerConfig{}, manager, nil, config.TimerConfig{RestMinutes: 5}).Router())
	t.Cleanup(server.Close)

	return NewClient(server.URL, WithTimeout(10*time.Second))
}

func TestClient_ExercisesAndResponses(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	exercises, err := c.ListExercises(ctx)
	require.NoError(t, err)
	require.Len(t, exercises, 3)

	ex, err := c.GetExercise(ctx, exercises[2].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ex.SectionID)

	section, err := c.ListSectionExercises(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, section, 2)

	none, err := c.GetResponse(ctx, ex.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = c.SaveResponse(ctx, ex.ID, "y = -(2^x) refleja y = 2^x")
	require.NoError(t, err)

	saved, err := c.GetResponse(ctx, ex.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, ex.ID, saved.ExerciseID)

	_, err = c.GetExercise(ctx, 500)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "not_found", apiErr.Code)
}

func TestClient_SettingsAndSessions(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	section := 2
	settings, err := c.UpdateSettings(ctx, models.SettingsPatch{CurrentSection: &section})
	require.NoError(t, err)
	assert.Equal(t, 2, settings.CurrentSection)

	got, err := c.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentSection)

	current, err := c.CurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	session, err := c.StartSession(ctx)
	require.NoError(t, err)

	end := time.Now()
	closed, err := c.UpdateSession(ctx, session.ID, models.SessionPatch{EndTime: &end})
	require.NoError(t, err)
	assert.NotNil(t, closed.EndTime)
}

func TestClient_SectionFilesAndAI(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	reload, err := c.UploadSectionFile(ctx, "3_trig.yaml", []byte(`
- tema: Trigonometría
  enunciado: Calcular el seno del ángulo
- tema: Trigonometría
  enunciado: Convertir a radianes
`))
	require.NoError(t, err)
	require.NotNil(t, reload)
	assert.Equal(t, 2, reload.Exercises)
	assert.False(t, reload.Defaults)

	files, err := c.ListSectionFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"3_trig.yaml"}, files)

	domains, err := c.Domains(ctx)
	require.NoError(t, err)
	require.Len(t, domains, 1)
	assert.Equal(t, "Trigonometría", domains[0].DomainLabel)
	assert.Equal(t, []int{1, 2}, domains[0].Prerequisites)

	answer, err := c.Solve(ctx, models.SolveRequest{ExerciseText: "2x = 4"})
	require.NoError(t, err)
	assert.Equal(t, "x = 2", answer)

	fb, err := c.SectionFeedback(ctx, models.FeedbackRequest{
		Exercises: []models.FeedbackExercise{{Topic: "Trigonometría", Statement: "Calcular el seno"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "x = 2", fb)

	reload, err = c.DeleteSectionFile(ctx, "3_trig.yaml")
	require.NoError(t, err)
	assert.True(t, reload.Defaults)

	_, err = c.UploadSectionFile(ctx, "seccion.js", []byte("module.exports = []"))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "unsupported_extension", apiErr.Code)
}
