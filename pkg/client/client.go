package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/terra-clan/math-practice/internal/models"
)

// Client is a Go SDK for the math-practice API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new math-practice client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// AI calls can take a while
			Timeout: 2 * time.Minute,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error reported by the API envelope
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}

// ReloadResult describes the exercise set after a section file change
type ReloadResult struct {
	Generation string    `json:"generation"`
	Exercises  int       `json:"exercises"`
	Defaults   bool      `json:"defaults"`
	LoadedAt   time.Time `json:"loadedAt"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ListExercises returns every exercise. The server reloads section files first.
func (c *Client) ListExercises(ctx context.Context) ([]*models.Exercise, error) {
	var result []*models.Exercise
	if err := c.call(ctx, http.MethodGet, "/api/v1/exercises", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListSectionExercises returns the exercises of one section
func (c *Client) ListSectionExercises(ctx context.Context, sectionID int) ([]*models.Exercise, error) {
	var result []*models.Exercise
	path := "/api/v1/exercises/section/" + strconv.Itoa(sectionID)
	if err := c.call(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetExercise retrieves an exercise by ID
func (c *Client) GetExercise(ctx context.Context, id int) (*models.Exercise, error) {
	var result models.Exercise
	if err := c.call(ctx, http.MethodGet, "/api/v1/exercise/"+strconv.Itoa(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SaveResponse creates or replaces the response to an exercise
func (c *Client) SaveResponse(ctx context.Context, exerciseID int, content string) (*models.Response, error) {
	req := models.SaveResponseRequest{ExerciseID: exerciseID, Content: content}

	var result models.Response
	if err := c.call(ctx, http.MethodPost, "/api/v1/response", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetResponse returns the response to an exercise, or nil when there is none
func (c *Client) GetResponse(ctx context.Context, exerciseID int) (*models.Response, error) {
	var result *models.Response
	if err := c.call(ctx, http.MethodGet, "/api/v1/response/"+strconv.Itoa(exerciseID), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// GetSettings returns the settings record
func (c *Client) GetSettings(ctx context.Context) (*models.Settings, error) {
	var result models.Settings
	if err := c.call(ctx, http.MethodGet, "/api/v1/settings", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateSettings applies a partial settings update
func (c *Client) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (*models.Settings, error) {
	var result models.Settings
	if err := c.call(ctx, http.MethodPatch, "/api/v1/settings", patch, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CurrentSession returns the open study session, or nil
func (c *Client) CurrentSession(ctx context.Context) (*models.Session, error) {
	var result *models.Session
	if err := c.call(ctx, http.MethodGet, "/api/v1/sessions/current", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// StartSession starts a study session
func (c *Client) StartSession(ctx context.Context) (*models.Session, error) {
	var result models.Session
	if err := c.call(ctx, http.MethodPost, "/api/v1/sessions", models.CreateSessionRequest{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// UpdateSession applies a partial session update
func (c *Client) UpdateSession(ctx context.Context, id int, patch models.SessionPatch) (*models.Session, error) {
	var result models.Session
	if err := c.call(ctx, http.MethodPatch, "/api/v1/sessions/"+strconv.Itoa(id), patch, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Domains returns the domain estimate of every section
func (c *Client) Domains(ctx context.Context) ([]models.SectionDomainInfo, error) {
	var result []models.SectionDomainInfo
	if err := c.call(ctx, http.MethodGet, "/api/v1/bkt/domains", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// ListSectionFiles returns the uploaded section file names
func (c *Client) ListSectionFiles(ctx context.Context) ([]string, error) {
	var result []string
	if err := c.call(ctx, http.MethodGet, "/api/v1/sections/files", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// UploadSectionFile stores a section file and returns the reloaded exercise set summary
func (c *Client) UploadSectionFile(ctx context.Context, filename string, content []byte) (*ReloadResult, error) {
	req := models.UploadSectionRequest{Filename: filename, Content: string(content)}

	var result struct {
		Reload *ReloadResult `json:"reload"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/sections/upload", req, &result); err != nil {
		return nil, err
	}
	return result.Reload, nil
}

// DeleteSectionFile removes a section file
func (c *Client) DeleteSectionFile(ctx context.Context, filename string) (*ReloadResult, error) {
	var result struct {
		Reload *ReloadResult `json:"reload"`
	}
	path := "/api/v1/sections/files/" + url.PathEscape(filename)
	if err := c.call(ctx, http.MethodDelete, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Reload, nil
}

// Solve asks for a step-by-step solution of an exercise
func (c *Client) Solve(ctx context.Context, req models.SolveRequest) (string, error) {
	var result struct {
		Response string `json:"response"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/ai/response", req, &result); err != nil {
		return "", err
	}
	return result.Response, nil
}

// SectionFeedback asks for feedback on a completed section
func (c *Client) SectionFeedback(ctx context.Context, req models.FeedbackRequest) (string, error) {
	var result struct {
		Feedback string `json:"feedback"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/v1/ai/feedback", req, &result); err != nil {
		return "", err
	}
	return result.Feedback, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil)
}

// call sends in as JSON and decodes the envelope data into out
func (c *Client) call(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	status, respBody, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var result envelope
	if err := json.Unmarshal(respBody, &result); err != nil {
		if status >= 400 {
			return fmt.Errorf("HTTP %d: %s", status, string(respBody))
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !result.Success || status >= 400 {
		apiErr := &APIError{StatusCode: status, Code: "unknown", Message: string(respBody)}
		if result.Error != nil {
			apiErr.Code = result.Error.Code
			apiErr.Message = result.Error.Message
		}
		return apiErr
	}

	if out == nil || len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (int, []byte, error) {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	return resp.StatusCode, respBody, nil
}
