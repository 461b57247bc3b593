package feedback

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/terra-clan/math-practice/internal/llm"
	"github.com/terra-clan/math-practice/internal/models"
)

// Credentials select the upstream key and model of one call
type Credentials struct {
	APIKey string
	Model  string
}

// Service generates worked solutions and section feedback
type Service struct {
	provider llm.Provider
	cache    Cache
	ttl      time.Duration
}

// NewService creates a feedback service. A nil cache disables caching.
func NewService(provider llm.Provider, cache Cache, ttl time.Duration) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
	}
}

// Solve asks for a step-by-step solution of exerciseText
func (s *Service) Solve(ctx context.Context, exerciseText, mode string, creds Credentials) (string, error) {
	return s.complete(ctx, SystemPrompt(mode), SolvePrompt(exerciseText), creds)
}

// SectionFeedback asks for feedback on a completed section
func (s *Service) SectionFeedback(ctx context.Context, req models.FeedbackRequest, creds Credentials) (string, error) {
	prompt := SectionFeedbackPrompt(req.Exercises, req.Responses, req.CustomPrompt)
	return s.complete(ctx, SystemPrompt(req.Mode), prompt, creds)
}

func (s *Service) complete(ctx context.Context, system, prompt string, creds Credentials) (string, error) {
	if creds.APIKey == "" {
		return "", llm.ErrMissingAPIKey
	}

	key := cacheKey(creds.Model, system, prompt)
	if cached, ok, err := s.cache.Get(ctx, key); err != nil {
		slog.Warn("feedback cache read failed", "error", err)
	} else if ok {
		slog.Debug("feedback cache hit", "model", creds.Model)
		return cached, nil
	}

	start := time.Now()
	resp, err := s.provider.Generate(ctx, &llm.Request{
		Model:  creds.Model,
		APIKey: creds.APIKey,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	slog.Info("completion generated",
		"provider", s.provider.Name(),
		"model", creds.Model,
		"prompt_chars", len(prompt),
		"response_chars", len(resp.Content),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if err := s.cache.Set(ctx, key, resp.Content, s.ttl); err != nil {
		slog.Warn("feedback cache write failed", "error", err)
	}

	return resp.Content, nil
}

func cacheKey(model, system, prompt string) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(system))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}
