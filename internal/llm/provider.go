package llm

import (
	"context"
	"errors"
)

var (
	ErrMissingAPIKey = errors.New("API key is required")
	ErrEmptyResponse = errors.New("no content in completion response")
)

// Provider performs chat completions
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate performs a completion request
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// Request represents a chat completion request
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// APIKey overrides the provider's configured key for this request
	APIKey string
}

// Message represents a chat message
type Message struct {
	Role    Role
	Content string
}

// Role represents the role of a message sender
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Response represents a chat completion response
type Response struct {
	Content      string
	Model        string
	FinishReason string
	Usage        Usage
}

// Usage reports token consumption
type Usage struct {
	InputTokens  int
	OutputTokens int
}
