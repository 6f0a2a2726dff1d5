package llm

import (
	"context"
	"time"
)

// Provider is the interface for code-generation backends
type Provider interface {
	// GenerateText sends a single user prompt and returns the completion
	GenerateText(ctx context.Context, prompt string) (*Completion, error)

	// Name returns the provider name (e.g., "anthropic", "bedrock")
	Name() string
}

// Completion is the result of one prompt
type Completion struct {
	Text         string
	InputTokens  int
	OutputTokens int
	Elapsed      time.Duration

	// Raw is the decoded Messages API response; nil for providers that do
	// not expose one
	Raw *MessagesResponse
}

// TokensUsed is input plus output tokens as reported by the service
func (c *Completion) TokensUsed() int {
	return c.InputTokens + c.OutputTokens
}
