package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	// DefaultEndpoint is the Anthropic Messages API
	DefaultEndpoint = "https://api.anthropic.com/v1/messages"
	// APIVersion is sent as the anthropic-version header
	APIVersion = "2023-06-01"
	// MaxTokens caps every completion
	MaxTokens = 10000

	messagesPath = "v1/messages"
)

// ErrMissingKey is returned when the client is used without a credential
var ErrMissingKey = errors.New("API key is empty")

// APIError is a non-200 response from the Messages API
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Body)
}

// AnthropicConfig configures an AnthropicClient
type AnthropicConfig struct {
	// Endpoint is the full Messages URL; the SDK base URL is derived from it
	Endpoint string
	Model    string
	APIKey   string
	// HTTPClient defaults to http.DefaultClient, which sets no timeout
	HTTPClient *http.Client
}

// AnthropicClient implements Provider against the Messages API
type AnthropicClient struct {
	client anthropic.Client
	model  string
	apiKey string
	logger *slog.Logger
}

// NewAnthropicClient creates a client. Retries are disabled: every call is
// exactly one request.
func NewAnthropicClient(cfg AnthropicConfig, logger *slog.Logger) *AnthropicClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AnthropicClient{
		client: anthropic.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(baseURL(cfg.Endpoint)),
			option.WithHTTPClient(cfg.HTTPClient),
			option.WithHeader("anthropic-version", APIVersion),
			option.WithMaxRetries(0),
		),
		model:  cfg.Model,
		apiKey: cfg.APIKey,
		logger: logger,
	}
}

// baseURL strips the Messages path the SDK appends itself
func baseURL(endpoint string) string {
	base := strings.TrimSuffix(strings.TrimRight(endpoint, "/"), messagesPath)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// GenerateText implements Provider
func (c *AnthropicClient) GenerateText(ctx context.Context, prompt string) (*Completion, error) {
	if c.apiKey == "" {
		return nil, ErrMissingKey
	}

	started := time.Now()
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	elapsed := time.Since(started)
	if err != nil {
		return nil, c.wrapError(err)
	}

	decoded := fromMessage(msg)
	completion := &Completion{
		Text:         decoded.Text(),
		InputTokens:  decoded.Usage.InputTokens,
		OutputTokens: decoded.Usage.OutputTokens,
		Elapsed:      elapsed,
		Raw:          decoded,
	}
	c.logger.Info("prompt sent",
		"tokens", completion.TokensUsed(),
		"seconds", fmt.Sprintf("%.2f", elapsed.Seconds()))
	return completion, nil
}

func (c *AnthropicClient) wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		body := apiErr.RawJSON()
		if body == "" {
			body = http.StatusText(apiErr.StatusCode)
		}
		c.logger.Error("API request failed", "status", apiErr.StatusCode)
		return &APIError{StatusCode: apiErr.StatusCode, Body: body}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to send prompt: %w", err)
	}
	return fmt.Errorf("failed to decode response: %w", err)
}

// Name implements Provider
func (c *AnthropicClient) Name() string {
	return "anthropic"
}

// Segment is one element of a response's content array
type Segment interface {
	SegmentType() string
}

// TextSegment carries generated text
type TextSegment struct {
	Text string
}

// SegmentType implements Segment
func (TextSegment) SegmentType() string { return "text" }

// OtherSegment is any non-text content (tool use, thinking, ...), kept raw
type OtherSegment struct {
	Type string
	Raw  json.RawMessage
}

// SegmentType implements Segment
func (s OtherSegment) SegmentType() string { return s.Type }

// Usage is the token accounting reported by the service
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// MessagesResponse is a decoded Messages API response
type MessagesResponse struct {
	ID         string
	Model      string
	Role       string
	StopReason string
	Content    []Segment
	Usage      Usage
	// Body is the raw response JSON
	Body string
}

func fromMessage(msg *anthropic.Message) *MessagesResponse {
	r := &MessagesResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Role:       string(msg.Role),
		StopReason: string(msg.StopReason),
		Content:    make([]Segment, 0, len(msg.Content)),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
		Body: msg.RawJSON(),
	}
	for _, block := range msg.Content {
		if block.Type == "text" {
			r.Content = append(r.Content, TextSegment{Text: block.Text})
			continue
		}
		r.Content = append(r.Content, OtherSegment{Type: block.Type, Raw: json.RawMessage(block.RawJSON())})
	}
	return r
}

// Text concatenates the text segments
func (r *MessagesResponse) Text() string {
	var sb strings.Builder
	for _, seg := range r.Content {
		if t, ok := seg.(TextSegment); ok {
			sb.WriteString(t.Text)
		}
	}
	return sb.String()
}
