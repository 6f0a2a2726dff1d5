package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sentRequest is the request body as the Messages API receives it
type sentRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string `json:"role"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func jsonResponse(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestGenerateText(t *testing.T) {
	var gotBody sentRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Contains(t, r.Header.Get("content-type"), "application/json")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		jsonResponse(w, http.StatusOK, `{
			"type": "message",
			"id": "msg_1",
			"model": "claude-3-sonnet-20240229",
			"role": "assistant",
			"content": [
				{"type": "text", "text": "Hello, "},
				{"type": "tool_use", "id": "t1", "name": "noop", "input": {}},
				{"type": "text", "text": "world"}
			],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 30}
		}`)
	}))
	defer server.Close()

	client := NewAnthropicClient(AnthropicConfig{
		Endpoint: server.URL + "/v1/messages",
		Model:    "claude-3-sonnet-20240229",
		APIKey:   "sk-test",
	}, testLogger())

	got, err := client.GenerateText(context.Background(), "build it")
	require.NoError(t, err)

	assert.Equal(t, "claude-3-sonnet-20240229", gotBody.Model)
	assert.Equal(t, 10000, gotBody.MaxTokens)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "user", gotBody.Messages[0].Role)
	require.Len(t, gotBody.Messages[0].Content, 1)
	assert.Equal(t, "build it", gotBody.Messages[0].Content[0].Text)

	assert.Equal(t, "Hello, world", got.Text)
	assert.Equal(t, 42, got.TokensUsed())
	require.NotNil(t, got.Raw)
	require.Len(t, got.Raw.Content, 3)
	assert.IsType(t, OtherSegment{}, got.Raw.Content[1])
	assert.Equal(t, "tool_use", got.Raw.Content[1].SegmentType())
	assert.Equal(t, "msg_1", got.Raw.ID)
	assert.Equal(t, "end_turn", got.Raw.StopReason)
	assert.Contains(t, got.Raw.Body, `"msg_1"`)
}

func TestGenerateText_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusUnauthorized, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`)
	}))
	defer server.Close()

	client := NewAnthropicClient(AnthropicConfig{Endpoint: server.URL, APIKey: "bad"}, testLogger())
	got, err := client.GenerateText(context.Background(), "x")

	assert.Nil(t, got)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "authentication_error")
}

func TestGenerateText_DecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, `not json`)
	}))
	defer server.Close()

	client := NewAnthropicClient(AnthropicConfig{Endpoint: server.URL, APIKey: "k"}, testLogger())
	got, err := client.GenerateText(context.Background(), "x")

	assert.Nil(t, got)
	assert.ErrorContains(t, err, "failed to decode response")
}

func TestGenerateText_SingleAttempt(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewAnthropicClient(AnthropicConfig{Endpoint: server.URL, APIKey: "k"}, testLogger())
	_, err := client.GenerateText(context.Background(), "x")

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestGenerateText_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewAnthropicClient(AnthropicConfig{Endpoint: url, APIKey: "k"}, testLogger())
	got, err := client.GenerateText(context.Background(), "x")

	assert.Nil(t, got)
	assert.ErrorContains(t, err, "failed to send prompt")
}

func TestGenerateText_MissingKey(t *testing.T) {
	client := NewAnthropicClient(AnthropicConfig{Endpoint: "http://127.0.0.1:0"}, testLogger())
	_, err := client.GenerateText(context.Background(), "x")
	assert.ErrorIs(t, err, ErrMissingKey)
}

func TestGenerateText_NoTextSegments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, `{
			"id": "msg_2",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-sonnet-20240229",
			"content": [{"type": "thinking", "thinking": "...", "signature": "sig"}],
			"usage": {"input_tokens": 1, "output_tokens": 0}
		}`)
	}))
	defer server.Close()

	client := NewAnthropicClient(AnthropicConfig{Endpoint: server.URL, APIKey: "k"}, testLogger())
	got, err := client.GenerateText(context.Background(), "x")

	require.NoError(t, err)
	assert.Equal(t, "", got.Text)
	require.Len(t, got.Raw.Content, 1)
	assert.Equal(t, "thinking", got.Raw.Content[0].SegmentType())
	assert.Equal(t, 1, got.TokensUsed())
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{DefaultEndpoint, "https://api.anthropic.com/"},
		{"https://proxy.local/anthropic/v1/messages/", "https://proxy.local/anthropic/"},
		{"http://127.0.0.1:8080", "http://127.0.0.1:8080/"},
	}
	for _, tt := range tests {
		if got := baseURL(tt.endpoint); got != tt.want {
			t.Errorf("baseURL(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}
