package models

import (
	"errors"
)

// Session is one recorded prompt/response exchange with the code-generation API
type Session struct {
	ID           string    `json:"id"`
	Timestamp    Timestamp `json:"timestamp"`
	Module       string    `json:"module"`
	Prompt       string    `json:"prompt"`
	Response     string    `json:"response"`
	TokensUsed   int       `json:"tokens_used"`
	ResponseTime float64   `json:"response_time"` // seconds
}

// Validate checks if the session has required fields
func (s *Session) Validate() error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	if s.Timestamp.IsZero() {
		return errors.New("session timestamp is required")
	}
	return nil
}
