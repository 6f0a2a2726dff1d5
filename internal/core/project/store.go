package project

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/neilberkman/modforge/internal/core/models"
)

// DefaultConfigFile is the project document name used when none is given
const DefaultConfigFile = "claude_project_config.json"

// ErrCorruptConfig is returned when the project document cannot be decoded
var ErrCorruptConfig = errors.New("project document is corrupt")

// Store owns the project document on disk. It performs full-document
// overwrites and does not lock: concurrent writers lose updates.
type Store struct {
	path   string
	config *models.ProjectConfig
}

// Load reads the project document at path, or creates it with defaults when
// it does not exist yet
func Load(path string) (*Store, error) {
	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s := &Store{path: path, config: models.NewProjectConfig()}
		if err := s.Save(); err != nil {
			return nil, fmt.Errorf("failed to create project document: %w", err)
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project document: %w", err)
	}

	var cfg models.ProjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptConfig, path, err)
	}
	cfg.Normalize()

	return &Store{path: path, config: &cfg}, nil
}

// Path returns the document location
func (s *Store) Path() string {
	return s.path
}

// Config returns the in-memory document. Callers mutate it and call Save.
func (s *Store) Config() *models.ProjectConfig {
	return s.config
}

// Save overwrites the document with the in-memory state
func (s *Store) Save() error {
	s.config.Normalize()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(s.config); err != nil {
		return fmt.Errorf("failed to encode project document: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create document directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write project document: %w", err)
	}
	return nil
}
