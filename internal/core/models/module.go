package models

import (
	"errors"
	"fmt"
)

// ModuleStatus is the lifecycle state of a module
type ModuleStatus string

const (
	StatusPending    ModuleStatus = "pending"
	StatusInProgress ModuleStatus = "in_progress"
	StatusCompleted  ModuleStatus = "completed"
)

// Valid reports whether s is one of the known statuses
func (s ModuleStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Module is a named, independently tracked unit of generated-code work
type Module struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Status       ModuleStatus `json:"status"`
	Priority     int          `json:"priority"`
	CreatedAt    Timestamp    `json:"created_at"`
	CompletedAt  *Timestamp   `json:"completed_at"`
	Files        []string     `json:"files"`
	Dependencies []string     `json:"dependencies"`
	Progress     int          `json:"progress"`
}

// HasFile reports whether path is already registered (exact match)
func (m *Module) HasFile(path string) bool {
	for _, f := range m.Files {
		if f == path {
			return true
		}
	}
	return false
}

// AddFiles appends the paths that are not yet registered and returns how
// many were added
func (m *Module) AddFiles(paths ...string) int {
	added := 0
	for _, p := range paths {
		if p == "" || m.HasFile(p) {
			continue
		}
		m.Files = append(m.Files, p)
		added++
	}
	return added
}

// Validate checks if the module has required fields
func (m *Module) Validate() error {
	if m.Name == "" {
		return errors.New("module name is required")
	}
	if !m.Status.Valid() {
		return fmt.Errorf("module %s: invalid status %q", m.Name, m.Status)
	}
	if m.Progress < 0 || m.Progress > 100 {
		return fmt.Errorf("module %s: progress %d out of range", m.Name, m.Progress)
	}
	return nil
}
