package project

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"github.com/neilberkman/modforge/internal/core/models"
)

var (
	// ErrModuleNotFound is returned for operations on an unknown module name
	ErrModuleNotFound = errors.New("module not found")
	// ErrInvalidProgress is returned for progress values outside [0, 100]
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
)

// Tracker maintains per-module status and the derived project progress.
// Every mutation is persisted through the Store.
type Tracker struct {
	store  *Store
	logger *slog.Logger
}

// NewTracker creates a tracker over the given store
func NewTracker(store *Store, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{store: store, logger: logger}
}

func (t *Tracker) cfg() *models.ProjectConfig {
	return t.store.Config()
}

// HasModule reports whether a module with this name is registered
func (t *Tracker) HasModule(name string) bool {
	return t.cfg().FindModule(name) != nil
}

// Module returns a copy of the named module
func (t *Tracker) Module(name string) (models.Module, bool) {
	m := t.cfg().FindModule(name)
	if m == nil {
		return models.Module{}, false
	}
	return *m, true
}

// CurrentModule returns the active module name, empty when none is set
func (t *Tracker) CurrentModule() string {
	return t.cfg().Context.CurrentModule
}

// CreateModule appends a new pending module. Duplicate names are not
// rejected; callers check HasModule first.
func (t *Tracker) CreateModule(name, description string, priority int) (models.Module, error) {
	m := models.Module{
		Name:         name,
		Description:  description,
		Status:       models.StatusPending,
		Priority:     priority,
		CreatedAt:    models.Now(),
		Files:        []string{},
		Dependencies: []string{},
		Progress:     0,
	}

	cfg := t.cfg()
	cfg.Project.Modules = append(cfg.Project.Modules, m)
	if err := t.store.Save(); err != nil {
		return m, err
	}
	t.logger.Info("module created", "module", name)
	return m, nil
}

// SetCurrentModule makes name the active module and marks it in progress
func (t *Tracker) SetCurrentModule(name string) error {
	cfg := t.cfg()
	m := cfg.FindModule(name)
	if m == nil {
		t.logger.Error("module not found", "module", name)
		return fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}

	cfg.Context.CurrentModule = name
	// a completed module stays in the completed set only
	if m.Status != models.StatusCompleted && !slices.Contains(cfg.Context.InProgressModules, name) {
		cfg.Context.InProgressModules = append(cfg.Context.InProgressModules, name)
	}
	if m.Status == models.StatusPending {
		m.Status = models.StatusInProgress
	}

	if err := t.store.Save(); err != nil {
		return err
	}
	t.logger.Info("current module set", "module", name)
	return nil
}

// CompleteModule marks the module completed and recomputes project progress
func (t *Tracker) CompleteModule(name string) error {
	cfg := t.cfg()
	m := cfg.FindModule(name)
	if m == nil {
		t.logger.Error("module not found", "module", name)
		return fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}

	completedAt := models.Now()
	m.Status = models.StatusCompleted
	m.CompletedAt = &completedAt
	m.Progress = 100

	cfg.Context.InProgressModules = slices.DeleteFunc(cfg.Context.InProgressModules, func(n string) bool {
		return n == name
	})
	if !slices.Contains(cfg.Context.CompletedModules, name) {
		cfg.Context.CompletedModules = append(cfg.Context.CompletedModules, name)
	}

	if err := t.Recompute(); err != nil {
		return err
	}
	t.logger.Info("module completed", "module", name)
	return nil
}

// UpdateModuleProgress sets a module's own progress. 100 completes the module.
func (t *Tracker) UpdateModuleProgress(name string, percent int) error {
	if percent < 0 || percent > 100 {
		t.logger.Error("rejected progress update", "module", name, "progress", percent)
		return fmt.Errorf("%w: got %d", ErrInvalidProgress, percent)
	}

	m := t.cfg().FindModule(name)
	if m == nil {
		t.logger.Error("module not found", "module", name)
		return fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}

	if percent == 100 {
		return t.CompleteModule(name)
	}

	m.Progress = percent
	if err := t.Recompute(); err != nil {
		return err
	}
	t.logger.Info("module progress updated", "module", name, "progress", percent)
	return nil
}

// Recompute derives overall project progress from module state and saves.
// Pending modules weigh 0, completed 100, in-progress their own progress.
func (t *Tracker) Recompute() error {
	cfg := t.cfg()
	cfg.Project.Progress = OverallProgress(cfg.Project.Modules)
	if err := t.store.Save(); err != nil {
		return err
	}
	t.logger.Debug("project progress recomputed", "progress", cfg.Project.Progress)
	return nil
}

// OverallProgress applies the recompute rule to a module list
func OverallProgress(modules []models.Module) float64 {
	if len(modules) == 0 {
		return 0
	}

	total := 0
	for _, m := range modules {
		switch m.Status {
		case models.StatusCompleted:
			total += 100
		case models.StatusInProgress:
			total += m.Progress
		}
	}

	return roundTo(float64(total)/float64(len(modules)), 2)
}

// RegisterFiles appends paths to the module's file list, skipping exact duplicates
func (t *Tracker) RegisterFiles(name string, paths []string) (int, error) {
	m := t.cfg().FindModule(name)
	if m == nil {
		return 0, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}

	added := m.AddFiles(paths...)
	if added == 0 {
		return 0, nil
	}
	if err := t.store.Save(); err != nil {
		return added, err
	}
	t.logger.Info("files registered", "module", name, "added", added)
	return added, nil
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
