package prompt

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cbroglie/mustache"
	"github.com/neilberkman/modforge/internal/core/config"
	"github.com/neilberkman/modforge/internal/core/models"
	"github.com/neilberkman/modforge/internal/core/project"
)

const (
	contextMissing = "Descrição detalhada do projeto não disponível."
	contextFailed  = "Erro ao carregar contexto do projeto."
)

// ErrNoCurrentModule is returned when no module is given and none is active
var ErrNoCurrentModule = errors.New("no current module set")

// Builder renders module prompts from project state
type Builder struct {
	template    string
	contextFile string
	logger      *slog.Logger
}

// NewBuilder creates a builder. An empty template uses config.DefaultModulePrompt.
func NewBuilder(template, contextFile string, logger *slog.Logger) *Builder {
	if template == "" {
		template = config.DefaultModulePrompt
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{template: template, contextFile: contextFile, logger: logger}
}

// Build renders the prompt for module (or the current module when empty).
// Empty requirements leave config.RequirementsPlaceholder in place.
func (b *Builder) Build(cfg *models.ProjectConfig, module, requirements string) (string, error) {
	if module == "" {
		module = cfg.Context.CurrentModule
		if module == "" {
			b.logger.Error("no current module set")
			return "", ErrNoCurrentModule
		}
	}

	target := cfg.FindModule(module)
	if target == nil {
		b.logger.Error("module not found", "module", module)
		return "", fmt.Errorf("%w: %s", project.ErrModuleNotFound, module)
	}

	inProgress := make([]string, 0, len(cfg.Context.InProgressModules))
	for _, name := range cfg.Context.InProgressModules {
		if name != module {
			inProgress = append(inProgress, name)
		}
	}

	if strings.TrimSpace(requirements) == "" {
		requirements = config.RequirementsPlaceholder
	}

	data := map[string]interface{}{
		"module":          module,
		"context":         LoadContext(b.contextFile, b.logger),
		"progress":        cfg.Project.Progress,
		"completed":       cfg.Context.CompletedModules,
		"in_progress":     inProgress,
		"description":     target.Description,
		"status":          string(target.Status),
		"module_progress": target.Progress,
		"files":           target.Files,
		"requirements":    requirements,
	}

	rendered, err := mustache.Render(b.template, data)
	if err != nil {
		return "", fmt.Errorf("failed to render module prompt: %w", err)
	}
	return rendered, nil
}

// WithRequirements substitutes the requirements placeholder in an already
// rendered prompt. Empty requirements return the prompt unchanged.
func WithRequirements(rendered, requirements string) string {
	if strings.TrimSpace(requirements) == "" {
		return rendered
	}
	return strings.ReplaceAll(rendered, config.RequirementsPlaceholder, requirements)
}

// LoadContext returns the project context file, or placeholder text when it
// is missing or unreadable
func LoadContext(path string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return contextMissing
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("project context file not found", "path", path)
		return contextMissing
	}
	if err != nil {
		logger.Error("failed to load project context", "path", path, "error", err)
		return contextFailed
	}
	logger.Debug("project context loaded", "path", path)
	return string(data)
}
