package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/neilberkman/modforge/internal/core/config"
	"github.com/neilberkman/modforge/internal/core/credentials"
	"github.com/neilberkman/modforge/internal/core/db"
	"github.com/neilberkman/modforge/internal/core/extract"
	"github.com/neilberkman/modforge/internal/core/llm"
	"github.com/neilberkman/modforge/internal/core/logging"
	"github.com/neilberkman/modforge/internal/core/project"
	"github.com/neilberkman/modforge/internal/core/prompt"
	"github.com/neilberkman/modforge/internal/core/session"
)

// app holds what every command needs: settings, logger and the project
// document
type app struct {
	settings *config.Config
	logger   *slog.Logger
	closer   io.Closer
	store    *project.Store
	tracker  *project.Tracker
}

func openApp() (*app, error) {
	var settings *config.Config
	var err error
	if settingsDir != "" {
		settings, err = config.LoadFrom(settingsDir)
	} else {
		settings, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	logger, closer, err := logging.New(logging.Options{Dir: settings.LogsDir, Verbose: verbose})
	if err != nil {
		return nil, err
	}

	store, err := project.Load(configPath)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	return &app{
		settings: settings,
		logger:   logger,
		closer:   closer,
		store:    store,
		tracker:  project.NewTracker(store, logger),
	}, nil
}

func (a *app) Close() {
	_ = a.closer.Close()
}

func (a *app) indexPath() string {
	if dbPath != "" {
		return dbPath
	}
	return a.settings.IndexDB
}

// openIndex opens the session index. Callers that treat the index as
// optional log the error and carry on.
func (a *app) openIndex() (*db.DB, error) {
	database, err := db.New(a.indexPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

func (a *app) extractor(baseDir string) (*extract.Extractor, error) {
	if baseDir == "" {
		baseDir = a.settings.BaseDir
	}
	return extract.New(extract.Options{
		Root:             a.settings.BasePath,
		BaseDir:          baseDir,
		CanonicalSegment: a.settings.CanonicalSegment,
		LegacyPrefix:     a.settings.LegacyPrefix,
		LeadIns:          a.settings.LeadIns,
	}, a.logger)
}

func (a *app) recorder() *session.Recorder {
	return session.NewRecorder(a.store, a.settings.SessionsDir, a.logger)
}

func (a *app) promptBuilder() *prompt.Builder {
	return prompt.NewBuilder(a.settings.ModulePromptTemplate, a.settings.ContextFile, a.logger)
}

func (a *app) resolver() credentials.Resolver {
	return credentials.Resolver{
		KeyFile:    a.settings.KeyFile,
		EnvFile:    a.settings.EnvFile,
		UseKeyring: a.settings.UseKeyring,
		Logger:     a.logger,
	}
}

// provider builds the configured backend. key is only used by anthropic.
func (a *app) provider(ctx context.Context, key string) (llm.Provider, error) {
	switch strings.ToLower(a.settings.Provider) {
	case "", "anthropic":
		api := a.store.Config().API
		a.logger.Info("using API key", "key", credentials.Mask(key))
		return llm.NewAnthropicClient(llm.AnthropicConfig{
			Endpoint: api.Endpoint,
			Model:    api.Model,
			APIKey:   key,
		}, a.logger), nil
	case "bedrock":
		b := a.settings.Bedrock
		return llm.NewBedrockProvider(ctx, llm.BedrockConfig{
			Region:    b.Region,
			ModelID:   b.ModelID,
			Profile:   b.Profile,
			MaxTokens: b.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("unknown provider %q", a.settings.Provider)
	}
}
