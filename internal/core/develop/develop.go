package develop

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/neilberkman/modforge/internal/core/credentials"
	"github.com/neilberkman/modforge/internal/core/db"
	"github.com/neilberkman/modforge/internal/core/extract"
	"github.com/neilberkman/modforge/internal/core/llm"
	"github.com/neilberkman/modforge/internal/core/models"
	"github.com/neilberkman/modforge/internal/core/project"
	"github.com/neilberkman/modforge/internal/core/session"
)

// Options wires a Developer
type Options struct {
	Provider  llm.Provider
	Store     *project.Store
	Tracker   *project.Tracker
	Recorder  *session.Recorder
	Extractor *extract.Extractor

	// Index is optional; when set, sessions and extracted files are indexed
	Index *db.DB

	// ResponseDir receives temp_response_<module>.txt. Empty means the
	// working directory.
	ResponseDir string

	// Progress receives the wait spinner; nil disables it
	Progress io.Writer

	Logger *slog.Logger
}

// Developer runs one develop cycle: send, record, extract, register
type Developer struct {
	provider    llm.Provider
	store       *project.Store
	tracker     *project.Tracker
	recorder    *session.Recorder
	extractor   *extract.Extractor
	index       *db.DB
	responseDir string
	progress    io.Writer
	logger      *slog.Logger
}

// New creates a Developer
func New(opts Options) *Developer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Developer{
		provider:    opts.Provider,
		store:       opts.Store,
		tracker:     opts.Tracker,
		recorder:    opts.Recorder,
		extractor:   opts.Extractor,
		index:       opts.Index,
		responseDir: opts.ResponseDir,
		progress:    opts.Progress,
		logger:      logger,
	}
}

// Result is the outcome of a develop cycle
type Result struct {
	Completion   *llm.Completion
	Session      *models.Session
	ResponseFile string
	Files        []string
}

// Send issues prompt, adds the usage to the running token total and, when
// record is set, records a session against the current module
func (d *Developer) Send(ctx context.Context, prompt string, record bool) (*llm.Completion, *models.Session, error) {
	var spin *session.Spinner
	if d.progress != nil {
		spin = session.NewSpinnerTo(d.progress, "Waiting for "+d.provider.Name())
		spin.Start()
	}
	started := time.Now()
	completion, err := d.provider.GenerateText(ctx, prompt)
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		d.logger.Error("failed to send prompt", "provider", d.provider.Name(), "error", err)
		return nil, nil, err
	}

	elapsed := completion.Elapsed
	if elapsed == 0 {
		elapsed = time.Since(started)
	}
	tokens := completion.TokensUsed()

	cfg := d.store.Config()
	cfg.History.TotalTokensUsed += tokens
	d.logger.Info("prompt sent", "tokens", tokens, "elapsed", elapsed.Round(10*time.Millisecond))

	if !record {
		if err := d.store.Save(); err != nil {
			return completion, nil, err
		}
		return completion, nil, nil
	}

	s, err := d.recorder.Record(prompt, completion.Text, d.tracker.CurrentModule(), tokens, elapsed)
	if err != nil {
		return completion, nil, fmt.Errorf("failed to record session: %w", err)
	}
	return completion, &s, nil
}

// Run sends prompt for module, saves the raw response, extracts files from
// it and registers them on the module
func (d *Developer) Run(ctx context.Context, module, prompt string) (*Result, error) {
	completion, s, err := d.Send(ctx, prompt, true)
	if err != nil {
		return nil, err
	}
	res := &Result{Completion: completion, Session: s}

	res.ResponseFile = filepath.Join(d.responseDir, "temp_response_"+module+".txt")
	if err := os.WriteFile(res.ResponseFile, []byte(completion.Text), 0644); err != nil {
		d.logger.Warn("failed to save response copy", "path", res.ResponseFile, "error", err)
		res.ResponseFile = ""
	}

	matches := d.extractor.WriteMatches(completion.Text)
	for _, m := range matches {
		res.Files = append(res.Files, m.Path)
	}

	if len(res.Files) > 0 {
		if _, err := d.tracker.RegisterFiles(module, res.Files); err != nil {
			return res, fmt.Errorf("failed to register files: %w", err)
		}
	}

	d.indexRun(s, module, matches)
	return res, nil
}

// indexRun is best effort; the project document is the source of truth
func (d *Developer) indexRun(s *models.Session, module string, matches []extract.Match) {
	if d.index == nil || s == nil {
		return
	}
	if _, err := d.index.IndexSession(*s, d.recorder.RecordPath(*s), ""); err != nil {
		d.logger.Warn("failed to index session", "id", s.ID, "error", err)
		return
	}

	byRule := map[string][]string{}
	var order []string
	for _, m := range matches {
		if _, ok := byRule[m.Rule]; !ok {
			order = append(order, m.Rule)
		}
		byRule[m.Rule] = append(byRule[m.Rule], m.Path)
	}
	for _, rule := range order {
		if err := d.index.RecordExtraction(s.ID, module, rule, byRule[rule], s.Timestamp.Time); err != nil {
			d.logger.Warn("failed to index extracted files", "id", s.ID, "rule", rule, "error", err)
		}
	}
}

// ResolveKey makes sure the project document holds an API key, consulting
// the resolver when it does not. A key found elsewhere is saved into the
// document.
func ResolveKey(store *project.Store, resolver credentials.Resolver) (string, error) {
	cfg := store.Config()
	key, source, err := resolver.Resolve(cfg.API.APIKey)
	if err != nil {
		return "", err
	}
	if source != credentials.SourceConfig {
		cfg.API.APIKey = key
		if err := store.Save(); err != nil {
			return "", err
		}
	}
	return key, nil
}

// SetKey stores key in the project document
func SetKey(store *project.Store, key string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	store.Config().API.APIKey = key
	if err := store.Save(); err != nil {
		return err
	}
	logger.Info("API key configured", "key", credentials.Mask(key))
	return nil
}
