package develop

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/neilberkman/modforge/internal/core/credentials"
	"github.com/neilberkman/modforge/internal/core/db"
	"github.com/neilberkman/modforge/internal/core/extract"
	"github.com/neilberkman/modforge/internal/core/llm"
	"github.com/neilberkman/modforge/internal/core/logging"
	"github.com/neilberkman/modforge/internal/core/project"
	"github.com/neilberkman/modforge/internal/core/session"
)

type fakeProvider struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeProvider) GenerateText(_ context.Context, prompt string) (*llm.Completion, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Completion{
		Text:         f.text,
		InputTokens:  40,
		OutputTokens: 60,
		Elapsed:      1234 * time.Millisecond,
	}, nil
}

func (f *fakeProvider) Name() string { return "fake" }

type fixture struct {
	dir     string
	store   *project.Store
	tracker *project.Tracker
	index   *db.DB
	dev     *Developer
}

func newFixture(t *testing.T, provider llm.Provider) *fixture {
	t.Helper()
	dir := t.TempDir()
	logger := logging.Discard()

	store, err := project.Load(filepath.Join(dir, project.DefaultConfigFile))
	if err != nil {
		t.Fatal(err)
	}
	tracker := project.NewTracker(store, logger)
	if _, err := tracker.CreateModule("auth", "Login", 1); err != nil {
		t.Fatal(err)
	}
	if err := tracker.SetCurrentModule("auth"); err != nil {
		t.Fatal(err)
	}

	ex, err := extract.New(extract.Options{Root: filepath.Join(dir, "root")}, logger)
	if err != nil {
		t.Fatal(err)
	}

	index, err := db.New(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = index.Close() })

	dev := New(Options{
		Provider:    provider,
		Store:       store,
		Tracker:     tracker,
		Recorder:    session.NewRecorder(store, filepath.Join(dir, "sessions"), logger),
		Extractor:   ex,
		Index:       index,
		ResponseDir: dir,
		Progress:    &bytes.Buffer{},
		Logger:      logger,
	})
	return &fixture{dir: dir, store: store, tracker: tracker, index: index, dev: dev}
}

const response = "Segue o código.\n\n" +
	"### app/Controllers/LoginController.php\n```php\n<?php class LoginController {}\n```\n\n" +
	"```php\n// File: app/Models/User.php\n<?php class User {}\n```\n"

func TestRun(t *testing.T) {
	provider := &fakeProvider{text: response}
	f := newFixture(t, provider)

	res, err := f.dev.Run(context.Background(), "auth", "build auth")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(provider.prompts) != 1 || provider.prompts[0] != "build auth" {
		t.Errorf("prompts = %v", provider.prompts)
	}
	if f.store.Config().History.TotalTokensUsed != 100 {
		t.Errorf("TotalTokensUsed = %d, want 100", f.store.Config().History.TotalTokensUsed)
	}

	if res.Session == nil || res.Session.Module != "auth" || res.Session.TokensUsed != 100 {
		t.Fatalf("session = %+v", res.Session)
	}
	if res.Session.ResponseTime != 1.23 {
		t.Errorf("ResponseTime = %v, want 1.23", res.Session.ResponseTime)
	}

	saved, err := os.ReadFile(filepath.Join(f.dir, "temp_response_auth.txt"))
	if err != nil {
		t.Fatalf("response copy missing: %v", err)
	}
	if string(saved) != response {
		t.Error("response copy differs from response")
	}

	want := []string{
		"restaurante-sistema/app/Models/User.php",
		"restaurante-sistema/app/Controllers/LoginController.php",
	}
	if len(res.Files) != len(want) {
		t.Fatalf("Files = %v, want %v", res.Files, want)
	}
	for i := range want {
		if res.Files[i] != want[i] {
			t.Errorf("Files[%d] = %s, want %s", i, res.Files[i], want[i])
		}
	}

	m, _ := f.tracker.Module("auth")
	if len(m.Files) != 2 {
		t.Errorf("module files = %v", m.Files)
	}

	indexed, err := f.index.GetSession(res.Session.ID)
	if err != nil {
		t.Fatalf("session not indexed: %v", err)
	}
	if indexed.FileCount != 2 {
		t.Errorf("indexed FileCount = %d", indexed.FileCount)
	}
}

func TestRun_NoBlocks(t *testing.T) {
	f := newFixture(t, &fakeProvider{text: "Nothing to write."})

	res, err := f.dev.Run(context.Background(), "auth", "explain")
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Files) != 0 {
		t.Errorf("Files = %v", res.Files)
	}
	if len(f.store.Config().History.Sessions) != 1 {
		t.Error("session should still be recorded")
	}
}

func TestSend_ProviderError(t *testing.T) {
	boom := errors.New("API error (500): overloaded")
	f := newFixture(t, &fakeProvider{err: boom})

	_, err := f.dev.Run(context.Background(), "auth", "build")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}

	cfg := f.store.Config()
	if cfg.History.TotalTokensUsed != 0 || len(cfg.History.Sessions) != 0 {
		t.Error("failed send must not touch history")
	}
	if _, err := os.Stat(filepath.Join(f.dir, "temp_response_auth.txt")); !os.IsNotExist(err) {
		t.Error("no response copy expected on failure")
	}
}

func TestSend_WithoutRecord(t *testing.T) {
	f := newFixture(t, &fakeProvider{text: "ok"})

	completion, s, err := f.dev.Send(context.Background(), "ping", false)
	if err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Error("no session expected")
	}
	if completion.Text != "ok" {
		t.Errorf("Text = %q", completion.Text)
	}

	reloaded, err := project.Load(f.store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Config().History.TotalTokensUsed != 100 {
		t.Error("token total should be persisted")
	}
	if len(reloaded.Config().History.Sessions) != 0 {
		t.Error("history should be empty")
	}
}

func TestResolveKey(t *testing.T) {
	dir := t.TempDir()
	store, err := project.Load(filepath.Join(dir, project.DefaultConfigFile))
	if err != nil {
		t.Fatal(err)
	}

	keyFile := filepath.Join(dir, "api.txt")
	if err := os.WriteFile(keyFile, []byte("sk-ant-file-key-0123456789\n"), 0600); err != nil {
		t.Fatal(err)
	}

	key, err := ResolveKey(store, credentials.Resolver{KeyFile: keyFile, EnvFile: filepath.Join(dir, ".env")})
	if err != nil {
		t.Fatal(err)
	}
	if key != "sk-ant-file-key-0123456789" {
		t.Errorf("key = %q", key)
	}

	reloaded, err := project.Load(store.Path())
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Config().API.APIKey != key {
		t.Error("resolved key should be saved into the document")
	}
}

func TestResolveKey_None(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(credentials.EnvVar, "")
	_ = os.Unsetenv(credentials.EnvVar)

	store, err := project.Load(filepath.Join(dir, project.DefaultConfigFile))
	if err != nil {
		t.Fatal(err)
	}

	_, err = ResolveKey(store, credentials.Resolver{
		KeyFile: filepath.Join(dir, "missing.txt"),
		EnvFile: filepath.Join(dir, ".env"),
	})
	if !errors.Is(err, credentials.ErrNoCredential) {
		t.Errorf("err = %v, want ErrNoCredential", err)
	}
}
