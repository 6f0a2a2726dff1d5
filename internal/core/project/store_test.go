package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/neilberkman/modforge/internal/core/models"
)

func TestLoad_CreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")

	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Load() should persist a default document: %v", err)
	}

	cfg := store.Config()
	if cfg.API.APIKey != "" {
		t.Errorf("default key = %q, want empty", cfg.API.APIKey)
	}
	if len(cfg.Project.Modules) != 0 {
		t.Errorf("default modules = %d, want 0", len(cfg.Project.Modules))
	}
	if cfg.History.TotalTokensUsed != 0 {
		t.Errorf("default token counter = %d, want 0", cfg.History.TotalTokensUsed)
	}
}

func TestLoad_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if !errors.Is(err, ErrCorruptConfig) {
		t.Fatalf("Load() error = %v, want ErrCorruptConfig", err)
	}

	// No auto-repair
	data, _ := os.ReadFile(path)
	if string(data) != "{not json" {
		t.Error("corrupt document should be left untouched")
	}
}

func TestSave_StableLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	store, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	order := []string{`"api"`, `"project"`, `"context"`, `"history"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, key)
		if idx < 0 || idx < last {
			t.Fatalf("key %s out of order in:\n%s", key, text)
		}
		last = idx
	}
	if !strings.Contains(text, "\n    \"api\"") {
		t.Error("expected 4-space indentation")
	}
	if !strings.Contains(text, `"modules": []`) {
		t.Error("empty module list should serialize as []")
	}

	_ = store
}

func TestRoundTrip_Module(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	store, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	tracker := NewTracker(store, nil)

	if _, err := tracker.CreateModule("menu_orders", "Digital menu and ordering", 5); err != nil {
		t.Fatal(err)
	}
	if err := tracker.SetCurrentModule("menu_orders"); err != nil {
		t.Fatal(err)
	}
	if err := tracker.UpdateModuleProgress("menu_orders", 35); err != nil {
		t.Fatal(err)
	}
	if _, err := tracker.RegisterFiles("menu_orders", []string{"restaurante-sistema/app/Menu.php"}); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload error = %v", err)
	}

	want, _ := tracker.Module("menu_orders")
	got := reloaded.Config().FindModule("menu_orders")
	if got == nil {
		t.Fatal("module missing after reload")
	}
	if got.Name != want.Name || got.Description != want.Description ||
		got.Status != want.Status || got.Progress != want.Progress {
		t.Errorf("reloaded module = %+v, want %+v", *got, want)
	}
	if len(got.Files) != 1 || got.Files[0] != want.Files[0] {
		t.Errorf("reloaded files = %v, want %v", got.Files, want.Files)
	}
	if got.Status != models.StatusInProgress {
		t.Errorf("status = %s, want in_progress", got.Status)
	}
}
