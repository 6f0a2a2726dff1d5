package importer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/neilberkman/modforge/internal/core/db"
	"github.com/neilberkman/modforge/internal/core/project"
	"github.com/neilberkman/modforge/internal/core/session"
)

func setup(t *testing.T) (*db.DB, *session.Recorder, string) {
	t.Helper()
	dir := t.TempDir()

	database, err := db.New(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = database.Close() })

	store, err := project.Load(filepath.Join(dir, "claude_project_config.json"))
	if err != nil {
		t.Fatal(err)
	}
	sessionsDir := filepath.Join(dir, "sessions")
	return database, session.NewRecorder(store, sessionsDir, nil), sessionsDir
}

type countingProgress struct {
	updates  int
	finished bool
}

func (c *countingProgress) Update(string, string) { c.updates++ }
func (c *countingProgress) Finish()              { c.finished = true }

func TestImportDirectory(t *testing.T) {
	database, rec, dir := setup(t)

	if _, err := rec.Record("build auth", "resp a", "auth", 10, time.Second); err != nil {
		t.Fatal(err)
	}
	if _, err := rec.Record("general question", "resp b", "", 20, time.Second); err != nil {
		t.Fatal(err)
	}

	imp := New(database, nil)
	progress := &countingProgress{}

	res, err := imp.ImportDirectory(dir, progress)
	if err != nil {
		t.Fatalf("ImportDirectory() error = %v", err)
	}
	if res.Found != 2 || res.Imported != 2 || res.Skipped != 0 || res.Failed != 0 {
		t.Errorf("first sync = %+v", res)
	}
	if progress.updates != 2 || !progress.finished {
		t.Errorf("progress = %+v", progress)
	}

	sessions, err := database.ListSessions(db.SessionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 indexed sessions, got %d", len(sessions))
	}

	// Unchanged files are skipped on the next run
	res, err = imp.ImportDirectory(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported != 0 || res.Skipped != 2 {
		t.Errorf("second sync = %+v", res)
	}
}

func TestImportDirectory_BadRecord(t *testing.T) {
	database, _, dir := setup(t)

	bad := filepath.Join(dir, "auth", "broken.json")
	if err := os.MkdirAll(filepath.Dir(bad), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := New(database, nil).ImportDirectory(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Failed != 1 || res.Imported != 0 {
		t.Errorf("result = %+v", res)
	}

	var status string
	if err := database.QueryRow("SELECT status FROM import_log").Scan(&status); err != nil {
		t.Fatal(err)
	}
	if status != "failed" {
		t.Errorf("status = %q, want failed", status)
	}
}

func TestImportDirectory_Missing(t *testing.T) {
	database, _, dir := setup(t)

	res, err := New(database, nil).ImportDirectory(filepath.Join(dir, "nope"), nil)
	if err != nil {
		t.Fatalf("missing directory should not fail: %v", err)
	}
	if res.Found != 0 {
		t.Errorf("Found = %d", res.Found)
	}
}

func TestProgressReporter(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressReporter(&buf, 2)
	p.Update("auth", "a.json")
	p.Update("general", "b.json")
	p.Finish()

	out := buf.String()
	if !strings.Contains(out, "(2/2)") {
		t.Errorf("missing counter in %q", out)
	}
	if !strings.Contains(out, "Processed 2 session records") {
		t.Errorf("missing summary in %q", out)
	}
}
