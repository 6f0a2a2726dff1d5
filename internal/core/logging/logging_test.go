package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNew_WritesConsoleAndFile(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	dir := t.TempDir()
	var console bytes.Buffer

	logger, closer, err := New(Options{Dir: dir, Console: &console})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("module created", "module", "core")
	logger.Debug("hidden")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(console.String(), "module created") {
		t.Errorf("console output = %q", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Error("debug record written without verbose")
	}

	data, err := os.ReadFile(FilePath(dir, time.Now()))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(data), "module=core") {
		t.Errorf("log file = %q", data)
	}
}

func TestNew_Verbose(t *testing.T) {
	var console bytes.Buffer
	logger, closer, err := New(Options{Verbose: true, Console: &console})
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	logger.Debug("details")
	if !strings.Contains(console.String(), "details") {
		t.Error("verbose logger should emit debug records")
	}
}

func TestFilePath(t *testing.T) {
	got := FilePath("logs", time.Date(2025, 2, 7, 23, 0, 0, 0, time.Local))
	if !strings.HasSuffix(got, "project_20250207.log") {
		t.Errorf("FilePath() = %q", got)
	}
}
