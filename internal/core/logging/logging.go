package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Options configures New
type Options struct {
	// Dir receives project_YYYYMMDD.log; empty disables the file
	Dir     string
	Verbose bool
	// Console defaults to stderr
	Console io.Writer
}

// New returns a logger writing text records to the console and a daily log
// file. The returned closer releases the file.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	} else if lvl := strings.ToLower(os.Getenv("LOG_LEVEL")); lvl != "" {
		switch lvl {
		case "debug":
			level = slog.LevelDebug
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var out io.Writer = console
	var closer io.Closer = nopCloser{}
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(FilePath(opts.Dir, time.Now()), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = io.MultiWriter(console, f)
		closer = f
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("component", "modforge"), closer, nil
}

// FilePath is the daily log file for t
func FilePath(dir string, t time.Time) string {
	return filepath.Join(dir, "project_"+t.Format("20060102")+".log")
}

// Discard returns a logger that drops everything
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
