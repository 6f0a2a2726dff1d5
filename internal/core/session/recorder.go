package session

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/neilberkman/modforge/internal/core/models"
	"github.com/neilberkman/modforge/internal/core/project"
)

// GeneralDir holds records of sessions sent with no active module
const GeneralDir = "general"

// ErrNoResponse is returned when a session record has no response field
var ErrNoResponse = errors.New("record has no response")

// NewID derives the session identifier from the prompt and the creation instant
func NewID(prompt string, at time.Time) string {
	sum := md5.Sum([]byte(prompt + "_" + models.NewTimestamp(at).ISO()))
	return hex.EncodeToString(sum[:])
}

// Recorder appends sessions to the project history and mirrors each one to
// a standalone JSON record under dir/<module>/<id>.json.
type Recorder struct {
	store  *project.Store
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

// NewRecorder creates a recorder writing records below dir
func NewRecorder(store *project.Store, dir string, logger *slog.Logger) *Recorder {
	if dir == "" {
		dir = "sessions"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, dir: dir, logger: logger, now: time.Now}
}

// Dir returns the records directory
func (r *Recorder) Dir() string {
	return r.dir
}

// Record builds a session, appends it to history, saves the project
// document and writes the standalone record
func (r *Recorder) Record(prompt, response, module string, tokens int, elapsed time.Duration) (models.Session, error) {
	at := r.now()
	s := models.Session{
		ID:           NewID(prompt, at),
		Timestamp:    models.NewTimestamp(at),
		Module:       module,
		Prompt:       prompt,
		Response:     response,
		TokensUsed:   tokens,
		ResponseTime: math.Round(elapsed.Seconds()*100) / 100,
	}

	cfg := r.store.Config()
	cfg.History.Sessions = append(cfg.History.Sessions, s)
	if err := r.store.Save(); err != nil {
		return s, err
	}

	path, err := r.writeRecord(s)
	if err != nil {
		return s, err
	}
	r.logger.Info("session recorded", "id", s.ID, "module", module, "path", path)
	return s, nil
}

// Get returns the session with this id from history
func (r *Recorder) Get(id string) (*models.Session, bool) {
	sessions := r.store.Config().History.Sessions
	for i := range sessions {
		if sessions[i].ID == id {
			return &sessions[i], true
		}
	}
	return nil, false
}

// Recent returns up to n of the latest sessions, newest last
func (r *Recorder) Recent(n int) []models.Session {
	sessions := r.store.Config().History.Sessions
	if n <= 0 || n >= len(sessions) {
		return sessions
	}
	return sessions[len(sessions)-n:]
}

// RecordPath is where the standalone record of s lives
func (r *Recorder) RecordPath(s models.Session) string {
	module := s.Module
	if module == "" {
		module = GeneralDir
	}
	return filepath.Join(r.dir, module, s.ID+".json")
}

func (r *Recorder) writeRecord(s models.Session) (string, error) {
	path := r.RecordPath(s)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create sessions directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(s); err != nil {
		return "", fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to write session record: %w", err)
	}
	return path, nil
}

// ReadRecord loads a standalone session record
func ReadRecord(path string) (models.Session, error) {
	var s models.Session
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("failed to read session record: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse session record %s: %w", path, err)
	}
	return s, nil
}

// LoadResponse reads response text from path. A JSON object is treated as a
// session record and its response field is returned; anything else is
// returned as-is.
func LoadResponse(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	text := string(data)
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		return text, nil
	}

	var record map[string]json.RawMessage
	if err := json.Unmarshal(data, &record); err != nil {
		return "", fmt.Errorf("failed to parse session record %s: %w", path, err)
	}
	raw, ok := record["response"]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoResponse, path)
	}
	var response string
	if err := json.Unmarshal(raw, &response); err != nil {
		return "", fmt.Errorf("failed to parse response field: %w", err)
	}
	return response, nil
}
