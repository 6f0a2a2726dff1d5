package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neilberkman/modforge/internal/core/models"
)

// ErrSessionNotFound is returned by GetSession for unknown ids
var ErrSessionNotFound = errors.New("session not found in index")

// Session is an indexed session
type Session struct {
	models.Session
	SourcePath string
	FileCount  int
}

// SessionFilter narrows ListSessions
type SessionFilter struct {
	Module string
	Since  time.Time
	Limit  int
}

// IndexSession inserts or refreshes a session row
func (db *DB) IndexSession(s models.Session, sourcePath, fileHash string) (int64, error) {
	_, err := db.conn.Exec(`
		INSERT INTO sessions (
			session_id, module, prompt, response, tokens_used,
			response_time, created_at, source_path, file_hash
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			module = excluded.module,
			prompt = excluded.prompt,
			response = excluded.response,
			tokens_used = excluded.tokens_used,
			response_time = excluded.response_time,
			created_at = excluded.created_at,
			source_path = COALESCE(NULLIF(excluded.source_path, ''), sessions.source_path),
			file_hash = COALESCE(NULLIF(excluded.file_hash, ''), sessions.file_hash)
	`,
		s.ID, s.Module, s.Prompt, s.Response, s.TokensUsed,
		s.ResponseTime, s.Timestamp.String(), sourcePath, fileHash,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to index session %s: %w", s.ID, err)
	}

	var id int64
	if err := db.conn.QueryRow(`SELECT id FROM sessions WHERE session_id = ?`, s.ID).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up session %s: %w", s.ID, err)
	}
	return id, nil
}

// GetSession returns one indexed session by its content-derived id
func (db *DB) GetSession(sessionID string) (*Session, error) {
	row := db.conn.QueryRow(`
		SELECT s.session_id, s.module, COALESCE(s.prompt, ''), COALESCE(s.response, ''),
			s.tokens_used, s.response_time, s.created_at, COALESCE(s.source_path, ''),
			(SELECT COUNT(*) FROM extracted_files WHERE session_id = s.id)
		FROM sessions s
		WHERE s.session_id = ?
	`, sessionID)

	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListSessions returns sessions newest first
func (db *DB) ListSessions(filter SessionFilter) ([]Session, error) {
	query := `
		SELECT s.session_id, s.module, COALESCE(s.prompt, ''), COALESCE(s.response, ''),
			s.tokens_used, s.response_time, s.created_at, COALESCE(s.source_path, ''),
			(SELECT COUNT(*) FROM extracted_files WHERE session_id = s.id)
		FROM sessions s
		WHERE 1 = 1`

	args := []interface{}{}
	if filter.Module != "" {
		query += " AND s.module = ?"
		args = append(args, filter.Module)
	}
	if !filter.Since.IsZero() {
		query += " AND s.created_at >= ?"
		args = append(args, models.NewTimestamp(filter.Since).String())
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += " ORDER BY s.created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// SearchResult is a full-text match
type SearchResult struct {
	SessionID string
	Module    string
	CreatedAt time.Time
	Snippet   string
}

// Search runs an FTS5 query over prompts and responses. Plain words are
// quoted so that punctuation in code does not break the query syntax.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT s.session_id, s.module, s.created_at,
			snippet(sessions_fts, -1, '[', ']', '...', 12)
		FROM sessions_fts
		JOIN sessions s ON s.id = sessions_fts.rowid
		WHERE sessions_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		var created string
		if err := rows.Scan(&r.SessionID, &r.Module, &created, &r.Snippet); err != nil {
			return nil, err
		}
		r.CreatedAt, _ = models.ParseTimestamp(created)
		results = append(results, r)
	}
	return results, rows.Err()
}

func ftsQuery(query string) string {
	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " ")
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (*Session, error) {
	var s Session
	var created string
	err := row.Scan(
		&s.ID,
		&s.Module,
		&s.Prompt,
		&s.Response,
		&s.TokensUsed,
		&s.ResponseTime,
		&created,
		&s.SourcePath,
		&s.FileCount,
	)
	if err != nil {
		return nil, err
	}
	if t, err := models.ParseTimestamp(created); err == nil {
		s.Timestamp = models.NewTimestamp(t)
	}
	return &s, nil
}
