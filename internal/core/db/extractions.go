package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/neilberkman/modforge/internal/core/models"
)

// ExtractedFile is one logged extractor write
type ExtractedFile struct {
	SessionID   string
	Module      string
	Rule        string
	Path        string
	ExtractedAt time.Time
}

// RecordExtraction logs paths written for a session. sessionID may be empty
// when extracting from a file that was never indexed.
func (db *DB) RecordExtraction(sessionID, module, rule string, paths []string, at time.Time) error {
	var rowID sql.NullInt64
	if sessionID != "" {
		err := db.conn.QueryRow(`SELECT id FROM sessions WHERE session_id = ?`, sessionID).Scan(&rowID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to look up session: %w", err)
		}
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stamp := models.NewTimestamp(at).String()
	for _, p := range paths {
		_, err := tx.Exec(`
			INSERT INTO extracted_files (session_id, module, rule, path, extracted_at)
			VALUES (?, ?, ?, ?, ?)
		`, rowID, module, rule, p, stamp)
		if err != nil {
			return fmt.Errorf("failed to record %s: %w", p, err)
		}
	}
	return tx.Commit()
}

// ExtractedFiles lists logged writes for a session, oldest first
func (db *DB) ExtractedFiles(sessionID string) ([]ExtractedFile, error) {
	rows, err := db.Query(`
		SELECT s.session_id, e.module, e.rule, e.path, e.extracted_at
		FROM extracted_files e
		JOIN sessions s ON s.id = e.session_id
		WHERE s.session_id = ?
		ORDER BY e.id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list extracted files: %w", err)
	}
	defer rows.Close()

	var files []ExtractedFile
	for rows.Next() {
		var f ExtractedFile
		var at string
		if err := rows.Scan(&f.SessionID, &f.Module, &f.Rule, &f.Path, &at); err != nil {
			return nil, err
		}
		f.ExtractedAt, _ = models.ParseTimestamp(at)
		files = append(files, f)
	}
	return files, rows.Err()
}

// IsImported reports whether a file with this content hash was synced
func (db *DB) IsImported(fileHash string) (bool, error) {
	var exists bool
	err := db.conn.QueryRow("SELECT EXISTS(SELECT 1 FROM import_log WHERE file_hash = ? AND status = 'success')", fileHash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check import log: %w", err)
	}
	return exists, nil
}

// LogImport records a sync attempt
func (db *DB) LogImport(filePath, fileHash string, sessions int, status, errMsg string) error {
	_, err := db.conn.Exec(`
		INSERT INTO import_log (file_path, file_hash, sessions_imported, status, error_message)
		VALUES (?, ?, ?, ?, NULLIF(?, ''))
	`, filePath, fileHash, sessions, status, errMsg)
	if err != nil {
		return fmt.Errorf("failed to record import: %w", err)
	}
	return nil
}
