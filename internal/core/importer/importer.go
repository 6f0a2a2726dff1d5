package importer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/yargevad/filepathx"

	"github.com/neilberkman/modforge/internal/core/db"
	"github.com/neilberkman/modforge/internal/core/session"
)

// Result summarizes one sync run
type Result struct {
	Found    int
	Imported int
	Skipped  int
	Failed   int
}

// Importer syncs standalone session records into the index
type Importer struct {
	db     *db.DB
	logger *slog.Logger
}

// New creates a new importer
func New(database *db.DB, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{db: database, logger: logger}
}

// FindRecords lists every session record below dir
func FindRecords(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}
	files, err := filepathx.Glob(filepath.Join(dir, "**", "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	return files, nil
}

// ImportFile indexes a single record. It returns false when the file's
// content was already imported.
func (i *Importer) ImportFile(path string) (bool, error) {
	hash, err := computeFileHash(path)
	if err != nil {
		return false, fmt.Errorf("failed to hash file: %w", err)
	}

	exists, err := i.db.IsImported(hash)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	s, err := session.ReadRecord(path)
	if err == nil {
		err = s.Validate()
	}
	if err != nil {
		if logErr := i.db.LogImport(path, hash, 0, "failed", err.Error()); logErr != nil {
			i.logger.Warn("failed to log import", "path", path, "error", logErr)
		}
		return false, err
	}

	if _, err := i.db.IndexSession(s, path, hash); err != nil {
		return false, err
	}
	if err := i.db.LogImport(path, hash, 1, "success", ""); err != nil {
		return false, err
	}
	return true, nil
}

// ImportDirectory imports all records from a sessions tree
func (i *Importer) ImportDirectory(dir string, progress ProgressCallback) (*Result, error) {
	files, err := FindRecords(dir)
	if err != nil {
		return nil, err
	}

	res := &Result{Found: len(files)}
	for _, file := range files {
		imported, err := i.ImportFile(file)
		switch {
		case err != nil:
			res.Failed++
			i.logger.Warn("failed to import session record", "path", file, "error", err)
		case imported:
			res.Imported++
		default:
			res.Skipped++
		}

		if progress != nil {
			progress.Update(filepath.Base(filepath.Dir(file)), filepath.Base(file))
		}
	}

	if progress != nil {
		progress.Finish()
	}
	return res, nil
}

func computeFileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = file.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
