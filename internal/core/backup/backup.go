package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ManifestFile is written at the top of every backup
const ManifestFile = "manifest.json"

// Sources lists what a backup copies. Missing optional sources are skipped.
type Sources struct {
	ConfigFile string
	// ProjectDir is the generated source tree, copied under its base name
	ProjectDir  string
	LogsDir     string
	SessionsDir string
}

// Manifest describes a backup
type Manifest struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Copied    []string  `json:"copied"`
	Files     int       `json:"files"`
	Bytes     int64     `json:"bytes"`
}

// Create copies sources into root/backup_YYYYmmdd_HHMMSS and returns the
// backup directory
func Create(root string, src Sources, now time.Time, logger *slog.Logger) (string, *Manifest, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Join(root, "backup_"+now.Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	m := &Manifest{RunID: uuid.NewString(), CreatedAt: now, Copied: []string{}}

	if src.ConfigFile != "" {
		n, err := copyFile(src.ConfigFile, filepath.Join(dir, filepath.Base(src.ConfigFile)))
		if err != nil {
			return dir, nil, fmt.Errorf("failed to copy project document: %w", err)
		}
		m.add(filepath.Base(src.ConfigFile), 1, n)
	}

	trees := []string{src.ProjectDir, src.LogsDir, src.SessionsDir}
	for _, tree := range trees {
		if tree == "" {
			continue
		}
		if _, err := os.Stat(tree); errors.Is(err, fs.ErrNotExist) {
			logger.Debug("backup source missing", "path", tree)
			continue
		}
		name := filepath.Base(filepath.Clean(tree))
		files, size, err := copyTree(tree, filepath.Join(dir, name))
		if err != nil {
			return dir, nil, fmt.Errorf("failed to copy %s: %w", tree, err)
		}
		m.add(name, files, size)
	}

	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return dir, nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0644); err != nil {
		return dir, nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	logger.Info("backup created", "path", dir, "run_id", m.RunID, "files", m.Files)
	return dir, m, nil
}

func (m *Manifest) add(name string, files int, size int64) {
	m.Copied = append(m.Copied, name)
	m.Files += files
	m.Bytes += size
}

func copyTree(src, dst string) (int, int64, error) {
	var files int
	var total int64
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		n, err := copyFile(path, target)
		if err != nil {
			return err
		}
		files++
		total += n
		return nil
	})
	return files, total, err
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}
	return n, os.Chtimes(dst, info.ModTime(), info.ModTime())
}
