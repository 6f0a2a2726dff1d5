package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ErrOutsideRoot is returned for a path that resolves outside the project root
var ErrOutsideRoot = errors.New("path resolves outside the project root")

// Options configures an Extractor
type Options struct {
	// Root is the absolute project root relative paths are resolved against
	Root string
	// BaseDir is prepended to paths that are not already rooted in the project
	BaseDir          string
	CanonicalSegment string
	LegacyPrefix     string
	// LeadIns extends DefaultLeadIns
	LeadIns []string
}

// Match is one (path, code) pair located by a rule
type Match struct {
	Rule    string
	RawPath string
	Path    string
	Content string
	Offset  int
}

// Extractor finds code blocks and their target paths in model responses and
// writes them under the project root. Writes overwrite existing files.
type Extractor struct {
	rules      []Rule
	normalizer *Normalizer
	root       string
	logger     *slog.Logger
}

// New creates an extractor with the default rule set
func New(opts Options, logger *slog.Logger) (*Extractor, error) {
	rules, err := DefaultRules(opts.LeadIns...)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		rules:      rules,
		normalizer: NewNormalizer(opts.BaseDir, opts.CanonicalSegment, opts.LegacyPrefix),
		root:       opts.Root,
		logger:     logger,
	}, nil
}

// Normalizer returns the path normalizer in use
func (e *Extractor) Normalizer() *Normalizer {
	return e.normalizer
}

// Root returns the project root
func (e *Extractor) Root() string {
	return e.root
}

// Scan evaluates every rule over text and returns the matches in rule order,
// then text order. Nothing is written.
func (e *Extractor) Scan(text string) []Match {
	var matches []Match
	for _, rule := range e.rules {
		for _, loc := range rule.Pattern.FindAllStringSubmatchIndex(text, -1) {
			ps, pe := loc[2*rule.PathGroup], loc[2*rule.PathGroup+1]
			cs, ce := loc[2*rule.CodeGroup], loc[2*rule.CodeGroup+1]
			if ps < 0 || cs < 0 {
				continue
			}
			raw := text[ps:pe]
			matches = append(matches, Match{
				Rule:    rule.Name,
				RawPath: raw,
				Path:    e.normalizer.Normalize(raw),
				Content: text[cs:ce],
				Offset:  loc[0],
			})
		}
	}
	return matches
}

// ExtractAll writes every match and returns the normalized paths written, in
// the order they were written. The same path may appear more than once when
// rules overlap; the last write wins. A failed write is logged and skipped.
func (e *Extractor) ExtractAll(text string) []string {
	written := []string{}
	for _, m := range e.WriteMatches(text) {
		written = append(written, m.Path)
	}
	return written
}

// WriteMatches is ExtractAll returning the full matches that were written
func (e *Extractor) WriteMatches(text string) []Match {
	written := []Match{}
	for _, m := range e.Scan(text) {
		if err := e.write(m.Path, m.Content); err != nil {
			e.logger.Error("failed to save extracted file", "path", m.Path, "rule", m.Rule, "error", err)
			continue
		}
		written = append(written, m)
	}
	if len(written) > 0 {
		e.logger.Info("extracted files", "count", len(written))
	} else {
		e.logger.Debug("no file blocks found in response")
	}
	return written
}

// Resolve maps a normalized path to its location on disk
func (e *Extractor) Resolve(path string) string {
	p := filepath.FromSlash(path)
	if filepath.IsAbs(p) || e.root == "" {
		return p
	}
	return filepath.Join(e.root, p)
}

// within reports whether the normalized path stays inside the project root.
// Absolute paths are taken as given but may not climb with "..".
func (e *Extractor) within(path, full string) bool {
	p := filepath.FromSlash(path)
	if filepath.IsAbs(p) || e.root == "" {
		return !slices.Contains(strings.Split(filepath.ToSlash(p), "/"), "..")
	}
	rel, err := filepath.Rel(e.root, full)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (e *Extractor) write(path, content string) error {
	full := e.Resolve(path)
	if !e.within(path, full) {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if _, err := os.Stat(full); err == nil {
		e.logger.Warn("overwriting existing file", "path", full)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat target: %w", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	e.logger.Info("code saved", "path", full)
	return nil
}

// Blocks returns the content of every fenced block in text
func Blocks(text string) []string {
	found := blockPattern.FindAllStringSubmatch(text, -1)
	blocks := make([]string, 0, len(found))
	for _, m := range found {
		blocks = append(blocks, m[1])
	}
	return blocks
}

// ExtractFirstBlock returns every fenced block in text and, when dest is set,
// writes the first one to dest.
func (e *Extractor) ExtractFirstBlock(text, dest string) ([]string, error) {
	blocks := Blocks(text)
	if dest == "" || len(blocks) == 0 {
		return blocks, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return blocks, fmt.Errorf("failed to create directory for %s: %w", dest, err)
	}
	if err := os.WriteFile(dest, []byte(blocks[0]), 0644); err != nil {
		return blocks, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	e.logger.Info("first code block saved", "path", dest)
	return blocks, nil
}
