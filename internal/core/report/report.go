package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/neilberkman/modforge/internal/core/models"
	"gopkg.in/yaml.v3"
)

// ModuleStats counts modules by state
type ModuleStats struct {
	Total      int `json:"total" yaml:"total"`
	Completed  int `json:"completed" yaml:"completed"`
	InProgress int `json:"in_progress" yaml:"in_progress"`
	Pending    int `json:"pending" yaml:"pending"`
}

// Report is a snapshot of project state
type Report struct {
	ProjectName       string      `json:"project_name" yaml:"project_name"`
	ProjectVersion    string      `json:"project_version" yaml:"project_version"`
	Progress          float64     `json:"progress" yaml:"progress"`
	CurrentModule     string      `json:"current_module" yaml:"current_module"`
	ModulesStatistics ModuleStats `json:"modules_statistics" yaml:"modules_statistics"`
	FilesCount        int         `json:"files_count" yaml:"files_count"`
	TokensUsed        int         `json:"tokens_used" yaml:"tokens_used"`
	SessionsCount     int         `json:"sessions_count" yaml:"sessions_count"`
	LastUpdated       string      `json:"last_updated" yaml:"last_updated"`
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	rule     = strings.Repeat("=", 50)
	thinRule = strings.Repeat("-", 50)
)

// Build computes the report. Pending is derived from the context sets.
func Build(cfg *models.ProjectConfig, now time.Time) Report {
	total := len(cfg.Project.Modules)
	completed := len(cfg.Context.CompletedModules)
	inProgress := len(cfg.Context.InProgressModules)

	return Report{
		ProjectName:    cfg.Project.Name,
		ProjectVersion: cfg.Project.Version,
		Progress:       cfg.Project.Progress,
		CurrentModule:  cfg.Context.CurrentModule,
		ModulesStatistics: ModuleStats{
			Total:      total,
			Completed:  completed,
			InProgress: inProgress,
			Pending:    total - completed - inProgress,
		},
		FilesCount:    len(cfg.AllFiles()),
		TokensUsed:    cfg.History.TotalTokensUsed,
		SessionsCount: len(cfg.History.Sessions),
		LastUpdated:   models.NewTimestamp(now).ISO(),
	}
}

// Render prints the summary report
func Render(w io.Writer, r Report) {
	current := r.CurrentModule
	if current == "" {
		current = "none"
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("PROJECT REPORT: %s v%s", r.ProjectName, r.ProjectVersion)))
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s %v%%\n", labelStyle.Render("Overall progress:"), r.Progress)
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("Current module:"), current)
	fmt.Fprintln(w, thinRule)
	fmt.Fprintln(w, sectionStyle.Render("Modules:"))
	fmt.Fprintf(w, "  Total:       %d\n", r.ModulesStatistics.Total)
	fmt.Fprintf(w, "  Completed:   %d\n", r.ModulesStatistics.Completed)
	fmt.Fprintf(w, "  In progress: %d\n", r.ModulesStatistics.InProgress)
	fmt.Fprintf(w, "  Pending:     %d\n", r.ModulesStatistics.Pending)
	fmt.Fprintln(w, thinRule)
	fmt.Fprintf(w, "Files:    %s\n", humanize.Comma(int64(r.FilesCount)))
	fmt.Fprintf(w, "Tokens:   %s\n", humanize.Comma(int64(r.TokensUsed)))
	fmt.Fprintf(w, "Sessions: %s\n", humanize.Comma(int64(r.SessionsCount)))
	fmt.Fprintln(w, thinRule)
	if t, err := models.ParseTimestamp(r.LastUpdated); err == nil {
		fmt.Fprintf(w, "Last updated: %s\n", t.Format("02/01/2006 15:04:05"))
	}
	fmt.Fprintln(w, rule)
}

// RenderDetailed prints per-module details and the last five sessions
func RenderDetailed(w io.Writer, cfg *models.ProjectConfig) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, titleStyle.Render("DETAILED REPORT"))
	fmt.Fprintln(w, rule)

	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render("MODULES:"))
	for _, m := range cfg.Project.Modules {
		fmt.Fprintf(w, "\n%s\n", strings.ToUpper(m.Name))
		fmt.Fprintf(w, "  Description: %s\n", m.Description)
		fmt.Fprintf(w, "  Status:      %s\n", m.Status)
		fmt.Fprintf(w, "  Progress:    %d%%\n", m.Progress)
		if !m.CreatedAt.IsZero() {
			fmt.Fprintf(w, "  Created:     %s\n", m.CreatedAt.Format("02/01/2006"))
		}
		if m.CompletedAt != nil && !m.CompletedAt.IsZero() {
			fmt.Fprintf(w, "  Completed:   %s\n", m.CompletedAt.Format("02/01/2006"))
		}
		if len(m.Files) > 0 {
			fmt.Fprintf(w, "  Files (%d):\n", len(m.Files))
			for _, f := range m.Files {
				fmt.Fprintf(w, "    - %s\n", f)
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render("API USAGE:"))
	fmt.Fprintf(w, "  Tokens used: %s\n", humanize.Comma(int64(cfg.History.TotalTokensUsed)))
	fmt.Fprintf(w, "  Sessions:    %d\n", len(cfg.History.Sessions))

	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render("LATEST SESSIONS:"))
	sessions := cfg.History.Sessions
	if len(sessions) > 5 {
		sessions = sessions[len(sessions)-5:]
	}
	for i, s := range sessions {
		module := s.Module
		if module == "" {
			module = "-"
		}
		fmt.Fprintf(w, "  %d. %s (%s) - Module: %s - Tokens: %s\n",
			i+1,
			s.Timestamp.Format("02/01/2006 15:04"),
			humanize.Time(s.Timestamp.Time),
			module,
			humanize.Comma(int64(s.TokensUsed)))
	}
}

// JSON encodes the report with 4-space indentation
func JSON(r Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return buf.Bytes(), nil
}

// YAML encodes the report
func YAML(r Report) ([]byte, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return data, nil
}

// Export writes the report to dir as project_report_<stamp>.<ext>, where
// format is "json" or "yaml"
func Export(dir string, r Report, format string, now time.Time) (string, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = JSON(r)
	case "yaml":
		data, err = YAML(r)
	default:
		return "", fmt.Errorf("unsupported report format %q", format)
	}
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, fmt.Sprintf("project_report_%s.%s", now.Format("20060102_150405"), format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
