package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neilberkman/modforge/internal/core/db"
	"github.com/neilberkman/modforge/internal/core/models"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session to markdown",
	Long: `Export a recorded session to a markdown file.

By default exports to the current directory as session-<id>.md.

Examples:
  modforge sessions export 55fd6919708c1e6370262fa635c78689
  modforge sessions export 55fd6919708c1e6370262fa635c78689 -o core-step.md`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	sessionsCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (default: session-<id>.md in current directory)")
}

func runExport(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	s, ok := a.recorder().Get(sessionID)
	if !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}

	var files []db.ExtractedFile
	if database, err := a.openIndex(); err == nil {
		files, _ = database.ExtractedFiles(sessionID)
		_ = database.Close()
	}

	outputPath := exportOutput
	if outputPath == "" {
		shortID := sessionID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		outputPath = fmt.Sprintf("session-%s.md", shortID)
	}
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, []byte(sessionMarkdown(s, files)), 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	fmt.Printf("Session exported to %s\n", outputPath)
	return nil
}

func sessionMarkdown(s *models.Session, files []db.ExtractedFile) string {
	var b strings.Builder

	module := s.Module
	if module == "" {
		module = "general"
	}

	fmt.Fprintf(&b, "# Session %s\n\n", s.ID)
	fmt.Fprintf(&b, "- **Module:** %s\n", module)
	fmt.Fprintf(&b, "- **Created:** %s\n", s.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "- **Tokens:** %d\n", s.TokensUsed)
	fmt.Fprintf(&b, "- **Response time:** %.2fs\n", s.ResponseTime)

	if len(files) > 0 {
		b.WriteString("\n## Extracted files\n\n")
		for _, f := range files {
			fmt.Fprintf(&b, "- `%s` (%s)\n", f.Path, f.Rule)
		}
	}

	b.WriteString("\n## Prompt\n\n")
	b.WriteString(s.Prompt)
	b.WriteString("\n\n## Response\n\n")
	b.WriteString(s.Response)
	b.WriteString("\n")
	return b.String()
}
