package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"

	"github.com/neilberkman/modforge/internal/core/db"
	"github.com/neilberkman/modforge/internal/core/importer"
	"github.com/neilberkman/modforge/internal/core/models"
)

var (
	sessionsModule string
	sessionsSince  string
	sessionsLimit  int
	showFull       bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse recorded sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions, newest first",
	Long: `List recorded sessions from the session index. The index is synced from
the sessions directory first.

Examples:
  modforge sessions list
  modforge sessions list --module core --since "last week"
  modforge sessions list --since 2025-03-01 --limit 5`,
	RunE: runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over prompts and responses",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSessionsSearch,
}

var sessionsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import session records into the index",
	Long: `Index every sessions/<module>/<id>.json record. Performs incremental sync:
files whose content was already imported are skipped.`,
	RunE: runSessionsSync,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsSearchCmd, sessionsSyncCmd)

	sessionsListCmd.Flags().StringVarP(&sessionsModule, "module", "m", "", "Filter by module")
	sessionsListCmd.Flags().StringVar(&sessionsSince, "since", "", `Only sessions after this date ("yesterday", "last week", 2025-03-01)`)
	sessionsListCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Maximum number of sessions to display")
	sessionsSearchCmd.Flags().IntVarP(&sessionsLimit, "limit", "n", 20, "Maximum number of results")
	sessionsShowCmd.Flags().BoolVar(&showFull, "full", false, "Print the complete prompt and response")
}

// openSyncedIndex opens the index and imports new records quietly
func openSyncedIndex(a *app) (*db.DB, error) {
	database, err := a.openIndex()
	if err != nil {
		return nil, err
	}
	if _, err := importer.New(database, a.logger).ImportDirectory(a.settings.SessionsDir, nil); err != nil {
		a.logger.Warn("failed to sync sessions", "error", err)
	}
	return database, nil
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	since, err := parseSince(sessionsSince, time.Now())
	if err != nil {
		return err
	}

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	database, err := openSyncedIndex(a)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	sessions, err := database.ListSessions(db.SessionFilter{
		Module: sessionsModule,
		Since:  since,
		Limit:  sessionsLimit,
	})
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	fmt.Printf("Showing %d session(s)\n\n", len(sessions))
	for i, s := range sessions {
		module := s.Module
		if module == "" {
			module = "general"
		}
		fmt.Printf("[%d] %s\n", i+1, s.ID)
		fmt.Printf("    Module:  %s\n", module)
		fmt.Printf("    Prompt:  %s\n", truncate(s.Prompt, 80))
		fmt.Printf("    Tokens:  %s  (%.2fs)\n", humanize.Comma(int64(s.TokensUsed)), s.ResponseTime)
		if s.FileCount > 0 {
			fmt.Printf("    Files:   %d\n", s.FileCount)
		}
		if !s.Timestamp.IsZero() {
			fmt.Printf("    Created: %s\n", humanize.Time(s.Timestamp.Time))
		}
		fmt.Println()
	}
	return nil
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	id := args[0]
	var s models.Session
	var files []db.ExtractedFile

	if local, ok := a.recorder().Get(id); ok {
		s = *local
	}

	database, err := openSyncedIndex(a)
	if err == nil {
		defer func() { _ = database.Close() }()
		if s.ID == "" {
			indexed, err := database.GetSession(id)
			if err != nil && !errors.Is(err, db.ErrSessionNotFound) {
				return err
			}
			if indexed != nil {
				s = indexed.Session
			}
		}
		files, _ = database.ExtractedFiles(id)
	}

	if s.ID == "" {
		return fmt.Errorf("session %s not found", id)
	}

	module := s.Module
	if module == "" {
		module = "general"
	}
	fmt.Printf("Session:  %s\n", s.ID)
	fmt.Printf("Module:   %s\n", module)
	fmt.Printf("Created:  %s (%s)\n", s.Timestamp.Format("02/01/2006 15:04"), humanize.Time(s.Timestamp.Time))
	fmt.Printf("Tokens:   %s\n", humanize.Comma(int64(s.TokensUsed)))
	fmt.Printf("Time:     %.2fs\n", s.ResponseTime)

	if len(files) > 0 {
		fmt.Printf("\nExtracted files (%d):\n", len(files))
		for _, f := range files {
			fmt.Printf(" - %s [%s]\n", f.Path, f.Rule)
		}
	}

	prompt, response := s.Prompt, s.Response
	if !showFull {
		prompt = clip(prompt, 400)
		response = clip(response, 1200)
	}
	fmt.Println("\nPrompt:")
	fmt.Println(wordwrap.String(prompt, 100))
	fmt.Println("\nResponse:")
	fmt.Println(wordwrap.String(response, 100))
	return nil
}

func runSessionsSearch(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	database, err := openSyncedIndex(a)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	query := strings.Join(args, " ")
	results, err := database.Search(query, sessionsLimit)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Printf("No matches for %q\n", query)
		return nil
	}

	fmt.Printf("Found %d match(es) for %q\n\n", len(results), query)
	for i, r := range results {
		module := r.Module
		if module == "" {
			module = "general"
		}
		fmt.Printf("[%d] %s  %s  %s\n", i+1, r.SessionID, module, humanize.Time(r.CreatedAt))
		fmt.Printf("    %s\n\n", strings.Join(strings.Fields(r.Snippet), " "))
	}
	return nil
}

func runSessionsSync(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("Syncing sessions from: %s\n", a.settings.SessionsDir)
	fmt.Printf("Database: %s\n\n", a.indexPath())

	database, err := a.openIndex()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	files, err := importer.FindRecords(a.settings.SessionsDir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("No session records found")
		return nil
	}

	progress := importer.NewProgressReporter(os.Stdout, len(files))
	res, err := importer.New(database, a.logger).ImportDirectory(a.settings.SessionsDir, progress)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported: %d  Unchanged: %d  Failed: %d\n", res.Imported, res.Skipped, res.Failed)
	return nil
}

// truncate collapses whitespace and shortens s at a word boundary
func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}

	cut := s[:maxLen]
	if lastSpace := strings.LastIndex(cut, " "); lastSpace > maxLen-20 {
		cut = cut[:lastSpace]
	}
	return cut + "..."
}

// clip shortens s to maxRunes, keeping line breaks
func clip(s string, maxRunes int) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "\n... (use --full to see everything)"
}
