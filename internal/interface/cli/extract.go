package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/neilberkman/modforge/internal/core/extract"
	"github.com/neilberkman/modforge/internal/core/session"
)

var (
	extractDryRun     bool
	extractFirstBlock bool
	extractOut        string
	extractBaseDir    string
	extractModule     string
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Write the code blocks of a saved response to disk",
	Long: `Extract code from a saved response. The file may be raw response text
(such as temp_response_core.txt) or a session JSON record, in which case its
"response" field is used.

Examples:
  modforge extract temp_response_core.txt
  modforge extract sessions/core/55fd6919708c1e6370262fa635c78689.json --dry-run
  modforge extract temp_response_core.txt --first-block --out snippet.php`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVarP(&extractDryRun, "dry-run", "n", false, "Show what would be written")
	extractCmd.Flags().BoolVar(&extractFirstBlock, "first-block", false, "Use the plain block extractor instead of the path rules")
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "With --first-block, write the first block here")
	extractCmd.Flags().StringVar(&extractBaseDir, "base-dir", "", "Base directory prepended to relative paths")
	extractCmd.Flags().StringVar(&extractModule, "module", "", "Register written files on this module (default: the record's module, then the current module)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	text, err := session.LoadResponse(args[0])
	if err != nil {
		return err
	}

	ex, err := a.extractor(extractBaseDir)
	if err != nil {
		return err
	}

	if extractFirstBlock {
		return runFirstBlock(a, ex, text, args[0], extractOut)
	}

	if extractDryRun {
		matches := ex.Scan(text)
		if len(matches) == 0 {
			fmt.Println("No file blocks found.")
			return nil
		}
		for _, m := range matches {
			fmt.Printf("[%s] %s -> %s (%d bytes)\n", m.Rule, m.RawPath, ex.Resolve(m.Path), len(m.Content))
		}
		return nil
	}

	matches := ex.WriteMatches(text)
	if len(matches) == 0 {
		fmt.Println("No files were created. Check the response format.")
		return nil
	}

	fmt.Printf("Files created (%d):\n", len(matches))
	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		fmt.Printf(" - %s\n", m.Path)
		paths = append(paths, m.Path)
	}

	sessionID, module := extractTarget(a, args[0])
	registerExtracted(a, module, paths)

	logExtraction(a, sessionID, module, matches)
	return nil
}

// runFirstBlock writes the first plain fenced block to out and registers it
// like any other extracted file
func runFirstBlock(a *app, ex *extract.Extractor, text, file, out string) error {
	blocks, err := ex.ExtractFirstBlock(text, out)
	if err != nil {
		return err
	}
	fmt.Printf("Found %d code block(s)\n", len(blocks))
	if out == "" || len(blocks) == 0 {
		return nil
	}
	fmt.Printf("First block written to %s\n", out)

	_, module := extractTarget(a, file)
	registerExtracted(a, module, []string{out})
	return nil
}

// extractTarget works out which session and module extracted files belong
// to: --module, then the session record's module, then the current module.
func extractTarget(a *app, file string) (sessionID, module string) {
	module = extractModule
	if strings.HasSuffix(file, ".json") {
		if rec, err := session.ReadRecord(file); err == nil {
			sessionID = rec.ID
			if module == "" {
				module = rec.Module
			}
		}
	}
	if module == "" {
		module = a.tracker.CurrentModule()
	}
	return sessionID, module
}

func registerExtracted(a *app, module string, paths []string) {
	if module == "" {
		return
	}
	if _, err := a.tracker.RegisterFiles(module, paths); err != nil {
		fmt.Printf("Files not registered: %v\n", err)
	}
}

func logExtraction(a *app, sessionID, module string, matches []extract.Match) {
	index, err := a.openIndex()
	if err != nil {
		a.logger.Debug("session index unavailable", "error", err)
		return
	}
	defer func() { _ = index.Close() }()

	byRule := map[string][]string{}
	for _, m := range matches {
		byRule[m.Rule] = append(byRule[m.Rule], m.Path)
	}
	now := time.Now()
	for rule, paths := range byRule {
		if err := index.RecordExtraction(sessionID, module, rule, paths, now); err != nil {
			a.logger.Warn("failed to index extracted files", "rule", rule, "error", err)
		}
	}
}
