package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show session index statistics",
	Long: `Display statistics about the session index.

Shows session and token counts, extracted files, date range, the most active
module and storage info.`,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	database, err := openSyncedIndex(a)
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	stats, err := database.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read statistics: %w", err)
	}

	fmt.Println("Index Statistics")
	fmt.Println("================")
	fmt.Println()

	fmt.Printf("Total Sessions:    %s\n", humanize.Comma(int64(stats.TotalSessions)))
	fmt.Printf("Total Tokens:      %s\n", humanize.Comma(int64(stats.TotalTokens)))
	fmt.Printf("Files Written:     %s (%s distinct)\n",
		humanize.Comma(int64(stats.TotalExtractedFiles)), humanize.Comma(int64(stats.DistinctFiles)))
	fmt.Println()

	if stats.TotalSessions > 0 {
		if !stats.OldestSession.IsZero() {
			fmt.Printf("Oldest Session:    %s\n", stats.OldestSession.Format("Jan 2, 2006 3:04 PM"))
		}
		if !stats.NewestSession.IsZero() {
			fmt.Printf("Newest Session:    %s\n", stats.NewestSession.Format("Jan 2, 2006 3:04 PM"))
		}
		fmt.Println()

		fmt.Printf("Most Active Module:\n")
		fmt.Printf("  Name:     %s\n", stats.MostActiveModule)
		fmt.Printf("  Sessions: %d\n", stats.MostActiveModuleCount)
		fmt.Println()

		modules := make([]string, 0, len(stats.SessionsByModule))
		for m := range stats.SessionsByModule {
			modules = append(modules, m)
		}
		sort.Strings(modules)
		fmt.Println("Sessions by Module:")
		for _, m := range modules {
			fmt.Printf("  %-18s %d\n", m, stats.SessionsByModule[m])
		}
		fmt.Println()
	}

	fileInfo, err := os.Stat(database.Path())
	if err != nil {
		return fmt.Errorf("failed to stat database file: %w", err)
	}

	fmt.Printf("Database Location: %s\n", database.Path())
	fmt.Printf("Database Size:     %s\n", humanize.Bytes(uint64(fileInfo.Size())))

	return nil
}
