package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath  string
	settingsDir string
	dbPath      string
	verbose     bool
	versionInfo string
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "modforge",
	Short: "Module-by-module code generation with the Anthropic API",
	Long: `modforge - drive the Anthropic API to build a project one module at a time

Tracks module progress in claude_project_config.json, records every prompt and
response as a session, and writes the code blocks found in responses to the
paths they name.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return reportCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "claude_project_config.json", "Project document path")
	rootCmd.PersistentFlags().StringVar(&settingsDir, "settings", "", "Settings directory (default $MODFORGE_CONFIG_DIR or ~/.config/modforge)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Session index path (default from settings)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}
