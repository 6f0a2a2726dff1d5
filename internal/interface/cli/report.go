package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/neilberkman/modforge/internal/core/backup"
	"github.com/neilberkman/modforge/internal/core/report"
)

var (
	reportDetailed bool
	reportJSON     bool
	reportYAML     bool
	reportBackup   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show project progress",
	Long: `Print the project report: overall progress, module counts, files, tokens
and sessions.

Examples:
  modforge report
  modforge report --detailed
  modforge report --json --backup`,
	RunE: runReport,
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy the project document, sources, logs and sessions to backups/",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return runBackup(a)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd, backupCmd)
	reportCmd.Flags().BoolVarP(&reportDetailed, "detailed", "d", false, "Include module details and recent sessions")
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "Export the report as JSON")
	reportCmd.Flags().BoolVar(&reportYAML, "yaml", false, "Export the report as YAML")
	reportCmd.Flags().BoolVar(&reportBackup, "backup", false, "Create a backup after reporting")
}

func runReport(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	now := time.Now()
	cfg := a.store.Config()
	r := report.Build(cfg, now)

	report.Render(os.Stdout, r)
	if reportDetailed {
		report.RenderDetailed(os.Stdout, cfg)
	}

	var formats []string
	if reportJSON {
		formats = append(formats, "json")
	}
	if reportYAML {
		formats = append(formats, "yaml")
	}
	for _, format := range formats {
		path, err := report.Export(".", r, format, now)
		if err != nil {
			return fmt.Errorf("failed to export report: %w", err)
		}
		fmt.Printf("\nReport exported to %s\n", path)
	}

	if reportBackup {
		return runBackup(a)
	}
	return nil
}

func runBackup(a *app) error {
	cfg := a.store.Config()
	src := backup.Sources{
		ConfigFile:  a.store.Path(),
		ProjectDir:  filepath.Join(a.settings.BasePath, cfg.Project.Name),
		LogsDir:     a.settings.LogsDir,
		SessionsDir: a.settings.SessionsDir,
	}

	dir, manifest, err := backup.Create(a.settings.BackupsDir, src, time.Now(), a.logger)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}
	fmt.Printf("\nBackup created: %s (%d files)\n", dir, manifest.Files)
	return nil
}
