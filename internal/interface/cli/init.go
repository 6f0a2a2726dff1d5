package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/neilberkman/modforge/internal/core/credentials"
	"github.com/neilberkman/modforge/internal/core/develop"
	"github.com/neilberkman/modforge/internal/core/project"
	"github.com/neilberkman/modforge/internal/core/report"
	"github.com/neilberkman/modforge/internal/interface/tui"
)

var (
	initContextFile string
	initAPIKey      string
	initYes         bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the project document with the default modules",
	Long: `Create the project context file (interactively if missing), configure the
API key, register the default module set, select "core" as the current module
and create the base directory.

Examples:
  modforge init
  modforge init --context-file docs/context.md --api-key sk-ant-...`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initContextFile, "context-file", "", "Copy project context from this file")
	initCmd.Flags().StringVar(&initAPIKey, "api-key", "", "API key to store in the project document")
	initCmd.Flags().BoolVarP(&initYes, "yes", "y", false, "Never prompt")
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := ensureContextFile(a.settings.ContextFile); err != nil {
		return err
	}

	if initAPIKey != "" {
		if err := develop.SetKey(a.store, initAPIKey, a.logger); err != nil {
			return fmt.Errorf("failed to save API key: %w", err)
		}
	} else if _, err := develop.ResolveKey(a.store, a.resolver()); err != nil {
		if !errors.Is(err, credentials.ErrNoCredential) || initYes {
			return err
		}
		key := askLine("API key: ")
		if key == "" {
			return credentials.ErrNoCredential
		}
		if err := develop.SetKey(a.store, key, a.logger); err != nil {
			return fmt.Errorf("failed to save API key: %w", err)
		}
	}

	created, err := a.tracker.EnsureModules(project.DefaultModules)
	if err != nil {
		return fmt.Errorf("failed to create modules: %w", err)
	}
	for _, name := range created {
		fmt.Printf("Module created: %s\n", name)
	}

	if err := a.tracker.SetCurrentModule(project.DefaultModules[0].Name); err != nil {
		return err
	}

	baseDir := a.settings.BaseDir
	if _, err := os.Stat(baseDir); os.IsNotExist(err) {
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", baseDir, err)
		}
		fmt.Printf("Project directory created: %s\n", baseDir)
	}

	fmt.Println()
	report.Render(os.Stdout, report.Build(a.store.Config(), time.Now()))
	fmt.Println()
	fmt.Println("Project initialized. Start the first module with: modforge develop core")
	return nil
}

func ensureContextFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	var text string
	switch {
	case initContextFile != "":
		data, err := os.ReadFile(initContextFile)
		if err != nil {
			return fmt.Errorf("failed to read context file: %w", err)
		}
		text = string(data)
	case initYes:
		fmt.Printf("No %s found; create it later to give prompts project context.\n", path)
		return nil
	default:
		fmt.Printf("Project context file %s not found.\n", path)
		if !confirm("Create it now?") {
			fmt.Printf("You can create %s later.\n", path)
			return nil
		}
		var err error
		text, err = tui.ReadMultiline("Project context", "Paste the project documentation...", "")
		if errors.Is(err, tui.ErrCancelled) {
			return nil
		}
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create context directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(strings.TrimRight(text, "\n")), 0644); err != nil {
		return fmt.Errorf("failed to write context file: %w", err)
	}
	fmt.Printf("Context file created: %s\n", path)
	return nil
}
