package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neilberkman/modforge/internal/core/credentials"
	"github.com/neilberkman/modforge/internal/core/develop"
	"github.com/neilberkman/modforge/internal/core/prompt"
	"github.com/neilberkman/modforge/internal/interface/tui"
)

var (
	devProgress   int
	devComplete   bool
	devPrompt     string
	devPromptFile string
	devAPIKey     string
	devYes        bool
)

var developCmd = &cobra.Command{
	Use:   "develop <module>",
	Short: "Generate the next step of a module",
	Long: `Build the module prompt, send it, save the response to
temp_response_<module>.txt, write the code blocks it contains and register the
files on the module.

Requirements come from --prompt, --prompt-file, or an interactive editor.

Examples:
  modforge develop core
  modforge develop core --prompt "Implement the login controller"
  modforge develop menu_orders --progress 40
  modforge develop payments --complete`,
	Args: cobra.ExactArgs(1),
	RunE: runDevelop,
}

func init() {
	rootCmd.AddCommand(developCmd)
	developCmd.Flags().IntVar(&devProgress, "progress", -1, "Set module progress (0-100) before sending")
	developCmd.Flags().BoolVar(&devComplete, "complete", false, "Mark the module completed and exit")
	developCmd.Flags().StringVar(&devPrompt, "prompt", "", "Requirements for this step")
	developCmd.Flags().StringVar(&devPromptFile, "prompt-file", "", "Read requirements from a file")
	developCmd.Flags().StringVar(&devAPIKey, "api-key", "", "API key (takes precedence over api.txt)")
	developCmd.Flags().BoolVarP(&devYes, "yes", "y", false, "Send without confirmation")
}

func runDevelop(cmd *cobra.Command, args []string) error {
	module := args[0]

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var key string
	if devAPIKey != "" {
		fmt.Println("Using API key from --api-key")
		if err := develop.SetKey(a.store, devAPIKey, a.logger); err != nil {
			return fmt.Errorf("failed to save API key: %w", err)
		}
		key = devAPIKey
	} else if a.settings.Provider != "bedrock" {
		key, err = develop.ResolveKey(a.store, a.resolver())
		if errors.Is(err, credentials.ErrNoCredential) && !devYes {
			if key = askLine("API key: "); key != "" {
				err = develop.SetKey(a.store, key, a.logger)
			}
		}
		if err != nil {
			return fmt.Errorf("API key not provided, cannot continue: %w", err)
		}
	}

	if !a.tracker.HasModule(module) {
		fmt.Printf("Module %q not found. Available modules:\n", module)
		for _, m := range a.store.Config().Project.Modules {
			fmt.Printf(" - %s: %s (status: %s)\n", m.Name, m.Description, m.Status)
		}
		return fmt.Errorf("unknown module %q", module)
	}
	if err := a.tracker.SetCurrentModule(module); err != nil {
		return err
	}

	if cmd.Flags().Changed("progress") {
		if err := a.tracker.UpdateModuleProgress(module, devProgress); err != nil {
			fmt.Fprintf(os.Stderr, "Progress not updated: %v\n", err)
		}
	}

	if devComplete {
		if err := a.tracker.CompleteModule(module); err != nil {
			return err
		}
		fmt.Printf("Module %q marked as completed!\n", module)
		return nil
	}

	base, err := a.promptBuilder().Build(a.store.Config(), module, "")
	if err != nil {
		return err
	}

	requirements, nonInteractive, err := readRequirements()
	if err != nil {
		return err
	}
	text := prompt.WithRequirements(base, requirements)

	if !nonInteractive && !devYes {
		fmt.Println(strings.Repeat("=", 50))
		fmt.Println("PROMPT TO SEND:")
		fmt.Println(strings.Repeat("=", 50))
		fmt.Println(text)
		fmt.Println(strings.Repeat("=", 50))
		if !confirm("Send this prompt?") {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	ctx := context.Background()
	provider, err := a.provider(ctx, key)
	if err != nil {
		return err
	}

	index, err := a.openIndex()
	if err != nil {
		a.logger.Warn("session index unavailable", "error", err)
		index = nil
	} else {
		defer func() { _ = index.Close() }()
	}

	ex, err := a.extractor("")
	if err != nil {
		return err
	}

	dev := develop.New(develop.Options{
		Provider:  provider,
		Store:     a.store,
		Tracker:   a.tracker,
		Recorder:  a.recorder(),
		Extractor: ex,
		Index:     index,
		Progress:  os.Stderr,
		Logger:    a.logger,
	})

	fmt.Println("Sending prompt...")
	res, err := dev.Run(ctx, module, text)
	if err != nil {
		return fmt.Errorf("failed to get response: %w", err)
	}

	fmt.Println("Response received.")
	if res.ResponseFile != "" {
		fmt.Printf("Response saved to %s\n", res.ResponseFile)
	}
	if len(res.Files) > 0 {
		fmt.Printf("\nFiles created (%d):\n", len(res.Files))
		for _, f := range res.Files {
			fmt.Printf(" - %s\n", f)
		}
	} else {
		fmt.Println("\nNo files were created from the response.")
	}

	if !nonInteractive && !devYes {
		answer := askLine("\nUpdate module progress? (0-100, Enter to skip): ")
		if p, err := strconv.Atoi(answer); err == nil {
			if err := a.tracker.UpdateModuleProgress(module, p); err != nil {
				fmt.Fprintf(os.Stderr, "Progress not updated: %v\n", err)
			}
		}
	}

	fmt.Println("\nModule step completed.")
	return nil
}

// readRequirements returns the requirements text and whether it came from a
// flag rather than the editor
func readRequirements() (string, bool, error) {
	if devPrompt != "" {
		preview := devPrompt
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		fmt.Printf("Using --prompt: %s\n", preview)
		return devPrompt, true, nil
	}

	if devPromptFile != "" {
		data, err := os.ReadFile(devPromptFile)
		if err == nil {
			fmt.Printf("Using prompt from %s\n", devPromptFile)
			return string(data), true, nil
		}
		fmt.Fprintf(os.Stderr, "Failed to read prompt file: %v\n", err)
	}

	if devYes {
		return "", true, nil
	}

	text, err := tui.ReadMultiline("Requirements for this step", "Describe what to build next...", "")
	if errors.Is(err, tui.ErrCancelled) {
		return "", false, nil
	}
	return text, false, err
}
