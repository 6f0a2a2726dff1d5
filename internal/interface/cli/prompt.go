package cli

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/neilberkman/modforge/internal/core/prompt"
)

var (
	promptCopy         bool
	promptRequirements string
)

var promptCmd = &cobra.Command{
	Use:   "prompt [module]",
	Short: "Print the generated prompt for a module",
	Long: `Render the module prompt from project state and the context file without
sending it. Defaults to the current module.

Examples:
  modforge prompt
  modforge prompt payments --copy`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().BoolVarP(&promptCopy, "copy", "c", false, "Copy the prompt to the clipboard")
	promptCmd.Flags().StringVar(&promptRequirements, "requirements", "", "Fill in the requirements section")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	module := ""
	if len(args) > 0 {
		module = args[0]
	}

	text, err := a.promptBuilder().Build(a.store.Config(), module, "")
	if err != nil {
		return err
	}
	text = prompt.WithRequirements(text, promptRequirements)

	fmt.Println(text)

	if promptCopy {
		if err := clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Println("Copied to clipboard.")
	}
	return nil
}
