package cli

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var modulePriority int

var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "Manage project modules",
}

var moduleAddCmd = &cobra.Command{
	Use:   "add <name> <description>",
	Short: "Add a pending module",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if a.tracker.HasModule(args[0]) {
			return fmt.Errorf("module %q already exists", args[0])
		}
		if _, err := a.tracker.CreateModule(args[0], args[1], modulePriority); err != nil {
			return fmt.Errorf("failed to create module: %w", err)
		}
		fmt.Printf("Module created: %s\n", args[0])
		return nil
	},
}

var moduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List modules with status and progress",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		cfg := a.store.Config()
		if len(cfg.Project.Modules) == 0 {
			fmt.Println("No modules. Run 'modforge init' or 'modforge module add'.")
			return nil
		}

		for _, m := range cfg.Project.Modules {
			marker := " "
			if m.Name == cfg.Context.CurrentModule {
				marker = "*"
			}
			fmt.Printf("%s %-18s %-12s %3d%%  %s file(s)  p%d  %s\n",
				marker, m.Name, m.Status, m.Progress, humanize.Comma(int64(len(m.Files))), m.Priority, m.Description)
		}
		fmt.Printf("\nOverall progress: %.2f%%\n", cfg.Project.Progress)
		return nil
	},
}

var moduleCurrentCmd = &cobra.Command{
	Use:   "current [name]",
	Short: "Show or set the current module",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 0 {
			current := a.tracker.CurrentModule()
			if current == "" {
				current = "(none)"
			}
			fmt.Println(current)
			return nil
		}
		if err := a.tracker.SetCurrentModule(args[0]); err != nil {
			return err
		}
		fmt.Printf("Current module: %s\n", args[0])
		return nil
	},
}

var moduleProgressCmd = &cobra.Command{
	Use:   "progress <name> <percent>",
	Short: "Set a module's progress (100 completes it)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		percent, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid percent %q: %w", args[1], err)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.tracker.UpdateModuleProgress(args[0], percent); err != nil {
			return err
		}
		fmt.Printf("Module %s at %d%% (project %.2f%%)\n", args[0], percent, a.store.Config().Project.Progress)
		return nil
	},
}

var moduleCompleteCmd = &cobra.Command{
	Use:   "complete <name>",
	Short: "Mark a module completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.tracker.CompleteModule(args[0]); err != nil {
			return err
		}
		fmt.Printf("Module %q marked as completed!\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(moduleCmd)
	moduleCmd.AddCommand(moduleAddCmd, moduleListCmd, moduleCurrentCmd, moduleProgressCmd, moduleCompleteCmd)
	moduleAddCmd.Flags().IntVar(&modulePriority, "priority", 1, "Module priority")
}
