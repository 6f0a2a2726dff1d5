package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neilberkman/modforge/cmd/modforge/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Start an MCP server over stdio",
	Long: `Start an MCP (Model Context Protocol) server that exposes the project
report, the module list, session lookup and extraction previews.

Configure in your MCP client:
  {
    "mcpServers": {
      "modforge": {
        "command": "modforge",
        "args": ["serve-mcp", "--config", "/path/to/claude_project_config.json"]
      }
    }
  }
`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	database, err := a.openIndex()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	ex, err := a.extractor("")
	if err != nil {
		return err
	}

	srv := mcp.New(mcp.Deps{
		Store:       a.store,
		Recorder:    a.recorder(),
		Index:       database,
		Extractor:   ex,
		SessionsDir: a.settings.SessionsDir,
		Logger:      a.logger,
	})
	if err := srv.ServeStdio(); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}
