package main

import (
	"github.com/hyperengineering/pacer"
	pacermcp "github.com/hyperengineering/pacer/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server for agent integration",
	Long: `Start a Model Context Protocol (MCP) server over stdio.

This lets MCP-compatible agents drive review sessions directly:
selecting cards, grading outcomes, and planning intervals.

Example client configuration:

  {
    "mcpServers": {
      "pacer": {
        "command": "pacer",
        "args": ["mcp"],
        "env": {
          "PACER_LEARNER": "default"
        }
      }
    }
  }

Environment variables:
  PACER_DB_PATH       Path to local SQLite database (optional)
  PACER_LEARNER       Learner ID (default: 'default')
  PACER_REASONER_URL  OpenAI-compatible endpoint URL (optional)
  PACER_REASONER_KEY  API key for the endpoint
  PACER_REASONER_MODEL Model name (default: gpt-4o-mini)`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, err := loadAndValidateConfig()
	if err != nil {
		return err
	}

	// The client persists for the server lifetime
	client, err := pacer.New(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	server := pacermcp.NewServer(client)
	return server.Run()
}
