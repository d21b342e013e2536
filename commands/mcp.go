package commands

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/penwyp/go-agent-timeline/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve sessions and timelines over MCP stdio",
	Long: `Runs a Model Context Protocol server on stdin/stdout exposing
list_sessions, get_timeline and search_events tools. A filesystem
watcher on both data roots keeps the cache fresh while the server runs.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().DurationVar(&cacheTTL, "cache-ttl", 0,
		"Cache entry lifetime (0 = default 2m)")
}

func runMCP(cmd *cobra.Command, args []string) error {
	config, err := setup(cmd)
	if err != nil {
		return err
	}
	return mcpserver.NewServer(config, Version).Run(cmd.Context())
}
