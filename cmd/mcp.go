package cmd

import (
	"github.com/cdc542559455/lmcache-leaderboard/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the leaderboard MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents read leaderboards, contributors and periods, and refresh the analysis.`,
	PreRunE: func(_ *cobra.Command, args []string) error {
		// Stores are opened so get_leaderboard can refresh the analysis
		return sharedSetup(rootCtx, args, setupOptions{needsStores: true})
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
