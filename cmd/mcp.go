package cmd

import (
	"github.com/huangsam/livemeasure/core"
	"github.com/huangsam/livemeasure/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the livemeasure MCP server",
	Long:  `Launch an MCP server that allows AI agents to refresh and read live measures and quality gates via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr, so stdio stays free for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		computer, err := core.NewComputer(cfg, storeManager)
		if err != nil {
			return err
		}
		return mcp.StartMCPServer(rootCtx, cfg, storeManager, computer)
	},
}
