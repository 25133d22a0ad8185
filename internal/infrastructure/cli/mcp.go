package cli

import (
	"fmt"
	"os"

	inframcp "github.com/felixgeelhaar/flowmetrics/internal/infrastructure/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the flowmetrics MCP server",
	Run: func(cmd *cobra.Command, args []string) {
		if os.Getenv("FLOWMETRICS_SKIP_MCP_START") == "true" {
			return
		}
		cwd, _ := os.Getwd()
		server, err := inframcp.NewServer(cwd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start MCP server: %v\n", err)
			os.Exit(1)
		}
		if err := server.StartStdio(); err != nil {
			os.Exit(1)
		}
	},
}

func init() {
	RootCmd.AddCommand(mcpCmd)
}
