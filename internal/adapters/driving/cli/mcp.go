package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/cmisimport/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can import
items, look up site data lists and inspect past import runs.

By default the server speaks JSON-RPC over stdio. Use --port to serve
over HTTP instead.

Examples:
  # Stdio mode
  cmisimport mcp serve

  # HTTP mode
  cmisimport mcp serve --port 8080

Assistant configuration:
  {
    "mcpServers": {
      "cmisimport": {
        "command": "/path/to/cmisimport",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

// mcpRunner starts a configured server; tests replace it.
var mcpRunner = func(cmd *cobra.Command, server *mcp.Server, port int) error {
	var addr string
	if port > 0 {
		addr = fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
	}
	return server.Serve(cmd.Context(), addr)
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	if port < 0 || port > 65535 {
		return errors.New("port must be between 0 and 65535")
	}

	ports := &mcp.Ports{
		Session: sessionService,
		Runs:    runService,
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}
	return mcpRunner(cmd, server, port)
}
