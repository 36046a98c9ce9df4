package cli

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/finkit/internal/adapters/driving/mcp"
)

var (
	mcpPort int
	mcpHost string
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve feeds and filings to AI assistants",
	Long: `Expose the feed manager over the Model Context Protocol.

Tools: list_feeds, add_feed, remove_feed, refresh_feeds, list_items,
search_items, mark_read and, when EDGAR is configured, get_filing_section.
Resources: finkit://feeds and finkit://feeds/{feedId}/items.

Without --port the server talks JSON-RPC on stdin/stdout. With --port it
serves streamable HTTP and publishes Prometheus metrics at /metrics.

Desktop assistant entry:
  {
    "mcpServers": {
      "finkit": {"command": "finkit", "args": ["mcp", "serve"]}
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "Serve HTTP on this port instead of stdio")
	mcpServeCmd.Flags().StringVar(&mcpHost, "host", "127.0.0.1", "Interface to bind in HTTP mode")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Feed:   feedService,
		Filing: filingService,
	})
	if err != nil {
		return err
	}

	if mcpPort <= 0 {
		return server.Run(cmd.Context())
	}
	if mcpPort > 65535 {
		return fmt.Errorf("port %d out of range", mcpPort)
	}

	addr := net.JoinHostPort(mcpHost, strconv.Itoa(mcpPort))
	cmd.PrintErrf("finkit MCP on http://%s (metrics: /metrics)\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
