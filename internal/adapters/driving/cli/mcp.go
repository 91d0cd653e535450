package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragchat/internal/adapters/driving/mcp"
	"github.com/custodia-labs/ragchat/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server for AI assistant integration.

Tools: ask, retrieve, history. Resource: ragchat://index/metadata.
The server speaks JSON-RPC over stdio unless --http is given.

Examples:
  ragchat mcp serve
  ragchat mcp serve --http 127.0.0.1:8765

Client configuration:
  {
    "mcpServers": {
      "ragchat": {"command": "/path/to/ragchat", "args": ["mcp", "serve"]}
    }
  }

To expose MCP next to the chat API instead, use 'ragchat serve --mcp'.`,
	RunE: runMCPServe,
}

var mcpHTTPAddr string

func init() {
	mcpServeCmd.Flags().StringVar(&mcpHTTPAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	if mcpHTTPAddr != "" {
		if _, _, err := net.SplitHostPort(mcpHTTPAddr); err != nil {
			return fmt.Errorf("invalid --http address %q: %w", mcpHTTPAddr, err)
		}
	}

	server, err := newMCPServer(cmd)
	if err != nil {
		return err
	}

	if mcpHTTPAddr != "" {
		cmd.PrintErrf("MCP server listening on http://%s\n", mcpHTTPAddr)
		return server.RunHTTP(cmd.Context(), mcpHTTPAddr)
	}

	// stdout carries JSON-RPC.
	logger.Debug("MCP server on stdio")
	return server.Run(cmd.Context())
}

func newMCPServer(cmd *cobra.Command) (*mcp.Server, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}
	answer, err := ensureChat(cmd.Context(), settings)
	if err != nil {
		return nil, err
	}

	return mcp.NewServer(&mcp.Ports{
		Answer:    answer,
		Retriever: retrieverService,
		History:   historyService,
		Index:     ensureIndexInspector(settings),
	})
}
