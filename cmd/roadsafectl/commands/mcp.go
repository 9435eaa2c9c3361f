package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/roadsafe/internal/mcp"
	"github.com/kailas-cloud/roadsafe/internal/version"
)

// NewMCPCmd creates the mcp command.
func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server for LLM agents",
		Long: `Start an MCP (Model Context Protocol) server on stdio.

Agents get two tools: recommend_irc_clauses and search_index_status. The
tools use the local corpus, or a running server when --url is set.`,
		Args: cobra.NoArgs,
		RunE: runMCP,
		Example: `  # Configure in an MCP client:
  # {
  #   "mcpServers": {
  #     "roadsafe": {
  #       "command": "roadsafectl",
  #       "args": ["mcp"]
  #     }
  #   }
  # }`,
	}
}

func runMCP(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackend(ctx)
	if err != nil {
		return err
	}
	defer b.Close()

	server := mcpserver.NewMCPServer("roadsafe", version.Version)
	mcp.RegisterTools(server, b)

	// stdout carries the protocol; diagnostics go to stderr.
	if !quiet {
		log.Println("roadsafe MCP server starting on stdio...")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- mcpserver.ServeStdio(server)
	}()

	select {
	case <-ctx.Done():
		if !quiet {
			log.Println("Shutdown signal received")
		}
	case err := <-serverErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}
	}
	return nil
}
