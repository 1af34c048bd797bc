package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mfenderov/docsearch/internal/mcp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Build the index and start the MCP server for document retrieval.

The server communicates via stdio and provides two tools:
  - search_docs: Search indexed files by query
  - get_document: Get a file by its filename

Example:
  docsearch serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Index().Close()

	built, err := p.Build(ctx)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(mcp.Config{
		Name:         cfg.MCP.Name,
		Version:      cfg.MCP.Version,
		DefaultLimit: cfg.Search.Limit,
		Boosts:       cfg.Search.Boosts,
	}, p.Index())
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Starting MCP server with %d documents...\n", built.Documents)

	return server.ServeStdio()
}
