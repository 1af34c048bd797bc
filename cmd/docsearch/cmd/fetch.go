package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the archive snapshot",
	Long: `Download the configured archive to the local data directory unless it
is already present, and print its path.

Example:
  docsearch fetch`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	f, err := newFetcher(ctx, cfg)
	if err != nil {
		return err
	}

	path := cfg.Archive.Path()
	if err := f.EnsureLocal(ctx, cfg.Archive.URL, path); err != nil {
		return fmt.Errorf("failed to fetch archive: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}
