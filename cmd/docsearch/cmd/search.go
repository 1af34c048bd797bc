package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mfenderov/docsearch/internal/index"
	"github.com/spf13/cobra"
)

var (
	searchLimit    int
	searchFilename string
	searchFormat   string
	searchBoosts   map[string]string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Build the index and search the documentation archive",
	Long: `Download the archive snapshot if needed, index its Markdown files,
and print the best matching filenames, one per line.

Examples:
  # Run the default query
  docsearch search

  # Search for something specific
  docsearch search "resource templates" --limit 3

  # Restrict to one file
  docsearch search demo --filename docs/servers/tools.mdx

  # Weight matches in one text field more heavily
  docsearch search demo --boost content=2

  # JSON output with scores and content
  docsearch search demo --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum number of results (default from config)")
	searchCmd.Flags().StringVar(&searchFilename, "filename", "", "Only match this exact filename")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "Output format: text or json")
	searchCmd.Flags().StringToStringVar(&searchBoosts, "boost", nil, "Text field weights, e.g. content=2 (overrides config)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	if searchFormat != "text" && searchFormat != "json" {
		return fmt.Errorf("unknown format %q", searchFormat)
	}

	query := cfg.Search.Query
	if len(args) == 1 {
		query = args[0]
	}
	limit := cfg.Search.Limit
	if cmd.Flags().Changed("limit") {
		limit = searchLimit
	}

	boosts, err := mergeBoosts(cfg.Search.Boosts, searchBoosts)
	if err != nil {
		return err
	}

	opts := index.SearchOptions{Limit: limit, Boosts: boosts}
	if searchFilename != "" {
		opts.Filters = map[string]string{index.FieldFilename: searchFilename}
	}

	p, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer p.Index().Close()

	slog.Debug("search command starting", "query", query, "limit", limit, "backend", cfg.Search.Backend)

	result, err := p.Run(ctx, query, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchFormat == "json" {
		data, err := json.MarshalIndent(result.Hits, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	for _, hit := range result.Hits {
		fmt.Fprintln(out, hit.Filename)
	}
	return nil
}

// mergeBoosts overlays field=weight flag values on the configured boosts.
func mergeBoosts(configured map[string]float64, flags map[string]string) (map[string]float64, error) {
	boosts := make(map[string]float64, len(configured)+len(flags))
	maps.Copy(boosts, configured)
	for field, raw := range flags {
		weight, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid boost for %s: %w", field, err)
		}
		boosts[field] = weight
	}
	return boosts, nil
}
