package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/mfenderov/docsearch/internal/processor"
	"github.com/mfenderov/docsearch/internal/scraper"
	"github.com/mfenderov/docsearch/internal/textstats"
	"github.com/spf13/cobra"
)

var (
	countWord   string
	countDirect bool
)

var countCmd = &cobra.Command{
	Use:   "count <url>",
	Short: "Count characters and word occurrences on a web page",
	Long: `Fetch a single page as Markdown and report its character count and how
often a word appears in it. Pages are fetched through the configured reader
prefix unless --direct is set.

Examples:
  docsearch count https://datatalks.club/
  docsearch count https://github.com/alexeygrigorev/minsearch --word search
  docsearch count https://example.com/ --direct`,
	Args: cobra.ExactArgs(1),
	RunE: runCount,
}

func init() {
	rootCmd.AddCommand(countCmd)

	countCmd.Flags().StringVar(&countWord, "word", "data", "Word to count")
	countCmd.Flags().BoolVar(&countDirect, "direct", false, "Fetch the page without the reader prefix")
}

func runCount(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := GetConfig()

	readerPrefix := cfg.Scraper.ReaderPrefix
	if countDirect {
		readerPrefix = ""
	}

	s := scraper.New(scraper.Config{
		UserAgent:    cfg.Scraper.UserAgent,
		Timeout:      cfg.Scraper.Timeout,
		ReaderPrefix: readerPrefix,
		MaxBodySize:  cfg.Scraper.MaxBodySize,
	})

	page, err := s.FetchPage(ctx, args[0])
	if err != nil {
		return err
	}

	proc := processor.New()
	text, err := proc.Normalize(*page)
	if err != nil {
		return err
	}
	title := proc.ExtractTitle(page.Content)
	slog.Debug("page normalized",
		"url", page.URL,
		"title", title,
		"content_type", page.ContentType,
		"size", len(text))

	writeCounts(cmd.OutOrStdout(), title, text, countWord)
	return nil
}

// writeCounts prints the page report. The title line is omitted when empty.
func writeCounts(out io.Writer, title, text, word string) {
	if title != "" {
		fmt.Fprintf(out, "Title: %s\n", title)
	}
	fmt.Fprintf(out, "Character count: %d\n", textstats.CharCount(text))
	fmt.Fprintf(out, "Occurrences of '%s': %d\n", word, textstats.CountWord(text, word))
}
