package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfenderov/docsearch/internal/extractor"
	"github.com/mfenderov/docsearch/internal/index"
	"github.com/mfenderov/docsearch/pkg/models"
)

// Fetcher makes an archive snapshot available locally.
type Fetcher interface {
	EnsureLocal(ctx context.Context, archiveURL, dest string) error
}

// Config holds pipeline configuration.
type Config struct {
	ArchiveURL  string
	ArchivePath string
	Extensions  []string
}

// BuildResult describes the indexed corpus.
type BuildResult struct {
	Documents int
	Skipped   int
	Warnings  []extractor.DecodeWarning
	Duration  time.Duration
}

// Result holds a full fetch, extract, index and query run.
type Result struct {
	BuildResult
	Query string
	Hits  []models.Result
}

// Pipeline orchestrates fetch, extraction, indexing and querying.
type Pipeline struct {
	config  Config
	fetcher Fetcher
	index   index.Index
}

// New creates a new Pipeline.
func New(config Config, fetcher Fetcher, idx index.Index) *Pipeline {
	return &Pipeline{
		config:  config,
		fetcher: fetcher,
		index:   idx,
	}
}

// Build fetches the archive, extracts its documents and fits the index.
// Fetch and archive failures wrap *fetcher.FetchError and *extractor.ArchiveReadError.
func (p *Pipeline) Build(ctx context.Context) (*BuildResult, error) {
	start := time.Now()

	if err := p.fetcher.EnsureLocal(ctx, p.config.ArchiveURL, p.config.ArchivePath); err != nil {
		return nil, fmt.Errorf("failed to fetch archive: %w", err)
	}

	extracted, err := extractor.Extract(p.config.ArchivePath, extractor.Options{
		Extensions: p.config.Extensions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract documents: %w", err)
	}

	if err := p.index.Fit(ctx, extracted.Documents); err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}

	result := &BuildResult{
		Documents: len(extracted.Documents),
		Skipped:   extracted.Skipped,
		Warnings:  extracted.Warnings,
		Duration:  time.Since(start),
	}

	slog.Info("index ready",
		"documents", result.Documents,
		"skipped", result.Skipped,
		"warnings", len(result.Warnings),
		"duration", result.Duration)

	return result, nil
}

// Run builds the index and issues a single query against it.
func (p *Pipeline) Run(ctx context.Context, query string, opts index.SearchOptions) (*Result, error) {
	built, err := p.Build(ctx)
	if err != nil {
		return nil, err
	}

	hits, err := p.index.Search(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	return &Result{
		BuildResult: *built,
		Query:       query,
		Hits:        hits,
	}, nil
}

// Index returns the index the pipeline fits.
func (p *Pipeline) Index() index.Index {
	return p.index
}
