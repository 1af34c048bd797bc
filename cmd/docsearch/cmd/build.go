package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mfenderov/docsearch/internal/config"
	"github.com/mfenderov/docsearch/internal/elasticsearch"
	"github.com/mfenderov/docsearch/internal/fetcher"
	"github.com/mfenderov/docsearch/internal/index"
	"github.com/mfenderov/docsearch/internal/pipeline"
	"github.com/mfenderov/docsearch/internal/storage"
)

// newFetcher wires the archive fetcher, with the S3 mirror when storage is configured.
func newFetcher(ctx context.Context, cfg config.Config) (*fetcher.Fetcher, error) {
	var mirror fetcher.Mirror

	if cfg.Storage.Endpoint != "" {
		storageClient, err := storage.New(storage.Config{
			Endpoint:        cfg.Storage.Endpoint,
			Bucket:          cfg.Storage.Bucket,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			UseSSL:          cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}

		if err := storageClient.EnsureBucket(ctx); err != nil {
			slog.Warn("archive mirror disabled", "endpoint", cfg.Storage.Endpoint, "error", err)
		} else {
			slog.Debug("archive mirror enabled", "bucket", storageClient.Bucket())
			mirror = storageClient
		}
	}

	return fetcher.New(fetcher.Config{
		Timeout:   cfg.Archive.Timeout,
		UserAgent: cfg.Archive.UserAgent,
	}, mirror), nil
}

// newIndex creates the configured search backend.
func newIndex(cfg config.Config) (index.Index, error) {
	schema := index.Schema{
		TextFields:    cfg.Search.TextFields,
		KeywordFields: cfg.Search.KeywordFields,
	}

	switch cfg.Search.Backend {
	case "", "memory":
		idx, err := index.NewMemory(schema)
		if err != nil {
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
		return idx, nil
	case "elasticsearch":
		client, err := elasticsearch.New(elasticsearch.Config{
			Addresses: cfg.Elasticsearch.Addresses,
			Index:     cfg.Elasticsearch.Index,
			Username:  cfg.Elasticsearch.Username,
			Password:  cfg.Elasticsearch.Password,
			Schema:    schema,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create ES client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Search.Backend)
	}
}

// newPipeline wires fetcher, extractor and index from configuration.
func newPipeline(ctx context.Context, cfg config.Config) (*pipeline.Pipeline, error) {
	f, err := newFetcher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	idx, err := newIndex(cfg)
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Config{
		ArchiveURL:  cfg.Archive.URL,
		ArchivePath: cfg.Archive.Path(),
		Extensions:  cfg.Archive.Extensions,
	}, f, idx), nil
}
