package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/mfenderov/docsearch/internal/index"
	"github.com/mfenderov/docsearch/pkg/models"
)

// Config holds Elasticsearch client configuration.
type Config struct {
	Addresses []string
	Index     string
	Username  string
	Password  string
	Schema    index.Schema
}

// Client is a remote index.Index backed by Elasticsearch.
type Client struct {
	es     *elasticsearch.Client
	index  string
	schema index.Schema
}

var _ index.Index = (*Client)(nil)

// New creates a new Elasticsearch client.
func New(config Config) (*Client, error) {
	if config.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	schema := config.Schema
	if len(schema.TextFields) == 0 {
		schema = index.DefaultSchema()
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: config.Addresses,
		Username:  config.Username,
		Password:  config.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}

	return &Client{
		es:     es,
		index:  config.Index,
		schema: schema,
	}, nil
}

// Ping checks if Elasticsearch is available.
func (c *Client) Ping(ctx context.Context) bool {
	res, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return false
	}
	defer res.Body.Close()
	return !res.IsError()
}

// esDocument is the stored form of a document.
// Ordinal keeps ingestion order for tie breaking.
type esDocument struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Ordinal  int    `json:"ordinal"`
}

// indexMapping builds the ES mapping from the schema roles.
func (c *Client) indexMapping() ([]byte, error) {
	properties := map[string]interface{}{
		"ordinal": map[string]string{"type": "integer"},
	}
	// Fields without a role are kept in _source only.
	for _, f := range index.Fields {
		switch {
		case c.schema.IsText(f):
			properties[f] = map[string]interface{}{"type": "text", "analyzer": "standard"}
		case c.schema.IsKeyword(f):
			properties[f] = map[string]interface{}{"type": "keyword"}
		default:
			properties[f] = map[string]interface{}{"type": "text", "index": false}
		}
	}
	return json.Marshal(map[string]interface{}{
		"mappings": map[string]interface{}{
			"dynamic":    "strict",
			"properties": properties,
		},
	})
}

// CreateIndex creates the index with proper mapping.
func (c *Client) CreateIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 200 {
		return nil
	}

	mapping, err := c.indexMapping()
	if err != nil {
		return fmt.Errorf("failed to build mapping: %w", err)
	}

	res, err = c.es.Indices.Create(
		c.index,
		c.es.Indices.Create.WithContext(ctx),
		c.es.Indices.Create.WithBody(bytes.NewReader(mapping)),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error creating index: %s", res.String())
	}

	return nil
}

// DeleteIndex removes the index. A missing index is not an error.
func (c *Client) DeleteIndex(ctx context.Context) error {
	res, err := c.es.Indices.Delete([]string{c.index}, c.es.Indices.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to delete index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("error deleting index: %s", res.String())
	}
	return nil
}

// Fit rebuilds the index from scratch with docs.
func (c *Client) Fit(ctx context.Context, docs []models.Document) error {
	if err := c.DeleteIndex(ctx); err != nil {
		return err
	}
	if err := c.CreateIndex(ctx); err != nil {
		return err
	}

	for i, doc := range docs {
		if err := c.indexDocument(ctx, doc, i); err != nil {
			return err
		}
	}

	if err := c.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh index: %w", err)
	}

	slog.Debug("elasticsearch index built", "index", c.index, "documents", len(docs))
	return nil
}

func (c *Client) indexDocument(ctx context.Context, doc models.Document, ordinal int) error {
	data, err := json.Marshal(esDocument{
		Filename: doc.Filename,
		Content:  doc.Content,
		Ordinal:  ordinal,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := c.es.Index(
		c.index,
		bytes.NewReader(data),
		c.es.Index.WithContext(ctx),
		c.es.Index.WithDocumentID(models.GenerateDocumentID(doc.Filename)),
	)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("error indexing document %s (status %d): %s", doc.Filename, res.StatusCode, res.String())
	}

	return nil
}

// Refresh forces an index refresh so new documents are searchable.
func (c *Client) Refresh(ctx context.Context) error {
	res, err := c.es.Indices.Refresh(
		c.es.Indices.Refresh.WithContext(ctx),
		c.es.Indices.Refresh.WithIndex(c.index),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("refresh error: %s", res.String())
	}
	return nil
}

// searchResponse represents ES search response structure.
type searchResponse struct {
	Hits struct {
		Hits []struct {
			Score  float64    `json:"_score"`
			Source esDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// buildSearchQuery renders a multi_match over text fields with keyword term filters.
// Results sort by score, then ingestion order.
func (c *Client) buildSearchQuery(query string, opts index.SearchOptions) (map[string]interface{}, error) {
	for field := range opts.Boosts {
		if !c.schema.IsText(field) {
			return nil, fmt.Errorf("cannot boost non-text field %q", field)
		}
	}

	fields := make([]string, 0, len(c.schema.TextFields))
	for _, f := range c.schema.TextFields {
		if boost, ok := opts.Boosts[f]; ok {
			fields = append(fields, fmt.Sprintf("%s^%g", f, boost))
		} else {
			fields = append(fields, f)
		}
	}

	filters := make([]map[string]interface{}, 0, len(opts.Filters))
	for _, field := range slices.Sorted(maps.Keys(opts.Filters)) {
		if !c.schema.IsKeyword(field) {
			return nil, fmt.Errorf("cannot filter on non-keyword field %q", field)
		}
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{field: opts.Filters[field]},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": fields,
					},
				},
				"filter": filters,
			},
		},
		"sort": []interface{}{
			map[string]string{"_score": "desc"},
			map[string]string{"ordinal": "asc"},
		},
		"track_scores": true,
		"size":         opts.Limit,
	}, nil
}

// Search performs a text search over the schema's text fields.
func (c *Client) Search(ctx context.Context, query string, opts index.SearchOptions) ([]models.Result, error) {
	if strings.TrimSpace(query) == "" || opts.Limit <= 0 {
		return []models.Result{}, nil
	}

	searchQuery, err := c.buildSearchQuery(query, opts)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(data)),
	)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.String())
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]models.Result, len(sr.Hits.Hits))
	for i, hit := range sr.Hits.Hits {
		results[i] = models.Result{
			Document: models.Document{
				Filename: hit.Source.Filename,
				Content:  hit.Source.Content,
			},
			Score: hit.Score,
		}
	}

	return results, nil
}

// getResponse represents ES get response structure.
type getResponse struct {
	Found  bool       `json:"found"`
	Source esDocument `json:"_source"`
}

// Get retrieves a document by filename.
func (c *Client) Get(ctx context.Context, filename string) (*models.Document, error) {
	res, err := c.es.Get(
		c.index,
		models.GenerateDocumentID(filename),
		c.es.Get.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, nil
	}

	if res.IsError() {
		return nil, fmt.Errorf("get error: %s", res.String())
	}

	var gr getResponse
	if err := json.NewDecoder(res.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if !gr.Found {
		return nil, nil
	}

	return &models.Document{
		Filename: gr.Source.Filename,
		Content:  gr.Source.Content,
	}, nil
}

// Close is a no-op; the HTTP transport holds no per-index resources.
func (c *Client) Close() error {
	return nil
}
