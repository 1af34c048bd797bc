package index

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/mfenderov/docsearch/pkg/models"
)

// ordinalWidth zero-pads document ids so lexical id order equals ingestion order.
const ordinalWidth = 10

// Memory is an in-memory Bleve index scored with TF-IDF.
type Memory struct {
	mu         sync.RWMutex
	schema     Schema
	index      bleve.Index
	docs       []models.Document
	byFilename map[string]int
}

var _ Index = (*Memory)(nil)

// NewMemory creates an empty in-memory index for schema.
func NewMemory(schema Schema) (*Memory, error) {
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	idx, err := newBleveIndex(schema)
	if err != nil {
		return nil, err
	}

	return &Memory{
		schema:     schema,
		index:      idx,
		byFilename: make(map[string]int),
	}, nil
}

func newBleveIndex(schema Schema) (bleve.Index, error) {
	docMapping := bleve.NewDocumentStaticMapping()

	for _, field := range schema.TextFields {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		fm.Store = false
		fm.IncludeInAll = false
		docMapping.AddFieldMappingsAt(field, fm)
	}
	for _, field := range schema.KeywordFields {
		fm := bleve.NewKeywordFieldMapping()
		fm.Analyzer = keyword.Name
		fm.Store = false
		fm.IncludeInAll = false
		docMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name

	idx, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create index: %w", err)
	}
	return idx, nil
}

func docID(ordinal int) string {
	return fmt.Sprintf("%0*d", ordinalWidth, ordinal)
}

// Fit replaces the index contents with docs.
func (m *Memory) Fit(ctx context.Context, docs []models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index == nil {
		return fmt.Errorf("index is closed")
	}

	fresh, err := newBleveIndex(m.schema)
	if err != nil {
		return err
	}

	batch := fresh.NewBatch()
	byFilename := make(map[string]int, len(docs))
	for i, doc := range docs {
		if ctx.Err() != nil {
			fresh.Close()
			return ctx.Err()
		}
		if err := batch.Index(docID(i), m.fields(doc)); err != nil {
			fresh.Close()
			return fmt.Errorf("failed to index document %s: %w", doc.Filename, err)
		}
		if _, dup := byFilename[doc.Filename]; !dup {
			byFilename[doc.Filename] = i
		}
	}

	if err := fresh.Batch(batch); err != nil {
		fresh.Close()
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	m.index.Close()
	m.index = fresh
	m.docs = append([]models.Document(nil), docs...)
	m.byFilename = byFilename

	slog.Debug("index built", "documents", len(docs))
	return nil
}

func (m *Memory) fields(doc models.Document) map[string]interface{} {
	fields := make(map[string]interface{}, len(m.schema.TextFields)+len(m.schema.KeywordFields))
	for _, f := range m.schema.TextFields {
		fields[f] = FieldValue(doc, f)
	}
	for _, f := range m.schema.KeywordFields {
		fields[f] = FieldValue(doc, f)
	}
	return fields
}

// Search returns at most opts.Limit results by descending TF-IDF score.
func (m *Memory) Search(ctx context.Context, queryStr string, opts SearchOptions) ([]models.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.index == nil {
		return nil, fmt.Errorf("index is closed")
	}

	if strings.TrimSpace(queryStr) == "" || opts.Limit <= 0 || len(m.docs) == 0 {
		return []models.Result{}, nil
	}

	q, err := m.buildQuery(queryStr, opts)
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(q, opts.Limit, 0, false)
	req.SortBy([]string{"-_score", "_id"})

	res, err := m.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]models.Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ordinal, err := strconv.Atoi(hit.ID)
		if err != nil || ordinal < 0 || ordinal >= len(m.docs) {
			return nil, fmt.Errorf("unexpected document id %q", hit.ID)
		}
		results = append(results, models.Result{
			Document: m.docs[ordinal],
			Score:    hit.Score,
		})
	}

	return results, nil
}

func (m *Memory) buildQuery(queryStr string, opts SearchOptions) (query.Query, error) {
	for field := range opts.Boosts {
		if !m.schema.IsText(field) {
			return nil, fmt.Errorf("cannot boost non-text field %q", field)
		}
	}

	text := make([]query.Query, 0, len(m.schema.TextFields))
	for _, field := range m.schema.TextFields {
		mq := bleve.NewMatchQuery(queryStr)
		mq.SetField(field)
		if boost, ok := opts.Boosts[field]; ok {
			mq.SetBoost(boost)
		}
		text = append(text, mq)
	}

	var scored query.Query = text[0]
	if len(text) > 1 {
		scored = bleve.NewDisjunctionQuery(text...)
	}

	if len(opts.Filters) == 0 {
		return scored, nil
	}

	conjuncts := []query.Query{scored}
	for _, field := range slices.Sorted(maps.Keys(opts.Filters)) {
		value := opts.Filters[field]
		if !m.schema.IsKeyword(field) {
			return nil, fmt.Errorf("cannot filter on non-keyword field %q", field)
		}
		tq := bleve.NewTermQuery(value)
		tq.SetField(field)
		conjuncts = append(conjuncts, tq)
	}
	return bleve.NewConjunctionQuery(conjuncts...), nil
}

// Get returns the document with the given filename, or nil.
func (m *Memory) Get(_ context.Context, filename string) (*models.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byFilename[filename]
	if !ok {
		return nil, nil
	}
	doc := m.docs[i]
	return &doc, nil
}

// Len returns the number of indexed documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

// Close releases the underlying index.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.index == nil {
		return nil
	}
	err := m.index.Close()
	m.index = nil
	return err
}
