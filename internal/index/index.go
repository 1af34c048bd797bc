// Package index defines the document search index and its in-memory implementation.
package index

import (
	"context"
	"fmt"
	"slices"

	"github.com/mfenderov/docsearch/pkg/models"
)

// Field names a Document exposes to an index.
const (
	FieldContent  = "content"
	FieldFilename = "filename"
)

// Fields lists every Document field in a stable order.
var Fields = []string{FieldContent, FieldFilename}

// Schema declares field roles up front.
// Text fields are tokenized and scored; keyword fields only match exactly.
type Schema struct {
	TextFields    []string
	KeywordFields []string
}

// DefaultSchema scores content and filters on filename.
func DefaultSchema() Schema {
	return Schema{
		TextFields:    []string{FieldContent},
		KeywordFields: []string{FieldFilename},
	}
}

// Validate checks that every field is a known Document field with one role.
func (s Schema) Validate() error {
	if len(s.TextFields) == 0 {
		return fmt.Errorf("schema needs at least one text field")
	}
	for _, f := range append(slices.Clone(s.TextFields), s.KeywordFields...) {
		if !slices.Contains(Fields, f) {
			return fmt.Errorf("unknown field %q", f)
		}
	}
	for _, f := range s.TextFields {
		if slices.Contains(s.KeywordFields, f) {
			return fmt.Errorf("field %q cannot be both text and keyword", f)
		}
	}
	return nil
}

// IsKeyword reports whether field is declared as a keyword field.
func (s Schema) IsKeyword(field string) bool {
	return slices.Contains(s.KeywordFields, field)
}

// IsText reports whether field is declared as a text field.
func (s Schema) IsText(field string) bool {
	return slices.Contains(s.TextFields, field)
}

// SearchOptions narrows and weights a query.
type SearchOptions struct {
	Limit   int
	Filters map[string]string  // keyword field -> exact value
	Boosts  map[string]float64 // text field -> weight
}

// Index is built once from a finalized document collection and then queried.
type Index interface {
	// Fit replaces the index contents with docs.
	Fit(ctx context.Context, docs []models.Document) error
	// Search returns at most opts.Limit results by descending score.
	// Ties keep ingestion order.
	Search(ctx context.Context, query string, opts SearchOptions) ([]models.Result, error)
	// Get returns the document with the given filename, or nil.
	Get(ctx context.Context, filename string) (*models.Document, error)
	Close() error
}

// FieldValue returns the value of a schema field on doc.
func FieldValue(doc models.Document, field string) string {
	switch field {
	case FieldContent:
		return doc.Content
	case FieldFilename:
		return doc.Filename
	}
	return ""
}
