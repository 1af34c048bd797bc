package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document is one Markdown file extracted from an archive snapshot.
type Document struct {
	Filename string `json:"filename"` // archive path without the root folder
	Content  string `json:"content"`
}

// Result is a single ranked search hit.
type Result struct {
	Document
	Score float64 `json:"score"`
}

// Page is a single fetched web page.
type Page struct {
	URL         string    `json:"url"`
	Content     string    `json:"content"`
	ContentType string    `json:"content_type"` // HTTP Content-Type header
	FetchedAt   time.Time `json:"fetched_at"`
}

// GenerateDocumentID creates a deterministic ID from a filename.
// The ID is a SHA-256 hash (first 16 chars) of the filename.
func GenerateDocumentID(filename string) string {
	hash := sha256.Sum256([]byte(filename))
	return hex.EncodeToString(hash[:])[:16]
}
