// Package extractor turns a source archive snapshot into Markdown documents.
package extractor

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mfenderov/docsearch/internal/markdown"
	"github.com/mfenderov/docsearch/pkg/models"
	"golang.org/x/text/encoding/unicode"
)

// Options controls which archive entries become documents.
type Options struct {
	Extensions []string // defaults to markdown.DefaultExtensions
}

// ArchiveReadError reports a missing, corrupt or unreadable archive.
type ArchiveReadError struct {
	Path  string
	Entry string // empty when the archive itself could not be opened
	Err   error
}

func (e *ArchiveReadError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("read archive %s entry %s: %v", e.Path, e.Entry, e.Err)
	}
	return fmt.Sprintf("read archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveReadError) Unwrap() error {
	return e.Err
}

// DecodeWarning records a document whose bytes were not valid UTF-8.
// Ill-formed sequences were replaced with U+FFFD.
type DecodeWarning struct {
	Filename string
}

func (w DecodeWarning) String() string {
	return fmt.Sprintf("%s: invalid UTF-8 replaced", w.Filename)
}

// Result holds the extracted documents.
type Result struct {
	Documents []models.Document
	Skipped   int // qualifying entries without a root folder, or duplicates
	Warnings  []DecodeWarning
}

// Extract reads every qualifying entry of the zip archive at path.
// Documents keep archive enumeration order.
func Extract(path string, opts Options) (*Result, error) {
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = markdown.DefaultExtensions
	}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, &ArchiveReadError{Path: path, Err: err}
	}
	defer r.Close()

	result := &Result{}
	seen := make(map[string]bool)
	decoder := unicode.UTF8.NewDecoder()

	for _, f := range r.File {
		if !markdown.HasExtension(f.Name, exts) {
			continue
		}

		filename, ok := stripRoot(f.Name)
		if !ok {
			slog.Debug("skipping entry outside root folder", "entry", f.Name)
			result.Skipped++
			continue
		}
		if seen[filename] {
			slog.Warn("skipping duplicate archive entry", "entry", f.Name)
			result.Skipped++
			continue
		}

		data, err := readEntry(f)
		if err != nil {
			return nil, &ArchiveReadError{Path: path, Entry: f.Name, Err: err}
		}

		if !utf8.Valid(data) {
			decoded, err := decoder.Bytes(data)
			if err != nil {
				return nil, &ArchiveReadError{Path: path, Entry: f.Name, Err: err}
			}
			data = decoded
			result.Warnings = append(result.Warnings, DecodeWarning{Filename: filename})
			slog.Warn("document is not valid UTF-8", "filename", filename)
		}

		seen[filename] = true
		result.Documents = append(result.Documents, models.Document{
			Filename: filename,
			Content:  string(data),
		})
	}

	slog.Debug("archive extracted",
		"path", path,
		"documents", len(result.Documents),
		"skipped", result.Skipped,
		"warnings", len(result.Warnings))

	return result, nil
}

// stripRoot drops the single top-level folder source exports wrap entries in.
func stripRoot(name string) (string, bool) {
	_, rest, found := strings.Cut(name, "/")
	if !found || rest == "" {
		return "", false
	}
	return rest, true
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
