package mcp

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mfenderov/docsearch/internal/index"
	"github.com/mfenderov/docsearch/pkg/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	idx, err := index.NewMemory(index.DefaultSchema())
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	docs := []models.Document{
		{Filename: "docs/getting-started/installation.mdx", Content: "# Installation\n\nInstall the package with pip."},
		{Filename: "docs/servers/demo.md", Content: "# Demo\n\nA demo server with a demo tool."},
		{Filename: "docs/clients/client.md", Content: "# Client\n\nConnect a client to the demo server."},
	}
	if err := idx.Fit(t.Context(), docs); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	s, err := NewServer(Config{Name: "docsearch", Version: "1.0.0"}, idx)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return s
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()

	if len(result.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want mcp.TextContent", result.Content[0])
	}
	return text.Text
}

func TestServer_Creation(t *testing.T) {
	s := newTestServer(t)

	if s.mcpServer == nil {
		t.Error("mcpServer should not be nil")
	}
	if s.defaultLimit != 5 {
		t.Errorf("defaultLimit = %d, want 5", s.defaultLimit)
	}
}

func TestServer_RequiresIndex(t *testing.T) {
	if _, err := NewServer(Config{Name: "docsearch"}, nil); err == nil {
		t.Error("NewServer() should fail without an index")
	}
}

func TestServer_HandleSearch(t *testing.T) {
	s := newTestServer(t)

	results, err := s.handleSearch(t.Context(), "demo", 5, "")
	if err != nil {
		t.Fatalf("handleSearch() error = %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("handleSearch() returned %d results, want 2", len(results))
	}
	if results[0].Filename != "docs/servers/demo.md" {
		t.Errorf("first result = %s, want docs/servers/demo.md", results[0].Filename)
	}
}

func TestServer_HandleSearchWithFilename(t *testing.T) {
	s := newTestServer(t)

	results, err := s.handleSearch(t.Context(), "demo", 5, "docs/clients/client.md")
	if err != nil {
		t.Fatalf("handleSearch() error = %v", err)
	}

	if len(results) != 1 || results[0].Filename != "docs/clients/client.md" {
		t.Errorf("handleSearch() = %+v, want only docs/clients/client.md", results)
	}
}

func TestServer_SearchTool(t *testing.T) {
	s := newTestServer(t)

	result, err := s.searchHandler(t.Context(), callRequest("search_docs", map[string]any{
		"query": "demo",
		"limit": float64(1),
	}))
	if err != nil {
		t.Fatalf("searchHandler() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("searchHandler() returned tool error: %s", resultText(t, result))
	}

	var hits []models.Result
	if err := json.Unmarshal([]byte(resultText(t, result)), &hits); err != nil {
		t.Fatalf("result is not a JSON array: %v", err)
	}
	if len(hits) != 1 || hits[0].Filename != "docs/servers/demo.md" {
		t.Errorf("search_docs = %+v, want docs/servers/demo.md", hits)
	}
	if hits[0].Score <= 0 {
		t.Errorf("score = %v, want positive", hits[0].Score)
	}
}

func TestServer_SearchToolMissingQuery(t *testing.T) {
	s := newTestServer(t)

	result, err := s.searchHandler(t.Context(), callRequest("search_docs", map[string]any{}))
	if err != nil {
		t.Fatalf("searchHandler() error = %v", err)
	}
	if !result.IsError {
		t.Error("searchHandler() without query should return a tool error")
	}
}

func TestServer_GetDocumentTool(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name      string
		filename  string
		wantError bool
		wantText  string
	}{
		{"existing", "docs/getting-started/installation.mdx", false, "Install the package"},
		{"missing", "docs/nope.md", true, "document not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.getDocumentHandler(t.Context(), callRequest("get_document", map[string]any{
				"filename": tt.filename,
			}))
			if err != nil {
				t.Fatalf("getDocumentHandler() error = %v", err)
			}
			if result.IsError != tt.wantError {
				t.Errorf("IsError = %v, want %v", result.IsError, tt.wantError)
			}
			if text := resultText(t, result); !strings.Contains(text, tt.wantText) {
				t.Errorf("result %q should contain %q", text, tt.wantText)
			}
		})
	}
}

func TestServer_SearchAppliesConfiguredBoosts(t *testing.T) {
	idx, err := index.NewMemory(index.Schema{TextFields: []string{index.FieldContent, index.FieldFilename}})
	if err != nil {
		t.Fatalf("NewMemory() error = %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	docs := []models.Document{
		{Filename: "guides/intro.md", Content: "demo demo demo"},
		{Filename: "servers/demo-guide.md", Content: "getting started"},
	}
	if err := idx.Fit(t.Context(), docs); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	s, err := NewServer(Config{
		Name:   "docsearch",
		Boosts: map[string]float64{index.FieldFilename: 10},
	}, idx)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	results, err := s.handleSearch(t.Context(), "demo", 5, "")
	if err != nil {
		t.Fatalf("handleSearch() error = %v", err)
	}
	if len(results) == 0 || results[0].Filename != "servers/demo-guide.md" {
		t.Errorf("handleSearch() = %+v, want servers/demo-guide.md first", results)
	}
}
