package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mfenderov/docsearch/internal/index"
	"github.com/mfenderov/docsearch/pkg/models"
)

// Config holds MCP server configuration.
type Config struct {
	Name         string
	Version      string
	DefaultLimit int
	Boosts       map[string]float64 // applied to every search_docs call
}

// Server exposes a built document index as MCP tools.
type Server struct {
	mcpServer    *server.MCPServer
	index        index.Index
	defaultLimit int
	boosts       map[string]float64
}

// NewServer creates a new MCP server with search tools.
func NewServer(config Config, idx index.Index) (*Server, error) {
	if idx == nil {
		return nil, fmt.Errorf("index is required")
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 5
	}

	mcpServer := server.NewMCPServer(
		config.Name,
		config.Version,
		server.WithToolCapabilities(true),
	)

	s := &Server{
		mcpServer:    mcpServer,
		index:        idx,
		defaultLimit: config.DefaultLimit,
		boosts:       config.Boosts,
	}

	searchTool := mcp.NewTool("search_docs",
		mcp.WithDescription("Search the indexed documentation files by free-text query. Returns ranked files with their Markdown content."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search query string"),
		),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of results to return (default: %d)", config.DefaultLimit)),
		),
		mcp.WithString("filename",
			mcp.Description("Restrict results to this exact archive-relative filename"),
		),
	)
	mcpServer.AddTool(searchTool, s.searchHandler)

	getDocTool := mcp.NewTool("get_document",
		mcp.WithDescription("Get a documentation file by its archive-relative filename"),
		mcp.WithString("filename",
			mcp.Required(),
			mcp.Description("Filename to retrieve, e.g. docs/getting-started/welcome.mdx"),
		),
	)
	mcpServer.AddTool(getDocTool, s.getDocumentHandler)

	return s, nil
}

// searchHandler handles the search_docs tool call.
func (s *Server) searchHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	limit := req.GetInt("limit", s.defaultLimit)
	filename := req.GetString("filename", "")

	results, err := s.handleSearch(ctx, query, limit, filename)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	data, err := json.Marshal(results)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

// getDocumentHandler handles the get_document tool call.
func (s *Server) getDocumentHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError("filename parameter is required"), nil
	}

	doc, err := s.handleGetDocument(ctx, filename)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get document failed: %v", err)), nil
	}

	if doc == nil {
		return mcp.NewToolResultError(fmt.Sprintf("document not found: %s", filename)), nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal document: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleSearch(ctx context.Context, query string, limit int, filename string) ([]models.Result, error) {
	opts := index.SearchOptions{Limit: limit, Boosts: s.boosts}
	if filename != "" {
		opts.Filters = map[string]string{index.FieldFilename: filename}
	}
	return s.index.Search(ctx, query, opts)
}

func (s *Server) handleGetDocument(ctx context.Context, filename string) (*models.Document, error) {
	return s.index.Get(ctx, filename)
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
