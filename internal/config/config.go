package config

import (
	"path/filepath"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Archive       Archive       `mapstructure:"archive"`
	Search        Search        `mapstructure:"search"`
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
	Storage       Storage       `mapstructure:"storage"`
	Scraper       Scraper       `mapstructure:"scraper"`
	MCP           MCP           `mapstructure:"mcp"`
}

// Archive describes where the documentation archive comes from and where it is cached.
type Archive struct {
	URL        string        `mapstructure:"url"`
	DataDir    string        `mapstructure:"data_dir"`
	Filename   string        `mapstructure:"filename"`
	Timeout    time.Duration `mapstructure:"timeout"`
	UserAgent  string        `mapstructure:"user_agent"`
	Extensions []string      `mapstructure:"extensions"`
}

// Path returns the local snapshot path.
func (a Archive) Path() string {
	return filepath.Join(a.DataDir, a.Filename)
}

// Search holds index and query configuration.
type Search struct {
	Backend       string             `mapstructure:"backend"` // "memory" or "elasticsearch"
	Query         string             `mapstructure:"query"`
	Limit         int                `mapstructure:"limit"`
	TextFields    []string           `mapstructure:"text_fields"`
	KeywordFields []string           `mapstructure:"keyword_fields"`
	Boosts        map[string]float64 `mapstructure:"boosts"` // text field -> weight
}

// Elasticsearch holds ES connection configuration.
type Elasticsearch struct {
	Addresses []string `mapstructure:"addresses"`
	Index     string   `mapstructure:"index"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

// Storage holds S3/MinIO configuration for the archive snapshot mirror.
// The mirror is disabled while Endpoint is empty.
type Storage struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Scraper holds page fetching configuration for the count command.
type Scraper struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	ReaderPrefix string        `mapstructure:"reader_prefix"`
	MaxBodySize  int           `mapstructure:"max_body_size"` // bytes, 0 = unlimited
}

// MCP holds MCP server configuration.
type MCP struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		Archive: Archive{
			URL:        "https://github.com/jlowin/fastmcp/archive/refs/heads/main.zip",
			DataDir:    "data",
			Filename:   "fastmcp-main.zip",
			Timeout:    60 * time.Second,
			UserAgent:  "docsearch/1.0",
			Extensions: []string{".md", ".mdx"},
		},
		Search: Search{
			Backend:       "memory",
			Query:         "demo",
			Limit:         5,
			TextFields:    []string{"content"},
			KeywordFields: []string{"filename"},
		},
		Elasticsearch: Elasticsearch{
			Addresses: []string{"http://localhost:9200"},
			Index:     "docsearch-documents",
		},
		Storage: Storage{
			Bucket: "docsearch",
		},
		Scraper: Scraper{
			Timeout:      30 * time.Second,
			UserAgent:    "docsearch/1.0",
			ReaderPrefix: "https://r.jina.ai/",
		},
		MCP: MCP{
			Name:    "docsearch",
			Version: "1.0.0",
		},
	}
}
