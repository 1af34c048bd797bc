package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/mfenderov/docsearch/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "docsearch",
	Short: "docsearch: full-text search over a documentation archive",
	Long: `docsearch downloads a zip snapshot of a documentation repository,
extracts its Markdown files, and answers keyword queries over them.

Commands:
  search  Build the index and print the best matching files
  fetch   Download the archive snapshot only
  serve   Start the MCP server over the built index
  count   Count characters and word occurrences on a web page`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	// Start with defaults
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/docsearch")
		viper.AddConfigPath(".")
	}

	// Environment variable overrides
	// DOCSEARCH_ARCHIVE_URL -> archive.url
	viper.SetEnvPrefix("DOCSEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Nested keys are only resolved from env once bound
	for _, key := range []string{
		"archive.url",
		"archive.data_dir",
		"archive.filename",
		"archive.timeout",
		"archive.user_agent",
		"search.backend",
		"search.query",
		"search.limit",
		"elasticsearch.addresses",
		"elasticsearch.index",
		"elasticsearch.username",
		"elasticsearch.password",
		"storage.endpoint",
		"storage.bucket",
		"storage.access_key_id",
		"storage.secret_access_key",
		"storage.use_ssl",
		"scraper.timeout",
		"scraper.user_agent",
		"scraper.reader_prefix",
		"scraper.max_body_size",
		"mcp.name",
		"mcp.version",
	} {
		viper.BindEnv(key, "DOCSEARCH_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")))
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	// Unmarshal into struct (merges config file with defaults)
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}

	// Handle special case: comma-separated lists from env
	if addrs := os.Getenv("DOCSEARCH_ELASTICSEARCH_ADDRESSES"); addrs != "" {
		cfg.Elasticsearch.Addresses = strings.Split(addrs, ",")
	}
	if exts := os.Getenv("DOCSEARCH_ARCHIVE_EXTENSIONS"); exts != "" {
		cfg.Archive.Extensions = strings.Split(exts, ",")
	}
}
