// Package config holds the runtime configuration with defaults and optional
// overrides from <root>/.codescout/config.json.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ConfigDirName is the per-project directory holding the config file.
const ConfigDirName = ".codescout"

// Config is the full configuration surface. Every field has a default and
// every field can be overridden by the config file.
type Config struct {
	// Root is the directory to explore.
	Root string `json:"root" mapstructure:"root"`

	// IgnoreDirs are directory names excluded from traversal wherever they
	// appear in the tree.
	IgnoreDirs []string `json:"ignoreDirs" mapstructure:"ignoreDirs"`

	// CodeExtensions and TextExtensions drive tiering; CodeTier/TextTier name
	// the importance assigned to each set.
	CodeExtensions []string `json:"codeExtensions" mapstructure:"codeExtensions"`
	TextExtensions []string `json:"textExtensions" mapstructure:"textExtensions"`
	CodeTier       string   `json:"codeTier" mapstructure:"codeTier"`
	TextTier       string   `json:"textTier" mapstructure:"textTier"`

	// MaxFileSize is the largest file (bytes) eligible for content scanning.
	MaxFileSize int64 `json:"maxFileSize" mapstructure:"maxFileSize"`

	// ChunkSize is the read size for the streaming scanner.
	ChunkSize int `json:"chunkSize" mapstructure:"chunkSize"`

	// CachePath overrides the cache database location when set.
	CachePath string `json:"cachePath" mapstructure:"cachePath"`

	// Cache sizing and eviction tuning.
	CacheCapacityBytes int64 `json:"cacheCapacityBytes" mapstructure:"cacheCapacityBytes"`
	CacheMaxEntries    int   `json:"cacheMaxEntries" mapstructure:"cacheMaxEntries"`
	EvictionBatch      int   `json:"evictionBatch" mapstructure:"evictionBatch"`

	// Concurrency caps simultaneously in-flight file operations.
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Root:           ".",
		IgnoreDirs:     []string{".git", "node_modules", "__pycache__", "venv", ".pytest_cache", "vendor", ConfigDirName},
		CodeExtensions: []string{".go", ".py", ".js", ".ts", ".jsx", ".tsx"},
		TextExtensions: []string{".json", ".txt", ".md", ".html", ".css", ".xml", ".csv", ".yaml", ".yml"},
		CodeTier:       "high",
		TextTier:       "medium",

		MaxFileSize: 10 * 1024 * 1024,
		ChunkSize:   8 * 1024,

		CacheCapacityBytes: 100 * 1024 * 1024,
		CacheMaxEntries:    10000,
		EvictionBatch:      100,

		Concurrency: 100,
	}
}

// Load reads <root>/.codescout/config.json on top of the defaults. A missing
// file is not an error.
func Load(root string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("root", root)
	v.SetDefault("ignoreDirs", def.IgnoreDirs)
	v.SetDefault("codeExtensions", def.CodeExtensions)
	v.SetDefault("textExtensions", def.TextExtensions)
	v.SetDefault("codeTier", def.CodeTier)
	v.SetDefault("textTier", def.TextTier)
	v.SetDefault("maxFileSize", def.MaxFileSize)
	v.SetDefault("chunkSize", def.ChunkSize)
	v.SetDefault("cachePath", def.CachePath)
	v.SetDefault("cacheCapacityBytes", def.CacheCapacityBytes)
	v.SetDefault("cacheMaxEntries", def.CacheMaxEntries)
	v.SetDefault("evictionBatch", def.EvictionBatch)
	v.SetDefault("concurrency", def.Concurrency)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(root, ConfigDirName))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that would make a run impossible. These are
// the only fatal errors the pipeline produces.
func (c Config) Validate() error {
	info, err := os.Stat(c.Root)
	if err != nil {
		return fmt.Errorf("root directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root %q is not a directory", c.Root)
	}
	if c.MaxFileSize <= 0 {
		return errors.New("maxFileSize must be positive")
	}
	if c.ChunkSize <= 0 {
		return errors.New("chunkSize must be positive")
	}
	if c.CacheCapacityBytes <= 0 {
		return errors.New("cacheCapacityBytes must be positive")
	}
	if c.EvictionBatch <= 0 {
		return errors.New("evictionBatch must be positive")
	}
	if c.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}
	return nil
}
