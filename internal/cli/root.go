// Package cli implements the codescout CLI commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"codescout/internal/cache"
	"codescout/internal/config"

	"github.com/spf13/cobra"
)

var (
	dbPath     string
	formatFlag string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "codescout",
	Short: "Task-aware codebase exploration with a persistent scan cache",
	Long: "codescout walks a directory tree, scans files that match keywords from a task\n" +
		"description and caches per-file results in SQLite so unchanged files are never\n" +
		"rescanned. Output is a ranked file list for downstream tooling.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Cache database path (default: $CODESCOUT_DB or ~/.codescout/cache.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func getDBPath(cfg config.Config) string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("CODESCOUT_DB"); env != "" {
		return env
	}
	if cfg.CachePath != "" {
		return cfg.CachePath
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".codescout", "cache.db")
}

func openStore(cfg config.Config, logger *slog.Logger) (*cache.SQLiteStore, error) {
	return cache.Open(cache.Options{
		Path:          getDBPath(cfg),
		CapacityBytes: cfg.CacheCapacityBytes,
		MaxEntries:    cfg.CacheMaxEntries,
		EvictionBatch: cfg.EvictionBatch,
		Logger:        logger,
	})
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
