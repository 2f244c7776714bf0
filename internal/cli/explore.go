package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"codescout/internal/cache"
	"codescout/internal/config"
	"codescout/internal/model"
	"codescout/internal/walker"
	"codescout/internal/watcher"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "explore [task description]",
		Short: "Find files relevant to a task",
		Long: "Walk the root directory, scan uncached files for keywords derived from the\n" +
			"task description and print the filtered, ranked file list.",
		Args: cobra.MinimumNArgs(1),
		Run:  runExplore,
	}

	cmd.Flags().StringP("root", "r", ".", "Directory to explore")
	cmd.Flags().IntP("concurrency", "c", 0, "Override max concurrent file operations")
	cmd.Flags().Bool("no-cache", false, "Use an in-memory cache for this run only")
	cmd.Flags().BoolP("watch", "w", false, "Stay running and re-explore when files change")

	RootCmd.AddCommand(cmd)
}

func runExplore(cmd *cobra.Command, args []string) {
	rootFlag, _ := cmd.Flags().GetString("root")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	watch, _ := cmd.Flags().GetBool("watch")

	root, err := filepath.Abs(rootFlag)
	if err != nil {
		exitErr("resolve root", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		exitErr("load config", err)
	}
	cfg.Root = root
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}
	if err := cfg.Validate(); err != nil {
		exitErr("invalid config", err)
	}

	logger := newLogger()

	var store cache.Store
	if noCache {
		store = cache.NewMemoryStore(cfg.CacheCapacityBytes)
	} else {
		s, err := openStore(cfg, logger)
		if err != nil {
			exitErr("open cache", err)
		}
		store = s
	}
	defer store.Close()

	w := walker.New(cfg, store, logger)
	taskText := strings.Join(args, " ")

	records, err := w.Explore(cmd.Context(), taskText)
	if err != nil {
		exitErr("explore", err)
	}
	render(records)

	if !watch {
		return
	}

	ws, err := watcher.New(cfg.Root, cfg.IgnoreDirs, watcher.DefaultDebounce, logger)
	if err != nil {
		exitErr("start watcher", err)
	}
	defer ws.Close()

	logger.Info("watching for changes", "root", cfg.Root)
	err = ws.Run(cmd.Context(), func() {
		records, err := w.Explore(cmd.Context(), taskText)
		if err != nil {
			logger.Error("explore failed", "error", err)
			return
		}
		render(records)
	})
	if err != nil && !errors.Is(err, cmd.Context().Err()) {
		exitErr("watch", err)
	}
}

func render(records []model.FileRecord) {
	if formatFlag == "text" {
		for _, r := range records {
			fmt.Printf("%-6s %4d  %s\n", r.Importance, len(r.Snippets), r.Path)
		}
		return
	}
	if len(records) == 0 {
		fmt.Println("[]")
		return
	}
	b, _ := json.MarshalIndent(records, "", "  ")
	fmt.Println(string(b))
}
