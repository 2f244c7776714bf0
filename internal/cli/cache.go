package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"codescout/internal/cache"
	"codescout/internal/config"

	"github.com/spf13/cobra"
)

func init() {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and use the persistent cache",
		Long: "Direct access to the key-value store backing the scan cache. Layers built on\n" +
			"top of codescout may persist their own derived results through the same store.",
	}
	cacheCmd.PersistentFlags().StringP("root", "r", ".", "Project directory whose config governs the cache")

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print the value stored under a key",
		Args:  cobra.ExactArgs(1),
		Run:   runCacheGet,
	}

	setCmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value under a key",
		Args:  cobra.ExactArgs(2),
		Run:   runCacheSet,
	}

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show entry totals and the most recent scan run",
		Args:  cobra.NoArgs,
		Run:   runCacheStats,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every cache entry",
		Args:  cobra.NoArgs,
		Run:   runCacheClear,
	}

	cacheCmd.AddCommand(getCmd, setCmd, statsCmd, clearCmd)
	RootCmd.AddCommand(cacheCmd)
}

// cacheStore opens the same store an explore run over the project would use:
// the project config decides the database path and eviction tuning.
func cacheStore(cmd *cobra.Command) (*cache.SQLiteStore, error) {
	rootFlag, _ := cmd.Flags().GetString("root")
	root, err := filepath.Abs(rootFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	cfg.Root = root
	return openStore(cfg, newLogger())
}

func runCacheGet(cmd *cobra.Command, args []string) {
	s, err := cacheStore(cmd)
	if err != nil {
		exitErr("open cache", err)
	}
	defer s.Close()

	value, ok := s.Get(cmd.Context(), args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "not found: %s\n", args[0])
		os.Exit(1)
	}
	fmt.Println(string(value))
}

func runCacheSet(cmd *cobra.Command, args []string) {
	s, err := cacheStore(cmd)
	if err != nil {
		exitErr("open cache", err)
	}
	defer s.Close()

	if !s.Set(cmd.Context(), args[0], []byte(args[1])) {
		fmt.Fprintln(os.Stderr, "error: value not stored")
		os.Exit(1)
	}
}

func runCacheStats(cmd *cobra.Command, args []string) {
	s, err := cacheStore(cmd)
	if err != nil {
		exitErr("open cache", err)
	}
	defer s.Close()

	stats, err := s.Stats(cmd.Context())
	if err != nil {
		exitErr("stats", err)
	}
	b, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(b))
}

func runCacheClear(cmd *cobra.Command, args []string) {
	s, err := cacheStore(cmd)
	if err != nil {
		exitErr("open cache", err)
	}
	defer s.Close()

	if err := s.Clear(cmd.Context()); err != nil {
		exitErr("clear", err)
	}
}
