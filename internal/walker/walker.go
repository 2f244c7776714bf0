// Package walker traverses a directory tree, consults the cache and fans out
// uncached files to classification and scanning under a concurrency cap.
package walker

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"codescout/internal/cache"
	"codescout/internal/classify"
	"codescout/internal/config"
	"codescout/internal/model"
	"codescout/internal/scanner"
	"codescout/internal/task"
)

// runRecorder is implemented by stores that keep a traversal log.
type runRecorder interface {
	RecordRun(ctx context.Context, run cache.RunStats) (string, error)
}

// Walker runs the exploration pipeline over one root directory.
type Walker struct {
	cfg    config.Config
	store  cache.Store
	logger *slog.Logger
}

// New builds a Walker. The store handle is injected so a run works the same
// over the durable SQLite cache or the in-memory fallback.
func New(cfg config.Config, store cache.Store, logger *slog.Logger) *Walker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Walker{cfg: cfg, store: store, logger: logger}
}

// Explore walks the root, reuses cached records where the path+mtime key
// still matches, analyzes the rest and returns the filtered, ranked list.
// Per-file failures never abort the traversal; only an unusable root is fatal.
func (w *Walker) Explore(ctx context.Context, taskDescription string) ([]model.FileRecord, error) {
	info, err := os.Stat(w.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", w.cfg.Root)
	}

	keywords := task.Keywords(taskDescription)
	patterns := task.TargetPatterns(taskDescription)
	sc := scanner.New(w.cfg.ChunkSize, keywords, w.logger)
	cl := classify.New(w.cfg)
	lim := newLimiter(w.cfg.Concurrency)

	ignored := make(map[string]bool, len(w.cfg.IgnoreDirs))
	for _, d := range w.cfg.IgnoreDirs {
		ignored[d] = true
	}

	started := time.Now()
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []model.FileRecord
		hits    int
		scanned int
	)

	walkErr := filepath.WalkDir(w.cfg.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == w.cfg.Root {
				return err
			}
			w.logger.Debug("walk error", "path", path, "error", err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != w.cfg.Root && ignored[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		// Reserve a slot so concurrent completion keeps discovery order.
		mu.Lock()
		idx := len(results)
		results = append(results, model.FileRecord{})
		mu.Unlock()

		isTarget := task.IsTarget(path, patterns)

		fi, err := d.Info()
		if err != nil {
			mu.Lock()
			results[idx] = model.FileRecord{Path: path, Error: err.Error()}
			mu.Unlock()
			return nil
		}

		key := model.CacheKey(path, fi.ModTime().UnixNano())
		if value, ok := w.store.Get(ctx, key); ok {
			var rec model.FileRecord
			if err := json.Unmarshal(value, &rec); err == nil {
				// The cached data may predate the current task; target status
				// derived from it still wins.
				if isTarget {
					rec.Importance = model.ImportanceHigh
				}
				mu.Lock()
				results[idx] = rec
				hits++
				mu.Unlock()
				w.logger.Debug("cache hit", "path", path)
				return nil
			}
			w.logger.Warn("cache entry undecodable, rescanning", "path", path)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := lim.acquire(ctx); err != nil {
				mu.Lock()
				results[idx] = model.FileRecord{Path: path, Error: err.Error()}
				mu.Unlock()
				return
			}
			defer lim.release()

			rec := w.process(ctx, path, fi, isTarget, cl, sc)
			mu.Lock()
			results[idx] = rec
			if !rec.IsError() {
				scanned++
			}
			mu.Unlock()
		}()
		return nil
	})

	wg.Wait()

	if walkErr != nil && len(results) == 0 {
		return nil, fmt.Errorf("walk %s: %w", w.cfg.Root, walkErr)
	}

	errors := 0
	for _, rec := range results {
		if rec.IsError() {
			errors++
		}
	}

	// Write back everything analyzable; error records and abandoned runs are
	// never cached.
	if ctx.Err() == nil {
		for _, rec := range results {
			if rec.IsError() || rec.Path == "" {
				continue
			}
			value, err := json.Marshal(rec)
			if err != nil {
				w.logger.Warn("encode record", "path", rec.Path, "error", err)
				continue
			}
			w.store.Set(ctx, model.CacheKey(rec.Path, rec.LastModified), value)
		}
	}

	finished := time.Now()
	if rr, ok := w.store.(runRecorder); ok && ctx.Err() == nil {
		run := cache.RunStats{
			Root:       w.cfg.Root,
			StartedAt:  started,
			FinishedAt: finished,
			FilesSeen:  len(results),
			CacheHits:  hits,
			Scanned:    scanned,
			Errors:     errors,
		}
		if _, err := rr.RecordRun(ctx, run); err != nil {
			w.logger.Warn("record run", "error", err)
		}
	}

	kept := filterRank(results)
	w.logger.Info("explore finished",
		"root", w.cfg.Root,
		"files", len(results),
		"cache_hits", hits,
		"scanned", scanned,
		"errors", errors,
		"relevant", len(kept),
		"elapsed", finished.Sub(started).Round(time.Millisecond))
	return kept, nil
}

// process classifies one file and scans it when the classifier says so.
func (w *Walker) process(ctx context.Context, path string, fi fs.FileInfo, isTarget bool, cl *classify.Classifier, sc *scanner.Scanner) model.FileRecord {
	rec, scan, err := cl.Classify(path, fi, isTarget)
	if err != nil {
		w.logger.Warn("classify failed", "path", path, "error", err)
		return model.FileRecord{Path: path, Error: err.Error()}
	}
	if scan {
		rec.Snippets = sc.Scan(ctx, path)
		if ctx.Err() != nil {
			// Abandoned mid-scan; a partial record must not look complete.
			return model.FileRecord{Path: path, Error: ctx.Err().Error()}
		}
	}
	return rec
}

// filterRank keeps records with at least one snippet or high importance and
// orders them high-importance first, then by descending snippet count. The
// sort is stable so ties preserve discovery order.
func filterRank(results []model.FileRecord) []model.FileRecord {
	kept := make([]model.FileRecord, 0, len(results))
	for _, rec := range results {
		if rec.IsError() || rec.Path == "" {
			continue
		}
		if len(rec.Snippets) > 0 || rec.Importance == model.ImportanceHigh {
			kept = append(kept, rec)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		hi := kept[i].Importance == model.ImportanceHigh
		hj := kept[j].Importance == model.ImportanceHigh
		if hi != hj {
			return hi
		}
		return len(kept[i].Snippets) > len(kept[j].Snippets)
	})
	return kept
}
