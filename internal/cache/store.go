// Package cache provides the persistent key→value store that keeps file
// analysis results across runs, plus an in-memory fallback for single runs.
package cache

import (
	"context"
	"time"
)

// Store is the persistence contract. The walker keys entries by path+mtime;
// callers layering on top (relevance judgment, plan generation) may cache
// their own derived results under their own keys through the same interface.
//
// Both operations are best-effort: storage failures are logged by the
// implementation and reported as a miss or a false return, never an error.
type Store interface {
	// Get returns the value stored under key and refreshes its access time.
	Get(ctx context.Context, key string) (value []byte, ok bool)

	// Set stores value under key with replace-on-conflict semantics, evicting
	// least-recently-accessed entries first if capacity would be exceeded.
	// The entry is durable before Set returns true.
	Set(ctx context.Context, key string, value []byte) bool

	// Close releases the underlying resources.
	Close() error
}

// Stats summarizes the contents of a store.
type Stats struct {
	Entries      int        `json:"entries"`
	TotalBytes   int64      `json:"total_bytes"`
	OldestAccess *time.Time `json:"oldest_access,omitempty"`
	Runs         int        `json:"runs"`
	LastRun      *RunStats  `json:"last_run,omitempty"`
}

// RunStats describes one completed traversal.
type RunStats struct {
	ID         string    `json:"id"`
	Root       string    `json:"root"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	FilesSeen  int       `json:"files_seen"`
	CacheHits  int       `json:"cache_hits"`
	Scanned    int       `json:"scanned"`
	Errors     int       `json:"errors"`
}
