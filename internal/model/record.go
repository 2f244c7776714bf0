// Package model defines the file analysis data types.
package model

import "fmt"

// Importance is the coarse relevance tier assigned to a file before any
// deeper judgment happens downstream.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// ValidImportance lists the allowed importance tiers.
var ValidImportance = map[Importance]bool{
	ImportanceHigh:   true,
	ImportanceMedium: true,
	ImportanceLow:    true,
}

// Skip reasons for files that were classified but never content-scanned.
// A record carries at most one, and then always with empty snippets.
const (
	SkipTooLarge = "too-large"
	SkipBinary   = "binary"
)

// Snippet is a contiguous excerpt of a file surrounding a keyword match.
// LineRange is a human-readable 1-based "first-last" label.
type Snippet struct {
	LineRange string `json:"line_range"`
	Context   string `json:"context"`
}

// FileRecord is the analysis result for a single file. A record is either an
// error record (Path and Error set, never cached) or a complete record.
type FileRecord struct {
	Path         string     `json:"path"`
	Size         int64      `json:"size"`
	Extension    string     `json:"extension"`
	Importance   Importance `json:"importance"`
	LastModified int64      `json:"last_modified"` // mtime, unix nanoseconds
	Snippets     []Snippet  `json:"snippets"`
	SkipReason   string     `json:"skip_reason,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// IsError reports whether the record describes a per-file failure rather
// than a completed analysis.
func (r FileRecord) IsError() bool {
	return r.Error != ""
}

// CacheKey builds the cache identity for a path at a given mtime
// (unix nanoseconds). Any modification produces a new key, so entries never
// need an explicit invalidation signal.
func CacheKey(path string, mtimeNano int64) string {
	return fmt.Sprintf("%s:%d", path, mtimeNano)
}
