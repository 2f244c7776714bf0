// Package task derives scan inputs from a free-form task description:
// keyword tokens for content matching and literal file-name patterns that
// mark target files.
package task

import (
	"path/filepath"
	"regexp"
	"strings"
)

// minKeywordLen is exclusive: only tokens longer than this become keywords.
const minKeywordLen = 3

var (
	wordRe = regexp.MustCompile(`\b\w+\b`)
	fileRe = regexp.MustCompile(`\b\w+\.[a-zA-Z]+\b`)
	hintRe = regexp.MustCompile(`\b(\w+)\s+(?:file|changes)\w*\b`)
)

// Keywords returns the lowercase tokens of the description longer than three
// characters, deduplicated, in order of first appearance.
func Keywords(desc string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range wordRe.FindAllString(strings.ToLower(desc), -1) {
		if len(w) <= minKeywordLen {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// TargetPatterns returns literal file-name fragments mentioned by the
// description: "name.ext" tokens plus words qualifying anything starting
// with "file" or "changes" ("the parser file" and "the parser filename"
// both yield "parser").
func TargetPatterns(desc string) []string {
	lower := strings.ToLower(desc)
	seen := make(map[string]struct{})
	var out []string
	add := func(p string) {
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	for _, m := range fileRe.FindAllString(lower, -1) {
		add(m)
	}
	for _, m := range hintRe.FindAllStringSubmatch(lower, -1) {
		add(m[1])
	}
	return out
}

// IsTarget reports whether the base name of path matches any pattern, either
// as a substring of the full name or exactly as the name without extension.
func IsTarget(path string, patterns []string) bool {
	name := strings.ToLower(filepath.Base(path))
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	for _, p := range patterns {
		if strings.Contains(name, p) || p == stem {
			return true
		}
	}
	return false
}
