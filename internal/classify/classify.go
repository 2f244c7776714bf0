// Package classify decides whether a file should be content-scanned and what
// importance tier it gets, using only metadata and a bounded byte sample.
package classify

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"codescout/internal/config"
	"codescout/internal/model"
)

// sampleSize is the number of leading bytes probed for the binary check.
const sampleSize = 8 * 1024

// Classifier applies the hard size/binary filters and the extension tiering
// from the configuration. It performs no retries: an I/O failure surfaces as
// an error to the caller.
type Classifier struct {
	maxFileSize int64
	codeExts    map[string]bool
	textExts    map[string]bool
	codeTier    model.Importance
	textTier    model.Importance
}

// New builds a Classifier from the configuration.
func New(cfg config.Config) *Classifier {
	return &Classifier{
		maxFileSize: cfg.MaxFileSize,
		codeExts:    toSet(cfg.CodeExtensions),
		textExts:    toSet(cfg.TextExtensions),
		codeTier:    importanceOr(cfg.CodeTier, model.ImportanceHigh),
		textTier:    importanceOr(cfg.TextTier, model.ImportanceMedium),
	}
}

// Classify fills the metadata fields of a FileRecord and reports whether the
// content scanner should run on the file. Target status always wins the tier
// decision, even for skipped files.
func (c *Classifier) Classify(path string, info fs.FileInfo, isTarget bool) (model.FileRecord, bool, error) {
	rec := model.FileRecord{
		Path:         path,
		Size:         info.Size(),
		Extension:    strings.ToLower(filepath.Ext(path)),
		LastModified: info.ModTime().UnixNano(),
	}

	if rec.Size > c.maxFileSize {
		rec.SkipReason = model.SkipTooLarge
		rec.Importance = skipTier(isTarget)
		return rec, false, nil
	}

	text, err := isTextSample(path)
	if err != nil {
		return rec, false, err
	}
	if !text {
		rec.SkipReason = model.SkipBinary
		rec.Importance = skipTier(isTarget)
		return rec, false, nil
	}

	switch {
	case isTarget:
		rec.Importance = model.ImportanceHigh
	case c.codeExts[rec.Extension]:
		rec.Importance = c.codeTier
	case c.textExts[rec.Extension]:
		rec.Importance = c.textTier
	default:
		rec.Importance = model.ImportanceLow
	}

	// Low-tier files short-circuit with empty snippets to avoid wasted I/O.
	return rec, rec.Importance != model.ImportanceLow, nil
}

// isTextSample reads up to sampleSize leading bytes and checks that they are
// valid UTF-8. A rune can only be cut off when the file extends past the
// sample, so a trailing partial rune is forgiven only for a full sample.
func isTextSample(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	sample := make([]byte, sampleSize)
	n, err := io.ReadFull(f, sample)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	sample = sample[:n]

	if utf8.Valid(sample) {
		return true, nil
	}
	if n < sampleSize {
		return false, nil
	}
	for i := 1; i < utf8.UTFMax && i < len(sample); i++ {
		if utf8.Valid(sample[:len(sample)-i]) {
			return runePrefix(sample[len(sample)-i:]), nil
		}
	}
	return false, nil
}

// runePrefix reports whether b is the leading portion of a single truncated
// multi-byte rune: a lead byte expecting more bytes than b holds, followed
// only by continuation bytes.
func runePrefix(b []byte) bool {
	var want int
	switch {
	case b[0]&0xe0 == 0xc0:
		want = 2
	case b[0]&0xf0 == 0xe0:
		want = 3
	case b[0]&0xf8 == 0xf0:
		want = 4
	default:
		return false
	}
	if len(b) >= want {
		return false
	}
	for _, c := range b[1:] {
		if c&0xc0 != 0x80 {
			return false
		}
	}
	return true
}

func skipTier(isTarget bool) model.Importance {
	if isTarget {
		return model.ImportanceHigh
	}
	return model.ImportanceLow
}

func toSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		set[e] = true
	}
	return set
}

func importanceOr(s string, fallback model.Importance) model.Importance {
	imp := model.Importance(s)
	if model.ValidImportance[imp] {
		return imp
	}
	return fallback
}
