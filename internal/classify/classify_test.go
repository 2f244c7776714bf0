package classify

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codescout/internal/config"
	"codescout/internal/model"
)

func newClassifier(t *testing.T, maxSize int64) *Classifier {
	t.Helper()
	cfg := config.Default()
	if maxSize > 0 {
		cfg.MaxFileSize = maxSize
	}
	return New(cfg)
}

func writeAndStat(t *testing.T, name string, content []byte) (string, fs.FileInfo) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	return path, info
}

func TestSizeBoundary(t *testing.T) {
	c := newClassifier(t, 100)

	atLimit, info := writeAndStat(t, "at.py", []byte(strings.Repeat("a", 100)))
	rec, scan, err := c.Classify(atLimit, info, false)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if rec.SkipReason != "" || !scan {
		t.Errorf("file at the limit should be scanned, got skip=%q scan=%v", rec.SkipReason, scan)
	}

	over, info := writeAndStat(t, "over.py", []byte(strings.Repeat("a", 101)))
	rec, scan, err = c.Classify(over, info, false)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if rec.SkipReason != model.SkipTooLarge {
		t.Errorf("expected skip %q, got %q", model.SkipTooLarge, rec.SkipReason)
	}
	if scan {
		t.Error("oversized file must not be scanned")
	}
	if rec.Importance != model.ImportanceLow {
		t.Errorf("expected low importance, got %s", rec.Importance)
	}
}

func TestBinarySkip(t *testing.T) {
	c := newClassifier(t, 0)
	path, info := writeAndStat(t, "blob.py", []byte{0xff, 0xfe, 0x01, 0x02, 0xff})

	rec, scan, err := c.Classify(path, info, false)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if rec.SkipReason != model.SkipBinary {
		t.Errorf("expected skip %q, got %q", model.SkipBinary, rec.SkipReason)
	}
	if scan {
		t.Error("binary file must not be scanned")
	}
}

func TestTargetOverridesSkipTier(t *testing.T) {
	c := newClassifier(t, 10)
	path, info := writeAndStat(t, "big.bin", []byte(strings.Repeat("a", 11)))

	rec, _, err := c.Classify(path, info, true)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if rec.SkipReason != model.SkipTooLarge {
		t.Errorf("expected skip %q, got %q", model.SkipTooLarge, rec.SkipReason)
	}
	if rec.Importance != model.ImportanceHigh {
		t.Errorf("target file must stay high, got %s", rec.Importance)
	}
}

func TestTiering(t *testing.T) {
	c := newClassifier(t, 0)

	cases := []struct {
		name string
		want model.Importance
		scan bool
	}{
		{"main.py", model.ImportanceHigh, true},
		{"notes.md", model.ImportanceMedium, true},
		{"data.xyz", model.ImportanceLow, false},
	}
	for _, tc := range cases {
		path, info := writeAndStat(t, tc.name, []byte("plain text content\n"))
		rec, scan, err := c.Classify(path, info, false)
		if err != nil {
			t.Fatalf("classify %s: %v", tc.name, err)
		}
		if rec.Importance != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, rec.Importance)
		}
		if scan != tc.scan {
			t.Errorf("%s: expected scan=%v, got %v", tc.name, tc.scan, scan)
		}
	}
}

func TestTargetUnknownExtensionScanned(t *testing.T) {
	c := newClassifier(t, 0)
	path, info := writeAndStat(t, "data.xyz", []byte("some text\n"))

	rec, scan, err := c.Classify(path, info, true)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if rec.Importance != model.ImportanceHigh || !scan {
		t.Errorf("target file should be high and scanned, got %s scan=%v", rec.Importance, scan)
	}
}

func TestShortInvalidUTF8IsBinary(t *testing.T) {
	c := newClassifier(t, 0)

	// Files smaller than the probe get no trailing-rune leniency: invalid
	// bytes at the end of a short file are invalid bytes, not a cut rune.
	cases := []struct {
		name    string
		content []byte
	}{
		{"bom.py", []byte{0xff, 0xfe}},
		{"tail.py", []byte("hello\xff")},
	}
	for _, tc := range cases {
		path, info := writeAndStat(t, tc.name, tc.content)
		rec, scan, err := c.Classify(path, info, false)
		if err != nil {
			t.Fatalf("classify %s: %v", tc.name, err)
		}
		if rec.SkipReason != model.SkipBinary {
			t.Errorf("%s: expected skip %q, got %q", tc.name, model.SkipBinary, rec.SkipReason)
		}
		if scan {
			t.Errorf("%s: invalid file must not be scanned", tc.name)
		}
	}
}

func TestInvalidTailAtSampleBoundaryIsBinary(t *testing.T) {
	c := newClassifier(t, 0)
	// The byte straddling the probe boundary is no rune prefix, so the
	// full-sample leniency must not apply.
	content := append([]byte(strings.Repeat("a", sampleSize-1)), 0xff, 0xff)
	path, info := writeAndStat(t, "junk.py", content)

	rec, _, err := c.Classify(path, info, false)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if rec.SkipReason != model.SkipBinary {
		t.Errorf("expected skip %q, got %q", model.SkipBinary, rec.SkipReason)
	}
}

func TestRuneSplitAtSampleBoundaryIsText(t *testing.T) {
	c := newClassifier(t, 0)
	// A multi-byte rune straddling the 8 KiB probe must not read as binary.
	content := append([]byte(strings.Repeat("a", sampleSize-1)), []byte("世界")...)
	path, info := writeAndStat(t, "wide.py", content)

	rec, _, err := c.Classify(path, info, false)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if rec.SkipReason != "" {
		t.Errorf("expected no skip, got %q", rec.SkipReason)
	}
}

func TestMissingFileErrors(t *testing.T) {
	c := newClassifier(t, 0)
	path, info := writeAndStat(t, "gone.py", []byte("text\n"))
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}

	_, _, err := c.Classify(path, info, false)
	if err == nil {
		t.Error("expected error for vanished file")
	}
}

func TestMetadataFields(t *testing.T) {
	c := newClassifier(t, 0)
	path, info := writeAndStat(t, "Main.PY", []byte("content\n"))

	rec, _, err := c.Classify(path, info, false)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if rec.Extension != ".py" {
		t.Errorf("expected lowercase extension .py, got %q", rec.Extension)
	}
	if rec.Size != info.Size() {
		t.Errorf("expected size %d, got %d", info.Size(), rec.Size)
	}
	if rec.LastModified != info.ModTime().UnixNano() {
		t.Error("last modified should mirror mtime")
	}
}
