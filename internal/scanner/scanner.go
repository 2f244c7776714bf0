// Package scanner streams files and extracts keyword-match snippets without
// loading whole files into memory.
package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"codescout/internal/model"
)

const (
	// Context lines kept on each side of a matching line. Windows at file
	// boundaries are truncated, never padded.
	contextBefore = 2
	contextAfter  = 2

	// DefaultChunkSize is the read size used when none is configured.
	DefaultChunkSize = 8 * 1024
)

// Scanner finds case-insensitive keyword matches in text files. Scanning is
// best-effort: read failures produce an empty result, never an error.
type Scanner struct {
	chunkSize int
	keywords  []string
	logger    *slog.Logger
}

// New builds a Scanner. Keywords must already be lowercase.
func New(chunkSize int, keywords []string, logger *slog.Logger) *Scanner {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{chunkSize: chunkSize, keywords: keywords, logger: logger}
}

// pending is a snippet still waiting for its trailing context lines.
type pending struct {
	start int // 1-based first line of the window
	lines []string
	need  int
}

// scanState accumulates window bookkeeping while lines stream through.
type scanState struct {
	window   []string // up to contextBefore preceding lines
	open     []*pending
	snippets []model.Snippet
}

// Scan reads the file in fixed-size chunks, reconstructs logical lines across
// chunk boundaries and returns one snippet per matching line, in line order.
func (s *Scanner) Scan(ctx context.Context, path string) []model.Snippet {
	if len(s.keywords) == 0 {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		s.logger.Warn("scan open failed", "path", path, "error", err)
		return nil
	}
	defer f.Close()

	st := &scanState{}
	buf := make([]byte, s.chunkSize)
	var carry []byte
	lineNo := 0

	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := f.Read(buf)
		if n > 0 {
			data := buf[:n]
			for {
				i := bytes.IndexByte(data, '\n')
				if i < 0 {
					carry = append(carry, data...)
					break
				}
				carry = append(carry, data[:i]...)
				lineNo++
				s.line(st, lineNo, string(bytes.TrimRight(carry, "\r")))
				carry = carry[:0]
				data = data[i+1:]
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Warn("scan read failed", "path", path, "error", err)
			return nil
		}
	}

	if len(carry) > 0 {
		lineNo++
		s.line(st, lineNo, string(bytes.TrimRight(carry, "\r")))
	}

	// Close out windows truncated by end of file.
	for _, p := range st.open {
		st.snippets = append(st.snippets, finalize(p))
	}
	return st.snippets
}

// line feeds one logical line through the sliding window.
func (s *Scanner) line(st *scanState, n int, text string) {
	// Trailing context for snippets opened on earlier lines. Older windows
	// always fill up first, so completed ones form a prefix.
	done := 0
	for _, p := range st.open {
		p.lines = append(p.lines, text)
		p.need--
		if p.need == 0 {
			st.snippets = append(st.snippets, finalize(p))
			done++
		}
	}
	st.open = st.open[done:]

	if s.matches(text) {
		p := &pending{start: n - len(st.window), need: contextAfter}
		p.lines = append(p.lines, st.window...)
		p.lines = append(p.lines, text)
		if p.need == 0 {
			st.snippets = append(st.snippets, finalize(p))
		} else {
			st.open = append(st.open, p)
		}
	}

	st.window = append(st.window, text)
	if len(st.window) > contextBefore {
		st.window = st.window[1:]
	}
}

func (s *Scanner) matches(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range s.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func finalize(p *pending) model.Snippet {
	return model.Snippet{
		LineRange: fmt.Sprintf("%d-%d", p.start, p.start+len(p.lines)-1),
		Context:   strings.Join(p.lines, "\n"),
	}
}
