package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file has no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	lines, _, err := scanLines(file, maxLines, true)
	return lines, err
}

// Tail follows a growing log file, returning only lines appended since the
// previous Poll.
type Tail struct {
	path     string
	maxLines int
	offset   int64
}

// NewTail prepares a tail of path keeping at most maxLines per Poll.
func NewTail(path string, maxLines int) *Tail {
	return &Tail{path: path, maxLines: maxLines}
}

// Path returns the followed file.
func (t *Tail) Path() string {
	return t.path
}

// Poll returns complete lines written since the last call. reset is true
// when the file shrank (rotation or truncation) and the caller should
// discard what it already holds. A trailing partial line is left for the
// next Poll.
func (t *Tail) Poll() (lines []string, reset bool, err error) {
	file, err := os.Open(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			reset = t.offset > 0
			t.offset = 0
			return nil, reset, nil
		}
		return nil, false, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, false, fmt.Errorf("stat log: %w", err)
	}
	if info.Size() < t.offset {
		t.offset = 0
		reset = true
	}
	if info.Size() == t.offset {
		return nil, reset, nil
	}
	if _, err := file.Seek(t.offset, io.SeekStart); err != nil {
		return nil, reset, fmt.Errorf("seek log: %w", err)
	}

	lines, consumed, err := scanLines(io.LimitReader(file, info.Size()-t.offset), t.maxLines, false)
	if err != nil {
		return nil, reset, err
	}
	t.offset += consumed
	return lines, reset, nil
}

// scanLines keeps the last maxLines lines of r in a ring buffer and reports
// how many bytes it consumed. An unterminated last line is consumed only
// when keepPartial is set.
func scanLines(r io.Reader, maxLines int, keepPartial bool) ([]string, int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var (
		ring     []string
		idx      int
		count    int
		consumed int64
	)
	if maxLines > 0 {
		ring = make([]string, maxLines)
	}
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			if line != "" && keepPartial {
				ring, idx, count = push(ring, idx, count, maxLines, strings.TrimRight(line, "\r"))
				consumed += int64(len(line))
			}
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read log: %w", err)
		}
		consumed += int64(len(line))
		ring, idx, count = push(ring, idx, count, maxLines, strings.TrimRight(line, "\r\n"))
	}

	if maxLines <= 0 {
		return ring, consumed, nil
	}
	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, consumed, nil
}

func push(ring []string, idx, count, maxLines int, line string) ([]string, int, int) {
	if maxLines <= 0 {
		return append(ring, line), idx, count + 1
	}
	ring[idx] = line
	idx = (idx + 1) % maxLines
	if count < maxLines {
		count++
	}
	return ring, idx, count
}

// Kind classifies a log line for display.
type Kind int

const (
	KindInfo Kind = iota
	KindWarn
	KindError
)

// Classify guesses the severity of a standard library log line, which
// carries no level field.
func Classify(line string) Kind {
	lower := strings.ToLower(line)
	switch {
	case strings.Contains(lower, "failed"), strings.Contains(lower, "error"), strings.Contains(lower, "panic"):
		return KindError
	case strings.Contains(lower, "unavailable"), strings.Contains(lower, "retry"), strings.Contains(lower, "offline"):
		return KindWarn
	default:
		return KindInfo
	}
}
