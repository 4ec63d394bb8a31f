package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFileAndPartialLine(t *testing.T) {
	dir := t.TempDir()
	got, err := Read(filepath.Join(dir, "missing.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", got, err)
	}

	path := filepath.Join(dir, "partial.log")
	if err := os.WriteFile(path, []byte("one\r\ntwo"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err = Read(path, 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Fatalf("Read() = %q", got)
	}
}

func appendFile(t *testing.T, path, text string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := f.WriteString(text); err != nil {
		t.Fatalf("WriteString: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestTail_PollReturnsOnlyNewCompleteLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stall.log")
	tail := NewTail(path, 100)

	lines, reset, err := tail.Poll()
	if err != nil || lines != nil || reset {
		t.Fatalf("Poll(missing) = %v, %v, %v", lines, reset, err)
	}

	appendFile(t, path, "a\nb\npart")
	lines, reset, err = tail.Poll()
	if err != nil || reset || !reflect.DeepEqual(lines, []string{"a", "b"}) {
		t.Fatalf("first Poll = %q, %v, %v", lines, reset, err)
	}

	lines, _, _ = tail.Poll()
	if len(lines) != 0 {
		t.Fatalf("Poll without writes = %q", lines)
	}

	appendFile(t, path, "ial\nc\n")
	lines, _, err = tail.Poll()
	if err != nil || !reflect.DeepEqual(lines, []string{"partial", "c"}) {
		t.Fatalf("second Poll = %q, %v", lines, err)
	}
}

func TestTail_TruncationResets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stall.log")
	appendFile(t, path, "old 1\nold 2\n")
	tail := NewTail(path, 100)
	if _, _, err := tail.Poll(); err != nil {
		t.Fatalf("Poll: %v", err)
	}

	if err := os.WriteFile(path, []byte("new\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	lines, reset, err := tail.Poll()
	if err != nil || !reset || !reflect.DeepEqual(lines, []string{"new"}) {
		t.Fatalf("Poll after truncate = %q, %v, %v", lines, reset, err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, reset, _ := tail.Poll(); !reset {
		t.Fatalf("Poll after remove did not report reset")
	}
}

func TestTail_KeepsLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stall.log")
	appendFile(t, path, "1\n2\n3\n4\n")
	tail := NewTail(path, 2)
	lines, _, err := tail.Poll()
	if err != nil || !reflect.DeepEqual(lines, []string{"3", "4"}) {
		t.Fatalf("Poll = %q, %v", lines, err)
	}
	appendFile(t, path, "5\n")
	lines, _, _ = tail.Poll()
	if !reflect.DeepEqual(lines, []string{"5"}) {
		t.Fatalf("Poll after append = %q", lines)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want Kind
	}{
		{"2026/10/15 10:00:00 items poll failed: connection refused", KindError},
		{"2026/10/15 10:00:00 offline cache unavailable: permission denied", KindWarn},
		{"2026/10/15 10:00:00 restored session for a@b", KindInfo},
	}
	for _, tt := range tests {
		if got := Classify(tt.line); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.line, got, tt.want)
		}
	}
}
