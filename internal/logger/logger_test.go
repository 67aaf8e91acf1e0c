package logger

import (
	"bytes"
	"os"
	"strings"
	"sync"
	"testing"
)

func withCapture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
	})
	return &buf
}

func TestSetVerboseToggles(t *testing.T) {
	defer func() { SetVerbose(false) }()

	SetVerbose(false)
	if IsVerbose() {
		t.Fatal("expected verbose off after SetVerbose(false)")
	}
	SetVerbose(true)
	if !IsVerbose() {
		t.Fatal("expected verbose on after SetVerbose(true)")
	}
}

func TestPhaseCallsSilentWhenNotVerbose(t *testing.T) {
	buf := withCapture(t, false)

	Section("Search")
	Debug("query: %q", "fox")
	Info("hits: %d", 3)
	Warn("store unavailable")

	if buf.Len() > 0 {
		t.Fatalf("expected no output while not verbose, got %q", buf.String())
	}
}

func TestSectionMarksAPhaseBoundary(t *testing.T) {
	buf := withCapture(t, true)

	Section("Ingest")

	if got, want := buf.String(), "\n=== Ingest ===\n"; got != want {
		t.Fatalf("Section output = %q, want %q", got, want)
	}
}

func TestDebugFormatsArgs(t *testing.T) {
	buf := withCapture(t, true)

	Debug("source: %q, limit: %d", "src-1", 10)

	if got, want := buf.String(), "[DEBUG] source: \"src-1\", limit: 10\n"; got != want {
		t.Fatalf("Debug output = %q, want %q", got, want)
	}
}

func TestInfoSummarizesAResult(t *testing.T) {
	buf := withCapture(t, true)

	Info("Search: %d hits", 4)

	if got, want := buf.String(), "[INFO] Search: 4 hits\n"; got != want {
		t.Fatalf("Info output = %q, want %q", got, want)
	}
}

func TestWarnPrecedesAnError(t *testing.T) {
	buf := withCapture(t, true)

	Warn("chunking %q failed: %v", "doc.pdf", os.ErrNotExist)

	if !strings.HasPrefix(buf.String(), "[WARN] chunking \"doc.pdf\" failed") {
		t.Fatalf("Warn output = %q, missing expected prefix", buf.String())
	}
}

// TestConcurrentIngestLikeLoggingDoesNotRace exercises the shape of two
// engine operations logging to the same writer concurrently (as two
// goroutines each running their own Ingest against a shared Engine
// would): every Section/Debug/Info call is expected to appear as a
// complete, unbroken line even when interleaved with another
// goroutine's calls.
func TestConcurrentIngestLikeLoggingDoesNotRace(t *testing.T) {
	buf := withCapture(t, true)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Section("Ingest")
			Debug("source: %d", n)
			Info("Ingest: %d chunks stored", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var debugLines, infoLines int
	for _, l := range lines {
		switch {
		case strings.HasPrefix(l, "[DEBUG]"):
			debugLines++
		case strings.HasPrefix(l, "[INFO]"):
			infoLines++
		}
	}
	if debugLines != 8 || infoLines != 8 {
		t.Fatalf("got %d debug lines and %d info lines, want 8 and 8", debugLines, infoLines)
	}
}
