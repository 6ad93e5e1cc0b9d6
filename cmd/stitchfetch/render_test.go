package main

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"stitchfetch/internal/fetcher"
)

func TestStatusLabel(t *testing.T) {
	if got := statusLabel("succeeded", false); got != "Succeeded" {
		t.Fatalf("statusLabel = %q", got)
	}
	colored := statusLabel("failed", true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected red label, got %q", colored)
	}
	if got := statusLabel("unknown_state", true); got != "Unknown State" {
		t.Fatalf("expected uncoloured label, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("a  b\n c", 10); got != "a b c" {
		t.Fatalf("expected whitespace collapsed, got %q", got)
	}
	if got := truncate(strings.Repeat("x", 20), 10); got != "xxxxxxx..." {
		t.Fatalf("truncate = %q", got)
	}
}

func TestFormatHelpers(t *testing.T) {
	if formatBytes(0) != "-" || formatBytes(2048) != "2.0 kB" {
		t.Fatalf("unexpected byte formatting: %q", formatBytes(2048))
	}
	if formatDuration(0) != "-" || formatDuration(1500*time.Millisecond) != "1.5s" {
		t.Fatalf("unexpected duration formatting: %q", formatDuration(1500*time.Millisecond))
	}
	if shortID("0123456789") != "01234567" || shortID("abc") != "abc" {
		t.Fatal("unexpected short id")
	}
	if redactSecret("abcdefgh") != "****efgh" || redactSecret("ab") != "****" {
		t.Fatal("unexpected redaction")
	}
}

func TestRenderTableWrapsDetailAndFillsBlanks(t *testing.T) {
	detail := strings.Repeat("word ", 30)
	out := renderTable([]column{textCol("Screen"), numericCol("Size"), detailCol("Detail")}, [][]string{
		{"abc", "", detail},
		{"def"},
	})

	lines := strings.Split(out, "\n")
	if len(lines) < 7 {
		t.Fatalf("expected wrapped detail rows, got:\n%s", out)
	}
	for _, line := range lines {
		if n := len([]rune(line)); n > detailWidth+30 {
			t.Fatalf("line wider than the detail cap (%d runes): %q", n, line)
		}
	}
	if !strings.Contains(out, "abc") || !strings.Contains(out, "def") {
		t.Fatalf("missing identifiers:\n%s", out)
	}
	if strings.Count(out, " - ") < 3 {
		t.Fatalf("expected blank cells rendered as '-':\n%s", out)
	}
}

func TestRenderTableWithoutColumns(t *testing.T) {
	if got := renderTable(nil, [][]string{{"x"}}); got != "" {
		t.Fatalf("expected empty output, got %q", got)
	}
}

func TestExitCode(t *testing.T) {
	if exitCode(nil) != exitOK {
		t.Fatal("nil error should exit 0")
	}
	partial := fmt.Errorf("run: %w", fetcher.ErrPartialFailure)
	if exitCode(partial) != exitPartial {
		t.Fatalf("partial failure exit = %d", exitCode(partial))
	}
	if exitCode(errors.New("config missing")) != exitError {
		t.Fatal("plain error should exit 1")
	}
}
