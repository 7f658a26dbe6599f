package main

import (
	"fmt"
	"strings"
	"testing"

	"reelsmith/internal/deps"
	"reelsmith/internal/preflight"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusError, "Not running", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Daemon:", "[ERROR] Not running")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Daemon", statusOK, "Running", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "FFmpeg", Available: false, Detail: `binary "ffmpeg" not found`},
		{Name: "uvx", Available: true, Command: "uvx"},
		{Name: "yt-dlp", Available: false, Optional: true, Detail: `binary "yt-dlp" not found`},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[ERROR] Missing: FFmpeg") {
		t.Fatalf("unexpected summary line %q", lines[0])
	}
	if !strings.Contains(lines[2], "[OK] Ready (command: uvx)") {
		t.Fatalf("unexpected ready line %q", lines[2])
	}
	if !strings.Contains(lines[3], "[WARN]") {
		t.Fatalf("optional dependency should warn, got %q", lines[3])
	}
}

func TestCheckLines(t *testing.T) {
	lines := checkLines([]preflight.Result{
		{Name: "Work directory", Passed: true, Detail: "/tmp/work"},
		{Name: "fal.ai video", Passed: false, Detail: "fal_key not set"},
	}, false)
	if !strings.Contains(lines[0], "[OK] /tmp/work") {
		t.Fatalf("unexpected line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] fal_key not set") {
		t.Fatalf("unexpected line %q", lines[1])
	}
}
