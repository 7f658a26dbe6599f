package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("unexpected detail %q", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("space", dir, 1); !result.Passed {
		t.Fatalf("expected one byte to be available, got %s", result.Detail)
	}
	result := CheckFreeSpace("space", dir, 1<<62)
	if result.Passed || !strings.Contains(result.Detail, "need") {
		t.Fatalf("expected shortage, got %+v", result)
	}
	if missing := CheckFreeSpace("space", filepath.Join(dir, "nope"), 1); missing.Passed {
		t.Fatal("expected statfs failure for missing path")
	}
}

func llmServer(t *testing.T, key string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+key {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"finish_reason": "stop",
				"message":       map[string]any{"content": `{"ok":true}`},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckLLM(t *testing.T) {
	srv := llmServer(t, "good-key")

	ok := CheckLLM(context.Background(), "LLM", config.LLM{APIKey: "good-key", BaseURL: srv.URL, Model: "demo"})
	if !ok.Passed {
		t.Fatalf("expected pass, got %s", ok.Detail)
	}
	bad := CheckLLM(context.Background(), "LLM", config.LLM{APIKey: "bad-key", BaseURL: srv.URL, Model: "demo"})
	if bad.Passed {
		t.Fatal("expected rejected key to fail")
	}
	missing := CheckLLM(context.Background(), "LLM", config.LLM{BaseURL: srv.URL})
	if missing.Passed || missing.Detail != "API key missing" {
		t.Fatalf("unexpected result for missing key: %+v", missing)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil); results != nil {
		t.Fatalf("expected nil, got %v", results)
	}
}

func TestRunAll_Config(t *testing.T) {
	base := t.TempDir()
	srv := llmServer(t, "key")
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.LLM.APIKey = "key"
	cfg.LLM.BaseURL = srv.URL
	cfg.Video.FalKey = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	results := RunAll(context.Background(), &cfg)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
	}
	want := "Work directory,Log directory,State directory,Work directory space,OpenRouter LLM,fal.ai video"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("unexpected checks %s", got)
	}
	failed := Failed(results)
	for _, f := range failed {
		if f.Name != "fal.ai video" && f.Name != "Work directory space" {
			t.Fatalf("unexpected failure %+v", f)
		}
	}
	if failed[len(failed)-1].Name != "fal.ai video" {
		t.Fatalf("missing fal key should fail, got %+v", failed)
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.FFmpegBinary = "reelsmith-missing-ffmpeg"
	statuses := CheckSystemDeps(&cfg)
	if len(statuses) != 4 {
		t.Fatalf("expected 4 requirements, got %d", len(statuses))
	}
	if statuses[0].Available {
		t.Fatal("missing ffmpeg reported available")
	}
	if !statuses[2].Optional {
		t.Fatal("yt-dlp should be optional")
	}
	if statuses[3].Name != "uvx" || statuses[3].Optional {
		t.Fatalf("uvx should be required, got %+v", statuses[3])
	}
}
