package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/config"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENROUTER_API_KEY", "or-key")
	t.Setenv("FAL_KEY", "")

	path := filepath.Join(t.TempDir(), "missing.toml")
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.LLM.APIKey != "or-key" {
		t.Fatalf("expected env fallback for llm api key, got %q", cfg.LLM.APIKey)
	}
	if !filepath.IsAbs(cfg.Paths.WorkDir) || strings.Contains(cfg.Paths.WorkDir, "~") {
		t.Fatalf("expected expanded work dir, got %q", cfg.Paths.WorkDir)
	}
	if cfg.Video.Model != "sora" || cfg.Video.AspectRatio != "9:16" || cfg.Analysis.NumFrames != 5 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.QueueDBPath() != filepath.Join(cfg.Paths.StateDir, "queue.db") {
		t.Fatalf("unexpected queue db path %q", cfg.QueueDBPath())
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
work_dir = "` + filepath.Join(dir, "work") + `"

[video]
model = "KLING"
duration = 10
aspect_ratio = "16:9"

[mechanics]
energy_level = "HIGH"

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.Video.Model != "kling" || cfg.Video.Duration != 10 || cfg.Video.AspectRatio != "16:9" {
		t.Fatalf("unexpected video config: %+v", cfg.Video)
	}
	if cfg.Mechanics.EnergyLevel != "high" {
		t.Fatalf("expected normalized energy level, got %q", cfg.Mechanics.EnergyLevel)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
	if cfg.Paths.WorkDir != filepath.Join(dir, "work") {
		t.Fatalf("unexpected work dir %q", cfg.Paths.WorkDir)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"aspect": "[video]\naspect_ratio = \"4:3\"\n",
		"model":  "[video]\nmodel = \"veo\"\n",
		"frames": "[analysis]\nnum_frames = 0\nnum_frames_for_scenes = 0\n",
		"energy": "[mechanics]\nenergy_level = \"extreme\"\n",
		"parse":  "[video\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, _, _, err := config.Load(path); err == nil {
				t.Fatalf("expected error for %s", name)
			}
		})
	}
}

func TestSampleConfigLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Workflow.MaxConcurrentJobs != 2 || !cfg.Pipeline.Checkpointing {
		t.Fatalf("unexpected sample values: %+v", cfg.Workflow)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "work")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkDir, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
