package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGraphCommandFormats(t *testing.T) {
	env := setupCLITestEnv(t)

	mermaid, _, err := runCLI(t, []string{"graph", "full"}, env.configPath)
	if err != nil {
		t.Fatalf("graph: %v", err)
	}
	requireContains(t, mermaid, "graph TD")
	requireContains(t, mermaid, "generate_blueprint{{generate_blueprint}}")

	yamlOut, _, err := runCLI(t, []string{"graph", "analysis", "--format", "yaml"}, env.configPath)
	if err != nil {
		t.Fatalf("graph yaml: %v", err)
	}
	requireContains(t, yamlOut, "name: analysis")
	if strings.Contains(yamlOut, "generate_video") {
		t.Fatalf("analysis graph should not include video generation:\n%s", yamlOut)
	}

	jsonOut, _, err := runCLI(t, []string{"graph", "prompt", "-f", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("graph json: %v", err)
	}
	requireContains(t, jsonOut, `"name": "prompt"`)
}

func TestGraphCommandRejectsUnknownKind(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"graph", "storyboard"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), `unknown pipeline "storyboard"`) {
		t.Fatalf("expected unknown pipeline error, got %v", err)
	}
	_, _, err = runCLI(t, []string{"graph", "full", "--format", "dot"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), `unknown format "dot"`) {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestConfigInitCommand(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "reelsmith", "config.toml")

	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config at %s: %v", target, err)
	}

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected existing file error, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.LLM.APIKey = "sk-or-v1-supersecret"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "sk-o****")
	if strings.Contains(out, "supersecret") {
		t.Fatalf("api key should be masked:\n%s", out)
	}
}

func TestStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")
	requireContains(t, out, "FFmpeg")
	requireContains(t, out, "Work directory")
	requireContains(t, out, "Queue is empty")
}

func TestMaskSecret(t *testing.T) {
	cases := map[string]string{
		"":              "",
		"short":         "****",
		"sk-or-v1-abcd": "sk-o****",
	}
	for in, want := range cases {
		if got := maskSecret(in); got != want {
			t.Fatalf("maskSecret(%q) = %q, want %q", in, got, want)
		}
	}
}
