package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/graph"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
)

func TestRunCommandPrintsOutcomeJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, stderr, err := runCLI(t, []string{
		"run",
		"--url", "https://cdn.example.com/reference.mp4",
		"--image", "https://cdn.example.com/serum.png",
		"--description", "Vitamin C serum",
		"--json",
	}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v (stderr %s)", err, stderr)
	}
	if stderr != "" {
		t.Fatalf("--json should suppress progress, got %q", stderr)
	}
	var outcome pipeline.Outcome
	if err := json.Unmarshal([]byte(stdout), &outcome); err != nil {
		t.Fatalf("decode outcome: %v\n%s", err, stdout)
	}
	if outcome.Status != graph.StatusCompleted {
		t.Fatalf("expected completed, got %s: %s", outcome.Status, outcome.Error)
	}
	if outcome.VideoURL != "https://cdn.example.com/out.mp4" || outcome.CostUSD != 2 {
		t.Fatalf("unexpected video result %+v", outcome)
	}
	if env.fakes.Calls("Synthesize") != 1 {
		t.Fatalf("expected one synthesis call, got %d", env.fakes.Calls("Synthesize"))
	}
}

func TestAnalyzeCommandReportsProgress(t *testing.T) {
	env := setupCLITestEnv(t)
	outputPath := filepath.Join(t.TempDir(), "analysis.json")

	stdout, stderr, err := runCLI(t, []string{
		"analyze",
		"--url", "https://cdn.example.com/reference.mp4",
		"--output", outputPath,
	}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, stderr, "Downloading Video")
	requireContains(t, stderr, "Generating Blueprint")
	requireContains(t, stdout, "completed")
	requireContains(t, stdout, "Outcome written to "+outputPath)
	if env.fakes.Calls("Synthesize") != 0 {
		t.Fatal("analysis must not generate a video")
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read outcome: %v", err)
	}
	requireContains(t, string(data), `"blueprint"`)
}

func TestPromptCommandUsesSavedBlueprint(t *testing.T) {
	env := setupCLITestEnv(t)
	outputPath := filepath.Join(t.TempDir(), "analysis.json")
	if _, _, err := runCLI(t, []string{
		"analyze", "--url", "https://cdn.example.com/reference.mp4", "--output", outputPath, "--json",
	}, env.configPath); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	stdout, _, err := runCLI(t, []string{
		"prompt",
		"--blueprint", outputPath,
		"--image", "https://cdn.example.com/serum.png",
		"--description", "Vitamin C serum",
		"--json",
	}, env.configPath)
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	var outcome pipeline.Outcome
	if err := json.Unmarshal([]byte(stdout), &outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if !outcome.Succeeded() || outcome.FinalPrompt == "" {
		t.Fatalf("expected a final prompt, got %+v", outcome)
	}
	if env.fakes.Calls("Download") != 1 {
		t.Fatalf("prompt run must not download again, got %d downloads", env.fakes.Calls("Download"))
	}
}

func TestPromptCommandRequiresProduct(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"prompt"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "product images or a product description") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunCommandReturnsNodeFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	env.fakes.DownloadErr = services.Wrap(services.ErrExternalTool, "download", "fetch", "HTTP 403", nil)

	stdout, _, err := runCLI(t, []string{
		"run",
		"--url", "https://cdn.example.com/reference.mp4",
		"--description", "Vitamin C serum",
	}, env.configPath)
	if err == nil {
		t.Fatal("expected failure")
	}
	requireContains(t, err.Error(), "Failed to download video")
	requireContains(t, stdout, "failed")
	if env.fakes.Calls("Synthesize") != 0 {
		t.Fatal("synthesis must not run after a failed download")
	}
}

func TestRequestFileWithFlagOverrides(t *testing.T) {
	env := setupCLITestEnv(t)
	requestPath := filepath.Join(t.TempDir(), "request.yaml")
	request := "video_url: https://cdn.example.com/other.mp4\n" +
		"product_description: Serum from file\n" +
		"product_context:\n  type: skincare\n"
	if err := os.WriteFile(requestPath, []byte(request), 0o644); err != nil {
		t.Fatalf("write request: %v", err)
	}

	stdout, _, err := runCLI(t, []string{
		"submit", "run",
		"--request", requestPath,
		"--url", "https://cdn.example.com/reference.mp4",
		"--model", "kling",
	}, env.configPath)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	id := queuedID(t, stdout)

	show, _, err := runCLI(t, []string{"jobs", "show", id, "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	var view struct {
		Request struct {
			VideoURL           string `json:"video_url"`
			ProductDescription string `json:"product_description"`
			ProductContext     struct {
				Type string `json:"type"`
			} `json:"product_context"`
			Config *pipeline.RunConfig `json:"config"`
		} `json:"request"`
	}
	if err := json.Unmarshal([]byte(show), &view); err != nil {
		t.Fatalf("decode job view: %v\n%s", err, show)
	}
	if view.Request.VideoURL != "https://cdn.example.com/reference.mp4" {
		t.Fatalf("flag should override request file, got %q", view.Request.VideoURL)
	}
	if view.Request.ProductDescription != "Serum from file" || view.Request.ProductContext.Type != "skincare" {
		t.Fatalf("request file values lost: %+v", view.Request)
	}
	if view.Request.Config == nil || view.Request.Config.VideoModel != "kling" {
		t.Fatalf("expected pinned config with kling, got %+v", view.Request.Config)
	}
}
