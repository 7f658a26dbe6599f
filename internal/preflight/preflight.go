package preflight

import (
	"context"
	"strings"

	"reelsmith/internal/config"
)

// MinFreeBytes is the free space the work directory should keep for a
// downloaded reference video, its audio track and sampled frames.
const MinFreeBytes = 2 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckFreeSpace("Work directory space", cfg.Paths.WorkDir, MinFreeBytes),
	}
	results = append(results, CheckLLM(ctx, "OpenRouter LLM", cfg.LLM))
	results = append(results, CheckFalKey(cfg.Video))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

// CheckFalKey reports whether video synthesis has credentials. It does not
// contact fal.ai: the queue API bills per submission and has no free ping.
func CheckFalKey(cfg config.Video) Result {
	const name = "fal.ai video"
	if strings.TrimSpace(cfg.FalKey) == "" {
		return Result{Name: name, Detail: "API key missing (set [video].fal_key or FAL_KEY)"}
	}
	return Result{Name: name, Passed: true, Detail: "key configured for " + cfg.Model}
}
