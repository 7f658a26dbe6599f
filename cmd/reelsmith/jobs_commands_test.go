package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"reelsmith/internal/queue"
	"reelsmith/internal/testsupport"
)

func TestSubmitAndManageJobs(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := runCLI(t, []string{
		"submit", "run",
		"--url", "https://cdn.example.com/reference.mp4",
		"--image", "https://cdn.example.com/serum.png",
	}, env.configPath)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	requireContains(t, stdout, "Queued full job")
	id := queuedID(t, stdout)

	list, _, err := runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, list, id[:8])
	requireContains(t, list, "queued")
	requireContains(t, list, "reference.mp4")

	show, _, err := runCLI(t, []string{"jobs", "show", id[:8]}, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, show, id)

	out, _, err := runCLI(t, []string{"jobs", "cancel", id}, env.configPath)
	if err != nil {
		t.Fatalf("jobs cancel: %v", err)
	}
	requireContains(t, out, "Cancelled job "+id[:8])

	out, _, err = runCLI(t, []string{"jobs", "cancel", id}, env.configPath)
	if err != nil {
		t.Fatalf("second cancel: %v", err)
	}
	requireContains(t, out, "already cancelled")

	out, _, err = runCLI(t, []string{"jobs", "retry", id}, env.configPath)
	if err != nil {
		t.Fatalf("jobs retry: %v", err)
	}
	requireContains(t, out, "Requeued 1 job")

	out, _, err = runCLI(t, []string{"jobs", "delete", id}, env.configPath)
	if err != nil {
		t.Fatalf("jobs delete: %v", err)
	}
	requireContains(t, out, "Deleted job")

	list, _, err = runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, list, "No jobs")
}

func TestSubmitValidatesRequest(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"submit", "analyze"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "need a video url") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestJobsListRejectsUnknownStatus(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"jobs", "list", "--status", "paused"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), `unknown status "paused"`) {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestJobsWatchFinishedJob(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.NewJob(t, store, "analysis", map[string]string{"video_url": "https://cdn.example.com/a.mp4"})
	job := testsupport.ClaimJob(t, store)
	if err := store.SetError(context.Background(), job.ID, "No video URL provided", nil); err != nil {
		t.Fatalf("SetError: %v", err)
	}

	stdout, _, err := runCLI(t, []string{"jobs", "watch", job.ID, "--interval", "10ms"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "No video URL provided") {
		t.Fatalf("expected failed job error, got %v", err)
	}
	requireContains(t, stdout, string(queue.StatusFailed))
}

func TestJobsClearFinished(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenStore(t, env.cfg)
	testsupport.NewJob(t, store, "analysis", map[string]string{"video_url": "https://cdn.example.com/a.mp4"})
	done := testsupport.NewJob(t, store, "analysis", map[string]string{"video_url": "https://cdn.example.com/b.mp4"})
	if err := store.MarkCancelled(context.Background(), done.ID); err != nil {
		t.Fatalf("MarkCancelled: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 job")

	jobs, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(jobs) != 1 || jobs[0].Status != queue.StatusQueued {
		t.Fatalf("queued job should remain, got %+v", jobs)
	}
}

func TestBuildJobRowsMarksUnreadableInput(t *testing.T) {
	now := time.Now()
	jobs := []*queue.Job{
		{ID: "aaaaaaaa-1111", Kind: "run", Status: queue.StatusQueued, InputJSON: `{"video_url":"https://cdn.example.com/reference.mp4"}`, CreatedAt: now},
		{ID: "bbbbbbbb-2222", Kind: "run", Status: queue.StatusQueued, InputJSON: `{"video_url":`, CreatedAt: now},
	}

	rows := buildJobRows(jobs, now)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	source := len(rows[0]) - 1
	if rows[0][source] != "https://cdn.example.com/reference.mp4" {
		t.Fatalf("unexpected source %q", rows[0][source])
	}
	if rows[1][source] != unreadableInput {
		t.Fatalf("corrupt input should be flagged, got %q", rows[1][source])
	}
}
