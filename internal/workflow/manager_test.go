package workflow_test

import (
	"context"
	"testing"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/queue"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/workflow"
)

func (h *harness) manager() *workflow.Manager {
	return workflow.NewManager(h.cfg, h.store, h.runner(), logging.NewNop()).WithPollInterval(10 * time.Millisecond)
}

func (h *harness) statusOf(t *testing.T, id string) queue.Status {
	t.Helper()
	job := h.job(t, id)
	if job == nil {
		return ""
	}
	return job.Status
}

func TestManagerDrainsQueue(t *testing.T) {
	h := newHarness(t)
	ok := testsupport.NewJob(t, h.store, string(pipeline.KindFull), fullRequest())
	bad := testsupport.NewJob(t, h.store, string(pipeline.KindAnalysis), workflow.Request{})

	m := h.manager()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer m.Stop()
	if err := m.Start(context.Background()); err == nil {
		t.Fatal("second Start should fail")
	}

	waitFor(t, 5*time.Second, func() bool {
		return h.statusOf(t, ok.ID).IsTerminal() && h.statusOf(t, bad.ID).IsTerminal()
	})
	if got := h.statusOf(t, ok.ID); got != queue.StatusCompleted {
		t.Fatalf("full job status = %s", got)
	}
	failed := h.job(t, bad.ID)
	if failed.Status != queue.StatusFailed || failed.ErrorMessage != "No video URL provided" {
		t.Fatalf("unexpected failed job %+v", failed)
	}

	waitFor(t, 2*time.Second, func() bool {
		h.notifier.mu.Lock()
		defer h.notifier.mu.Unlock()
		return h.notifier.queueDone == 1
	})

	status := m.Status(context.Background())
	if !status.Running || status.MaxJobs < 1 {
		t.Fatalf("unexpected status %+v", status)
	}
	if status.LastJob == nil || !status.LastJob.Status.IsTerminal() {
		t.Fatalf("status should describe the last finished job, got %+v", status.LastJob)
	}
	if status.QueueStats[queue.StatusCompleted] != 1 || status.QueueStats[queue.StatusFailed] != 1 {
		t.Fatalf("unexpected queue stats %v", status.QueueStats)
	}
}

func TestManagerStopLeavesJobResumable(t *testing.T) {
	h := newHarness(t)
	h.fakes.Delays = map[string]time.Duration{"Transcribe": 5 * time.Second}
	job := testsupport.NewJob(t, h.store, string(pipeline.KindFull), fullRequest())

	m := h.manager()
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		return h.fakes.Calls("Transcribe") == 1
	})
	if active := m.Status(context.Background()).ActiveJobs; len(active) != 1 || active[0] != job.ID {
		t.Fatalf("unexpected active jobs %v", active)
	}

	stopped := make(chan struct{})
	go func() {
		m.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	stored := h.job(t, job.ID)
	if stored.Status != queue.StatusProcessing || stored.RunID != job.ID {
		t.Fatalf("stopped job should stay processing with its run id, got %+v", stored)
	}
	if _, failed := h.notifier.counts(); failed != 0 {
		t.Fatal("shutdown must not be reported as a job failure")
	}
	if m.Status(context.Background()).Running {
		t.Fatal("manager should report stopped")
	}
}
