package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/notifications"
	"reelsmith/internal/queue"
	"reelsmith/internal/testsupport"
	"reelsmith/internal/workflow"
)

type stubNotifier struct {
	mu        sync.Mutex
	completed []notifications.Job
	failed    []string
	queueDone int
}

func (s *stubNotifier) NotifyJobCompleted(_ context.Context, job notifications.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = append(s.completed, job)
	return nil
}

func (s *stubNotifier) NotifyJobFailed(_ context.Context, _ notifications.Job, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, err.Error())
	return nil
}

func (s *stubNotifier) NotifyQueueStarted(context.Context, int) error { return nil }

func (s *stubNotifier) NotifyQueueCompleted(context.Context, int, int, time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queueDone++
	return nil
}

func (s *stubNotifier) TestNotification(context.Context) error { return nil }

func (s *stubNotifier) counts() (completed, failed int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completed), len(s.failed)
}

type harness struct {
	cfg      *config.Config
	store    *queue.Store
	fakes    *testsupport.Services
	notifier *stubNotifier
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return &harness{
		cfg:      cfg,
		store:    testsupport.MustOpenStore(t, cfg),
		fakes:    testsupport.NewServices(),
		notifier: &stubNotifier{},
	}
}

func (h *harness) runner() *workflow.Runner {
	return workflow.NewRunner(h.cfg, h.store, h.fakes.Pipeline(), logging.NewNop(), workflow.WithNotifier(h.notifier))
}

func (h *harness) job(t *testing.T, id string) *queue.Job {
	t.Helper()
	job, err := h.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	return job
}

func fullRequest() workflow.Request {
	return workflow.Request{
		VideoURL:           "https://cdn.example.com/reference.mp4",
		ProductImages:      []string{"https://cdn.example.com/serum.png"},
		ProductDescription: "Vitamin C serum in a glass dropper bottle",
	}
}

// seedArtifacts creates the files the fake collaborators report so cleanup
// has something to remove.
func seedArtifacts(t *testing.T, cfg *config.Config, jobID string) []string {
	t.Helper()
	dir := cfg.JobWorkDir(jobID)
	paths := []string{
		filepath.Join(dir, "source.mp4"),
		filepath.Join(dir, "audio.wav"),
		filepath.Join(dir, "frame_000.jpg"),
	}
	for _, p := range paths {
		testsupport.WriteFile(t, p, 16)
	}
	return paths
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}
