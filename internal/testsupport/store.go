package testsupport

import (
	"context"
	"testing"

	"reelsmith/internal/config"
	"reelsmith/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob enqueues a job for tests using the provided store.
func NewJob(t testing.TB, store *queue.Store, kind string, input any) *queue.Job {
	t.Helper()

	job, err := store.Create(context.Background(), kind, input)
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}

// ClaimJob claims the next queued job and fails the test when none is queued.
func ClaimJob(t testing.TB, store *queue.Store) *queue.Job {
	t.Helper()

	job, err := store.ClaimNext(context.Background())
	if err != nil {
		t.Fatalf("store.ClaimNext: %v", err)
	}
	if job == nil {
		t.Fatal("store.ClaimNext: no queued job")
	}
	return job
}
