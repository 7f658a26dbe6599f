package queue_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelsmith/internal/graph"
	"reelsmith/internal/queue"
	"reelsmith/internal/testsupport"
)

type input struct {
	VideoURL string `json:"video_url"`
}

type result struct {
	FinalPrompt string `json:"final_prompt"`
}

func TestCreateAndGet(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	job := testsupport.NewJob(t, store, "analysis", input{VideoURL: "https://x/ref.mp4"})
	if job.ID == "" || job.Status != queue.StatusQueued || job.Kind != "analysis" {
		t.Fatalf("unexpected job: %#v", job)
	}
	if job.CreatedAt.IsZero() || job.StartedAt != nil {
		t.Fatalf("unexpected timestamps: %#v", job)
	}

	fetched, err := store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	var in input
	if err := fetched.DecodeInput(&in); err != nil {
		t.Fatalf("DecodeInput failed: %v", err)
	}
	if in.VideoURL != "https://x/ref.mp4" {
		t.Fatalf("input = %#v", in)
	}

	missing, err := store.Get(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("Get(missing) = %#v, %v", missing, err)
	}

	found, err := store.FindByPrefix(ctx, job.ID[:8])
	if err != nil || found == nil || found.ID != job.ID {
		t.Fatalf("FindByPrefix = %#v, %v", found, err)
	}
}

func TestCreateRequiresKind(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := store.Create(context.Background(), " ", input{}); err == nil {
		t.Fatal("expected error when kind missing")
	}
}

func TestLifecycle(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	first := testsupport.NewJob(t, store, "full", input{VideoURL: "a"})
	second := testsupport.NewJob(t, store, "full", input{VideoURL: "b"})

	claimed := testsupport.ClaimJob(t, store)
	if claimed.ID != first.ID || claimed.Status != queue.StatusProcessing || claimed.StartedAt == nil {
		t.Fatalf("expected oldest job to be claimed, got %#v", claimed)
	}

	if err := store.SetRunID(ctx, claimed.ID, "run-1"); err != nil {
		t.Fatalf("SetRunID failed: %v", err)
	}
	if err := store.UpdateProgress(ctx, claimed.ID, "transcribing", 3, 12); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	got, _ := store.Get(ctx, claimed.ID)
	if got.CurrentStep != "transcribing" || got.StepIndex != 3 || got.TotalSteps != 12 || got.ProgressPercent != 25 {
		t.Fatalf("progress not stored: %#v", got)
	}
	if got.RunID != "run-1" || got.LastHeartbeat == nil {
		t.Fatalf("run id or heartbeat missing: %#v", got)
	}

	if err := store.SetResult(ctx, claimed.ID, result{FinalPrompt: "selfie video"}); err != nil {
		t.Fatalf("SetResult failed: %v", err)
	}
	done, _ := store.Get(ctx, claimed.ID)
	if done.Status != queue.StatusCompleted || done.CompletedAt == nil || done.ProgressPercent != 100 {
		t.Fatalf("unexpected completed job: %#v", done)
	}
	var res result
	if err := done.DecodeResult(&res); err != nil || res.FinalPrompt != "selfie video" {
		t.Fatalf("DecodeResult = %#v, %v", res, err)
	}
	if err := store.UpdateProgress(ctx, claimed.ID, "late", 4, 12); !errors.Is(err, queue.ErrJobNotFound) {
		t.Fatalf("progress after completion should fail, got %v", err)
	}

	next := testsupport.ClaimJob(t, store)
	if next.ID != second.ID {
		t.Fatalf("expected second job, got %s", next.ID)
	}
	if err := store.SetError(ctx, next.ID, "Failed to download video: 404", result{}); err != nil {
		t.Fatalf("SetError failed: %v", err)
	}
	failed, _ := store.Get(ctx, next.ID)
	if failed.Status != queue.StatusFailed || failed.ErrorMessage != "Failed to download video: 404" {
		t.Fatalf("unexpected failed job: %#v", failed)
	}

	none, err := store.ClaimNext(ctx)
	if err != nil || none != nil {
		t.Fatalf("ClaimNext on empty queue = %#v, %v", none, err)
	}

	n, err := store.Retry(ctx)
	if err != nil || n != 1 {
		t.Fatalf("Retry = %d, %v", n, err)
	}
	retried, _ := store.Get(ctx, next.ID)
	if retried.Status != queue.StatusQueued || retried.ErrorMessage != "" || retried.ResultJSON != "" {
		t.Fatalf("unexpected retried job: %#v", retried)
	}
}

func TestCancelAndDelete(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	job := testsupport.NewJob(t, store, "prompt", input{})
	claimed := testsupport.ClaimJob(t, store)

	if err := store.MarkCancelled(ctx, claimed.ID); err != nil {
		t.Fatalf("MarkCancelled failed: %v", err)
	}
	cancelled, _ := store.Get(ctx, job.ID)
	if cancelled.Status != queue.StatusCancelled || cancelled.ErrorMessage != queue.UserCancelReason {
		t.Fatalf("unexpected cancelled job: %#v", cancelled)
	}
	if err := store.MarkCancelled(ctx, job.ID); !errors.Is(err, queue.ErrJobNotFound) {
		t.Fatalf("cancelling twice should report ErrJobNotFound, got %v", err)
	}
	if err := store.SetResult(ctx, job.ID, result{}); !errors.Is(err, queue.ErrJobNotFound) {
		t.Fatalf("completing a cancelled job should fail, got %v", err)
	}

	removed, err := store.Delete(ctx, job.ID)
	if err != nil || !removed {
		t.Fatalf("Delete = %v, %v", removed, err)
	}
	removed, err = store.Delete(ctx, job.ID)
	if err != nil || removed {
		t.Fatalf("second Delete = %v, %v", removed, err)
	}
}

func TestListFiltersByStatus(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.NewJob(t, store, "analysis", input{})
	testsupport.NewJob(t, store, "analysis", input{})
	testsupport.ClaimJob(t, store)

	all, err := store.List(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("List() = %d, %v", len(all), err)
	}
	queued, err := store.List(ctx, queue.StatusQueued)
	if err != nil || len(queued) != 1 {
		t.Fatalf("List(queued) = %d, %v", len(queued), err)
	}
	active, err := store.List(ctx, queue.StatusQueued, queue.StatusProcessing)
	if err != nil || len(active) != 2 {
		t.Fatalf("List(queued, processing) = %d, %v", len(active), err)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Queued != 1 || health.Processing != 1 {
		t.Fatalf("unexpected health: %#v", health)
	}

	cleared, err := store.Clear(ctx, queue.StatusQueued)
	if err != nil || cleared != 1 {
		t.Fatalf("Clear(queued) = %d, %v", cleared, err)
	}
}

func TestReclaimStale(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.NewJob(t, store, "full", input{})
	job := testsupport.ClaimJob(t, store)
	if err := store.SetRunID(ctx, job.ID, "run-7"); err != nil {
		t.Fatalf("SetRunID failed: %v", err)
	}

	n, err := store.ReclaimStale(ctx, time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("fresh heartbeat reclaimed: %d, %v", n, err)
	}
	n, err = store.ReclaimStale(ctx, time.Now().Add(time.Minute))
	if err != nil || n != 1 {
		t.Fatalf("ReclaimStale = %d, %v", n, err)
	}
	reclaimed, _ := store.Get(ctx, job.ID)
	if reclaimed.Status != queue.StatusQueued || reclaimed.RunID != "run-7" {
		t.Fatalf("unexpected reclaimed job: %#v", reclaimed)
	}

	testsupport.ClaimJob(t, store)
	n, err = store.ResetProcessing(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ResetProcessing = %d, %v", n, err)
	}
}

func TestCheckpointerRoundTrip(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	cps := store.Checkpointer()

	if err := cps.Save(ctx, graph.Checkpoint{
		RunID: "run-1", Step: 1, Node: "download_video",
		State: graph.State{"video_path": "/tmp/a.mp4", "frames": []string{"f1"}},
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := cps.Save(ctx, graph.Checkpoint{
		RunID: "run-1", Step: 2, Node: "extract_frames", Boundary: true,
		State: graph.State{"video_path": "/tmp/a.mp4"},
		Next:  []string{"analyze_visuals"},
		Joins: map[string][]string{"generate_blueprint": {"transcribe"}},
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	history, err := cps.List(ctx, "run-1")
	if err != nil || len(history) != 2 {
		t.Fatalf("List = %d, %v", len(history), err)
	}
	last := history[1]
	if !last.Boundary || last.Node != "extract_frames" || last.Status != graph.CheckpointSaved {
		t.Fatalf("unexpected checkpoint: %#v", last)
	}
	if len(last.Next) != 1 || last.Next[0] != "analyze_visuals" || last.Joins["generate_blueprint"][0] != "transcribe" {
		t.Fatalf("frontier not restored: %#v", last)
	}
	if history[0].State.String("video_path") != "/tmp/a.mp4" || len(history[0].State.Strings("frames")) != 1 {
		t.Fatalf("state not restored: %#v", history[0].State)
	}

	if err := cps.MarkCancelled(ctx, "run-1"); err != nil {
		t.Fatalf("MarkCancelled failed: %v", err)
	}
	history, _ = cps.List(ctx, "run-1")
	for _, cp := range history {
		if cp.Status != graph.CheckpointCancelled {
			t.Fatalf("checkpoint not cancelled: %#v", cp)
		}
	}
	if err := cps.Delete(ctx, "run-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if history, _ = cps.List(ctx, "run-1"); len(history) != 0 {
		t.Fatalf("checkpoints survived delete: %d", len(history))
	}
}

func TestProgressSinkReportsDeletedJobs(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	testsupport.NewJob(t, store, "full", input{})
	job := testsupport.ClaimJob(t, store)

	var gone []string
	sink := queue.NewProgressSink(store, nil, func(id string) { gone = append(gone, id) })
	sink.OnStep(ctx, job.ID, "downloading_video", 1, 12)
	got, _ := store.Get(ctx, job.ID)
	if got.CurrentStep != "downloading_video" {
		t.Fatalf("progress not recorded: %#v", got)
	}

	if _, err := store.Delete(ctx, job.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	sink.OnStep(ctx, job.ID, "extracting_audio", 2, 12)
	if len(gone) != 1 || gone[0] != job.ID {
		t.Fatalf("onGone calls = %v", gone)
	}
}

func TestCheckHealth(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists || !health.IntegrityCheck {
		t.Fatalf("unexpected health: %#v", health)
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("missing columns: %v", health.MissingColumns)
	}
}
