package pipeline_test

import (
	"slices"
	"testing"

	"reelsmith/internal/graph"
	"reelsmith/internal/pipeline"
)

func TestOutcomeArtifacts(t *testing.T) {
	res := graph.Result{
		RunID:  "run-1",
		Status: graph.StatusCompleted,
		State: graph.State{
			pipeline.KeyJobID:     "job-1",
			pipeline.KeyVideoPath: "/work/job-1/source.mp4",
			pipeline.KeyAudioPath: "/work/job-1/audio.wav",
			pipeline.KeyFrames:    []string{"/work/job-1/frame_000.jpg", "/work/job-1/frame_001.jpg"},
			pipeline.KeyTempFiles: []string{"/work/job-1/source.mp4"},
		},
	}

	out := pipeline.NewOutcome(res)

	want := []string{
		"/work/job-1/source.mp4",
		"/work/job-1/audio.wav",
		"/work/job-1/frame_000.jpg",
		"/work/job-1/frame_001.jpg",
	}
	if got := out.Artifacts(); !slices.Equal(got, want) {
		t.Fatalf("artifacts = %v, want %v", got, want)
	}
	if !out.Succeeded() || out.JobID != "job-1" || out.RunID != "run-1" {
		t.Fatalf("outcome = %+v", out)
	}
	if out.ErrorDetails != nil {
		t.Fatalf("error details = %v", out.ErrorDetails)
	}
}

func TestProgressTitles(t *testing.T) {
	if got := pipeline.StepDownloadingVideo.Title(); got != "Downloading Video" {
		t.Fatalf("title = %q", got)
	}
	if got := pipeline.StepTitle("generate_base_prompt"); got != "Generate Base Prompt" {
		t.Fatalf("title = %q", got)
	}
	p := pipeline.ProgressFor(pipeline.StepGeneratingBlueprint)
	if p.StepNumber != 6 || p.TotalSteps != pipeline.TotalSteps || p.Percentage != 50 {
		t.Fatalf("progress = %+v", p)
	}
	if got := pipeline.Percentage(1, 12); got != 8.3 {
		t.Fatalf("percentage = %v", got)
	}
	if got := pipeline.Percentage(3, 0); got != 0 {
		t.Fatalf("percentage with zero total = %v", got)
	}
	if pipeline.ProgressFor(pipeline.StepCompleted).Percentage != 100 {
		t.Fatal("completed should be 100%")
	}
}
