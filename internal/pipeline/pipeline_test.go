package pipeline_test

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"reelsmith/internal/content"
	"reelsmith/internal/graph"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services"
	"reelsmith/internal/testsupport"
)

func runConfig(t *testing.T, opts ...testsupport.ConfigOption) pipeline.RunConfig {
	t.Helper()
	return pipeline.NewRunConfig(testsupport.NewConfig(t, opts...))
}

func build(t *testing.T, fakes *testsupport.Services, kind pipeline.Kind) *graph.Graph {
	t.Helper()
	g, err := pipeline.NewFactory(fakes.Pipeline(), nil).Build(kind)
	if err != nil {
		t.Fatalf("build %s: %v", kind, err)
	}
	return g
}

func run(t *testing.T, g *graph.Graph, seed graph.State) (graph.Result, pipeline.Outcome) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	res, err := g.Run(ctx, seed)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res, pipeline.NewOutcome(res)
}

func fullSeed(t *testing.T, cfg pipeline.RunConfig) graph.State {
	t.Helper()
	seed, err := pipeline.FullInput{
		JobID:              "job-1",
		VideoURL:           "https://videos.example.com/ref.mp4",
		ProductImages:      []string{"/tmp/product-front.png", "/tmp/product-side.png"},
		ProductDescription: "vitamin C serum",
		Config:             cfg,
	}.Seed()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return seed
}

func TestMissingVideoURLFailsAtDownload(t *testing.T) {
	fakes := testsupport.NewServices()
	g := build(t, fakes, pipeline.KindAnalysis)
	seed, err := pipeline.AnalysisInput{Config: runConfig(t)}.Seed()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, out := run(t, g, seed)

	if res.Status != graph.StatusFailed {
		t.Fatalf("status = %s, want failed", res.Status)
	}
	if out.Error != "No video URL provided" {
		t.Fatalf("error = %q", out.Error)
	}
	if !slices.Equal(res.Path, []string{pipeline.NodeDownloadVideo}) {
		t.Fatalf("path = %v, want download only", res.Path)
	}
	if out.VideoPath != "" || out.AudioPath != "" || len(out.Frames) != 0 || out.Transcript.HasText() || out.Blueprint != nil {
		t.Fatalf("expected defaults only, got %+v", out)
	}
	if res.State.String(pipeline.KeyStatus) != pipeline.StatusFailed {
		t.Fatalf("state status = %q", res.State.String(pipeline.KeyStatus))
	}
	if got := out.ErrorDetails["kind"]; got != string(services.KindMissingInput) {
		t.Fatalf("error kind = %v", got)
	}
	if got := out.ErrorDetails["node"]; got != pipeline.NodeDownloadVideo {
		t.Fatalf("error node = %v", got)
	}
	if fakes.Calls("Download") != 0 {
		t.Fatal("downloader must not be called without a URL")
	}
}

func TestFullRunPrefersMechanicsPrompt(t *testing.T) {
	fakes := testsupport.NewServices()
	g := build(t, fakes, pipeline.KindFull)

	res, out := run(t, g, fullSeed(t, runConfig(t)))

	if res.Status != graph.StatusCompleted {
		t.Fatalf("status = %s (%s)", res.Status, out.Error)
	}
	if out.MechanicsPrompt == "" {
		t.Fatal("expected mechanics prompt")
	}
	if out.FinalPrompt != out.MechanicsPrompt {
		t.Fatalf("final prompt should be the mechanics prompt")
	}
	if out.PromptMetadata == nil || out.PromptMetadata.Source != pipeline.SourceMechanics {
		t.Fatalf("prompt metadata = %+v", out.PromptMetadata)
	}
	if !strings.Contains(out.MechanicsPrompt, out.BasePrompt) {
		t.Fatal("mechanics prompt should embed the base prompt")
	}
	if len(out.MechanicsTimeline) != 3 {
		t.Fatalf("timeline = %+v", out.MechanicsTimeline)
	}
	if out.VideoURL != "https://cdn.example.com/out.mp4" {
		t.Fatalf("video url = %q", out.VideoURL)
	}
	req, _ := fakes.Seen("Synthesize").(content.SynthesisRequest)
	if req.Prompt != out.FinalPrompt || req.Image != "/tmp/product-front.png" {
		t.Fatalf("synthesis request = %+v", req)
	}
	want := []string{
		pipeline.NodeDownloadVideo,
		pipeline.NodeExtractAudio, pipeline.NodeExtractFrames,
		pipeline.NodeTranscribe, pipeline.NodeAnalyzeVisuals,
		pipeline.NodeGenerateBlueprint,
		pipeline.NodeAnalyzeProduct,
		pipeline.NodeBasePrompt,
		pipeline.NodeMechanics,
		pipeline.NodeFinalizePrompt,
		pipeline.NodeGenerateVideo,
	}
	if len(res.Path) != len(want) {
		t.Fatalf("path = %v", res.Path)
	}
	for _, node := range want {
		if !slices.Contains(res.Path, node) {
			t.Fatalf("path %v is missing %s", res.Path, node)
		}
	}
	if res.State.String(pipeline.KeyCurrentStep) != string(pipeline.StepGeneratingVideo) {
		t.Fatalf("current step = %q", res.State.String(pipeline.KeyCurrentStep))
	}
}

func TestFullRunFallsBackToBasePrompt(t *testing.T) {
	fakes := testsupport.NewServices()
	fakes.FakeMechanics = true
	g := build(t, fakes, pipeline.KindFull)

	res, out := run(t, g, fullSeed(t, runConfig(t)))

	if res.Status != graph.StatusCompleted {
		t.Fatalf("status = %s (%s)", res.Status, out.Error)
	}
	if fakes.Calls("WriteMechanics") != 1 {
		t.Fatalf("mechanics calls = %d", fakes.Calls("WriteMechanics"))
	}
	if out.FinalPrompt != fakes.Draft.Prompt {
		t.Fatalf("final prompt = %q, want base prompt", out.FinalPrompt)
	}
	if out.PromptMetadata == nil || out.PromptMetadata.Source != pipeline.SourceBase {
		t.Fatalf("prompt metadata = %+v", out.PromptMetadata)
	}
	if len(out.Warnings) == 0 {
		t.Fatal("expected a warning for the empty mechanics prompt")
	}
}

func TestBlueprintSeesBothBranches(t *testing.T) {
	for _, slow := range []string{"ExtractAudio", "ExtractFrames", "Transcribe", "AnalyzeFrames"} {
		t.Run(slow, func(t *testing.T) {
			fakes := testsupport.NewServices()
			fakes.Delays = map[string]time.Duration{slow: 30 * time.Millisecond}
			g := build(t, fakes, pipeline.KindAnalysis)
			seed, err := pipeline.AnalysisInput{VideoURL: "https://videos.example.com/ref.mp4", Config: runConfig(t)}.Seed()
			if err != nil {
				t.Fatalf("seed: %v", err)
			}

			res, out := run(t, g, seed)

			if res.Status != graph.StatusCompleted {
				t.Fatalf("status = %s (%s)", res.Status, out.Error)
			}
			if fakes.Calls("WriteBlueprint") != 1 {
				t.Fatalf("blueprint ran %d times", fakes.Calls("WriteBlueprint"))
			}
			req, _ := fakes.Seen("WriteBlueprint").(content.BlueprintRequest)
			if !req.Transcript.HasText() {
				t.Fatal("blueprint did not see the transcript")
			}
			if req.Visual.Setting != "bathroom" {
				t.Fatalf("blueprint did not see the visual analysis: %+v", req.Visual)
			}
			if out.Blueprint == nil || out.Summary.HookStyle != "pov_trend" {
				t.Fatalf("blueprint = %+v summary = %+v", out.Blueprint, out.Summary)
			}
			if out.Pacing == nil || out.Pacing.Segments != 3 {
				t.Fatalf("pacing = %+v", out.Pacing)
			}
		})
	}
}

func TestSequentialFanOutMatchesConcurrent(t *testing.T) {
	fakes := testsupport.NewServices()
	g, err := pipeline.NewFactory(fakes.Pipeline(), nil).Analysis(graph.WithSequentialFanOut())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	seed, err := pipeline.AnalysisInput{VideoURL: "https://videos.example.com/ref.mp4", Config: runConfig(t)}.Seed()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	res, out := run(t, g, seed)
	if res.Status != graph.StatusCompleted || out.Blueprint == nil {
		t.Fatalf("status = %s blueprint = %v", res.Status, out.Blueprint)
	}
}

func TestBranchFailureSkipsBlueprint(t *testing.T) {
	fakes := testsupport.NewServices()
	fakes.AudioErr = services.Wrap(services.ErrExternalTool, "ffmpeg", "extract audio", "exit status 1", nil)
	g := build(t, fakes, pipeline.KindFull)

	res, out := run(t, g, fullSeed(t, runConfig(t)))

	if res.Status != graph.StatusFailed {
		t.Fatalf("status = %s", res.Status)
	}
	if !strings.HasPrefix(out.Error, "Failed to extract audio: ") {
		t.Fatalf("error = %q", out.Error)
	}
	if got := out.ErrorDetails["kind"]; got != string(services.KindExternalService) {
		t.Fatalf("error kind = %v", got)
	}
	if fakes.Calls("WriteBlueprint") != 0 || fakes.Calls("WritePrompt") != 0 || fakes.Calls("Synthesize") != 0 {
		t.Fatalf("downstream nodes ran after failure: %s", fakes)
	}
}

func TestUnparseableVisualsDegrade(t *testing.T) {
	fakes := testsupport.NewServices()
	fakes.VisionErr = services.Wrap(services.ErrUnparseable, "llm", "vision", "no JSON object in response", nil)
	g := build(t, fakes, pipeline.KindAnalysis)
	seed, _ := pipeline.AnalysisInput{VideoURL: "https://videos.example.com/ref.mp4", Config: runConfig(t)}.Seed()

	res, out := run(t, g, seed)

	if res.Status != graph.StatusCompleted {
		t.Fatalf("status = %s (%s)", res.Status, out.Error)
	}
	if !out.Visual.IsZero() {
		t.Fatalf("visual = %+v", out.Visual)
	}
	if len(out.Warnings) != 1 || !strings.Contains(out.Warnings[0], "Visual analysis unparseable") {
		t.Fatalf("warnings = %v", out.Warnings)
	}
}

func TestUnparseableBlueprintUsesOutline(t *testing.T) {
	fakes := testsupport.NewServices()
	fakes.BlueprintErr = services.Wrap(services.ErrUnparseable, "llm", "blueprint", "truncated JSON", nil)
	g := build(t, fakes, pipeline.KindAnalysis)
	seed, _ := pipeline.AnalysisInput{VideoURL: "https://videos.example.com/ref.mp4", Config: runConfig(t)}.Seed()

	res, out := run(t, g, seed)

	if res.Status != graph.StatusCompleted {
		t.Fatalf("status = %s (%s)", res.Status, out.Error)
	}
	if out.Blueprint == nil || out.Summary.Transcript == "" {
		t.Fatalf("expected an outline blueprint, got %+v", out.Blueprint)
	}
}

func TestPromptGraphEntry(t *testing.T) {
	tests := []struct {
		name   string
		images []string
		want   []string
	}{
		{
			name: "without images",
			want: []string{pipeline.NodeBasePrompt, pipeline.NodeFinalizePrompt},
		},
		{
			name:   "with images",
			images: []string{"/tmp/product.png"},
			want:   []string{pipeline.NodeAnalyzeProduct, pipeline.NodeBasePrompt, pipeline.NodeFinalizePrompt},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fakes := testsupport.NewServices()
			g := build(t, fakes, pipeline.KindPrompt)
			seed, err := pipeline.PromptInput{
				ProductImages:      tc.images,
				ProductDescription: "matcha whisk",
				Config:             runConfig(t),
			}.Seed()
			if err != nil {
				t.Fatalf("seed: %v", err)
			}

			res, out := run(t, g, seed)

			if res.Status != graph.StatusCompleted {
				t.Fatalf("status = %s (%s)", res.Status, out.Error)
			}
			if !slices.Equal(res.Path, tc.want) {
				t.Fatalf("path = %v, want %v", res.Path, tc.want)
			}
			if out.FinalPrompt != fakes.Draft.Prompt {
				t.Fatalf("final prompt = %q", out.FinalPrompt)
			}
		})
	}
}

func TestPromptGraphWithBlueprintRunsMechanics(t *testing.T) {
	fakes := testsupport.NewServices()
	g := build(t, fakes, pipeline.KindPrompt)
	bp := fakes.Blueprint
	bp.Transcript = fakes.Transcript
	seed, err := pipeline.PromptInput{
		ProductDescription: "matcha whisk",
		Blueprint:          &bp,
		Config:             runConfig(t),
	}.Seed()
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, out := run(t, g, seed)

	if !slices.Contains(res.Path, pipeline.NodeMechanics) {
		t.Fatalf("path = %v", res.Path)
	}
	if out.PromptMetadata == nil || out.PromptMetadata.Source != pipeline.SourceMechanics {
		t.Fatalf("prompt metadata = %+v", out.PromptMetadata)
	}
	req, _ := fakes.Seen("WritePrompt").(content.PromptRequest)
	if req.Summary.HookStyle != "pov_trend" {
		t.Fatalf("prompt writer saw summary %+v", req.Summary)
	}
}

func TestMechanicsDisabledSkipsNode(t *testing.T) {
	fakes := testsupport.NewServices()
	g := build(t, fakes, pipeline.KindFull)

	res, out := run(t, g, fullSeed(t, runConfig(t, testsupport.WithoutMechanics())))

	if res.Status != graph.StatusCompleted {
		t.Fatalf("status = %s (%s)", res.Status, out.Error)
	}
	if slices.Contains(res.Path, pipeline.NodeMechanics) {
		t.Fatalf("mechanics ran while disabled: %v", res.Path)
	}
	if out.PromptMetadata == nil || out.PromptMetadata.Source != pipeline.SourceBase || out.PromptMetadata.MechanicsEnabled {
		t.Fatalf("prompt metadata = %+v", out.PromptMetadata)
	}
}

func TestPromptWriterFailures(t *testing.T) {
	t.Run("transient falls back to template", func(t *testing.T) {
		fakes := testsupport.NewServices()
		fakes.PromptErr = services.Wrap(services.ErrExternalTool, "llm", "prompt", "502 bad gateway", nil)
		g := build(t, fakes, pipeline.KindPrompt)
		seed, _ := pipeline.PromptInput{ProductDescription: "matcha whisk", Config: runConfig(t)}.Seed()

		res, out := run(t, g, seed)

		if res.Status != graph.StatusCompleted {
			t.Fatalf("status = %s (%s)", res.Status, out.Error)
		}
		if !strings.Contains(out.BasePrompt, "holding matcha whisk") {
			t.Fatalf("base prompt = %q", out.BasePrompt)
		}
		if out.SuggestedScript == "" {
			t.Fatal("expected a template script")
		}
	})
	t.Run("configuration fails the run", func(t *testing.T) {
		fakes := testsupport.NewServices()
		fakes.PromptErr = services.Wrap(services.ErrConfiguration, "llm", "prompt", "api key not set", nil)
		g := build(t, fakes, pipeline.KindPrompt)
		seed, _ := pipeline.PromptInput{ProductDescription: "matcha whisk", Config: runConfig(t)}.Seed()

		res, out := run(t, g, seed)

		if res.Status != graph.StatusFailed {
			t.Fatalf("status = %s", res.Status)
		}
		if !strings.HasPrefix(out.Error, "Failed to generate video prompt: ") {
			t.Fatalf("error = %q", out.Error)
		}
		if slices.Contains(res.Path, pipeline.NodeFinalizePrompt) {
			t.Fatalf("finalize ran after failure: %v", res.Path)
		}
	})
}

func TestVideoGenerationErrors(t *testing.T) {
	t.Run("missing images", func(t *testing.T) {
		fakes := testsupport.NewServices()
		g := build(t, fakes, pipeline.KindFull)
		seed, _ := pipeline.FullInput{VideoURL: "https://videos.example.com/ref.mp4", Config: runConfig(t)}.Seed()

		res, out := run(t, g, seed)

		if res.Status != graph.StatusFailed || out.Error != "Product images required for video generation" {
			t.Fatalf("status = %s error = %q", res.Status, out.Error)
		}
		if fakes.Calls("Synthesize") != 0 {
			t.Fatal("synthesizer must not be called")
		}
		if out.FinalPrompt == "" {
			t.Fatal("the finalized prompt should survive the failure")
		}
	})
	t.Run("text to video without images", func(t *testing.T) {
		fakes := testsupport.NewServices()
		g := build(t, fakes, pipeline.KindFull)
		cfg := runConfig(t)
		cfg.UseImageToVideo = false
		seed, _ := pipeline.FullInput{VideoURL: "https://videos.example.com/ref.mp4", Config: cfg}.Seed()

		res, out := run(t, g, seed)

		if res.Status != graph.StatusCompleted {
			t.Fatalf("status = %s (%s)", res.Status, out.Error)
		}
		req, _ := fakes.Seen("Synthesize").(content.SynthesisRequest)
		if req.Image != "" {
			t.Fatalf("text-to-video request carried an image: %+v", req)
		}
	})
	t.Run("index out of range", func(t *testing.T) {
		fakes := testsupport.NewServices()
		g := build(t, fakes, pipeline.KindFull)
		cfg := runConfig(t)
		cfg.I2VImageIndex = 7

		res, out := run(t, g, fullSeed(t, cfg))

		if res.Status != graph.StatusCompleted {
			t.Fatalf("status = %s (%s)", res.Status, out.Error)
		}
		req, _ := fakes.Seen("Synthesize").(content.SynthesisRequest)
		if req.Image != "/tmp/product-front.png" {
			t.Fatalf("image = %q", req.Image)
		}
		if !slices.ContainsFunc(out.Warnings, func(w string) bool { return strings.Contains(w, "out of range") }) {
			t.Fatalf("warnings = %v", out.Warnings)
		}
	})
	t.Run("synthesizer error", func(t *testing.T) {
		fakes := testsupport.NewServices()
		fakes.SynthErr = services.Wrap(services.ErrExternalTool, "fal", "submit", "queue rejected request", nil)
		g := build(t, fakes, pipeline.KindFull)

		res, out := run(t, g, fullSeed(t, runConfig(t)))

		if res.Status != graph.StatusFailed {
			t.Fatalf("status = %s", res.Status)
		}
		if out.Error != "Failed to generate video: fal: submit: queue rejected request" {
			t.Fatalf("error = %q", out.Error)
		}
		if out.VideoURL != "" {
			t.Fatalf("video url = %q", out.VideoURL)
		}
	})
}

func TestFactoryRequiresCollaborators(t *testing.T) {
	svc := testsupport.NewServices().Pipeline()
	svc.Synthesizer = nil
	f := pipeline.NewFactory(svc, nil)
	if _, err := f.Analysis(); err != nil {
		t.Fatalf("analysis should not need a synthesizer: %v", err)
	}
	if _, err := f.Prompt(); err != nil {
		t.Fatalf("prompt: %v", err)
	}
	_, err := f.Full()
	if err == nil || services.Classify(err) != services.KindConfiguration {
		t.Fatalf("full without synthesizer: %v", err)
	}
	if !strings.Contains(err.Error(), "synthesizer") {
		t.Fatalf("error should name the missing collaborator: %v", err)
	}
}

func TestFullGraphCheckpointsEveryNode(t *testing.T) {
	fakes := testsupport.NewServices()
	store := graph.NewMemoryCheckpointer()
	g, err := pipeline.NewFactory(fakes.Pipeline(), store).Full()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	res, _ := run(t, g, fullSeed(t, runConfig(t)))

	history, err := store.List(context.Background(), res.RunID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	nodes := 0
	for _, cp := range history {
		if cp.Node != "" {
			nodes++
		}
	}
	if nodes < len(res.Path) {
		t.Fatalf("checkpoints for %d nodes, ran %d", nodes, len(res.Path))
	}
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"analysis", " Prompt ", "FULL"} {
		if _, err := pipeline.ParseKind(name); err != nil {
			t.Fatalf("ParseKind(%q): %v", name, err)
		}
	}
	if _, err := pipeline.ParseKind("video"); err == nil {
		t.Fatal("expected an error for an unknown kind")
	}
}
