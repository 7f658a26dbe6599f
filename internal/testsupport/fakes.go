package testsupport

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"reelsmith/internal/content"
	"reelsmith/internal/pipeline"
)

// Services is a scripted implementation of every pipeline collaborator.
// Results default to a successful run; tests override fields before the
// run starts. Delays keyed by method name simulate slow collaborators.
type Services struct {
	VideoPath   string
	DownloadErr error

	AudioPath string
	AudioErr  error

	Frames    []string
	FramesErr error

	Transcript    content.Transcript
	TranscribeErr error

	Visual    content.VisualAnalysis
	VisionErr error

	Blueprint    content.Blueprint
	BlueprintErr error

	Product    content.ProductAnalysis
	ProductErr error

	Draft     content.PromptDraft
	PromptErr error

	// FakeMechanics replaces the real mechanics engine with Mechanics and
	// MechanicsErr.
	FakeMechanics bool
	Mechanics     content.Mechanics
	MechanicsErr  error

	Synthesis content.Synthesis
	SynthErr  error

	Delays map[string]time.Duration

	mu    sync.Mutex
	calls map[string]int
	seen  map[string]any
}

// NewServices returns fakes that succeed with plausible results.
func NewServices() *Services {
	return &Services{
		AudioPath: "audio.wav",
		Frames:    []string{"frame_000.jpg", "frame_001.jpg", "frame_002.jpg"},
		Transcript: content.Transcript{
			FullText: "Okay you guys need to see this. It changed my mornings. Link is below.",
			Segments: []content.Segment{
				{Start: 0, End: 2.5, Text: "Okay you guys need to see this."},
				{Start: 2.5, End: 9, Text: "It changed my mornings."},
				{Start: 9, End: 12, Text: "Link is below."},
			},
			Language: "en",
		},
		Visual: content.VisualAnalysis{
			Setting:  "bathroom",
			Lighting: "window light",
			Framing:  "close-up selfie",
		},
		Blueprint: content.Blueprint{
			Hook:   content.Beat{Style: "pov_trend", End: 2.5},
			Body:   content.Beat{Style: "demonstration", Start: 2.5, End: 9},
			CTA:    content.Beat{Style: "soft", Start: 9, End: 12},
			Energy: "medium",
		},
		Product: content.ProductAnalysis{Type: "serum", Description: "glass dropper bottle"},
		Draft: content.PromptDraft{
			Prompt: "Selfie video of a woman showing a serum bottle in her bathroom.",
			Script: "Okay this serum is unreal.",
		},
		Synthesis: content.Synthesis{
			VideoURL: "https://cdn.example.com/out.mp4",
			ImageURL: "https://cdn.example.com/in.png",
			Endpoint: "fal-ai/sora-2/image-to-video/pro",
			Duration: 4,
			CostUSD:  2,
		},
		calls: make(map[string]int),
		seen:  make(map[string]any),
	}
}

// Pipeline wires the fakes into pipeline.Services.
func (f *Services) Pipeline() pipeline.Services {
	svc := pipeline.Services{
		Downloader:  f,
		Audio:       f,
		Frames:      f,
		Transcriber: f,
		Vision:      f,
		Blueprints:  f,
		Products:    f,
		Prompts:     f,
		Synthesizer: f,
		Now:         func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
	if f.FakeMechanics {
		svc.Mechanics = f
	}
	return svc
}

// Calls returns how often method was invoked.
func (f *Services) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

// Seen returns the last request passed to method.
func (f *Services) Seen(method string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[method]
}

func (f *Services) record(ctx context.Context, method string, req any) error {
	f.mu.Lock()
	f.calls[method]++
	f.seen[method] = req
	delay := f.Delays[method]
	f.mu.Unlock()
	if delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Services) Download(ctx context.Context, url, destDir string) (string, error) {
	if err := f.record(ctx, "Download", url); err != nil {
		return "", err
	}
	if f.DownloadErr != nil {
		return "", f.DownloadErr
	}
	if f.VideoPath != "" {
		return f.VideoPath, nil
	}
	return filepath.Join(destDir, "source.mp4"), nil
}

func (f *Services) ExtractAudio(ctx context.Context, videoPath, destDir string) (string, error) {
	if err := f.record(ctx, "ExtractAudio", videoPath); err != nil {
		return "", err
	}
	if f.AudioErr != nil {
		return "", f.AudioErr
	}
	if f.AudioPath == "" {
		return "", nil
	}
	return filepath.Join(destDir, f.AudioPath), nil
}

func (f *Services) ExtractFrames(ctx context.Context, videoPath, destDir string, n int) ([]string, error) {
	if err := f.record(ctx, "ExtractFrames", n); err != nil {
		return nil, err
	}
	if f.FramesErr != nil {
		return nil, f.FramesErr
	}
	out := make([]string, 0, len(f.Frames))
	for _, frame := range f.Frames {
		out = append(out, filepath.Join(destDir, frame))
	}
	return out, nil
}

func (f *Services) Transcribe(ctx context.Context, audioPath string, opts content.TranscribeOptions) (content.Transcript, error) {
	if err := f.record(ctx, "Transcribe", opts); err != nil {
		return content.Transcript{}, err
	}
	return f.Transcript, f.TranscribeErr
}

func (f *Services) AnalyzeFrames(ctx context.Context, frames []string, model string) (content.VisualAnalysis, error) {
	if err := f.record(ctx, "AnalyzeFrames", frames); err != nil {
		return content.VisualAnalysis{}, err
	}
	return f.Visual, f.VisionErr
}

func (f *Services) WriteBlueprint(ctx context.Context, req content.BlueprintRequest) (content.Blueprint, error) {
	if err := f.record(ctx, "WriteBlueprint", req); err != nil {
		return content.Blueprint{}, err
	}
	return f.Blueprint, f.BlueprintErr
}

func (f *Services) AnalyzeProduct(ctx context.Context, req content.ProductRequest) (content.ProductAnalysis, error) {
	if err := f.record(ctx, "AnalyzeProduct", req); err != nil {
		return content.ProductAnalysis{}, err
	}
	return f.Product, f.ProductErr
}

func (f *Services) WritePrompt(ctx context.Context, req content.PromptRequest) (content.PromptDraft, error) {
	if err := f.record(ctx, "WritePrompt", req); err != nil {
		return content.PromptDraft{}, err
	}
	return f.Draft, f.PromptErr
}

func (f *Services) WriteMechanics(ctx context.Context, req content.MechanicsRequest) (content.Mechanics, error) {
	if err := f.record(ctx, "WriteMechanics", req); err != nil {
		return content.Mechanics{}, err
	}
	return f.Mechanics, f.MechanicsErr
}

func (f *Services) Synthesize(ctx context.Context, req content.SynthesisRequest) (content.Synthesis, error) {
	if err := f.record(ctx, "Synthesize", req); err != nil {
		return content.Synthesis{}, err
	}
	if f.SynthErr != nil {
		return content.Synthesis{}, f.SynthErr
	}
	out := f.Synthesis
	if out.ImageURL == "" {
		out.ImageURL = req.Image
	}
	return out, nil
}

// String implements fmt.Stringer for failure messages.
func (f *Services) String() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("fake services calls=%v", f.calls)
}
