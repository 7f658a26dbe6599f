package pipeline

import (
	"context"
	"log/slog"
	"time"

	"reelsmith/internal/content"
)

// Downloader fetches a source video into destDir and returns its local path.
type Downloader interface {
	Download(ctx context.Context, url, destDir string) (string, error)
}

// AudioExtractor writes the audio track of a video into destDir.
type AudioExtractor interface {
	ExtractAudio(ctx context.Context, videoPath, destDir string) (string, error)
}

// FrameExtractor writes n evenly spaced frames of a video into destDir.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, videoPath, destDir string, n int) ([]string, error)
}

// Transcriber converts speech to timed text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, opts content.TranscribeOptions) (content.Transcript, error)
}

// VisionAnalyzer describes the look of a video from sampled frames.
type VisionAnalyzer interface {
	AnalyzeFrames(ctx context.Context, frames []string, model string) (content.VisualAnalysis, error)
}

// BlueprintWriter classifies the structure and style of a video.
type BlueprintWriter interface {
	WriteBlueprint(ctx context.Context, req content.BlueprintRequest) (content.Blueprint, error)
}

// ProductAnalyzer reads product images.
type ProductAnalyzer interface {
	AnalyzeProduct(ctx context.Context, req content.ProductRequest) (content.ProductAnalysis, error)
}

// PromptWriter drafts the base video prompt.
type PromptWriter interface {
	WritePrompt(ctx context.Context, req content.PromptRequest) (content.PromptDraft, error)
}

// MechanicsWriter adds human-mechanics direction to a base prompt.
type MechanicsWriter interface {
	WriteMechanics(ctx context.Context, req content.MechanicsRequest) (content.Mechanics, error)
}

// Synthesizer renders a video from a prompt.
type Synthesizer interface {
	Synthesize(ctx context.Context, req content.SynthesisRequest) (content.Synthesis, error)
}

// Services bundles the collaborators the nodes call. A graph only requires
// the collaborators its nodes use.
type Services struct {
	Downloader  Downloader
	Audio       AudioExtractor
	Frames      FrameExtractor
	Transcriber Transcriber
	Vision      VisionAnalyzer
	Blueprints  BlueprintWriter
	Products    ProductAnalyzer
	Prompts     PromptWriter
	Mechanics   MechanicsWriter
	Synthesizer Synthesizer
	Logger      *slog.Logger
	Now         func() time.Time
}

func (s Services) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
