package pipeline

import (
	"context"

	"reelsmith/internal/content"
	"reelsmith/internal/graph"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

func (n *nodes) downloadVideo(ctx context.Context, s graph.State) graph.Partial {
	defaults := graph.Partial{KeyVideoPath: ""}
	url := s.String(KeyVideoURL)
	if url == "" {
		return n.fail(ctx, StepDownloadingVideo, "No video URL provided", nil, defaults)
	}
	ctx, cancel := bounded(ctx, runConfig(s))
	defer cancel()

	path, err := n.svc.Downloader.Download(ctx, url, jobDir(s))
	if err != nil {
		return n.fail(ctx, StepDownloadingVideo, "Failed to download video: "+services.Message(err), err, defaults)
	}
	if path == "" {
		return n.fail(ctx, StepDownloadingVideo, "Download succeeded but no path returned", nil, defaults)
	}
	n.log(ctx).Info("video downloaded",
		logging.String(logging.FieldEventType, "video_downloaded"),
		logging.String("video_path", path),
	)
	p := progressPartial(StepDownloadingVideo)
	p[KeyVideoPath] = path
	p[KeyTempFiles] = append(s.Strings(KeyTempFiles), path)
	return p
}

// extractAudio and extractFrames run as siblings against the same snapshot,
// so neither appends to temp_files; their outputs live under the job dir and
// Outcome.Artifacts collects them.
func (n *nodes) extractAudio(ctx context.Context, s graph.State) graph.Partial {
	defaults := graph.Partial{KeyAudioPath: ""}
	video := s.String(KeyVideoPath)
	if video == "" {
		return n.fail(ctx, StepExtractingAudio, "No video path available for audio extraction", nil, defaults)
	}
	ctx, cancel := bounded(ctx, runConfig(s))
	defer cancel()

	audio, err := n.svc.Audio.ExtractAudio(ctx, video, jobDir(s))
	if err != nil {
		return n.fail(ctx, StepExtractingAudio, "Failed to extract audio: "+services.Message(err), err, defaults)
	}
	if audio == "" {
		return n.fail(ctx, StepExtractingAudio, "Audio extraction returned no path", nil, defaults)
	}
	p := progressPartial(StepExtractingAudio)
	p[KeyAudioPath] = audio
	return p
}

func (n *nodes) transcribe(ctx context.Context, s graph.State) graph.Partial {
	defaults := graph.Partial{KeyTranscript: content.Transcript{}}
	audio := s.String(KeyAudioPath)
	if audio == "" {
		return n.fail(ctx, StepTranscribing, "No audio path available for transcription", nil, defaults)
	}
	cfg := runConfig(s)
	ctx, cancel := bounded(ctx, cfg)
	defer cancel()

	transcript, err := n.svc.Transcriber.Transcribe(ctx, audio, content.TranscribeOptions{
		Model:    cfg.WhisperModel,
		Language: cfg.WhisperLanguage,
	})
	if err != nil {
		return n.fail(ctx, StepTranscribing, "Failed to transcribe audio: "+services.Message(err), err, defaults)
	}
	n.log(ctx).Info("transcription complete",
		logging.String(logging.FieldEventType, "transcribed"),
		logging.Int("segments", len(transcript.Segments)),
		logging.String("language", transcript.Language),
	)
	p := progressPartial(StepTranscribing)
	p[KeyTranscript] = transcript
	return p
}

func (n *nodes) extractFrames(ctx context.Context, s graph.State) graph.Partial {
	defaults := graph.Partial{KeyFrames: []string{}}
	video := s.String(KeyVideoPath)
	if video == "" {
		return n.fail(ctx, StepExtractingFrames, "No video path available for frame extraction", nil, defaults)
	}
	cfg := runConfig(s)
	ctx, cancel := bounded(ctx, cfg)
	defer cancel()

	frames, err := n.svc.Frames.ExtractFrames(ctx, video, jobDir(s), cfg.frameCount())
	if err != nil {
		return n.fail(ctx, StepExtractingFrames, "Failed to extract frames: "+services.Message(err), err, defaults)
	}
	if len(frames) == 0 {
		return n.fail(ctx, StepExtractingFrames, "Frame extraction returned no frames", nil, defaults)
	}
	p := progressPartial(StepExtractingFrames)
	p[KeyFrames] = frames
	return p
}

func (n *nodes) analyzeVisuals(ctx context.Context, s graph.State) graph.Partial {
	defaults := graph.Partial{KeyVisualAnalysis: content.VisualAnalysis{}}
	frames := s.Strings(KeyFrames)
	if len(frames) == 0 {
		return n.fail(ctx, StepAnalyzingVisuals, "No frames available for visual analysis", nil, defaults)
	}
	cfg := runConfig(s)
	ctx, cancel := bounded(ctx, cfg)
	defer cancel()

	visual, err := n.svc.Vision.AnalyzeFrames(ctx, sample(frames, cfg.NumFrames), cfg.LLMModel)
	p := progressPartial(StepAnalyzingVisuals)
	switch {
	case err != nil && services.Soft(err):
		n.warn(ctx, s, p, "Visual analysis unparseable: "+services.Message(err))
		visual = content.VisualAnalysis{}
	case err != nil:
		return n.fail(ctx, StepAnalyzingVisuals, "Failed to analyze visuals: "+services.Message(err), err, defaults)
	}
	p[KeyVisualAnalysis] = visual
	return p
}

// generateBlueprint is the barrier join of the audio and frame branches.
func (n *nodes) generateBlueprint(ctx context.Context, s graph.State) graph.Partial {
	if s.HasError() {
		return nil
	}
	defaults := graph.Partial{KeyBlueprint: content.Blueprint{}, KeyBlueprintSummary: content.Summary{}}
	transcript, _ := graph.Get[content.Transcript](s, KeyTranscript)
	visual, _ := graph.Get[content.VisualAnalysis](s, KeyVisualAnalysis)
	if !transcript.HasText() && visual.IsZero() {
		return n.fail(ctx, StepGeneratingBlueprint, "No transcript or visual analysis available for blueprint generation", nil, defaults)
	}
	cfg := runConfig(s)
	ctx, cancel := bounded(ctx, cfg)
	defer cancel()

	req := content.BlueprintRequest{
		SourceVideo: s.String(KeyVideoURL),
		Transcript:  transcript,
		Visual:      visual,
		Duration:    transcript.Duration(),
		Model:       cfg.LLMModel,
	}
	p := progressPartial(StepGeneratingBlueprint)
	var bp content.Blueprint
	var err error
	if n.svc.Blueprints != nil {
		bp, err = n.svc.Blueprints.WriteBlueprint(ctx, req)
	} else {
		bp = outlineBlueprint(req)
	}
	switch {
	case err != nil && services.Soft(err):
		n.warn(ctx, s, p, "Blueprint classification unparseable, using transcript outline: "+services.Message(err))
		bp = outlineBlueprint(req)
	case err != nil:
		return n.fail(ctx, StepGeneratingBlueprint, "Failed to generate blueprint: "+services.Message(err), err, defaults)
	}
	bp = completeBlueprint(bp, req)
	if !transcript.HasText() {
		n.warn(ctx, s, p, "No speech detected; blueprint built from visuals only")
	}
	if cfg.EnableEnhancedAnalysis {
		pacing := content.MeasurePacing(transcript)
		bp.Pacing = &pacing
		p[KeyPacing] = pacing
	}
	p[KeyBlueprint] = bp
	p[KeyBlueprintSummary] = bp.Summary()
	return p
}

// sample picks n evenly spaced items.
func sample(items []string, n int) []string {
	if n <= 0 || len(items) <= n {
		return append([]string(nil), items...)
	}
	out := make([]string, 0, n)
	step := float64(len(items)) / float64(n)
	for i := range n {
		out = append(out, items[int(float64(i)*step)])
	}
	return out
}
