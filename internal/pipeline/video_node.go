package pipeline

import (
	"context"
	"fmt"
	"strings"

	"reelsmith/internal/content"
	"reelsmith/internal/graph"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

// usablePrompt returns the final prompt, or a base or mechanics prompt when
// finalize_prompt did not run.
func usablePrompt(s graph.State) string {
	for _, key := range []string{KeyFinalPrompt, KeyBasePrompt, KeyMechanicsPrompt} {
		if v := s.String(key); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func (n *nodes) generateVideo(ctx context.Context, s graph.State) graph.Partial {
	defaults := graph.Partial{KeyGeneratedVideoURL: "", KeyI2VImageURL: ""}
	prompt := usablePrompt(s)
	if prompt == "" {
		return n.fail(ctx, StepGeneratingVideo, "No prompt available for video generation", nil, defaults)
	}
	cfg := runConfig(s)
	p := progressPartial(StepGeneratingVideo)

	var image string
	if cfg.UseImageToVideo {
		images := s.Strings(KeyProductImages)
		if len(images) == 0 {
			return n.fail(ctx, StepGeneratingVideo, "Product images required for video generation", nil, defaults)
		}
		idx := cfg.I2VImageIndex
		if idx < 0 || idx >= len(images) {
			n.warn(ctx, s, p, fmt.Sprintf("Image index %d out of range for %d images, using the first image", idx, len(images)))
			idx = 0
		}
		image = images[idx]
	}

	result, err := n.svc.Synthesizer.Synthesize(ctx, content.SynthesisRequest{
		Model:       cfg.VideoModel,
		Prompt:      prompt,
		Image:       image,
		Duration:    cfg.VideoDuration,
		AspectRatio: cfg.AspectRatio,
	})
	if err != nil {
		return n.fail(ctx, StepGeneratingVideo, "Failed to generate video: "+services.Message(err), err, defaults)
	}
	if result.VideoURL == "" {
		return n.fail(ctx, StepGeneratingVideo, "Video generation returned no video URL", nil, defaults)
	}
	n.log(ctx).Info("video generated",
		logging.String(logging.FieldEventType, "video_generated"),
		logging.String("endpoint", result.Endpoint),
		logging.Int("duration", result.Duration),
		logging.Float64("cost_usd", result.CostUSD),
	)
	p[KeyFinalPrompt] = prompt
	p[KeyGeneratedVideoURL] = result.VideoURL
	p[KeyI2VImageURL] = result.ImageURL
	p[KeyVideoCostUSD] = result.CostUSD
	p[KeyVideoMetadata] = result
	return p
}
