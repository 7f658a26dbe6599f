package pipeline

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"reelsmith/internal/content"
	"reelsmith/internal/graph"
	"reelsmith/internal/services"
)

var (
	aspectRatios = []string{"9:16", "16:9", "1:1"}
	videoModels  = []string{"sora", "kling"}
)

// AnalysisInput seeds the analysis graph.
type AnalysisInput struct {
	JobID    string
	VideoURL string
	Config   RunConfig
}

// PromptInput seeds the prompt graph. Blueprint is optional and usually comes
// from an earlier analysis run.
type PromptInput struct {
	JobID              string
	ProductImages      []string
	ProductDescription string
	ProductContext     content.ProductContext
	Blueprint          *content.Blueprint
	Config             RunConfig
}

// FullInput seeds the full graph.
type FullInput struct {
	JobID              string
	VideoURL           string
	ProductImages      []string
	ProductDescription string
	ProductContext     content.ProductContext
	Config             RunConfig
}

// Seed validates the input and returns the initial state. An empty video URL
// is accepted: the download node reports it as the run's failure.
func (in AnalysisInput) Seed() (graph.State, error) {
	if err := validateRunConfig(in.Config); err != nil {
		return nil, err
	}
	s := baseState(in.JobID, in.Config)
	s[KeyVideoURL] = strings.TrimSpace(in.VideoURL)
	return s, nil
}

// Seed validates the input and returns the initial state.
func (in PromptInput) Seed() (graph.State, error) {
	if err := validateRunConfig(in.Config); err != nil {
		return nil, err
	}
	if err := validateImages(in.ProductImages); err != nil {
		return nil, err
	}
	s := baseState(in.JobID, in.Config)
	s[KeyProductImages] = slices.Clone(in.ProductImages)
	s[KeyProductDescription] = strings.TrimSpace(in.ProductDescription)
	s[KeyProductContext] = in.ProductContext
	if in.Blueprint != nil {
		bp := *in.Blueprint
		s[KeyBlueprint] = bp
		s[KeyBlueprintSummary] = bp.Summary()
		s[KeyTranscript] = bp.Transcript
		s[KeyVisualAnalysis] = bp.Visual
	}
	return s, nil
}

// Seed validates the input and returns the initial state.
func (in FullInput) Seed() (graph.State, error) {
	if err := validateRunConfig(in.Config); err != nil {
		return nil, err
	}
	if err := validateImages(in.ProductImages); err != nil {
		return nil, err
	}
	s := baseState(in.JobID, in.Config)
	s[KeyVideoURL] = strings.TrimSpace(in.VideoURL)
	s[KeyProductImages] = slices.Clone(in.ProductImages)
	s[KeyProductDescription] = strings.TrimSpace(in.ProductDescription)
	s[KeyProductContext] = in.ProductContext
	return s, nil
}

// baseState populates every recognized key with its default.
func baseState(jobID string, cfg RunConfig) graph.State {
	if jobID = strings.TrimSpace(jobID); jobID == "" {
		jobID = uuid.NewString()
	}
	return graph.State{
		KeyVideoURL:           "",
		KeyVideoPath:          "",
		KeyProductImages:      []string{},
		KeyProductDescription: "",
		KeyProductContext:     content.ProductContext{},
		KeyConfig:             cfg,

		KeyAudioPath:      "",
		KeyTranscript:     content.Transcript{},
		KeyFrames:         []string{},
		KeyVisualAnalysis: content.VisualAnalysis{},

		KeyBlueprint:        content.Blueprint{},
		KeyBlueprintSummary: content.Summary{},
		KeyProductAnalysis:  content.ProductAnalysis{},

		KeyBasePrompt:      "",
		KeySuggestedScript: "",
		KeyMechanicsPrompt: "",
		KeyFinalPrompt:     "",

		KeyI2VImageURL:       "",
		KeyGeneratedVideoURL: "",

		KeyJobID:        jobID,
		KeyStatus:       StatusPending,
		KeyCurrentStep:  string(StepInitializing),
		KeyProgress:     ProgressFor(StepInitializing),
		KeyError:        "",
		KeyErrorDetails: map[string]any{},
		KeyWarnings:     []string{},
		KeyStartedAt:    time.Now().UTC().Format(time.RFC3339),
		KeyCompletedAt:  "",
		KeyTempFiles:    []string{},
	}
}

func validateRunConfig(cfg RunConfig) error {
	if !slices.Contains(aspectRatios, cfg.AspectRatio) {
		return invalid("aspect ratio %q must be one of %s", cfg.AspectRatio, strings.Join(aspectRatios, ", "))
	}
	if !slices.Contains(videoModels, cfg.VideoModel) {
		return invalid("video model %q must be one of %s", cfg.VideoModel, strings.Join(videoModels, ", "))
	}
	if cfg.VideoDuration <= 0 {
		return invalid("video duration must be positive")
	}
	if cfg.TargetDuration <= 0 {
		return invalid("target duration must be positive")
	}
	if cfg.NumFrames <= 0 {
		return invalid("num_frames must be positive")
	}
	if cfg.I2VImageIndex < 0 {
		return invalid("i2v image index must not be negative")
	}
	return nil
}

func validateImages(images []string) error {
	if len(images) > MaxProductImages {
		return invalid("at most %d product images are accepted, got %d", MaxProductImages, len(images))
	}
	for i, img := range images {
		if strings.TrimSpace(img) == "" {
			return invalid("product image %d is empty", i)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return services.Wrap(services.ErrValidation, "pipeline", "seed", fmt.Sprintf(format, args...), nil)
}
