package workflow

import (
	"fmt"
	"slices"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/content"
	"reelsmith/internal/graph"
	"reelsmith/internal/pipeline"
)

// Request is the input stored on a job row. Which fields are used depends on
// the job kind.
type Request struct {
	VideoURL           string                 `json:"video_url,omitempty" yaml:"video_url,omitempty"`
	ProductImages      []string               `json:"product_images,omitempty" yaml:"product_images,omitempty"`
	ProductDescription string                 `json:"product_description,omitempty" yaml:"product_description,omitempty"`
	ProductContext     content.ProductContext `json:"product_context,omitempty" yaml:"product_context,omitempty"`
	Blueprint          *content.Blueprint     `json:"blueprint,omitempty" yaml:"blueprint,omitempty"`
	Config             *pipeline.RunConfig    `json:"config,omitempty" yaml:"config,omitempty"`
}

// Validate checks the fields the kind requires before a job is queued.
func (r Request) Validate(kind pipeline.Kind) error {
	switch kind {
	case pipeline.KindAnalysis:
		if strings.TrimSpace(r.VideoURL) == "" {
			return fmt.Errorf("analysis jobs need a video url")
		}
	case pipeline.KindPrompt:
		if len(r.ProductImages) == 0 && strings.TrimSpace(r.ProductDescription) == "" {
			return fmt.Errorf("prompt jobs need product images or a product description")
		}
	case pipeline.KindFull:
		if strings.TrimSpace(r.VideoURL) == "" {
			return fmt.Errorf("full jobs need a video url")
		}
	default:
		return fmt.Errorf("unknown pipeline %q", kind)
	}
	return nil
}

// RunConfig returns the request's pinned configuration, or the one derived
// from cfg when the request carries none.
func (r Request) RunConfig(cfg *config.Config) pipeline.RunConfig {
	if r.Config != nil {
		return *r.Config
	}
	return pipeline.NewRunConfig(cfg)
}

// Seed builds the initial state for a run of kind.
func (r Request) Seed(kind pipeline.Kind, jobID string, runCfg pipeline.RunConfig) (graph.State, error) {
	images := slices.Clone(r.ProductImages)
	switch kind {
	case pipeline.KindAnalysis:
		return pipeline.AnalysisInput{JobID: jobID, VideoURL: r.VideoURL, Config: runCfg}.Seed()
	case pipeline.KindPrompt:
		return pipeline.PromptInput{
			JobID:              jobID,
			ProductImages:      images,
			ProductDescription: r.ProductDescription,
			ProductContext:     r.ProductContext,
			Blueprint:          r.Blueprint,
			Config:             runCfg,
		}.Seed()
	case pipeline.KindFull:
		return pipeline.FullInput{
			JobID:              jobID,
			VideoURL:           r.VideoURL,
			ProductImages:      images,
			ProductDescription: r.ProductDescription,
			ProductContext:     r.ProductContext,
			Config:             runCfg,
		}.Seed()
	}
	return nil, fmt.Errorf("unknown pipeline %q", kind)
}

// Source is a short label for notifications and listings.
func (r Request) Source() string {
	if url := strings.TrimSpace(r.VideoURL); url != "" {
		return url
	}
	if desc := strings.TrimSpace(r.ProductDescription); desc != "" {
		if len(desc) > 60 {
			return desc[:57] + "..."
		}
		return desc
	}
	if len(r.ProductImages) > 0 {
		return fmt.Sprintf("%d product images", len(r.ProductImages))
	}
	return ""
}
