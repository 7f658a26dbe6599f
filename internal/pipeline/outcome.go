package pipeline

import (
	"slices"

	"reelsmith/internal/content"
	"reelsmith/internal/graph"
)

// Outcome is the typed view of a finished run stored as a job result.
type Outcome struct {
	RunID  string       `json:"run_id"`
	JobID  string       `json:"job_id"`
	Status graph.Status `json:"status"`
	Steps  int          `json:"steps"`
	Path   []string     `json:"path,omitempty"`

	Error        string         `json:"error,omitempty"`
	ErrorDetails map[string]any `json:"error_details,omitempty"`
	Warnings     []string       `json:"warnings,omitempty"`

	VideoPath  string                 `json:"video_path,omitempty"`
	AudioPath  string                 `json:"audio_path,omitempty"`
	Frames     []string               `json:"frames,omitempty"`
	Transcript content.Transcript     `json:"transcript"`
	Visual     content.VisualAnalysis `json:"visual_analysis"`
	Pacing     *content.Pacing        `json:"pacing,omitempty"`
	Blueprint  *content.Blueprint     `json:"blueprint,omitempty"`
	Summary    content.Summary        `json:"blueprint_summary"`

	ProductAnalysis   content.ProductAnalysis `json:"product_analysis"`
	BasePrompt        string                  `json:"base_prompt,omitempty"`
	SuggestedScript   string                  `json:"suggested_script,omitempty"`
	MechanicsPrompt   string                  `json:"mechanics_prompt,omitempty"`
	MechanicsTimeline []content.MechanicsBeat `json:"mechanics_timeline,omitempty"`
	FinalPrompt       string                  `json:"final_prompt,omitempty"`
	PromptMetadata    *PromptMetadata         `json:"prompt_metadata,omitempty"`

	VideoURL string             `json:"generated_video_url,omitempty"`
	ImageURL string             `json:"i2v_image_url,omitempty"`
	CostUSD  float64            `json:"video_cost_usd,omitempty"`
	Video    *content.Synthesis `json:"video_metadata,omitempty"`

	TempFiles []string `json:"temp_files,omitempty"`
}

// NewOutcome decodes the final state of res.
func NewOutcome(res graph.Result) Outcome {
	s := res.State
	o := Outcome{
		RunID:           res.RunID,
		JobID:           s.String(KeyJobID),
		Status:          res.Status,
		Steps:           res.Steps,
		Path:            res.Path,
		Error:           s.ErrorMessage(),
		ErrorDetails:    s.Map(KeyErrorDetails),
		Warnings:        s.Strings(KeyWarnings),
		VideoPath:       s.String(KeyVideoPath),
		AudioPath:       s.String(KeyAudioPath),
		Frames:          s.Strings(KeyFrames),
		BasePrompt:      s.String(KeyBasePrompt),
		SuggestedScript: s.String(KeySuggestedScript),
		MechanicsPrompt: s.String(KeyMechanicsPrompt),
		FinalPrompt:     s.String(KeyFinalPrompt),
		VideoURL:        s.String(KeyGeneratedVideoURL),
		ImageURL:        s.String(KeyI2VImageURL),
		CostUSD:         s.Float(KeyVideoCostUSD),
		TempFiles:       s.Strings(KeyTempFiles),
	}
	if len(o.ErrorDetails) == 0 {
		o.ErrorDetails = nil
	}
	o.Transcript, _ = graph.Get[content.Transcript](s, KeyTranscript)
	o.Visual, _ = graph.Get[content.VisualAnalysis](s, KeyVisualAnalysis)
	o.ProductAnalysis, _ = graph.Get[content.ProductAnalysis](s, KeyProductAnalysis)
	o.MechanicsTimeline, _ = graph.Get[[]content.MechanicsBeat](s, KeyMechanicsTimeline)
	o.Summary = summaryOf(s)
	if p, ok := graph.Get[content.Pacing](s, KeyPacing); ok {
		o.Pacing = &p
	}
	if bp, ok := graph.Get[content.Blueprint](s, KeyBlueprint); ok && !bp.IsZero() {
		o.Blueprint = &bp
	}
	if meta, ok := graph.Get[PromptMetadata](s, KeyPromptMetadata); ok {
		o.PromptMetadata = &meta
	}
	if video, ok := graph.Get[content.Synthesis](s, KeyVideoMetadata); ok {
		o.Video = &video
	}
	return o
}

// Succeeded reports whether the run completed without a declared error.
func (o Outcome) Succeeded() bool {
	return o.Status == graph.StatusCompleted
}

// Artifacts lists every local file the run produced: the tracked temp files
// plus the audio and frames written by the extraction branches.
func (o Outcome) Artifacts() []string {
	var out []string
	add := func(paths ...string) {
		for _, p := range paths {
			if p != "" && !slices.Contains(out, p) {
				out = append(out, p)
			}
		}
	}
	add(o.TempFiles...)
	add(o.VideoPath, o.AudioPath)
	add(o.Frames...)
	return out
}
