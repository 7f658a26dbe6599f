package content

import "strings"

// Segment is a timed span of transcribed speech.
type Segment struct {
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Text  string  `json:"text" yaml:"text"`
}

// Transcript is the speech-to-text result for a reference video.
type Transcript struct {
	FullText string    `json:"full_text" yaml:"full_text"`
	Segments []Segment `json:"segments,omitempty" yaml:"segments,omitempty"`
	Language string    `json:"language,omitempty" yaml:"language,omitempty"`
}

// HasText reports whether any speech was recognized.
func (t Transcript) HasText() bool {
	return strings.TrimSpace(t.FullText) != ""
}

// Duration returns the end of the last segment.
func (t Transcript) Duration() float64 {
	var end float64
	for _, seg := range t.Segments {
		end = max(end, seg.End)
	}
	return end
}

// TranscribeOptions selects the speech model for one call.
type TranscribeOptions struct {
	Model    string
	Language string
}

// VisualAnalysis describes the look of the reference video.
type VisualAnalysis struct {
	Setting            string   `json:"setting" yaml:"setting"`
	Lighting           string   `json:"lighting" yaml:"lighting"`
	Framing            string   `json:"framing,omitempty" yaml:"framing,omitempty"`
	CameraMovement     string   `json:"camera_movement,omitempty" yaml:"camera_movement,omitempty"`
	SubjectDescription string   `json:"subject_description,omitempty" yaml:"subject_description,omitempty"`
	BackgroundElements []string `json:"background_elements,omitempty" yaml:"background_elements,omitempty"`
	Colors             []string `json:"colors,omitempty" yaml:"colors,omitempty"`
	TextOverlays       []string `json:"text_overlays,omitempty" yaml:"text_overlays,omitempty"`
	ProductVisible     bool     `json:"product_visible" yaml:"product_visible"`
	ProductDescription string   `json:"product_description,omitempty" yaml:"product_description,omitempty"`
}

// IsZero reports whether the analysis carries no observations.
func (v VisualAnalysis) IsZero() bool {
	return v.Setting == "" && v.Lighting == "" && v.Framing == "" &&
		v.SubjectDescription == "" && len(v.Colors) == 0 && !v.ProductVisible
}

// Context renders the analysis as short labelled lines for language model prompts.
func (v VisualAnalysis) Context() string {
	var parts []string
	add := func(label, value string) {
		if value = strings.TrimSpace(value); value != "" {
			parts = append(parts, label+": "+value)
		}
	}
	add("Setting", v.Setting)
	add("Lighting", v.Lighting)
	add("Framing", v.Framing)
	add("Subject", v.SubjectDescription)
	if len(v.Colors) > 0 {
		add("Colors", strings.Join(v.Colors, ", "))
	}
	if v.ProductVisible {
		parts = append(parts, "Product is visible in frame")
	}
	return strings.Join(parts, "\n")
}

// Pacing summarizes the speech rhythm of a transcript.
type Pacing struct {
	Segments       int     `json:"segments" yaml:"segments"`
	WordsPerSecond float64 `json:"words_per_second" yaml:"words_per_second"`
	AverageSegment float64 `json:"average_segment_seconds" yaml:"average_segment_seconds"`
}

// MeasurePacing derives pacing from transcript timing.
func MeasurePacing(t Transcript) Pacing {
	p := Pacing{Segments: len(t.Segments)}
	duration := t.Duration()
	if duration <= 0 || len(t.Segments) == 0 {
		return p
	}
	words := len(strings.Fields(t.FullText))
	p.WordsPerSecond = float64(words) / duration
	var spoken float64
	for _, seg := range t.Segments {
		spoken += max(0, seg.End-seg.Start)
	}
	p.AverageSegment = spoken / float64(len(t.Segments))
	return p
}
