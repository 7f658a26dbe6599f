package content

// Default style labels used when the reference video could not be classified.
const (
	DefaultHookStyle     = "casual_share"
	DefaultBodyFramework = "demonstration"
	DefaultCTAUrgency    = "soft"
	DefaultEnergy        = "medium"
	DefaultDuration      = 30.0
)

// Beat is one structural section of the reference video.
type Beat struct {
	Style string  `json:"style" yaml:"style"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Text  string  `json:"text,omitempty" yaml:"text,omitempty"`
}

// Blueprint is the structural and stylistic breakdown of a reference video.
// Hook.Style holds the hook style, Body.Style the body framework and
// CTA.Style the call-to-action urgency.
type Blueprint struct {
	SourceVideo string         `json:"source_video" yaml:"source_video"`
	Duration    float64        `json:"duration" yaml:"duration"`
	Transcript  Transcript     `json:"transcript" yaml:"transcript"`
	Hook        Beat           `json:"hook" yaml:"hook"`
	Body        Beat           `json:"body" yaml:"body"`
	CTA         Beat           `json:"cta" yaml:"cta"`
	Visual      VisualAnalysis `json:"visual_style" yaml:"visual_style"`
	Energy      string         `json:"energy" yaml:"energy"`
	Pacing      *Pacing        `json:"pacing,omitempty" yaml:"pacing,omitempty"`
	Notes       []string       `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// IsZero reports whether no blueprint has been produced.
func (b Blueprint) IsZero() bool {
	return b.Hook.Style == "" && b.Body.Style == "" && b.CTA.Style == "" && !b.Transcript.HasText()
}

// Summary is the compact view of a blueprint shown to users and fed to prompts.
type Summary struct {
	Transcript    string  `json:"transcript" yaml:"transcript"`
	HookStyle     string  `json:"hook_style" yaml:"hook_style"`
	BodyFramework string  `json:"body_framework" yaml:"body_framework"`
	CTAUrgency    string  `json:"cta_urgency" yaml:"cta_urgency"`
	Setting       string  `json:"setting" yaml:"setting"`
	Lighting      string  `json:"lighting" yaml:"lighting"`
	Energy        string  `json:"energy" yaml:"energy"`
	Duration      float64 `json:"duration" yaml:"duration"`
}

// IsZero reports whether the summary is empty.
func (s Summary) IsZero() bool {
	return s == Summary{}
}

// Summary projects the blueprint onto its display fields, substituting
// defaults for anything unclassified.
func (b Blueprint) Summary() Summary {
	return Summary{
		Transcript:    b.Transcript.FullText,
		HookStyle:     orDefault(b.Hook.Style, "unknown"),
		BodyFramework: orDefault(b.Body.Style, "unknown"),
		CTAUrgency:    orDefault(b.CTA.Style, "unknown"),
		Setting:       orDefault(b.Visual.Setting, "unknown"),
		Lighting:      orDefault(b.Visual.Lighting, "unknown"),
		Energy:        orDefault(b.Energy, DefaultEnergy),
		Duration:      b.Duration,
	}
}

// BlueprintRequest carries the analysis results a blueprint is derived from.
type BlueprintRequest struct {
	SourceVideo string
	Transcript  Transcript
	Visual      VisualAnalysis
	Duration    float64
	Model       string
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
