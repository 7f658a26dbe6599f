package content

// PromptRequest carries everything a prompt writer may draw on.
type PromptRequest struct {
	Images         []string
	Description    string
	Context        ProductContext
	Analysis       ProductAnalysis
	Summary        Summary
	TargetDuration float64
	Model          string
}

// PromptDraft is a generated video prompt and the script the presenter reads.
type PromptDraft struct {
	Prompt string `json:"videoPrompt"`
	Script string `json:"suggestedScript"`
}

// MechanicsRequest carries the inputs of the human-mechanics composer.
type MechanicsRequest struct {
	Blueprint      Blueprint
	Summary        Summary
	BasePrompt     string
	Context        ProductContext
	Category       string
	EnergyLevel    string
	TargetDuration float64
}

// MechanicsBeat is one timed block of movement direction.
type MechanicsBeat struct {
	Label      string  `json:"label" yaml:"label"`
	Start      float64 `json:"start" yaml:"start"`
	End        float64 `json:"end" yaml:"end"`
	Template   string  `json:"template" yaml:"template"`
	Hands      string  `json:"hands" yaml:"hands"`
	Expression string  `json:"expression" yaml:"expression"`
	Eyes       string  `json:"eyes" yaml:"eyes"`
	Body       string  `json:"body" yaml:"body"`
	Product    string  `json:"product,omitempty" yaml:"product,omitempty"`
}

// Mechanics is the composed mechanics prompt and its beat timeline.
type Mechanics struct {
	Prompt   string          `json:"prompt" yaml:"prompt"`
	Timeline []MechanicsBeat `json:"timeline" yaml:"timeline"`
	Notes    []string        `json:"notes,omitempty" yaml:"notes,omitempty"`
}
