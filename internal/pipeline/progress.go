package pipeline

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelsmith/internal/graph"
)

// Step is an externally visible pipeline step.
type Step string

const (
	StepInitializing         Step = "initializing"
	StepDownloadingVideo     Step = "downloading_video"
	StepExtractingAudio      Step = "extracting_audio"
	StepTranscribing         Step = "transcribing"
	StepExtractingFrames     Step = "extracting_frames"
	StepAnalyzingVisuals     Step = "analyzing_visuals"
	StepGeneratingBlueprint  Step = "generating_blueprint"
	StepAnalyzingProduct     Step = "analyzing_product"
	StepGeneratingBasePrompt Step = "generating_base_prompt"
	StepGeneratingMechanics  Step = "generating_mechanics"
	StepFinalizingPrompt     Step = "finalizing_prompt"
	StepGeneratingVideo      Step = "generating_video"
	StepCompleted            Step = "completed"
)

// TotalSteps is the step count progress percentages are computed against.
const TotalSteps = 12

var stepNumbers = map[Step]int{
	StepInitializing:         0,
	StepDownloadingVideo:     1,
	StepExtractingAudio:      2,
	StepTranscribing:         3,
	StepExtractingFrames:     4,
	StepAnalyzingVisuals:     5,
	StepGeneratingBlueprint:  6,
	StepAnalyzingProduct:     7,
	StepGeneratingBasePrompt: 8,
	StepGeneratingMechanics:  9,
	StepFinalizingPrompt:     10,
	StepGeneratingVideo:      11,
	StepCompleted:            12,
}

// Number returns the 1-based position of the step.
func (s Step) Number() int { return stepNumbers[s] }

var titleCaser = cases.Title(language.English)

// Title renders the step for people: "downloading_video" becomes "Downloading Video".
func (s Step) Title() string {
	return StepTitle(string(s))
}

// StepTitle renders any snake_case step label as title case.
func StepTitle(step string) string {
	return titleCaser.String(strings.ReplaceAll(step, "_", " "))
}

// Progress is the progress record kept in state for pollers.
type Progress struct {
	StepNumber  int     `json:"step_number"`
	TotalSteps  int     `json:"total_steps"`
	CurrentStep string  `json:"current_step"`
	Percentage  float64 `json:"percentage"`
}

// ProgressFor builds the progress record for a step.
func ProgressFor(step Step) Progress {
	n := step.Number()
	return Progress{
		StepNumber:  n,
		TotalSteps:  TotalSteps,
		CurrentStep: step.Title(),
		Percentage:  Percentage(n, TotalSteps),
	}
}

// Percentage returns step/total as a percentage rounded to one decimal.
func Percentage(step, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(step)/float64(total)*1000) / 10
}

func progressPartial(step Step) graph.Partial {
	return graph.Partial{
		KeyCurrentStep: string(step),
		KeyStepNumber:  step.Number(),
		KeyTotalSteps:  TotalSteps,
		KeyProgress:    ProgressFor(step),
	}
}
