package pipeline

import (
	"fmt"

	"reelsmith/internal/content"
)

const defaultScript = "Check this out, I've been using this and honestly it's so good!"

// templatePrompt is the base prompt used when the prompt writer is
// unavailable or fails.
func templatePrompt(description string, summary content.Summary) content.PromptDraft {
	product := description
	if product == "" {
		product = "the product"
	}
	script := truncate(summary.Transcript, 300)
	if script == "" {
		script = "Casual product review"
	}
	prompt := fmt.Sprintf(`iPhone 13 front facing camera video, filmed vertically for TikTok,
a real young woman not a model, mid-20s, average everyday appearance,
holding %s up to show the camera while talking excitedly,

CRITICAL - MUST LOOK REAL NOT AI:
- skin has visible pores especially on nose, natural sebum shine on t-zone
- slight dark circles under eyes, normal human imperfections
- eyes looking at the phone screen not the lens, that typical selfie video eye line
- natural asymmetrical face, one eye slightly different than other
- real hair with flyaways, not perfectly styled

CAMERA FEEL:
- handheld shake from her arm getting tired holding phone up
- slight focus hunting occasionally
- that iPhone front camera slight distortion
- NO stabilization, raw footage feel

ENVIRONMENT:
- %s
- %s
- not aesthetically arranged, real life mess

ENERGY:
- %s energy level
- genuinely likes the product, not acting
- talking like she's FaceTiming her best friend
- natural umms and pauses, not scripted delivery
- real smile that reaches her eyes

HOOK STYLE: %s
BODY FRAMEWORK: %s
CTA: %s

SCRIPT REFERENCE:
"%s"`,
		product,
		known(summary.Setting, "bedroom"),
		known(summary.Lighting, "natural window light"),
		known(summary.Energy, content.DefaultEnergy),
		known(summary.HookStyle, content.DefaultHookStyle),
		known(summary.BodyFramework, content.DefaultBodyFramework),
		known(summary.CTAUrgency, content.DefaultCTAUrgency),
		script,
	)
	spoken := truncate(summary.Transcript, 200)
	if spoken == "" {
		spoken = defaultScript
	}
	return content.PromptDraft{Prompt: prompt, Script: spoken}
}

// fallbackPrompt is the last-resort prompt used by finalize_prompt.
func fallbackPrompt(description string, summary content.Summary) string {
	holding := ""
	if description != "" {
		holding = "holding " + description
	}
	return fmt.Sprintf(`iPhone front camera selfie video, filmed vertically for TikTok,
a real young woman in her mid-20s %s,
natural %s setting with %s,
%s energy, talking casually to camera,
real skin texture, handheld camera shake,
looking at phone screen not camera lens,
genuine authentic UGC style, not polished or professional.`,
		holding,
		known(summary.Setting, "bedroom"),
		known(summary.Lighting, "natural window light"),
		known(summary.Energy, content.DefaultEnergy),
	)
}

func known(value, fallback string) string {
	if value == "" || value == "unknown" {
		return fallback
	}
	return value
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
