package mechanics

import (
	"fmt"
	"strings"

	"reelsmith/internal/content"
)

const realismPreamble = `CRITICAL REALISM REQUIREMENTS:
- iPhone front camera quality with natural sensor noise
- Real skin with pores, texture, natural imperfections
- Handheld micro-shake, not perfectly stabilized
- Person looking at phone screen, not through camera lens
- Natural indoor lighting from windows (not studio)
- Genuine micro-expressions and natural blink patterns
- Subtle body sway and natural arm tremor when holding items
- Authentic bedroom/bathroom/living room setting`

var energyGuidance = map[string]string{
	"low":    "Relaxed, conversational pace with gentle movements",
	"medium": "Natural energy with engaged body language",
	"high":   "Energetic and expressive with dynamic movements",
}

// Compose renders the realism preamble, the scene, the beat timeline and the
// pacing guidance as one prompt.
func Compose(basePrompt, energy string, timeline []content.MechanicsBeat) string {
	sections := []string{realismPreamble}
	if base := strings.TrimSpace(basePrompt); base != "" {
		sections = append(sections, "SCENE: "+base)
	}
	sections = append(sections, Timeline(timeline), pacing(energy, timeline))
	return strings.Join(sections, "\n\n")
}

// Timeline renders only the beat blocks, for appending to an existing prompt.
func Timeline(timeline []content.MechanicsBeat) string {
	blocks := make([]string, 0, len(timeline))
	for _, b := range timeline {
		lines := []string{
			fmt.Sprintf("[%.1f-%.1fs %s]", b.Start, b.End, b.Label),
			"HANDS: " + b.Hands,
			"EXPRESSION: " + b.Expression,
			"EYES: " + b.Eyes,
			"BODY: " + b.Body,
		}
		if b.Product != "" {
			lines = append(lines, "PRODUCT: "+b.Product)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	return "HUMAN MECHANICS TIMELINE:\n" + strings.Join(blocks, "\n\n")
}

func pacing(energy string, timeline []content.MechanicsBeat) string {
	guidance, ok := energyGuidance[energy]
	if !ok {
		guidance = energyGuidance[content.DefaultEnergy]
	}
	lines := []string{"PACING GUIDANCE:", "- Energy: " + guidance}
	for _, b := range timeline {
		switch b.Label {
		case LabelHook:
			lines = append(lines, "- Hook: Immediate engagement, quick to capture attention")
		case LabelCTA:
			lines = append(lines, "- CTA: Clear, direct delivery with maintained energy")
		}
	}
	lines = append(lines, "- Throughout: Maintain natural micro-movements, avoid robotic stillness")
	return strings.Join(lines, "\n")
}

func formatHands(h Hands) string {
	if len(h.Description) > 30 {
		return h.Description
	}
	var parts []string
	if h.Which != "" && h.Which != "both" {
		parts = append(parts, capitalize(h.Which)+" hand")
	} else {
		parts = append(parts, "Hands")
	}
	if h.Movement != "" {
		parts = append(parts, h.Movement)
	}
	if h.HoldsProduct {
		holding := "holding product"
		if h.ProductAngle != "" {
			holding += " at " + h.ProductAngle
		}
		parts = append(parts, holding)
	}
	if h.Description != "" {
		parts = append(parts, h.Description)
	}
	return strings.Join(parts, ", ")
}

func formatExpression(e Expression) string {
	var text string
	switch {
	case e.From != "" && e.Transition != "":
		text = fmt.Sprintf("%s %s %s", capitalize(humanize(e.From)), e.Transition, humanize(e.State))
	case e.Description != "":
		text = e.Description
	default:
		text = capitalize(humanize(e.State))
	}
	if len(e.Micro) > 0 {
		text += " with " + strings.Join(e.Micro[:min(2, len(e.Micro))], ", ")
	}
	return text
}

func formatEyes(e Eyes) string {
	text := e.Description
	if text == "" {
		text = "Looking " + humanize(e.Direction)
	}
	if e.Glance != "" && !strings.Contains(e.Description, e.Glance) {
		text += " (" + e.Glance + ")"
	}
	return text
}

func formatBody(b Body) string {
	parts := []string{b.Description}
	if b.Description == "" {
		parts[0] = capitalize(humanize(b.Posture))
	}
	if b.Movement != "" && !strings.Contains(b.Description, b.Movement) {
		parts = append(parts, b.Movement)
	}
	if b.Tremor && !strings.Contains(b.Description, "tremor") {
		parts = append(parts, "natural micro-movements")
	}
	return strings.Join(parts, ", ")
}

func (p plan) formatProduct(prod Product, hook bool) string {
	interaction := prod.Interaction
	var tactile, sound, size string
	if !p.product.IsZero() {
		tactile = tactileInstruction(p.product)
		sound = soundInstruction(p.product)
		size = sizeInstruction(p.product)
		interaction = enhanceInteraction(prod.Interaction, p.product)
	}
	var parts []string
	if hook && p.category.TypicalReveal != "" {
		parts = append(parts, p.category.TypicalReveal)
	}
	switch {
	case size != "":
		parts = append(parts, size)
	case prod.Position != "":
		parts = append(parts, "positioned "+prod.Position)
	}
	switch {
	case tactile != "":
		parts = append(parts, tactile)
	case prod.Demonstration != "":
		parts = append(parts, prod.Demonstration)
	case interaction != "":
		parts = append(parts, interaction)
	}
	if sound != "" {
		parts = append(parts, sound)
	}
	if len(parts) == 0 {
		return interaction
	}
	return strings.Join(parts, ", ")
}

var tactileVerbs = []string{"press", "click", "push", "squeeze", "touch", "feel"}

func tactileInstruction(ctx content.ProductContext) string {
	var parts []string
	if len(ctx.TactileFeatures) > 0 {
		parts = append(parts, "demonstrating "+strings.Join(ctx.TactileFeatures[:min(2, len(ctx.TactileFeatures))], ", "))
	}
	for _, interaction := range ctx.Interactions {
		if containsAny(strings.ToLower(interaction), tactileVerbs) {
			parts = append(parts, interaction+" to show tactile response")
			break
		}
	}
	if strings.Contains(strings.ToLower(ctx.HighlightFeature), "tactile") {
		parts = append(parts, "emphasizing "+ctx.HighlightFeature)
	}
	return strings.Join(parts, ", ")
}

func soundInstruction(ctx content.ProductContext) string {
	switch len(ctx.SoundFeatures) {
	case 0:
		return ""
	case 1:
		return "with audible " + ctx.SoundFeatures[0]
	}
	return fmt.Sprintf("with audible %s and %s", ctx.SoundFeatures[0], ctx.SoundFeatures[1])
}

func sizeInstruction(ctx content.ProductContext) string {
	if ctx.SizeDescription == "" {
		return ""
	}
	size := strings.ToLower(ctx.SizeDescription)
	switch {
	case containsAny(size, []string{"palm", "handheld", "small"}):
		return "held in palm showing " + ctx.SizeDescription
	case containsAny(size, []string{"large", "big"}):
		return "shown at full scale demonstrating " + ctx.SizeDescription
	}
	return "showing " + ctx.SizeDescription
}

func enhanceInteraction(base string, ctx content.ProductContext) string {
	var parts []string
	if ctx.Type != "" {
		parts = append(parts, ctx.Type)
	}
	parts = append(parts, base)
	lower := strings.ToLower(base)
	if len(ctx.Interactions) > 0 && !strings.Contains(lower, strings.ToLower(ctx.Interactions[0])) {
		parts = append(parts, ctx.Interactions[0])
	}
	if ctx.HighlightFeature != "" && !strings.Contains(lower, strings.ToLower(ctx.HighlightFeature)) {
		parts = append(parts, "highlighting "+ctx.HighlightFeature)
	}
	if ctx.CustomInstructions != "" {
		parts = append(parts, ctx.CustomInstructions)
	}
	return strings.Join(parts, ", ")
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func humanize(s string) string {
	return strings.ReplaceAll(s, "_", " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
