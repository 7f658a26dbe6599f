package llm

import (
	"fmt"
	"strings"

	"reelsmith/internal/content"
)

const jsonOnlySystemPrompt = "You analyze short-form social videos and product imagery for UGC ad production. Respond with a single JSON object and no other text."

const visionInstructions = `Analyze these frames from a TikTok/Reels video. They were sampled at different points through the clip.

Describe:
1. Setting: where it was filmed (bedroom, bathroom, kitchen, studio, outdoors, car)
2. Lighting: natural daylight, ring light, soft lamp, dramatic
3. Framing: close-up face, medium shot, full body
4. Camera movement: static, handheld, panning, zooming
5. The person on screen, if any
6. Background elements and dominant colors
7. Any on-screen text
8. Whether a product is visible, and what it looks like

Respond with this JSON:
{
  "setting": "location/environment",
  "lighting": "lighting style",
  "framing": "camera framing",
  "camera_movement": "static/handheld/panning",
  "subject_description": "the person in frame",
  "background_elements": ["element"],
  "colors": ["dominant color"],
  "text_overlays": ["on-screen text"],
  "product_visible": true,
  "product_description": "the product if visible"
}`

const blueprintTaxonomy = `## Hook styles
pov_trend, revelation, question, controversial, story_start, curiosity_gap, pattern_interrupt, relatable, shock, casual_share, other

## Body frameworks
testimonial, education, problem_agitation, demonstration, social_proof, storytelling, comparison, tutorial, behind_the_scenes, other

## CTA urgency
soft, medium, urgent, fomo, discount, curiosity, direct`

const blueprintFormat = `Respond with this JSON:
{
  "hook": {"start": 0.0, "end": 3.0, "text": "hook text", "style": "hook_style"},
  "body": {"start": 3.0, "end": 25.0, "text": "body text", "framework": "body_framework"},
  "cta": {"start": 25.0, "end": 28.0, "text": "cta text", "urgency": "cta_urgency"},
  "audio_style": {"energy_level": "low/medium/high", "pacing": "slow/medium/fast"},
  "recreation_notes": ["note for recreating this style"]
}`

const productFormat = `Respond with this JSON:
{
  "type": "product type/category",
  "description": "detailed description of the product",
  "keyFeatures": ["feature"],
  "suggestedShowcase": "how to best show this product in a UGC video"
}`

const realismRequirements = `The prompt MUST produce a video that looks like a REAL TikTok, not an AI-generated video.

CRITICAL REALISM REQUIREMENTS:
- iPhone front camera quality, not cinematic
- Real skin with pores, texture and natural imperfections
- Handheld camera shake and amateur framing
- Natural indoor lighting, not studio lighting
- Authentic bedroom, bathroom or kitchen setting
- Person looking at the phone screen, not through the lens
- Genuine excitement, not an acted performance`

const promptFormat = `Respond with this JSON:
{
  "videoPrompt": "the complete prompt for the video model, 150-300 words, extremely specific about realism",
  "suggestedScript": "a short casual script the person says (2-3 sentences)"
}`

func visionPrompt(frameCount int) string {
	return fmt.Sprintf("%s\n\n%d frames follow.", visionInstructions, frameCount)
}

func blueprintPrompt(req content.BlueprintRequest) string {
	var b strings.Builder
	b.WriteString("Analyze this TikTok/Reels video and identify its hook, body and call-to-action.\n\n")
	b.WriteString("## Video\n")
	fmt.Fprintf(&b, "- Duration: %.1f seconds\n", req.Duration)
	if req.Transcript.Language != "" {
		fmt.Fprintf(&b, "- Language: %s\n", req.Transcript.Language)
	}
	b.WriteString("\n## Transcript\n")
	if req.Transcript.HasText() {
		b.WriteString(req.Transcript.FullText)
		b.WriteString("\n\n## Timed segments\n")
		for _, seg := range req.Transcript.Segments {
			fmt.Fprintf(&b, "[%.1fs - %.1fs]: %s\n", seg.Start, seg.End, seg.Text)
		}
	} else {
		b.WriteString("(no speech detected; classify from the visuals)\n")
	}
	if visual := req.Visual.Context(); visual != "" {
		b.WriteString("\n## Visual context\n")
		b.WriteString(visual)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(blueprintTaxonomy)
	b.WriteString("\n\n")
	b.WriteString(blueprintFormat)
	return b.String()
}

func productPrompt(req content.ProductRequest) string {
	var lines []string
	if req.Description != "" {
		lines = append(lines, "Product description: "+req.Description)
	}
	if details := req.Context.Details(); details != "" {
		lines = append(lines, details)
	}
	if req.Context.CustomInstructions != "" {
		lines = append(lines, "Additional context: "+req.Context.CustomInstructions)
	}

	var b strings.Builder
	b.WriteString(`Analyze the product image(s) and identify:
1. What type of product this is
2. A detailed description of the product
3. Key features visible in the image
4. The best way to showcase this product in a UGC-style TikTok video
`)
	if len(lines) > 0 {
		b.WriteString("\nUser-provided information about this product:\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(productFormat)
	return b.String()
}

func promptWriterPrompt(req content.PromptRequest, withImages bool) string {
	var b strings.Builder
	b.WriteString("You write prompts for AI video models (Sora 2, Kling) that produce authentic UGC-style videos.\n")
	if withImages {
		b.WriteString("Study the product image(s) and write a detailed prompt for a realistic TikTok-style product review video.\n\n")
	} else {
		b.WriteString("Write a detailed prompt for a realistic TikTok-style product review video.\n\n")
	}
	if req.Description != "" {
		fmt.Fprintf(&b, "Product description: %s\n", req.Description)
	}
	if req.Analysis.Type != "" {
		fmt.Fprintf(&b, "Product type: %s\n", req.Analysis.Type)
	}
	if len(req.Analysis.KeyFeatures) > 0 {
		fmt.Fprintf(&b, "Key features: %s\n", strings.Join(req.Analysis.KeyFeatures, ", "))
	}
	if req.Analysis.SuggestedShowcase != "" {
		fmt.Fprintf(&b, "Suggested showcase: %s\n", req.Analysis.SuggestedShowcase)
	}
	if details := req.Context.Details(); details != "" {
		b.WriteString(details)
		b.WriteString("\n")
	}
	if !req.Summary.IsZero() {
		s := req.Summary
		b.WriteString("\nReference video style:\n")
		fmt.Fprintf(&b, "- Hook style: %s\n", orUnknown(s.HookStyle, content.DefaultHookStyle))
		fmt.Fprintf(&b, "- Body framework: %s\n", orUnknown(s.BodyFramework, content.DefaultBodyFramework))
		fmt.Fprintf(&b, "- CTA style: %s\n", orUnknown(s.CTAUrgency, content.DefaultCTAUrgency))
		fmt.Fprintf(&b, "- Setting: %s\n", orUnknown(s.Setting, "bedroom"))
		fmt.Fprintf(&b, "- Lighting: %s\n", orUnknown(s.Lighting, "natural"))
		fmt.Fprintf(&b, "- Energy level: %s\n", orUnknown(s.Energy, content.DefaultEnergy))
		if s.Transcript != "" {
			fmt.Fprintf(&b, "\nOriginal script reference:\n%q\n", clip(s.Transcript, 500))
		}
	}
	if req.TargetDuration > 0 {
		fmt.Fprintf(&b, "\nTarget video duration: %g seconds\n", req.TargetDuration)
	}
	b.WriteString("\n")
	b.WriteString(realismRequirements)
	b.WriteString("\n\n")
	b.WriteString(promptFormat)
	return b.String()
}

func orUnknown(value, fallback string) string {
	if value == "" || value == "unknown" {
		return fallback
	}
	return value
}

func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
