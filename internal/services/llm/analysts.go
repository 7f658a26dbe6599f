package llm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"reelsmith/internal/content"
	"reelsmith/internal/services"
)

var (
	hookStyles = []string{
		"pov_trend", "revelation", "question", "controversial", "story_start",
		"curiosity_gap", "pattern_interrupt", "relatable", "shock", "casual_share", "other",
	}
	bodyFrameworks = []string{
		"testimonial", "education", "problem_agitation", "demonstration", "social_proof",
		"storytelling", "comparison", "tutorial", "behind_the_scenes", "other",
	}
	ctaUrgencies = []string{"soft", "medium", "urgent", "fomo", "discount", "curiosity", "direct"}
	energyLevels = []string{"low", "medium", "high"}
)

// AnalyzeFrames describes the look of a video from sampled frames.
func (c *Client) AnalyzeFrames(ctx context.Context, frames []string, model string) (content.VisualAnalysis, error) {
	const op = "analyze frames"
	if len(frames) == 0 {
		return content.VisualAnalysis{}, services.Wrap(services.ErrMissingInput, "llm", op, "no frames provided", nil)
	}
	images, skipped := imageParts(frames, 0)
	if len(images) == 0 {
		return content.VisualAnalysis{}, services.Wrap(services.ErrMissingInput, "llm", op, "no readable frames", errors.Join(skipped...))
	}
	parts := []contentPart{textPart(visionPrompt(len(images)))}
	for i, img := range images {
		parts = append(parts, textPart(fmt.Sprintf("Frame %d", i+1)), img)
	}
	raw, err := c.complete(ctx, op, model, []chatMessage{
		{Role: "system", Content: jsonOnlySystemPrompt},
		{Role: "user", Content: parts},
	})
	if err != nil {
		return content.VisualAnalysis{}, err
	}
	var visual content.VisualAnalysis
	if err := DecodeLLMJSON(raw, &visual); err != nil {
		return content.VisualAnalysis{}, services.Wrap(services.ErrUnparseable, "llm", op, "", err)
	}
	return visual, nil
}

type blueprintSection struct {
	Start     *float64 `json:"start"`
	End       *float64 `json:"end"`
	Text      string   `json:"text"`
	Style     string   `json:"style"`
	Framework string   `json:"framework"`
	Urgency   string   `json:"urgency"`
}

type blueprintPayload struct {
	Hook       blueprintSection `json:"hook"`
	Body       blueprintSection `json:"body"`
	CTA        blueprintSection `json:"cta"`
	AudioStyle struct {
		EnergyLevel string `json:"energy_level"`
	} `json:"audio_style"`
	RecreationNotes []string `json:"recreation_notes"`
}

// WriteBlueprint classifies the hook, body and CTA of a transcript. Section
// bounds the model omits default to a 3 second hook and CTA.
func (c *Client) WriteBlueprint(ctx context.Context, req content.BlueprintRequest) (content.Blueprint, error) {
	const op = "write blueprint"
	if !req.Transcript.HasText() && req.Visual.IsZero() {
		return content.Blueprint{}, services.Wrap(services.ErrMissingInput, "llm", op, "no transcript or visual analysis", nil)
	}
	raw, err := c.complete(ctx, op, req.Model, []chatMessage{
		{Role: "system", Content: jsonOnlySystemPrompt},
		{Role: "user", Content: blueprintPrompt(req)},
	})
	if err != nil {
		return content.Blueprint{}, err
	}
	var payload blueprintPayload
	if err := DecodeLLMJSON(raw, &payload); err != nil {
		return content.Blueprint{}, services.Wrap(services.ErrUnparseable, "llm", op, "", err)
	}
	if payload.Hook.Style == "" && payload.Body.Framework == "" && payload.CTA.Urgency == "" {
		return content.Blueprint{}, services.Wrap(services.ErrUnparseable, "llm", op, "response has no hook, body or cta classification", nil)
	}

	duration := req.Duration
	bp := content.Blueprint{
		SourceVideo: req.SourceVideo,
		Duration:    duration,
		Transcript:  req.Transcript,
		Visual:      req.Visual,
		Hook:        payload.Hook.beat(normalizeLabel(payload.Hook.Style, hookStyles, "other"), 0, 3),
		Body:        payload.Body.beat(normalizeLabel(payload.Body.Framework, bodyFrameworks, "other"), 3, max(3, duration-3)),
		CTA:         payload.CTA.beat(normalizeLabel(payload.CTA.Urgency, ctaUrgencies, content.DefaultCTAUrgency), max(0, duration-3), duration),
		Energy:      normalizeLabel(payload.AudioStyle.EnergyLevel, energyLevels, content.DefaultEnergy),
		Notes:       trimAll(payload.RecreationNotes),
	}
	return bp, nil
}

func (s blueprintSection) beat(style string, start, end float64) content.Beat {
	b := content.Beat{Style: style, Start: start, End: end, Text: strings.TrimSpace(s.Text)}
	if s.Start != nil {
		b.Start = *s.Start
	}
	if s.End != nil {
		b.End = *s.End
	}
	return b
}

// AnalyzeProduct reads up to three product images.
func (c *Client) AnalyzeProduct(ctx context.Context, req content.ProductRequest) (content.ProductAnalysis, error) {
	const op = "analyze product"
	images, skipped := imageParts(req.Images, maxImagesPerRequest)
	if len(images) == 0 {
		return content.ProductAnalysis{}, services.Wrap(services.ErrMissingInput, "llm", op, "no readable product images", errors.Join(skipped...))
	}
	parts := append(images, textPart(productPrompt(req)))
	raw, err := c.complete(ctx, op, req.Model, []chatMessage{
		{Role: "system", Content: jsonOnlySystemPrompt},
		{Role: "user", Content: parts},
	})
	if err != nil {
		return content.ProductAnalysis{}, err
	}
	var payload struct {
		Type              string   `json:"type"`
		Description       string   `json:"description"`
		KeyFeatures       []string `json:"keyFeatures"`
		SuggestedShowcase string   `json:"suggestedShowcase"`
	}
	if err := DecodeLLMJSON(raw, &payload); err != nil {
		return content.ProductAnalysis{}, services.Wrap(services.ErrUnparseable, "llm", op, "", err)
	}
	analysis := content.ProductAnalysis{
		Type:              strings.TrimSpace(payload.Type),
		Description:       strings.TrimSpace(payload.Description),
		KeyFeatures:       trimAll(payload.KeyFeatures),
		SuggestedShowcase: strings.TrimSpace(payload.SuggestedShowcase),
	}
	if analysis.Type == "" {
		analysis.Type = "unknown"
	}
	return analysis, nil
}

// WritePrompt drafts the base video prompt. With product images the request
// is multimodal; otherwise it is text only.
func (c *Client) WritePrompt(ctx context.Context, req content.PromptRequest) (content.PromptDraft, error) {
	const op = "write prompt"
	images, _ := imageParts(req.Images, maxImagesPerRequest)
	var user any = promptWriterPrompt(req, false)
	if len(images) > 0 {
		user = append(images, textPart(promptWriterPrompt(req, true)))
	}
	raw, err := c.complete(ctx, op, req.Model, []chatMessage{
		{Role: "system", Content: jsonOnlySystemPrompt},
		{Role: "user", Content: user},
	})
	if err != nil {
		return content.PromptDraft{}, err
	}
	var draft content.PromptDraft
	if err := DecodeLLMJSON(raw, &draft); err != nil {
		return content.PromptDraft{}, services.Wrap(services.ErrUnparseable, "llm", op, "", err)
	}
	draft.Prompt = strings.TrimSpace(draft.Prompt)
	draft.Script = strings.TrimSpace(draft.Script)
	if draft.Prompt == "" {
		return content.PromptDraft{}, services.Wrap(services.ErrUnparseable, "llm", op, "response has no videoPrompt", nil)
	}
	return draft, nil
}

func normalizeLabel(value string, allowed []string, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	value = strings.NewReplacer("-", "_", " ", "_").Replace(value)
	if slices.Contains(allowed, value) {
		return value
	}
	return fallback
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
