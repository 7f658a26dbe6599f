package pipeline

import (
	"context"
	"strings"

	"reelsmith/internal/content"
	"reelsmith/internal/graph"
	"reelsmith/internal/logging"
	"reelsmith/internal/services"
)

// PromptMetadata records which prompt finalize_prompt selected.
type PromptMetadata struct {
	Source                string `json:"source"`
	BasePromptLength      int    `json:"base_prompt_length"`
	MechanicsPromptLength int    `json:"mechanics_prompt_length"`
	FinalPromptLength     int    `json:"final_prompt_length"`
	MechanicsEnabled      bool   `json:"mechanics_enabled"`
}

func summaryOf(s graph.State) content.Summary {
	if summary, ok := graph.Get[content.Summary](s, KeyBlueprintSummary); ok && !summary.IsZero() {
		return summary
	}
	if bp, ok := graph.Get[content.Blueprint](s, KeyBlueprint); ok && !bp.IsZero() {
		return bp.Summary()
	}
	return content.Summary{}
}

func (n *nodes) analyzeProduct(ctx context.Context, s graph.State) graph.Partial {
	p := progressPartial(StepAnalyzingProduct)
	p[KeyProductAnalysis] = content.ProductAnalysis{}
	images := s.Strings(KeyProductImages)
	if len(images) == 0 || n.svc.Products == nil {
		return p
	}
	cfg := runConfig(s)
	ctx, cancel := bounded(ctx, cfg)
	defer cancel()

	pc, _ := graph.Get[content.ProductContext](s, KeyProductContext)
	analysis, err := n.svc.Products.AnalyzeProduct(ctx, content.ProductRequest{
		Images:      images,
		Description: s.String(KeyProductDescription),
		Context:     pc,
		Model:       cfg.LLMModel,
	})
	if err != nil {
		n.warn(ctx, s, p, "Product analysis skipped: "+services.Message(err))
		return p
	}
	p[KeyProductAnalysis] = analysis
	return p
}

func (n *nodes) generateBasePrompt(ctx context.Context, s graph.State) graph.Partial {
	defaults := graph.Partial{KeyBasePrompt: "", KeySuggestedScript: ""}
	cfg := runConfig(s)
	ctx, cancel := bounded(ctx, cfg)
	defer cancel()

	description := s.String(KeyProductDescription)
	summary := summaryOf(s)
	pc, _ := graph.Get[content.ProductContext](s, KeyProductContext)
	analysis, _ := graph.Get[content.ProductAnalysis](s, KeyProductAnalysis)

	p := progressPartial(StepGeneratingBasePrompt)
	var draft content.PromptDraft
	var err error
	if n.svc.Prompts != nil {
		draft, err = n.svc.Prompts.WritePrompt(ctx, content.PromptRequest{
			Images:         s.Strings(KeyProductImages),
			Description:    description,
			Context:        pc,
			Analysis:       analysis,
			Summary:        summary,
			TargetDuration: cfg.TargetDuration,
			Model:          cfg.LLMModel,
		})
	}
	switch {
	case err != nil && services.Classify(err) == services.KindConfiguration:
		return n.fail(ctx, StepGeneratingBasePrompt, "Failed to generate video prompt: "+services.Message(err), err, defaults)
	case err != nil:
		n.warn(ctx, s, p, "Prompt writer failed, using template prompt: "+services.Message(err))
		draft = templatePrompt(description, summary)
	case strings.TrimSpace(draft.Prompt) == "":
		if n.svc.Prompts != nil {
			n.warn(ctx, s, p, "Prompt writer returned an empty prompt, using template prompt")
		}
		draft = templatePrompt(description, summary)
	}
	if strings.TrimSpace(draft.Script) == "" {
		draft.Script = templatePrompt(description, summary).Script
	}
	p[KeyBasePrompt] = draft.Prompt
	p[KeySuggestedScript] = draft.Script
	return p
}

// generateMechanics never fails the run: a missing enhancement leaves the
// base prompt in charge.
func (n *nodes) generateMechanics(ctx context.Context, s graph.State) graph.Partial {
	p := progressPartial(StepGeneratingMechanics)
	p[KeyMechanicsPrompt] = ""
	p[KeyMechanicsTimeline] = []content.MechanicsBeat{}

	cfg := runConfig(s)
	bp, _ := graph.Get[content.Blueprint](s, KeyBlueprint)
	summary := summaryOf(s)
	if !cfg.EnableMechanics {
		return p
	}
	if bp.IsZero() && summary.IsZero() {
		n.warn(ctx, s, p, "No blueprint available for mechanics generation")
		return p
	}
	pc, _ := graph.Get[content.ProductContext](s, KeyProductContext)
	m, err := n.svc.Mechanics.WriteMechanics(ctx, content.MechanicsRequest{
		Blueprint:      bp,
		Summary:        summary,
		BasePrompt:     s.String(KeyBasePrompt),
		Context:        pc,
		Category:       cfg.ProductCategory,
		EnergyLevel:    cfg.EnergyLevel,
		TargetDuration: cfg.TargetDuration,
	})
	if err != nil {
		n.warn(ctx, s, p, "Mechanics generation skipped: "+services.Message(err))
		return p
	}
	if strings.TrimSpace(m.Prompt) == "" {
		n.warn(ctx, s, p, "Mechanics engine returned an empty prompt")
		return p
	}
	p[KeyMechanicsPrompt] = m.Prompt
	p[KeyMechanicsTimeline] = m.Timeline
	return p
}

// finalizePrompt picks mechanics, then base, then the fallback template.
func (n *nodes) finalizePrompt(ctx context.Context, s graph.State) graph.Partial {
	cfg := runConfig(s)
	base := s.String(KeyBasePrompt)
	mech := s.String(KeyMechanicsPrompt)

	p := progressPartial(StepFinalizingPrompt)
	var final, source string
	switch {
	case cfg.EnableMechanics && strings.TrimSpace(mech) != "":
		final, source = mech, SourceMechanics
	case strings.TrimSpace(base) != "":
		final, source = base, SourceBase
	default:
		final, source = fallbackPrompt(s.String(KeyProductDescription), summaryOf(s)), SourceFallback
		n.warn(ctx, s, p, "Using fallback template prompt")
	}
	if strings.TrimSpace(final) == "" {
		return n.fail(ctx, StepFinalizingPrompt, "No valid prompt available for video generation", nil, graph.Partial{KeyFinalPrompt: ""})
	}
	n.log(ctx).Info("prompt finalized",
		logging.String(logging.FieldEventType, "prompt_finalized"),
		logging.String("source", source),
		logging.Int("base_length", len(base)),
		logging.Int("mechanics_length", len(mech)),
		logging.Int("final_length", len(final)),
	)
	p[KeyFinalPrompt] = final
	p[KeyPromptMetadata] = PromptMetadata{
		Source:                source,
		BasePromptLength:      len(base),
		MechanicsPromptLength: len(mech),
		FinalPromptLength:     len(final),
		MechanicsEnabled:      cfg.EnableMechanics,
	}
	return p
}
