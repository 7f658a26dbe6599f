package mechanics

import (
	"context"
	"fmt"
	"strings"

	"reelsmith/internal/content"
	"reelsmith/internal/services"
)

const defaultTargetDuration = 8.0

// Segment labels.
const (
	LabelHook = "HOOK"
	LabelBody = "BODY"
	LabelCTA  = "CTA"
)

// Engine composes mechanics prompts.
type Engine struct{}

// NewEngine returns a mechanics engine.
func NewEngine() *Engine {
	return &Engine{}
}

// WriteMechanics builds the beat timeline for req and renders it around the
// base prompt. It fails only when there is nothing to derive styles from.
func (e *Engine) WriteMechanics(ctx context.Context, req content.MechanicsRequest) (content.Mechanics, error) {
	if err := ctx.Err(); err != nil {
		return content.Mechanics{}, err
	}
	if req.Blueprint.IsZero() && req.Summary.IsZero() {
		return content.Mechanics{}, services.Wrap(services.ErrValidation, "mechanics", "compose", "blueprint required", nil)
	}
	plan := newPlan(req)
	timeline := plan.timeline()
	return content.Mechanics{
		Prompt:   Compose(req.BasePrompt, plan.energy, timeline),
		Timeline: timeline,
		Notes:    plan.notes(req, len(timeline)),
	}, nil
}

type plan struct {
	duration float64
	hookLen  float64
	ctaLen   float64
	hook     Template
	body     Template
	cta      Template
	category Category
	energy   string
	product  content.ProductContext
}

func newPlan(req content.MechanicsRequest) plan {
	duration := req.TargetDuration
	if duration <= 0 {
		duration = defaultTargetDuration
	}
	hookLen, ctaLen := SegmentDurations(duration)
	return plan{
		duration: duration,
		hookLen:  hookLen,
		ctaLen:   ctaLen,
		hook:     HookTemplate(firstNonEmpty(req.Blueprint.Hook.Style, req.Summary.HookStyle)),
		body:     BodyTemplate(firstNonEmpty(req.Blueprint.Body.Style, req.Summary.BodyFramework)),
		cta:      CTATemplate(firstNonEmpty(req.Blueprint.CTA.Style, req.Summary.CTAUrgency)),
		category: CategoryFor(req.Category),
		energy:   normalizeEnergy(firstNonEmpty(req.EnergyLevel, req.Blueprint.Energy, req.Summary.Energy)),
		product:  req.Context,
	}
}

// SegmentDurations splits a target duration into hook and call-to-action
// lengths; the body fills the remainder.
func SegmentDurations(total float64) (hook, cta float64) {
	switch {
	case total <= 4:
		return 1, 1
	case total <= 8:
		return 2, 1.5
	default:
		return min(3, total*0.2), min(2, total*0.15)
	}
}

func (p plan) timeline() []content.MechanicsBeat {
	ctaStart := p.duration - p.ctaLen
	return []content.MechanicsBeat{
		p.beat(p.hook, LabelHook, 0, p.hookLen),
		p.beat(p.body, LabelBody, p.hookLen, ctaStart),
		p.beat(p.cta, LabelCTA, ctaStart, p.duration),
	}
}

func (p plan) beat(t Template, label string, start, end float64) content.MechanicsBeat {
	b := content.MechanicsBeat{
		Label:      label,
		Start:      start,
		End:        end,
		Template:   t.Name,
		Hands:      formatHands(t.Hands),
		Expression: formatExpression(t.Expression),
		Eyes:       formatEyes(t.Eyes),
		Body:       formatBody(t.Body),
	}
	if t.Product != nil {
		b.Product = p.formatProduct(*t.Product, label == LabelHook)
	}
	return b
}

func (p plan) notes(req content.MechanicsRequest, segments int) []string {
	var notes []string
	if req.Blueprint.SourceVideo != "" {
		notes = append(notes, "Source: "+req.Blueprint.SourceVideo)
	}
	notes = append(notes,
		"Hook template: "+p.hook.Name,
		"Body template: "+p.body.Name,
		"CTA template: "+p.cta.Name,
		"Category: "+p.category.Name,
		fmt.Sprintf("Generated %d mechanics segments", segments),
	)
	return notes
}

func normalizeEnergy(level string) string {
	switch level = strings.ToLower(strings.TrimSpace(level)); level {
	case "low", "medium", "high":
		return level
	}
	return content.DefaultEnergy
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" && v != "unknown" {
			return v
		}
	}
	return ""
}
