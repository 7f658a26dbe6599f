package pipeline

import (
	"strings"

	"reelsmith/internal/content"
)

const (
	hookWindow = 3.0
	ctaShare   = 0.2
)

// outlineBlueprint splits the transcript into hook, body and call to action
// by timing alone. It stands in when no classifier is configured or the
// classifier's answer could not be parsed.
func outlineBlueprint(req content.BlueprintRequest) content.Blueprint {
	duration := req.Duration
	if duration <= 0 {
		duration = content.DefaultDuration
	}
	ctaStart := duration * (1 - ctaShare)
	hookEnd := min(hookWindow, duration*ctaShare)

	var hook, body, cta []string
	for _, seg := range req.Transcript.Segments {
		text := strings.TrimSpace(seg.Text)
		switch {
		case seg.Start < hookEnd:
			hook = append(hook, text)
		case seg.Start >= ctaStart:
			cta = append(cta, text)
		default:
			body = append(body, text)
		}
	}
	hookText := strings.Join(hook, " ")
	hookStyle := content.DefaultHookStyle
	if strings.Contains(hookText, "?") {
		hookStyle = "question"
	}
	return content.Blueprint{
		SourceVideo: req.SourceVideo,
		Duration:    duration,
		Transcript:  req.Transcript,
		Hook:        content.Beat{Style: hookStyle, Start: 0, End: hookEnd, Text: hookText},
		Body:        content.Beat{Style: content.DefaultBodyFramework, Start: hookEnd, End: ctaStart, Text: strings.Join(body, " ")},
		CTA:         content.Beat{Style: content.DefaultCTAUrgency, Start: ctaStart, End: duration, Text: strings.Join(cta, " ")},
		Visual:      req.Visual,
		Energy:      energyFromPacing(content.MeasurePacing(req.Transcript)),
		Notes:       []string{"outline derived from transcript timing"},
	}
}

// completeBlueprint fills anything the classifier left out from the request.
func completeBlueprint(bp content.Blueprint, req content.BlueprintRequest) content.Blueprint {
	if bp.SourceVideo == "" {
		bp.SourceVideo = req.SourceVideo
	}
	if bp.Duration <= 0 {
		bp.Duration = req.Duration
	}
	if !bp.Transcript.HasText() {
		bp.Transcript = req.Transcript
	}
	if bp.Visual.IsZero() {
		bp.Visual = req.Visual
	}
	if bp.Hook.Style == "" {
		bp.Hook.Style = content.DefaultHookStyle
	}
	if bp.Body.Style == "" {
		bp.Body.Style = content.DefaultBodyFramework
	}
	if bp.CTA.Style == "" {
		bp.CTA.Style = content.DefaultCTAUrgency
	}
	if bp.Energy == "" {
		bp.Energy = energyFromPacing(content.MeasurePacing(req.Transcript))
	}
	return bp
}

func energyFromPacing(p content.Pacing) string {
	switch {
	case p.Segments == 0:
		return content.DefaultEnergy
	case p.WordsPerSecond >= 3:
		return "high"
	case p.WordsPerSecond < 1.8:
		return "low"
	}
	return content.DefaultEnergy
}
