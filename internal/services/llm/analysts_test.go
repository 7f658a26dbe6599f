package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"reelsmith/internal/content"
	"reelsmith/internal/services"
)

func userParts(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	messages, _ := body["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(messages))
	}
	user, _ := messages[1].(map[string]any)
	raw, ok := user["content"].([]any)
	if !ok {
		return nil
	}
	parts := make([]map[string]any, 0, len(raw))
	for _, p := range raw {
		parts = append(parts, p.(map[string]any))
	}
	return parts
}

func countImages(parts []map[string]any) int {
	n := 0
	for _, p := range parts {
		if p["type"] == "image_url" {
			n++
		}
	}
	return n
}

func writeFrame(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte{0xff, 0xd8, 0xff}, 0o644); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	return path
}

func TestAnalyzeFramesSendsInlineImages(t *testing.T) {
	dir := t.TempDir()
	frames := []string{writeFrame(t, dir, "frame_001.jpg"), writeFrame(t, dir, "frame_002.png")}
	var model string
	var parts []map[string]any
	server := jsonServer(t, func(w http.ResponseWriter, body map[string]any) {
		model, _ = body["model"].(string)
		parts = userParts(t, body)
		_ = json.NewEncoder(w).Encode(completion(`{"setting":"bathroom","lighting":"soft window light","colors":["white","mint"],"product_visible":true}`))
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "default-model"})
	visual, err := client.AnalyzeFrames(context.Background(), frames, "vision-model")
	if err != nil {
		t.Fatalf("AnalyzeFrames: %v", err)
	}
	if visual.Setting != "bathroom" || !visual.ProductVisible || len(visual.Colors) != 2 {
		t.Fatalf("unexpected analysis %+v", visual)
	}
	if model != "vision-model" {
		t.Fatalf("expected per-call model override, got %q", model)
	}
	if countImages(parts) != 2 {
		t.Fatalf("expected 2 image parts, got %d", countImages(parts))
	}
	var urls []string
	for _, p := range parts {
		if img, ok := p["image_url"].(map[string]any); ok {
			urls = append(urls, img["url"].(string))
		}
	}
	if !strings.HasPrefix(urls[0], "data:image/jpeg;base64,") || !strings.HasPrefix(urls[1], "data:image/png;base64,") {
		t.Fatalf("unexpected image urls %v", urls)
	}
}

func TestAnalyzeFramesUnparseable(t *testing.T) {
	frame := writeFrame(t, t.TempDir(), "frame.jpg")
	server := jsonServer(t, func(w http.ResponseWriter, _ map[string]any) {
		_ = json.NewEncoder(w).Encode(completion("I cannot describe these frames."))
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	_, err := client.AnalyzeFrames(context.Background(), []string{frame}, "")
	if !services.Soft(err) {
		t.Fatalf("expected soft unparseable error, got %v", err)
	}
}

func TestWriteBlueprintNormalizesLabels(t *testing.T) {
	var prompt string
	server := jsonServer(t, func(w http.ResponseWriter, body map[string]any) {
		messages := body["messages"].([]any)
		prompt = messages[1].(map[string]any)["content"].(string)
		_ = json.NewEncoder(w).Encode(completion(`{
			"hook": {"start": 0, "end": 2.5, "text": "POV: you found it", "style": "POV-Trend"},
			"body": {"text": "I use three drops", "framework": "Demonstration"},
			"cta": {"urgency": "hurry up"},
			"audio_style": {"energy_level": "HIGH"},
			"recreation_notes": ["  film near a window ", ""]
		}`))
	})

	req := content.BlueprintRequest{
		SourceVideo: "https://www.tiktok.com/@a/video/1",
		Transcript: content.Transcript{
			FullText: "POV: you found it. I use three drops.",
			Segments: []content.Segment{{Start: 0, End: 2.5, Text: "POV: you found it."}, {Start: 2.5, End: 12, Text: "I use three drops."}},
			Language: "en",
		},
		Visual:   content.VisualAnalysis{Setting: "bathroom"},
		Duration: 12,
	}
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	bp, err := client.WriteBlueprint(context.Background(), req)
	if err != nil {
		t.Fatalf("WriteBlueprint: %v", err)
	}
	if bp.Hook.Style != "pov_trend" || bp.Body.Style != "demonstration" || bp.CTA.Style != "soft" {
		t.Fatalf("unexpected labels hook=%q body=%q cta=%q", bp.Hook.Style, bp.Body.Style, bp.CTA.Style)
	}
	if bp.Energy != "high" {
		t.Fatalf("unexpected energy %q", bp.Energy)
	}
	if bp.Hook.End != 2.5 || bp.Body.Start != 3 || bp.Body.End != 9 || bp.CTA.Start != 9 || bp.CTA.End != 12 {
		t.Fatalf("unexpected beat bounds hook=%+v body=%+v cta=%+v", bp.Hook, bp.Body, bp.CTA)
	}
	if len(bp.Notes) != 1 || bp.Notes[0] != "film near a window" {
		t.Fatalf("unexpected notes %v", bp.Notes)
	}
	if bp.Visual.Setting != "bathroom" || bp.SourceVideo != req.SourceVideo {
		t.Fatalf("blueprint should carry request context: %+v", bp)
	}
	for _, want := range []string{"[0.0s - 2.5s]: POV: you found it.", "Setting: bathroom", "Duration: 12.0 seconds"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestWriteBlueprintWithoutClassificationIsUnparseable(t *testing.T) {
	server := jsonServer(t, func(w http.ResponseWriter, _ map[string]any) {
		_ = json.NewEncoder(w).Encode(completion(`{"recreation_notes":[]}`))
	})
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	_, err := client.WriteBlueprint(context.Background(), content.BlueprintRequest{
		Transcript: content.Transcript{FullText: "hello"},
	})
	if !services.Soft(err) {
		t.Fatalf("expected unparseable error, got %v", err)
	}
}

func TestAnalyzeProductLimitsImages(t *testing.T) {
	pixel := "data:image/bmp;base64," + base64.StdEncoding.EncodeToString([]byte("img"))
	images := []string{pixel, "https://cdn.example.com/a.jpg", "", pixel, pixel}
	var parts []map[string]any
	server := jsonServer(t, func(w http.ResponseWriter, body map[string]any) {
		parts = userParts(t, body)
		_ = json.NewEncoder(w).Encode(completion(`{"type":"","description":"A glass dropper bottle","keyFeatures":["dropper"," "],"suggestedShowcase":"apply on camera"}`))
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	analysis, err := client.AnalyzeProduct(context.Background(), content.ProductRequest{
		Images:      images,
		Description: "vitamin C serum",
		Context:     content.ProductContext{HighlightFeature: "dropper"},
	})
	if err != nil {
		t.Fatalf("AnalyzeProduct: %v", err)
	}
	if countImages(parts) != 3 {
		t.Fatalf("expected 3 image parts, got %d", countImages(parts))
	}
	first := parts[0]["image_url"].(map[string]any)["url"].(string)
	if !strings.HasPrefix(first, "data:image/jpeg;base64,") {
		t.Fatalf("unsupported media types should be relabelled, got %q", first)
	}
	last := parts[len(parts)-1]["text"].(string)
	if !strings.Contains(last, "Product description: vitamin C serum") || !strings.Contains(last, "Highlight: dropper") {
		t.Fatalf("prompt missing product context: %q", last)
	}
	if analysis.Type != "unknown" || len(analysis.KeyFeatures) != 1 {
		t.Fatalf("unexpected analysis %+v", analysis)
	}
}

func TestAnalyzeProductRequiresReadableImages(t *testing.T) {
	client := NewClient(Config{APIKey: "test", BaseURL: "http://127.0.0.1:1"})
	_, err := client.AnalyzeProduct(context.Background(), content.ProductRequest{Images: []string{"", "not base64 !!"}})
	if services.Classify(err) != services.KindMissingInput {
		t.Fatalf("expected missing input, got %v", err)
	}
}

func TestWritePromptTextOnlyAndVision(t *testing.T) {
	var bodies []map[string]any
	server := jsonServer(t, func(w http.ResponseWriter, body map[string]any) {
		bodies = append(bodies, body)
		_ = json.NewEncoder(w).Encode(completion("```json\n{\"videoPrompt\":\"  Selfie video, bathroom.  \",\"suggestedScript\":\"obsessed\"}\n```"))
	})
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	req := content.PromptRequest{
		Description:    "serum",
		Summary:        content.Summary{HookStyle: "pov_trend", Setting: "unknown", Transcript: "POV: you found it"},
		TargetDuration: 8,
	}

	draft, err := client.WritePrompt(context.Background(), req)
	if err != nil {
		t.Fatalf("WritePrompt: %v", err)
	}
	if draft.Prompt != "Selfie video, bathroom." || draft.Script != "obsessed" {
		t.Fatalf("unexpected draft %+v", draft)
	}
	text := bodies[0]["messages"].([]any)[1].(map[string]any)["content"].(string)
	for _, want := range []string{"Hook style: pov_trend", "Setting: bedroom", "Target video duration: 8 seconds", "POV: you found it"} {
		if !strings.Contains(text, want) {
			t.Fatalf("text prompt missing %q", want)
		}
	}

	req.Images = []string{"https://cdn.example.com/serum.jpg"}
	if _, err := client.WritePrompt(context.Background(), req); err != nil {
		t.Fatalf("WritePrompt with images: %v", err)
	}
	if n := countImages(userParts(t, bodies[1])); n != 1 {
		t.Fatalf("expected one image part, got %d", n)
	}
}
