package fal

import (
	"fmt"
	"strconv"
)

// Model describes one video model family on fal.ai.
type Model struct {
	Name            string
	ImageEndpoint   string
	TextEndpoint    string
	PricePerSecond  float64
	AllowedDuration []int
	StringDuration  bool
}

var models = map[string]Model{
	"sora": {
		Name:            "sora",
		ImageEndpoint:   "fal-ai/sora-2/image-to-video/pro",
		TextEndpoint:    "fal-ai/sora-2/text-to-video/pro",
		PricePerSecond:  0.50,
		AllowedDuration: []int{4, 8, 12},
	},
	"kling": {
		Name:           "kling",
		ImageEndpoint:  "fal-ai/kling-video/v2.1/pro/image-to-video",
		TextEndpoint:   "fal-ai/kling-video/v2.1/master/text-to-video",
		PricePerSecond: 0.12,
		StringDuration: true,
	},
}

// LookupModel returns the model for name.
func LookupModel(name string) (Model, error) {
	m, ok := models[name]
	if !ok {
		return Model{}, fmt.Errorf("unsupported video model %q", name)
	}
	return m, nil
}

// Duration snaps seconds to the nearest duration the model accepts. Ties go
// to the shorter clip.
func (m Model) Duration(seconds int) int {
	if len(m.AllowedDuration) == 0 {
		return seconds
	}
	best := m.AllowedDuration[0]
	for _, d := range m.AllowedDuration[1:] {
		if abs(d-seconds) < abs(best-seconds) {
			best = d
		}
	}
	return best
}

// Cost estimates the price of a clip of the given length.
func (m Model) Cost(seconds int) float64 {
	return m.PricePerSecond * float64(seconds)
}

// Endpoint picks the image-to-video endpoint when an image is supplied.
func (m Model) Endpoint(withImage bool) string {
	if withImage {
		return m.ImageEndpoint
	}
	return m.TextEndpoint
}

func (m Model) input(prompt, image string, duration int, aspectRatio string) map[string]any {
	in := map[string]any{
		"prompt":       prompt,
		"aspect_ratio": aspectRatio,
	}
	if m.StringDuration {
		in["duration"] = strconv.Itoa(duration)
	} else {
		in["duration"] = duration
	}
	if image != "" {
		in["image_url"] = image
	}
	return in
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
