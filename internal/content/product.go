package content

import "strings"

// ProductContext is optional user-supplied detail about the product.
type ProductContext struct {
	Type               string   `json:"type,omitempty" yaml:"type,omitempty"`
	Interactions       []string `json:"interactions,omitempty" yaml:"interactions,omitempty"`
	TactileFeatures    []string `json:"tactile_features,omitempty" yaml:"tactile_features,omitempty"`
	SoundFeatures      []string `json:"sound_features,omitempty" yaml:"sound_features,omitempty"`
	SizeDescription    string   `json:"size_description,omitempty" yaml:"size_description,omitempty"`
	HighlightFeature   string   `json:"highlight_feature,omitempty" yaml:"highlight_feature,omitempty"`
	CustomInstructions string   `json:"custom_instructions,omitempty" yaml:"custom_instructions,omitempty"`
}

// IsZero reports whether no context was supplied.
func (p ProductContext) IsZero() bool {
	return p.Type == "" && len(p.Interactions) == 0 && len(p.TactileFeatures) == 0 &&
		len(p.SoundFeatures) == 0 && p.SizeDescription == "" && p.HighlightFeature == "" &&
		p.CustomInstructions == ""
}

// Details renders the context as a "Product details:" block, or "" when empty.
func (p ProductContext) Details() string {
	var parts []string
	if p.Type != "" {
		parts = append(parts, "Product type: "+p.Type)
	}
	if len(p.Interactions) > 0 {
		parts = append(parts, "Key interactions: "+strings.Join(p.Interactions, ", "))
	}
	if len(p.TactileFeatures) > 0 {
		parts = append(parts, "Tactile features: "+strings.Join(p.TactileFeatures, ", "))
	}
	if len(p.SoundFeatures) > 0 {
		parts = append(parts, "Sound features: "+strings.Join(p.SoundFeatures, ", "))
	}
	if p.SizeDescription != "" {
		parts = append(parts, "Size: "+p.SizeDescription)
	}
	if p.HighlightFeature != "" {
		parts = append(parts, "Highlight: "+p.HighlightFeature)
	}
	if len(parts) == 0 {
		return ""
	}
	return "Product details:\n" + strings.Join(parts, "\n")
}

// ProductAnalysis is the vision model's read of the product images.
type ProductAnalysis struct {
	Type              string   `json:"type" yaml:"type"`
	Description       string   `json:"description" yaml:"description"`
	KeyFeatures       []string `json:"key_features,omitempty" yaml:"key_features,omitempty"`
	SuggestedShowcase string   `json:"suggested_showcase,omitempty" yaml:"suggested_showcase,omitempty"`
}

// IsZero reports whether no analysis was produced.
func (p ProductAnalysis) IsZero() bool {
	return p.Type == "" && p.Description == "" && len(p.KeyFeatures) == 0 && p.SuggestedShowcase == ""
}

// ProductRequest carries the inputs of a product analysis call.
type ProductRequest struct {
	Images      []string
	Description string
	Context     ProductContext
	Model       string
}
