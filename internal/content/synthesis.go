package content

// SynthesisRequest asks the video provider for an image-to-video render.
type SynthesisRequest struct {
	Model       string
	Prompt      string
	Image       string
	Duration    int
	AspectRatio string
}

// Synthesis is the provider's answer to a SynthesisRequest.
type Synthesis struct {
	VideoURL  string  `json:"video_url"`
	ImageURL  string  `json:"image_url"`
	Endpoint  string  `json:"endpoint"`
	RequestID string  `json:"request_id,omitempty"`
	Duration  int     `json:"duration"`
	CostUSD   float64 `json:"cost_usd"`
}
