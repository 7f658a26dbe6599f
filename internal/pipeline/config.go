package pipeline

import (
	"reelsmith/internal/config"
	"reelsmith/internal/graph"
)

// RunConfig is the per-run configuration seeded into state under "config".
type RunConfig struct {
	WhisperMode            string  `json:"whisper_mode" yaml:"whisper_mode"`
	WhisperModel           string  `json:"whisper_model" yaml:"whisper_model"`
	WhisperLanguage        string  `json:"whisper_language,omitempty" yaml:"whisper_language,omitempty"`
	LLMModel               string  `json:"llm_model" yaml:"llm_model"`
	NumFrames              int     `json:"num_frames" yaml:"num_frames"`
	NumFramesForScenes     int     `json:"num_frames_for_scenes" yaml:"num_frames_for_scenes"`
	EnableEnhancedAnalysis bool    `json:"enable_enhanced_analysis" yaml:"enable_enhanced_analysis"`
	EnableMechanics        bool    `json:"enable_mechanics" yaml:"enable_mechanics"`
	ProductCategory        string  `json:"product_category" yaml:"product_category"`
	TargetDuration         float64 `json:"target_duration" yaml:"target_duration"`
	EnergyLevel            string  `json:"energy_level" yaml:"energy_level"`
	VideoModel             string  `json:"video_model" yaml:"video_model"`
	VideoDuration          int     `json:"video_duration" yaml:"video_duration"`
	AspectRatio            string  `json:"aspect_ratio" yaml:"aspect_ratio"`
	UseImageToVideo        bool    `json:"use_image_to_video" yaml:"use_image_to_video"`
	I2VImageIndex          int     `json:"i2v_image_index" yaml:"i2v_image_index"`
	KeepTempFiles          bool    `json:"keep_temp_files" yaml:"keep_temp_files"`
	TimeoutSeconds         int     `json:"timeout_seconds" yaml:"timeout_seconds"`
	WorkDir                string  `json:"work_dir" yaml:"work_dir"`
}

// DefaultRunConfig returns the run configuration implied by config.Default.
func DefaultRunConfig() RunConfig {
	cfg := config.Default()
	return NewRunConfig(&cfg)
}

// NewRunConfig projects the pipeline-relevant settings out of cfg.
func NewRunConfig(cfg *config.Config) RunConfig {
	if cfg == nil {
		return DefaultRunConfig()
	}
	return RunConfig{
		WhisperMode:            cfg.Analysis.WhisperMode,
		WhisperModel:           cfg.Analysis.WhisperModel,
		WhisperLanguage:        cfg.Analysis.WhisperLanguage,
		LLMModel:               cfg.LLM.Model,
		NumFrames:              cfg.Analysis.NumFrames,
		NumFramesForScenes:     cfg.Analysis.NumFramesForScenes,
		EnableEnhancedAnalysis: cfg.Analysis.EnableEnhancedAnalysis,
		EnableMechanics:        cfg.Mechanics.Enabled,
		ProductCategory:        cfg.Mechanics.ProductCategory,
		TargetDuration:         cfg.Mechanics.TargetDuration,
		EnergyLevel:            cfg.Mechanics.EnergyLevel,
		VideoModel:             cfg.Video.Model,
		VideoDuration:          cfg.Video.Duration,
		AspectRatio:            cfg.Video.AspectRatio,
		UseImageToVideo:        cfg.Video.UseImageToVideo,
		KeepTempFiles:          cfg.Pipeline.KeepTempFiles,
		TimeoutSeconds:         cfg.Pipeline.TimeoutSeconds,
		WorkDir:                cfg.Paths.WorkDir,
	}
}

// frameCount is the number of frames pulled from the video.
func (c RunConfig) frameCount() int {
	n := c.NumFrames
	if c.EnableEnhancedAnalysis && c.NumFramesForScenes > n {
		n = c.NumFramesForScenes
	}
	return max(n, 1)
}

func runConfig(s graph.State) RunConfig {
	if v, ok := s[KeyConfig].(*RunConfig); ok && v != nil {
		return *v
	}
	if v, ok := graph.Get[RunConfig](s, KeyConfig); ok {
		return v
	}
	return DefaultRunConfig()
}
