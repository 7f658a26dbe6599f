package config

import (
	"errors"
	"fmt"
	"slices"
)

// Supported option values.
var (
	AspectRatios  = []string{"9:16", "16:9", "1:1"}
	VideoModels   = []string{"sora", "kling"}
	EnergyLevels  = []string{"low", "medium", "high"}
	WhisperModels = []string{"tiny", "base", "small", "medium", "large", "large-v2", "large-v3", "large-v3-turbo"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAnalysis(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateMechanics(); err != nil {
		return err
	}
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateAnalysis() error {
	if c.Analysis.WhisperMode != "local" {
		return fmt.Errorf("analysis.whisper_mode: unsupported value %q (only \"local\" is available)", c.Analysis.WhisperMode)
	}
	if !slices.Contains(WhisperModels, c.Analysis.WhisperModel) {
		return fmt.Errorf("analysis.whisper_model: unsupported value %q", c.Analysis.WhisperModel)
	}
	if c.Analysis.NumFrames < 1 || c.Analysis.NumFrames > 60 {
		return errors.New("analysis.num_frames must be between 1 and 60")
	}
	if c.Analysis.NumFramesForScenes < c.Analysis.NumFrames {
		return errors.New("analysis.num_frames_for_scenes must be at least analysis.num_frames")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateMechanics() error {
	if c.Mechanics.TargetDuration <= 0 {
		return errors.New("mechanics.target_duration must be positive")
	}
	if !slices.Contains(EnergyLevels, c.Mechanics.EnergyLevel) {
		return fmt.Errorf("mechanics.energy_level: unsupported value %q", c.Mechanics.EnergyLevel)
	}
	return nil
}

func (c *Config) validateVideo() error {
	if !slices.Contains(VideoModels, c.Video.Model) {
		return fmt.Errorf("video.model: unsupported value %q", c.Video.Model)
	}
	if !slices.Contains(AspectRatios, c.Video.AspectRatio) {
		return fmt.Errorf("video.aspect_ratio: unsupported value %q", c.Video.AspectRatio)
	}
	if c.Video.Duration < 1 || c.Video.Duration > 20 {
		return errors.New("video.duration must be between 1 and 20 seconds")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.MaxConcurrentJobs > 16 {
		return errors.New("workflow.max_concurrent_jobs must be 16 or fewer")
	}
	if c.Workflow.StaleJobTimeout < c.Pipeline.TimeoutSeconds {
		return errors.New("workflow.stale_job_timeout must be at least pipeline.timeout_seconds")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
}
