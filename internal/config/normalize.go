package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeAnalysis()
	c.normalizeLLM()
	c.normalizeMechanics()
	c.normalizeVideo()
	c.normalizeWorkflow()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeAnalysis() {
	c.Analysis.WhisperMode = strings.ToLower(strings.TrimSpace(c.Analysis.WhisperMode))
	if c.Analysis.WhisperMode == "" {
		c.Analysis.WhisperMode = defaultWhisperMode
	}
	c.Analysis.WhisperModel = strings.TrimSpace(c.Analysis.WhisperModel)
	if c.Analysis.WhisperModel == "" {
		c.Analysis.WhisperModel = defaultWhisperModel
	}
	c.Analysis.WhisperLanguage = strings.ToLower(strings.TrimSpace(c.Analysis.WhisperLanguage))
	c.Analysis.WhisperXCommand = strings.TrimSpace(c.Analysis.WhisperXCommand)
	if c.Analysis.WhisperXCommand == "" {
		c.Analysis.WhisperXCommand = defaultWhisperXCommand
	}
	c.Analysis.FFmpegBinary = strings.TrimSpace(c.Analysis.FFmpegBinary)
	if c.Analysis.FFmpegBinary == "" {
		c.Analysis.FFmpegBinary = defaultFFmpegBinary
	}
	c.Analysis.FFprobeBinary = strings.TrimSpace(c.Analysis.FFprobeBinary)
	if c.Analysis.FFprobeBinary == "" {
		c.Analysis.FFprobeBinary = defaultFFprobeBinary
	}
	c.Analysis.YTDLPBinary = strings.TrimSpace(c.Analysis.YTDLPBinary)
	if c.Analysis.YTDLPBinary == "" {
		c.Analysis.YTDLPBinary = defaultYTDLPBinary
	}
	if c.Analysis.DownloadTimeout <= 0 {
		c.Analysis.DownloadTimeout = defaultDownloadTimeout
	}
	if c.Analysis.MaxDownloadMB <= 0 {
		c.Analysis.MaxDownloadMB = defaultMaxDownloadMB
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeMechanics() {
	c.Mechanics.ProductCategory = strings.ToLower(strings.TrimSpace(c.Mechanics.ProductCategory))
	if c.Mechanics.ProductCategory == "" {
		c.Mechanics.ProductCategory = defaultProductCategory
	}
	c.Mechanics.EnergyLevel = strings.ToLower(strings.TrimSpace(c.Mechanics.EnergyLevel))
	if c.Mechanics.EnergyLevel == "" {
		c.Mechanics.EnergyLevel = defaultEnergyLevel
	}
}

func (c *Config) normalizeVideo() {
	c.Video.Model = strings.ToLower(strings.TrimSpace(c.Video.Model))
	switch c.Video.Model {
	case "":
		c.Video.Model = defaultVideoModel
	case "sora2", "sora2pro", "sora-2":
		c.Video.Model = "sora"
	}
	c.Video.AspectRatio = strings.TrimSpace(c.Video.AspectRatio)
	if c.Video.AspectRatio == "" {
		c.Video.AspectRatio = defaultAspectRatio
	}
	c.Video.FalKey = strings.TrimSpace(c.Video.FalKey)
	if c.Video.FalKey == "" {
		if value, ok := os.LookupEnv("FAL_KEY"); ok {
			c.Video.FalKey = strings.TrimSpace(value)
		}
	}
	c.Video.FalQueueURL = strings.TrimRight(strings.TrimSpace(c.Video.FalQueueURL), "/")
	if c.Video.FalQueueURL == "" {
		c.Video.FalQueueURL = defaultFalQueueURL
	}
	if c.Video.PollIntervalSeconds <= 0 {
		c.Video.PollIntervalSeconds = defaultVideoPollInterval
	}
	if c.Video.TimeoutSeconds <= 0 {
		c.Video.TimeoutSeconds = defaultVideoTimeoutSeconds
	}
}

func (c *Config) normalizeWorkflow() {
	if c.Pipeline.TimeoutSeconds <= 0 {
		c.Pipeline.TimeoutSeconds = defaultPipelineTimeout
	}
	if c.Workflow.QueuePollInterval <= 0 {
		c.Workflow.QueuePollInterval = defaultQueuePollInterval
	}
	if c.Workflow.MaxConcurrentJobs <= 0 {
		c.Workflow.MaxConcurrentJobs = defaultMaxConcurrentJobs
	}
	if c.Workflow.StaleJobTimeout <= 0 {
		c.Workflow.StaleJobTimeout = defaultStaleJobTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format != "json" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}
