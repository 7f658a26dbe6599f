package config

const (
	defaultConfigPath          = "~/.config/reelsmith/config.toml"
	defaultWorkDir             = "~/.local/share/reelsmith/work"
	defaultLogDir              = "~/.local/share/reelsmith/logs"
	defaultStateDir            = "~/.local/share/reelsmith"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	defaultWhisperMode         = "local"
	defaultWhisperModel        = "base"
	defaultWhisperXCommand     = "uvx"
	defaultNumFrames           = 5
	defaultNumFramesForScenes  = 20
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultYTDLPBinary         = "yt-dlp"
	defaultDownloadTimeout     = 300
	defaultMaxDownloadMB       = 500
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "anthropic/claude-sonnet-4"
	defaultLLMReferer          = "https://github.com/reelsmith/reelsmith"
	defaultLLMTitle            = "reelsmith"
	defaultLLMTimeoutSeconds   = 120
	defaultProductCategory     = "general"
	defaultTargetDuration      = 8.0
	defaultEnergyLevel         = "medium"
	defaultVideoModel          = "sora"
	defaultVideoDuration       = 5
	defaultAspectRatio         = "9:16"
	defaultFalQueueURL         = "https://queue.fal.run"
	defaultVideoPollInterval   = 5
	defaultVideoTimeoutSeconds = 600
	defaultPipelineTimeout     = 300
	defaultQueuePollInterval   = 5
	defaultMaxConcurrentJobs   = 2
	defaultStaleJobTimeout     = 900
	defaultNotifyTimeout       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Analysis: Analysis{
			WhisperMode:            defaultWhisperMode,
			WhisperModel:           defaultWhisperModel,
			WhisperXCommand:        defaultWhisperXCommand,
			NumFrames:              defaultNumFrames,
			NumFramesForScenes:     defaultNumFramesForScenes,
			EnableEnhancedAnalysis: true,
			FFmpegBinary:           defaultFFmpegBinary,
			FFprobeBinary:          defaultFFprobeBinary,
			YTDLPBinary:            defaultYTDLPBinary,
			DownloadTimeout:        defaultDownloadTimeout,
			MaxDownloadMB:          defaultMaxDownloadMB,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Mechanics: Mechanics{
			Enabled:         true,
			ProductCategory: defaultProductCategory,
			TargetDuration:  defaultTargetDuration,
			EnergyLevel:     defaultEnergyLevel,
		},
		Video: Video{
			Model:               defaultVideoModel,
			Duration:            defaultVideoDuration,
			AspectRatio:         defaultAspectRatio,
			UseImageToVideo:     true,
			FalQueueURL:         defaultFalQueueURL,
			PollIntervalSeconds: defaultVideoPollInterval,
			TimeoutSeconds:      defaultVideoTimeoutSeconds,
		},
		Pipeline: Pipeline{
			TimeoutSeconds: defaultPipelineTimeout,
			Checkpointing:  true,
		},
		Workflow: Workflow{
			QueuePollInterval: defaultQueuePollInterval,
			MaxConcurrentJobs: defaultMaxConcurrentJobs,
			StaleJobTimeout:   defaultStaleJobTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			OnComplete:     true,
			OnFailure:      true,
		},
	}
}
