package workflow

import (
	"log/slog"
	"time"

	"reelsmith/internal/config"
	"reelsmith/internal/deps"
	"reelsmith/internal/logging"
	"reelsmith/internal/mechanics"
	"reelsmith/internal/media/download"
	"reelsmith/internal/media/ffmpeg"
	"reelsmith/internal/pipeline"
	"reelsmith/internal/services/fal"
	"reelsmith/internal/services/llm"
	"reelsmith/internal/services/whisperx"
)

// NewServices wires the concrete collaborators configured in cfg.
func NewServices(cfg *config.Config, logger *slog.Logger) pipeline.Services {
	if logger == nil {
		logger = logging.NewNop()
	}
	extractor := ffmpeg.New(cfg.Analysis.FFmpegBinary, deps.ResolveFFprobe(cfg.Analysis.FFmpegBinary, cfg.Analysis.FFprobeBinary))
	chat := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	return pipeline.Services{
		Downloader: download.New(
			cfg.Analysis.YTDLPBinary,
			cfg.Analysis.MaxDownloadMB,
			time.Duration(cfg.Analysis.DownloadTimeout)*time.Second,
			download.WithLogger(logging.NewComponentLogger(logger, "download")),
		),
		Audio:  extractor,
		Frames: extractor,
		Transcriber: whisperx.NewService(whisperx.Config{
			Model:       cfg.Analysis.WhisperModel,
			Language:    cfg.Analysis.WhisperLanguage,
			CUDAEnabled: cfg.Analysis.WhisperCUDA,
			Command:     cfg.Analysis.WhisperXCommand,
		}),
		Vision:     chat,
		Blueprints: chat,
		Products:   chat,
		Prompts:    chat,
		Mechanics:  mechanics.NewEngine(),
		Synthesizer: fal.NewClient(fal.Config{
			Key:          cfg.Video.FalKey,
			QueueURL:     cfg.Video.FalQueueURL,
			PollInterval: time.Duration(cfg.Video.PollIntervalSeconds) * time.Second,
			Timeout:      time.Duration(cfg.Video.TimeoutSeconds) * time.Second,
		}, fal.WithLogger(logging.NewComponentLogger(logger, "fal"))),
		Logger: logger,
	}
}
