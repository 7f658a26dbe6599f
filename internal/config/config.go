package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkDir  string `toml:"work_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Analysis contains settings for the analysis nodes.
type Analysis struct {
	WhisperMode            string `toml:"whisper_mode"`
	WhisperModel           string `toml:"whisper_model"`
	WhisperLanguage        string `toml:"whisper_language"`
	WhisperCUDA            bool   `toml:"whisper_cuda"`
	WhisperXCommand        string `toml:"whisperx_command"`
	NumFrames              int    `toml:"num_frames"`
	NumFramesForScenes     int    `toml:"num_frames_for_scenes"`
	EnableEnhancedAnalysis bool   `toml:"enable_enhanced_analysis"`
	FFmpegBinary           string `toml:"ffmpeg_binary"`
	FFprobeBinary          string `toml:"ffprobe_binary"`
	YTDLPBinary            string `toml:"ytdlp_binary"`
	DownloadTimeout        int    `toml:"download_timeout"`
	MaxDownloadMB          int    `toml:"max_download_mb"`
}

// LLM contains OpenRouter connection settings shared by the vision, blueprint,
// product and prompt collaborators.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Mechanics contains defaults for the mechanics enhancement step.
type Mechanics struct {
	Enabled         bool    `toml:"enabled"`
	ProductCategory string  `toml:"product_category"`
	TargetDuration  float64 `toml:"target_duration"`
	EnergyLevel     string  `toml:"energy_level"`
}

// Video contains video synthesis settings.
type Video struct {
	Model               string `toml:"model"`
	Duration            int    `toml:"duration"`
	AspectRatio         string `toml:"aspect_ratio"`
	UseImageToVideo     bool   `toml:"use_image_to_video"`
	FalKey              string `toml:"fal_key"`
	FalQueueURL         string `toml:"fal_queue_url"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
}

// Pipeline contains run behavior settings.
type Pipeline struct {
	KeepTempFiles  bool `toml:"keep_temp_files"`
	TimeoutSeconds int  `toml:"timeout_seconds"`
	Checkpointing  bool `toml:"checkpointing"`
}

// Workflow contains daemon timing configuration.
type Workflow struct {
	QueuePollInterval int `toml:"queue_poll_interval"`
	MaxConcurrentJobs int `toml:"max_concurrent_jobs"`
	StaleJobTimeout   int `toml:"stale_job_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	OnComplete     bool   `toml:"on_complete"`
	OnFailure      bool   `toml:"on_failure"`
}

// Config encapsulates all configuration values for reelsmith.
//
// Configuration sections by subsystem:
//   - Paths: work, log and state directories
//   - Analysis: download, ffmpeg, WhisperX and frame sampling
//   - LLM: OpenRouter connection used by every language/vision call
//   - Mechanics: defaults for the mechanics enhancement
//   - Video: fal.ai synthesis settings
//   - Pipeline: temp file retention, node timeouts and checkpointing
//   - Workflow: daemon polling and concurrency
//   - Logging: log format, level and retention
//   - Notifications: ntfy push settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	Analysis      Analysis      `toml:"analysis"`
	LLM           LLM           `toml:"llm"`
	Mechanics     Mechanics     `toml:"mechanics"`
	Video         Video         `toml:"video"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("reelsmith.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the work, log and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkDir, c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// QueueDBPath returns the SQLite job store location.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.StateDir, "queue.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "reelsmithd.lock")
}

// PIDPath returns the file holding the running daemon's process id.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "reelsmithd.pid")
}

// JobLogDir returns the directory holding per-job JSON logs.
func (c *Config) JobLogDir() string {
	return filepath.Join(c.Paths.LogDir, "jobs")
}

// JobWorkDir returns the scratch directory for one job.
func (c *Config) JobWorkDir(jobID string) string {
	return filepath.Join(c.Paths.WorkDir, jobID)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
