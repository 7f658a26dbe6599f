package testsupport

import (
	"path/filepath"
	"testing"

	"reelsmith/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkDir = filepath.Join(base, "work")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.LLM.APIKey = "test"
	cfgVal.Video.FalKey = "test"
	cfgVal.Workflow.QueuePollInterval = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithLLM points the language model client at baseURL.
func WithLLM(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.BaseURL = baseURL
	}
}

// WithFalQueue points the synthesis client at baseURL.
func WithFalQueue(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Video.FalQueueURL = baseURL
		b.cfg.Video.PollIntervalSeconds = 1
	}
}

// WithoutMechanics disables the mechanics enhancement.
func WithoutMechanics() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mechanics.Enabled = false
	}
}

// WithKeepTempFiles keeps run artifacts after completion.
func WithKeepTempFiles() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.KeepTempFiles = true
	}
}

// BaseDir returns the temp root the config was built under.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.WorkDir)
}
