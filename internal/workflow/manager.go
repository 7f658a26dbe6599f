package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
)

// Manager claims queued jobs and runs them in the background.
type Manager struct {
	cfg          *config.Config
	store        *queue.Store
	runner       *Runner
	logger       *slog.Logger
	pollInterval time.Duration
	maxJobs      int64
	slots        *semaphore.Weighted

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
	lastJob *queue.Job
	active  map[string]time.Time

	queueActive bool
	queueStart  time.Time
	queueDone   int
	queueFailed int
}

// NewManager constructs a manager that executes jobs with runner.
func NewManager(cfg *config.Config, store *queue.Store, runner *Runner, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	maxJobs := int64(cfg.Workflow.MaxConcurrentJobs)
	if maxJobs <= 0 {
		maxJobs = 1
	}
	poll := time.Duration(cfg.Workflow.QueuePollInterval) * time.Second
	if poll <= 0 {
		poll = 5 * time.Second
	}
	return &Manager{
		cfg:          cfg,
		store:        store,
		runner:       runner,
		logger:       logging.NewComponentLogger(logger, "workflow-manager"),
		pollInterval: poll,
		maxJobs:      maxJobs,
		slots:        semaphore.NewWeighted(maxJobs),
		active:       make(map[string]time.Time),
	}
}

// WithPollInterval overrides the queue poll interval. Tests use it to avoid
// second-long waits.
func (m *Manager) WithPollInterval(d time.Duration) *Manager {
	if d > 0 {
		m.pollInterval = d
	}
	return m
}
