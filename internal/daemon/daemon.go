package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"reelsmith/internal/cleanup"
	"reelsmith/internal/config"
	"reelsmith/internal/deps"
	"reelsmith/internal/logging"
	"reelsmith/internal/preflight"
	"reelsmith/internal/queue"
	"reelsmith/internal/workflow"
)

// StaleWorkDirAge is how long an orphaned job work directory survives.
const StaleWorkDirAge = 24 * time.Hour

// Daemon coordinates background job processing and enforces single-instance
// execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager

	lockPath string
	lock     *flock.Flock
	pidPath  string

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		pidPath:  cfg.PIDPath(),
	}, nil
}

// Start acquires the daemon lock, performs startup housekeeping and launches
// the workflow manager.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reelsmith daemon instance is already running")
	}
	if err := os.WriteFile(d.pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644); err != nil {
		d.logger.Warn("pid file not written", logging.Error(err),
			logging.String(logging.FieldEventType, "pid_file_failed"),
			logging.String(logging.FieldImpact, "`reelsmith daemon stop` cannot find this process"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.housekeeping(runCtx)
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		d.release()
		return fmt.Errorf("start workflow: %w", err)
	}
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("reelsmith daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock", d.lockPath),
		logging.String("queue_db", d.store.Path()),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock. Jobs that
// were running stay processing and resume on the next start.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	d.release()
	d.running.Store(false)
	d.logger.Info("reelsmith daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

func (d *Daemon) release() {
	if err := os.Remove(d.pidPath); err != nil && !os.IsNotExist(err) {
		d.logger.Debug("pid file not removed", logging.Error(err))
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Workflow:     d.workflow.Status(ctx),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
	if status.Running {
		status.PID = os.Getpid()
	}
	return status
}

// housekeeping runs once per start, before any job is claimed. Failures are
// logged and never block the start.
func (d *Daemon) housekeeping(ctx context.Context) {
	if n, err := d.store.ResetProcessing(ctx); err != nil {
		logging.WarnWithContext(d.logger, "interrupted jobs not requeued", "startup_requeue_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check queue database access"),
			logging.String(logging.FieldImpact, "interrupted jobs wait for the stale job timeout"),
		)
	} else if n > 0 {
		d.logger.Info("requeued interrupted jobs",
			logging.Int64("count", n),
			logging.String(logging.FieldEventType, "jobs_requeued"),
		)
	}

	active, err := d.pendingJobIDs(ctx)
	if err != nil {
		d.logger.Warn("stale work directory cleanup skipped", logging.Error(err),
			logging.String(logging.FieldEventType, "cleanup_skipped"),
		)
	} else {
		result := cleanup.CleanStale(ctx, d.cfg.Paths.WorkDir, StaleWorkDirAge, active, d.logger)
		if len(result.Removed) > 0 {
			d.logger.Info("removed stale work directories",
				logging.Int("count", len(result.Removed)),
				logging.String(logging.FieldEventType, "workdir_cleanup"),
			)
		}
	}

	if pruned := logging.PruneLogs(d.logger, d.cfg.JobLogDir(), "*.log", d.cfg.Logging.RetentionDays); pruned > 0 {
		d.logger.Info("pruned job logs", logging.Int("count", pruned))
	}
	go d.logDependencySnapshot(ctx)
}

// pendingJobIDs lists jobs whose work directory may still be read by a
// resumed run.
func (d *Daemon) pendingJobIDs(ctx context.Context) ([]string, error) {
	jobs, err := d.store.List(ctx, queue.StatusQueued, queue.StatusProcessing)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}
	return ids, nil
}

// logDependencySnapshot runs in the background since the LLM check may take
// its full timeout.
func (d *Daemon) logDependencySnapshot(ctx context.Context) {
	statuses := preflight.CheckSystemDeps(d.cfg)
	attrs := []logging.Attr{logging.String(logging.FieldEventType, "dependency_snapshot")}
	for _, s := range statuses {
		attrs = append(attrs, logging.Bool(s.Name+"_available", s.Available))
	}
	d.logger.Info("dependency snapshot", logging.Args(attrs...)...)
	for _, s := range deps.Missing(statuses) {
		logging.WarnWithContext(d.logger, "required binary unavailable", "dependency_missing",
			logging.String("dependency", s.Name),
			logging.String("command", s.Command),
			logging.String(logging.FieldErrorHint, s.Detail),
			logging.String(logging.FieldImpact, s.Description),
		)
	}
	for _, r := range preflight.Failed(preflight.RunAll(ctx, d.cfg)) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String(logging.FieldErrorHint, r.Detail),
			logging.String(logging.FieldImpact, "jobs depending on it will fail"),
		)
	}
}
