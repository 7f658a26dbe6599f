package workflow

import (
	"context"
	"errors"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
)

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if m.runner == nil {
		m.mu.Unlock()
		return errors.New("workflow runner not configured")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	m.logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.Int64("max_concurrent_jobs", m.maxJobs),
		logging.Duration("poll_interval", m.pollInterval),
	)
	go m.loop(runCtx)
	return nil
}

// Stop terminates background processing and waits for in-flight jobs to
// unwind. Interrupted jobs stay processing and resume on the next start.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := m.runner.heartbeat.ReclaimStale(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warn("reclaim stale jobs failed; stuck jobs may remain",
				logging.Error(err),
				logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
		}

		if err := m.slots.Acquire(ctx, 1); err != nil {
			return
		}
		job, err := m.store.ClaimNext(ctx)
		if err != nil {
			m.slots.Release(1)
			m.handleClaimError(ctx, err)
			continue
		}
		if job == nil {
			m.slots.Release(1)
			m.waitForJobOrShutdown(ctx)
			continue
		}

		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			defer m.slots.Release(1)
			m.process(ctx, job)
		}()
	}
}

func (m *Manager) process(ctx context.Context, job *queue.Job) {
	m.trackStart(ctx, job)
	outcome, err := m.runner.Run(ctx, job, nil)
	m.trackDone(job.ID)

	switch {
	case errors.Is(err, ErrJobGone):
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		m.setLastError(err)
	case !outcome.Succeeded():
		m.setLastError(errors.New(failureMessage(outcome)))
	}
	m.refreshLastJob(ctx, job.ID)
	m.checkQueueCompletion(ctx, err == nil && outcome.Succeeded())
}

func (m *Manager) handleClaimError(ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	m.setLastError(err)
	m.logger.Error("failed to claim next job",
		logging.Error(err),
		logging.String(logging.FieldEventType, "queue_fetch_failed"),
		logging.String(logging.FieldErrorHint, "check queue database access"),
	)
	m.waitForJobOrShutdown(ctx)
}

func (m *Manager) waitForJobOrShutdown(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(m.pollInterval):
	}
}

func (m *Manager) trackStart(ctx context.Context, job *queue.Job) {
	m.mu.Lock()
	m.active[job.ID] = time.Now()
	m.mu.Unlock()
	m.setLastJob(job)
	m.onJobStarted(ctx)
}

func (m *Manager) trackDone(jobID string) {
	m.mu.Lock()
	delete(m.active, jobID)
	m.mu.Unlock()
}

func (m *Manager) refreshLastJob(ctx context.Context, jobID string) {
	job, err := m.store.Get(context.WithoutCancel(ctx), jobID)
	if err != nil || job == nil {
		return
	}
	m.setLastJob(job)
}
