package workflow

import (
	"context"
	"errors"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
)

func (m *Manager) onJobStarted(ctx context.Context) {
	m.mu.Lock()
	if m.queueActive {
		m.mu.Unlock()
		return
	}
	m.queueActive = true
	m.queueStart = time.Now()
	m.queueDone, m.queueFailed = 0, 0
	m.mu.Unlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.logger.Warn("queue stats unavailable for start notification; notification skipped",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_stats_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
				logging.String(logging.FieldImpact, "start notification will not be sent"),
			)
		}
		return
	}
	count := stats[queue.StatusQueued] + stats[queue.StatusProcessing]
	if count < 2 {
		return
	}
	if err := m.runner.notifier.NotifyQueueStarted(ctx, count); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Debug("queue start notification failed", logging.Error(err))
	}
}

// checkQueueCompletion sends the queue summary once nothing is queued or
// running. Single-job batches are covered by the job notification alone.
func (m *Manager) checkQueueCompletion(ctx context.Context, succeeded bool) {
	m.mu.Lock()
	if succeeded {
		m.queueDone++
	} else {
		m.queueFailed++
	}
	m.mu.Unlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			m.logger.Warn("queue stats unavailable for completion notification; notification skipped",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_stats_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
				logging.String(logging.FieldImpact, "completion notification will not be sent"),
			)
		}
		return
	}
	if stats[queue.StatusQueued]+stats[queue.StatusProcessing] > 0 {
		return
	}

	m.mu.Lock()
	if !m.queueActive {
		m.mu.Unlock()
		return
	}
	start, done, failed := m.queueStart, m.queueDone, m.queueFailed
	m.queueActive = false
	m.queueStart = time.Time{}
	m.mu.Unlock()

	if done+failed < 2 {
		return
	}
	if err := m.runner.notifier.NotifyQueueCompleted(ctx, done, failed, time.Since(start)); err != nil && !errors.Is(err, context.Canceled) {
		m.logger.Debug("queue completion notification failed", logging.Error(err))
	}
}
