package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
)

// HeartbeatMonitor keeps processing jobs alive and returns abandoned ones to
// the queue.
type HeartbeatMonitor struct {
	store    *queue.Store
	logger   *slog.Logger
	interval time.Duration
	timeout  time.Duration
}

// NewHeartbeatMonitor creates a monitor. Jobs whose heartbeat is older than
// timeout are considered abandoned.
func NewHeartbeatMonitor(store *queue.Store, logger *slog.Logger, timeout time.Duration) *HeartbeatMonitor {
	interval := timeout / 3
	if interval <= 0 || interval > time.Minute {
		interval = time.Minute
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &HeartbeatMonitor{
		store:    store,
		logger:   logger,
		interval: interval,
		timeout:  timeout,
	}
}

// ReclaimStale requeues processing jobs whose heartbeat expired. Their run id
// is kept so the next worker resumes from the last checkpoint.
func (h *HeartbeatMonitor) ReclaimStale(ctx context.Context) (int64, error) {
	if h.timeout <= 0 {
		return 0, nil
	}
	reclaimed, err := h.store.ReclaimStale(ctx, time.Now().Add(-h.timeout))
	if err != nil {
		return 0, err
	}
	if reclaimed > 0 {
		h.logger.Info("reclaimed stale jobs",
			logging.Int64("count", reclaimed),
			logging.String(logging.FieldEventType, "jobs_reclaimed"),
		)
	}
	return reclaimed, nil
}

// StartLoop refreshes the job heartbeat until ctx is cancelled. onGone runs
// when the job row disappears or leaves the processing state.
func (h *HeartbeatMonitor) StartLoop(ctx context.Context, wg *sync.WaitGroup, jobID string, onGone func()) {
	defer wg.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	logger := logging.WithContext(ctx, logging.NewComponentLogger(h.logger, "workflow-heartbeat"))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := h.store.Heartbeat(ctx, jobID)
			switch {
			case err == nil:
			case errors.Is(err, queue.ErrJobNotFound):
				if onGone != nil {
					onGone()
				}
				return
			case errors.Is(err, context.Canceled):
				return
			default:
				logger.Warn("heartbeat update failed", logging.Error(err))
			}
		}
	}
}
