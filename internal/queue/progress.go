package queue

import (
	"context"
	"errors"
	"log/slog"

	"reelsmith/internal/graph"
	"reelsmith/internal/logging"
)

// ProgressSink records executor step notifications on the job row.
type ProgressSink struct {
	store  *Store
	logger *slog.Logger
	onGone func(jobID string)
}

var _ graph.Reporter = (*ProgressSink)(nil)

// NewProgressSink returns a reporter writing to store. onGone, when set, is
// called once a job can no longer be updated because it was deleted or
// cancelled.
func NewProgressSink(store *Store, logger *slog.Logger, onGone func(jobID string)) *ProgressSink {
	return &ProgressSink{
		store:  store,
		logger: logging.NewComponentLogger(logger, "queue"),
		onGone: onGone,
	}
}

// OnStep implements graph.Reporter.
func (p *ProgressSink) OnStep(ctx context.Context, jobID, stepName string, stepIndex, totalSteps int) {
	if jobID == "" {
		return
	}
	err := p.store.UpdateProgress(context.WithoutCancel(ctx), jobID, stepName, stepIndex, totalSteps)
	switch {
	case err == nil:
	case errors.Is(err, ErrJobNotFound):
		if p.onGone != nil {
			p.onGone(jobID)
		}
	default:
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "progress update failed", "progress_update_failed",
			logging.String(logging.FieldJobID, jobID),
			logging.String(logging.FieldStep, stepName),
			logging.Error(err),
			logging.String(logging.FieldImpact, "job progress shown by the CLI lags behind the run"),
		)
	}
}
