package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ClaimNext moves the oldest queued job to processing and returns it. It
// returns nil when nothing is queued.
func (s *Store) ClaimNext(ctx context.Context) (*Job, error) {
	for range busyRetryAttempts {
		row := s.db.QueryRowContext(ctx,
			`SELECT id FROM jobs WHERE status = ? ORDER BY created_at, rowid LIMIT 1`,
			StatusQueued,
		)
		var id string
		if err := row.Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, fmt.Errorf("select queued job: %w", err)
		}

		now := timestamp(time.Now())
		res, err := s.execWithRetry(ctx,
			`UPDATE jobs
             SET status = ?, started_at = ?, last_heartbeat = ?, updated_at = ?,
                 error_message = NULL, current_step = NULL, step_index = 0, progress_percent = 0
             WHERE id = ? AND status = ?`,
			StatusProcessing, now, now, now, id, StatusQueued,
		)
		if err != nil {
			return nil, fmt.Errorf("claim job: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if affected == 1 {
			return s.Get(ctx, id)
		}
		// Another worker claimed it first; try the next one.
	}
	return nil, nil
}

// SetRunID records the graph run executing the job.
func (s *Store) SetRunID(ctx context.Context, id, runID string) error {
	return s.updateProcessing(ctx, "set run id",
		`UPDATE jobs SET run_id = ?, updated_at = ? WHERE id = ? AND status = ?`,
		runID, timestamp(time.Now()), id, StatusProcessing,
	)
}

// UpdateProgress records the step a processing job has reached and refreshes
// its heartbeat. It returns ErrJobNotFound when the job was deleted or is no
// longer processing.
func (s *Store) UpdateProgress(ctx context.Context, id, step string, index, total int) error {
	now := timestamp(time.Now())
	return s.updateProcessing(ctx, "update progress",
		`UPDATE jobs
         SET current_step = ?, step_index = ?, total_steps = ?, progress_percent = ?,
             last_heartbeat = ?, updated_at = ?
         WHERE id = ? AND status = ?`,
		step, index, total, percentage(index, total), now, now, id, StatusProcessing,
	)
}

// Heartbeat refreshes the heartbeat of a processing job.
func (s *Store) Heartbeat(ctx context.Context, id string) error {
	now := timestamp(time.Now())
	return s.updateProcessing(ctx, "update heartbeat",
		`UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ? AND status = ?`,
		now, now, id, StatusProcessing,
	)
}

// SetResult completes a processing job with its JSON-encodable result.
func (s *Store) SetResult(ctx context.Context, id string, result any) error {
	resultJSON, err := nullableJSON(result)
	if err != nil {
		return err
	}
	now := timestamp(time.Now())
	return s.updateProcessing(ctx, "set result",
		`UPDATE jobs
         SET status = ?, result_json = ?, error_message = NULL, progress_percent = 100,
             completed_at = ?, last_heartbeat = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusCompleted, resultJSON, now, now, id, StatusProcessing,
	)
}

// SetError fails a processing job. result, when non-nil, keeps the partial
// output for inspection.
func (s *Store) SetError(ctx context.Context, id, message string, result any) error {
	resultJSON, err := nullableJSON(result)
	if err != nil {
		return err
	}
	now := timestamp(time.Now())
	return s.updateProcessing(ctx, "set error",
		`UPDATE jobs
         SET status = ?, result_json = COALESCE(?, result_json), error_message = ?,
             completed_at = ?, last_heartbeat = NULL, updated_at = ?
         WHERE id = ? AND status = ?`,
		StatusFailed, resultJSON, nullableString(message), now, now, id, StatusProcessing,
	)
}

// MarkCancelled cancels a queued or processing job. The worker running it
// notices on its next progress update.
func (s *Store) MarkCancelled(ctx context.Context, id string) error {
	now := timestamp(time.Now())
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, error_message = ?, completed_at = ?, last_heartbeat = NULL, updated_at = ?
         WHERE id = ? AND status IN (?, ?)`,
		StatusCancelled, UserCancelReason, now, now, id, StatusQueued, StatusProcessing,
	)
	if err != nil {
		return fmt.Errorf("cancel job: %w", err)
	}
	return requireRow(res)
}

// Retry requeues failed or cancelled jobs. With no ids every failed job is
// requeued.
func (s *Store) Retry(ctx context.Context, ids ...string) (int64, error) {
	now := timestamp(time.Now())
	query := `UPDATE jobs
        SET status = ?, error_message = NULL, result_json = NULL, run_id = NULL,
            current_step = NULL, step_index = 0, progress_percent = 0,
            started_at = NULL, completed_at = NULL, updated_at = ?`
	args := []any{StatusQueued, now}
	if len(ids) == 0 {
		query += ` WHERE status = ?`
		args = append(args, StatusFailed)
	} else {
		query += ` WHERE id IN (` + makePlaceholders(len(ids)) + `) AND status IN (?, ?)`
		for _, id := range ids {
			args = append(args, id)
		}
		args = append(args, StatusFailed, StatusCancelled)
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry jobs: %w", err)
	}
	return res.RowsAffected()
}

// ReclaimStale returns processing jobs whose heartbeat is older than cutoff
// to the queue. Their run id is kept so the worker can resume from the last
// checkpoint.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, last_heartbeat = NULL, updated_at = ?
         WHERE status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)`,
		StatusQueued, timestamp(time.Now()), StatusProcessing, timestamp(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return res.RowsAffected()
}

// ResetProcessing requeues every processing job. The daemon calls it on
// start, when no worker can still own them.
func (s *Store) ResetProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, last_heartbeat = NULL, updated_at = ? WHERE status = ?`,
		StatusQueued, timestamp(time.Now()), StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset processing jobs: %w", err)
	}
	return res.RowsAffected()
}

// FailProcessing fails every processing job with reason. The daemon uses it
// on shutdown when jobs must not be resumed.
func (s *Store) FailProcessing(ctx context.Context, reason string) (int64, error) {
	now := timestamp(time.Now())
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs
         SET status = ?, error_message = ?, completed_at = ?, last_heartbeat = NULL, updated_at = ?
         WHERE status = ?`,
		StatusFailed, reason, now, now, StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("fail processing jobs: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) updateProcessing(ctx context.Context, op, query string, args ...any) error {
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrJobNotFound
	}
	return nil
}
