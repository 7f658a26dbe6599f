package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Create enqueues a job of kind with its JSON-encodable input.
func (s *Store) Create(ctx context.Context, kind string, input any) (*Job, error) {
	return s.CreateWithID(ctx, uuid.NewString(), kind, input)
}

// CreateWithID enqueues a job under a caller-chosen identifier.
func (s *Store) CreateWithID(ctx context.Context, id, kind string, input any) (*Job, error) {
	id = strings.TrimSpace(id)
	kind = strings.TrimSpace(kind)
	if id == "" {
		return nil, errors.New("job id is required")
	}
	if kind == "" {
		return nil, errors.New("job kind is required")
	}
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal input: %w", err)
	}

	now := timestamp(time.Now())
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO jobs (
            id, kind, status, input_json, created_at, updated_at,
            step_index, total_steps, progress_percent
        ) VALUES (?, ?, ?, ?, ?, ?, 0, 0, 0)`,
		id,
		kind,
		StatusQueued,
		string(inputJSON),
		now,
		now,
	); err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return s.Get(ctx, id)
}

// Get fetches a job by identifier. A missing job returns nil without error.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// FindByPrefix resolves an abbreviated job id. It fails when the prefix is
// ambiguous.
func (s *Store) FindByPrefix(ctx context.Context, prefix string) (*Job, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id LIKE ? ORDER BY created_at, rowid LIMIT 2`,
		strings.NewReplacer("%", "", "_", "").Replace(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("find job: %w", err)
	}
	defer rows.Close()

	var matches []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, job)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	}
	return nil, fmt.Errorf("job prefix %q is ambiguous", prefix)
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided), oldest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := statusArgs(statuses)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
	}
	query += ` ORDER BY created_at, rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Delete removes a job and its checkpoints.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	if job.RunID != "" {
		if err := s.DeleteCheckpoints(ctx, job.RunID); err != nil {
			return false, err
		}
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Clear removes jobs in the given statuses, or every job when none are given.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	query := `DELETE FROM jobs`
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
	}
	res, err := s.execWithRetry(ctx, query, statusArgs(statuses)...)
	if err != nil {
		return 0, fmt.Errorf("clear jobs: %w", err)
	}
	if err := s.execWithoutResultRetry(ctx,
		`DELETE FROM checkpoints WHERE run_id NOT IN (SELECT run_id FROM jobs WHERE run_id IS NOT NULL)`,
	); err != nil {
		return 0, fmt.Errorf("clear orphaned checkpoints: %w", err)
	}
	return res.RowsAffected()
}
