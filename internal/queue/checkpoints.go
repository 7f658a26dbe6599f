package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reelsmith/internal/graph"
)

// Checkpointer stores run checkpoints in the job database so a reclaimed job
// can resume where its previous worker stopped.
type Checkpointer struct {
	s *Store
}

var _ graph.CheckpointStore = (*Checkpointer)(nil)

// Checkpointer returns the store's checkpoint view.
func (s *Store) Checkpointer() *Checkpointer {
	return &Checkpointer{s: s}
}

// Save persists a run checkpoint.
func (c *Checkpointer) Save(ctx context.Context, cp graph.Checkpoint) error {
	stateJSON, err := json.Marshal(cp.State)
	if err != nil {
		return fmt.Errorf("marshal checkpoint state: %w", err)
	}
	var nextJSON, joinsJSON any
	if len(cp.Next) > 0 {
		if nextJSON, err = nullableJSON(cp.Next); err != nil {
			return err
		}
	}
	if len(cp.Joins) > 0 {
		if joinsJSON, err = nullableJSON(cp.Joins); err != nil {
			return err
		}
	}
	status := cp.Status
	if status == "" {
		status = graph.CheckpointSaved
	}
	created := cp.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	boundary := 0
	if cp.Boundary {
		boundary = 1
	}
	if err := c.s.execWithoutResultRetry(ctx,
		`INSERT INTO checkpoints (run_id, step, node, boundary, status, state_json, next_json, joins_json, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cp.RunID, cp.Step, nullableString(cp.Node), boundary, status,
		string(stateJSON), nextJSON, joinsJSON, timestamp(created),
	); err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

// List returns a run's checkpoints in the order they were saved.
func (c *Checkpointer) List(ctx context.Context, runID string) ([]graph.Checkpoint, error) {
	rows, err := c.s.db.QueryContext(ctx,
		`SELECT run_id, step, node, boundary, status, state_json, next_json, joins_json, created_at
         FROM checkpoints WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []graph.Checkpoint
	for rows.Next() {
		var (
			cp         graph.Checkpoint
			node       *string
			boundary   int
			stateJSON  string
			nextJSON   *string
			joinsJSON  *string
			createdRaw string
		)
		if err := rows.Scan(&cp.RunID, &cp.Step, &node, &boundary, &cp.Status, &stateJSON, &nextJSON, &joinsJSON, &createdRaw); err != nil {
			return nil, err
		}
		if node != nil {
			cp.Node = *node
		}
		cp.Boundary = boundary != 0
		if err := json.Unmarshal([]byte(stateJSON), &cp.State); err != nil {
			return nil, fmt.Errorf("decode checkpoint state: %w", err)
		}
		if nextJSON != nil {
			if err := json.Unmarshal([]byte(*nextJSON), &cp.Next); err != nil {
				return nil, fmt.Errorf("decode checkpoint frontier: %w", err)
			}
		}
		if joinsJSON != nil {
			if err := json.Unmarshal([]byte(*joinsJSON), &cp.Joins); err != nil {
				return nil, fmt.Errorf("decode checkpoint joins: %w", err)
			}
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			cp.CreatedAt = created
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

// MarkCancelled flags every checkpoint of a run as cancelled.
func (c *Checkpointer) MarkCancelled(ctx context.Context, runID string) error {
	if err := c.s.execWithoutResultRetry(ctx,
		`UPDATE checkpoints SET status = ? WHERE run_id = ?`,
		graph.CheckpointCancelled, runID,
	); err != nil {
		return fmt.Errorf("mark checkpoints cancelled: %w", err)
	}
	return nil
}

// Delete removes a run's checkpoints.
func (c *Checkpointer) Delete(ctx context.Context, runID string) error {
	return c.s.DeleteCheckpoints(ctx, runID)
}

// DeleteCheckpoints removes a run's checkpoints.
func (s *Store) DeleteCheckpoints(ctx context.Context, runID string) error {
	if err := s.execWithoutResultRetry(ctx, `DELETE FROM checkpoints WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete checkpoints: %w", err)
	}
	return nil
}
