package graph

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// Checkpoint status values.
const (
	CheckpointSaved     = "saved"
	CheckpointCancelled = "cancelled"
)

// Checkpoint is a snapshot taken after a node completes. Boundary snapshots are
// written once per superstep and carry what is needed to resume: the next
// frontier and the arrivals recorded at waiting joins.
type Checkpoint struct {
	RunID     string              `json:"run_id"`
	Step      int                 `json:"step"`
	Node      string              `json:"node"`
	State     State               `json:"state"`
	Next      []string            `json:"next,omitempty"`
	Joins     map[string][]string `json:"joins,omitempty"`
	Boundary  bool                `json:"boundary"`
	Status    string              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// CheckpointStore persists snapshots keyed by run id.
type CheckpointStore interface {
	Save(ctx context.Context, cp Checkpoint) error
	List(ctx context.Context, runID string) ([]Checkpoint, error)
	MarkCancelled(ctx context.Context, runID string) error
}

// MemoryCheckpointer keeps checkpoints for the lifetime of the process. It
// backs graph and pipeline tests; jobs persist through queue.Checkpointer.
type MemoryCheckpointer struct {
	mu   sync.RWMutex
	runs map[string][]Checkpoint
}

// NewMemoryCheckpointer returns an empty in-memory store.
func NewMemoryCheckpointer() *MemoryCheckpointer {
	return &MemoryCheckpointer{runs: make(map[string][]Checkpoint)}
}

// Save appends a copy of cp to the run's history.
func (m *MemoryCheckpointer) Save(_ context.Context, cp Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	if cp.Status == "" {
		cp.Status = CheckpointSaved
	}
	m.runs[cp.RunID] = append(m.runs[cp.RunID], copyCheckpoint(cp))
	return nil
}

// List returns the run's checkpoints in insertion order.
func (m *MemoryCheckpointer) List(_ context.Context, runID string) ([]Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.runs[runID]
	out := make([]Checkpoint, len(history))
	for i, cp := range history {
		out[i] = copyCheckpoint(cp)
	}
	return out, nil
}

// MarkCancelled flags every checkpoint of the run as cancelled.
func (m *MemoryCheckpointer) MarkCancelled(_ context.Context, runID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.runs[runID] {
		m.runs[runID][i].Status = CheckpointCancelled
	}
	return nil
}

func copyCheckpoint(cp Checkpoint) Checkpoint {
	cp.State = cp.State.Clone()
	cp.Next = slices.Clone(cp.Next)
	cp.Joins = cloneJoins(cp.Joins)
	return cp
}

// lastBoundary returns the most recent boundary checkpoint in history.
func lastBoundary(history []Checkpoint) (Checkpoint, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Boundary {
			return history[i], true
		}
	}
	return Checkpoint{}, false
}

func cloneJoins(joins map[string][]string) map[string][]string {
	if len(joins) == 0 {
		return nil
	}
	out := maps.Clone(joins)
	for k, v := range out {
		out[k] = slices.Clone(v)
	}
	return out
}
