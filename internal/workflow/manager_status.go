package workflow

import (
	"context"
	"slices"

	"reelsmith/internal/logging"
	"reelsmith/internal/queue"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running    bool
	MaxJobs    int
	ActiveJobs []string
	LastError  string
	LastJob    *queue.Job
	QueueStats map[queue.Status]int
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{
		Running: m.running,
		MaxJobs: int(m.maxJobs),
	}
	for id := range m.active {
		summary.ActiveJobs = append(summary.ActiveJobs, id)
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastJob != nil {
		copy := *m.lastJob
		summary.LastJob = &copy
	}
	m.mu.RUnlock()
	slices.Sort(summary.ActiveJobs)

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	summary.QueueStats = stats
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastJob(job *queue.Job) {
	m.mu.Lock()
	if job != nil {
		copy := *job
		m.lastJob = &copy
	} else {
		m.lastJob = nil
	}
	m.mu.Unlock()
}
