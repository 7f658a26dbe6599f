package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Status represents the lifecycle of a job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// UserCancelReason is the error message set when a user cancels a job.
const UserCancelReason = "Cancelled by user"

// DaemonStopReason is the error message set when jobs are failed due to daemon shutdown.
const DaemonStopReason = "Daemon stopped"

// ErrJobNotFound reports that a job row no longer exists or has left the
// state an update expected.
var ErrJobNotFound = errors.New("job not found")

var allStatuses = []Status{
	StatusQueued,
	StatusProcessing,
	StatusCompleted,
	StatusFailed,
	StatusCancelled,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transition is expected.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Job is a pipeline run request persisted in SQLite.
type Job struct {
	ID              string
	Kind            string
	Status          Status
	InputJSON       string
	ResultJSON      string
	ErrorMessage    string
	RunID           string
	CurrentStep     string
	StepIndex       int
	TotalSteps      int
	ProgressPercent float64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       *time.Time
	CompletedAt     *time.Time
	LastHeartbeat   *time.Time
}

// IsProcessing returns true when the job is in flight.
func (j Job) IsProcessing() bool {
	return j.Status == StatusProcessing
}

// DecodeInput unmarshals the stored input into v.
func (j Job) DecodeInput(v any) error {
	if err := json.Unmarshal([]byte(j.InputJSON), v); err != nil {
		return fmt.Errorf("decode input of job %s: %w", j.ID, err)
	}
	return nil
}

// DecodeResult unmarshals the stored result into v. Jobs without a result
// leave v untouched.
func (j Job) DecodeResult(v any) error {
	if j.ResultJSON == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(j.ResultJSON), v); err != nil {
		return fmt.Errorf("decode result of job %s: %w", j.ID, err)
	}
	return nil
}

// Elapsed is the time between start and completion, or until now for jobs
// still running.
func (j Job) Elapsed(now time.Time) time.Duration {
	if j.StartedAt == nil {
		return 0
	}
	end := now
	if j.CompletedAt != nil {
		end = *j.CompletedAt
	}
	return end.Sub(*j.StartedAt)
}

// HealthSummary describes aggregated job counts per lifecycle state.
type HealthSummary struct {
	Total      int
	Queued     int
	Processing int
	Completed  int
	Failed     int
	Cancelled  int
}

// DatabaseHealth captures diagnostic information about the job database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    string
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalJobs        int
	Error            string
}

func percentage(index, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(index)/float64(total)*1000) / 10
}
