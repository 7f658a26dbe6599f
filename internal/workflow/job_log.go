package workflow

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"reelsmith/internal/config"
	"reelsmith/internal/logging"
)

// JobLogs manages the dedicated JSON log file each job writes next to the
// daemon log.
type JobLogs struct {
	dir   string
	level string
}

// NewJobLogs creates job logs under cfg's job log directory.
func NewJobLogs(cfg *config.Config) *JobLogs {
	j := &JobLogs{level: "info"}
	if cfg != nil {
		if strings.TrimSpace(cfg.Paths.LogDir) != "" {
			j.dir = cfg.JobLogDir()
		}
		if lvl := strings.TrimSpace(cfg.Logging.Level); lvl != "" {
			j.level = lvl
		}
	}
	return j
}

// Dir returns the job log directory.
func (j *JobLogs) Dir() string { return j.dir }

// Path returns the log file for jobID.
func (j *JobLogs) Path(jobID string) string {
	if j.dir == "" || strings.TrimSpace(jobID) == "" {
		return ""
	}
	return filepath.Join(j.dir, jobID+".log")
}

// Logger tees base into the job's log file. The returned closer releases the
// file; it is never nil.
func (j *JobLogs) Logger(base *slog.Logger, jobID string) (*slog.Logger, io.Closer, error) {
	if base == nil {
		base = logging.NewNop()
	}
	path := j.Path(jobID)
	if path == "" {
		return base, nopCloser{}, fmt.Errorf("job log directory not configured")
	}
	if err := os.MkdirAll(j.dir, 0o755); err != nil {
		return base, nopCloser{}, fmt.Errorf("ensure job log directory: %w", err)
	}
	handler, closer, err := logging.NewJobHandler(path, j.level)
	if err != nil {
		return base, nopCloser{}, err
	}
	return logging.TeeLogger(base, handler), closer, nil
}

// Remove deletes the job's log file.
func (j *JobLogs) Remove(jobID string) error {
	path := j.Path(jobID)
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
