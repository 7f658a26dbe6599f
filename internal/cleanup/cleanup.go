package cleanup

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"reelsmith/internal/logging"
)

// Result contains the outcome of a cleanup operation.
type Result struct {
	Removed []string
	Skipped []string
	Errors  []Error
}

// Error pairs a path with its cleanup error.
type Error struct {
	Path  string
	Error error
}

// RemoveArtifacts deletes paths that live under root, then removes
// directories under root left empty, root included. Paths outside root are
// reported as skipped and never touched.
func RemoveArtifacts(root string, paths []string, logger *slog.Logger) Result {
	result := Result{}
	root = strings.TrimSpace(root)
	if root == "" {
		return result
	}
	root = filepath.Clean(root)
	if logger == nil {
		logger = logging.NewNop()
	}

	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		path = filepath.Clean(path)
		if !within(root, path) {
			result.Skipped = append(result.Skipped, path)
			continue
		}
		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			result.Errors = append(result.Errors, Error{Path: path, Error: err})
			logger.Warn("failed to remove run artifact",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "artifact_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, path)
	}

	pruneEmpty(root)
	if len(result.Removed) > 0 {
		logger.Debug("removed run artifacts",
			logging.String("dir", root),
			logging.Int("count", len(result.Removed)),
			logging.String(logging.FieldEventType, "artifact_cleanup"),
		)
	}
	return result
}

// CleanStale removes job directories under workDir older than maxAge.
// Directories named in active are kept regardless of age.
func CleanStale(ctx context.Context, workDir string, maxAge time.Duration, active []string, logger *slog.Logger) Result {
	result := Result{}

	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return result
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, Error{Path: workDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if !entry.IsDir() {
			continue
		}
		dirPath := filepath.Join(workDir, entry.Name())
		if slices.Contains(active, entry.Name()) {
			result.Skipped = append(result.Skipped, dirPath)
			continue
		}
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, Error{Path: dirPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, Error{Path: dirPath, Error: err})
			logger.Warn("failed to remove stale job directory",
				logging.String("path", dirPath),
				logging.Error(err),
				logging.String(logging.FieldEventType, "work_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check work_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, dirPath)
		logger.Info("removed stale job directory",
			logging.String("path", dirPath),
			logging.Duration("age", time.Since(info.ModTime())),
			logging.String(logging.FieldEventType, "work_cleanup"),
		)
	}
	return result
}

// DirInfo contains metadata about a job directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListDirectories returns every job directory in workDir with its size.
func ListDirectories(workDir string) ([]DirInfo, error) {
	workDir = strings.TrimSpace(workDir)
	if workDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(workDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirPath := filepath.Join(workDir, entry.Name())
		size, _ := dirSize(dirPath)
		dirs = append(dirs, DirInfo{
			Name:    entry.Name(),
			Path:    dirPath,
			ModTime: info.ModTime(),
			Size:    size,
		})
	}
	return dirs, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// pruneEmpty removes empty directories below and including root, deepest
// first. Non-empty directories are left alone.
func pruneEmpty(root string) {
	var dirs []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	for i := len(dirs) - 1; i >= 0; i-- {
		_ = os.Remove(dirs[i])
	}
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
