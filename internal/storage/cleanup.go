package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subburn/internal/logging"
)

// CleanResult contains the outcome of a storage sweep.
type CleanResult struct {
	Removed []string
	Freed   int64
	Errors  []CleanupError
}

// CleanupError pairs a file path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanOptions controls which files CleanStale may remove.
type CleanOptions struct {
	MaxAge time.Duration
	// Active holds ids of jobs whose artifacts must survive the sweep.
	Active map[string]struct{}
	// Keep lists base names that are never removed, such as the job database.
	Keep []string
}

// CleanStale removes regular files directly inside storageDir whose
// modification time is older than opts.MaxAge. Subdirectories are left alone.
func CleanStale(ctx context.Context, storageDir string, opts CleanOptions, logger *slog.Logger) CleanResult {
	result := CleanResult{}

	storageDir = strings.TrimSpace(storageDir)
	if storageDir == "" || opts.MaxAge <= 0 {
		return result
	}

	entries, err := os.ReadDir(storageDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: storageDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-opts.MaxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			break
		}
		if !entry.Type().IsRegular() || kept(entry.Name(), opts.Keep) || owned(entry.Name(), opts.Active) {
			continue
		}

		path := filepath.Join(storageDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale storage file",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "storage_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check storage_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, path)
		result.Freed += info.Size()
		if logger != nil {
			logger.Debug("removed stale storage file",
				logging.String("path", path),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "storage_cleanup"),
			)
		}
	}

	return result
}

// kept matches base names and their SQLite sidecars (-wal, -shm).
func kept(name string, keep []string) bool {
	for _, k := range keep {
		if k == "" {
			continue
		}
		if name == k || strings.HasPrefix(name, k+"-") {
			return true
		}
	}
	return false
}

func owned(name string, active map[string]struct{}) bool {
	id, _, ok := strings.Cut(name, "_")
	if !ok {
		return false
	}
	_, busy := active[id]
	return busy
}

// Summary describes the regular files directly inside storageDir.
type Summary struct {
	Files  int
	Bytes  int64
	Oldest time.Time
}

// Usage measures the storage directory. A missing directory is empty.
func Usage(storageDir string) (Summary, error) {
	var summary Summary
	storageDir = strings.TrimSpace(storageDir)
	if storageDir == "" {
		return summary, nil
	}

	entries, err := os.ReadDir(storageDir)
	if err != nil {
		if os.IsNotExist(err) {
			return summary, nil
		}
		return summary, err
	}

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		summary.Files++
		summary.Bytes += info.Size()
		if summary.Oldest.IsZero() || info.ModTime().Before(summary.Oldest) {
			summary.Oldest = info.ModTime()
		}
	}
	return summary, nil
}
