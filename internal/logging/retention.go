package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// CurrentLogName is the pointer in the log directory that always resolves
	// to the running daemon's log file.
	CurrentLogName = "subburn.log"
	runLogPattern  = "subburn-*.log"
	runLogLayout   = "20060102T150405.000Z"
)

// RunLogPath returns the per-run log file for a daemon started at the given time.
func RunLogPath(dir string, started time.Time) string {
	return filepath.Join(dir, fmt.Sprintf("subburn-%s.log", started.UTC().Format(runLogLayout)))
}

// PruneRunLogs removes per-run daemon logs in dir whose modification time is
// older than retentionDays. The active run log and whatever the current log
// pointer resolves to are never removed. A retentionDays value of 0 disables
// pruning. It returns the number of files removed.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, active string) int {
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	keep := make([]os.FileInfo, 0, 2)
	for _, path := range []string{active, filepath.Join(dir, CurrentLogName)} {
		if path == "" {
			continue
		}
		if info, err := os.Stat(path); err == nil {
			keep = append(keep, info)
		}
	}

	matches, err := filepath.Glob(filepath.Join(dir, runLogPattern))
	if err != nil {
		return 0
	}
	removed := 0
	for _, path := range matches {
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if !info.ModTime().Before(cutoff) || sameAsAny(info, keep) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "run log remove failed; file remains", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check file permissions and paths.log_dir ownership"),
				String(FieldImpact, "old run log remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("run log pruned", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	if removed > 0 && logger != nil {
		logger.Info("pruned run logs",
			Int("removed", removed),
			Int("retention_days", retentionDays),
			String(FieldEventType, "log_retention_complete"),
		)
	}
	return removed
}

func sameAsAny(info os.FileInfo, keep []os.FileInfo) bool {
	for _, k := range keep {
		if os.SameFile(info, k) {
			return true
		}
	}
	return false
}
