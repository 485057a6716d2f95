package daemon

import (
	"context"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/storage"
)

// applyRetention prunes finished jobs and storage artifacts older than
// jobs.retention_days. Failures are logged and never block startup.
func (d *Daemon) applyRetention(ctx context.Context) {
	days := d.cfg.Jobs.RetentionDays
	if days <= 0 {
		return
	}
	maxAge := time.Duration(days) * 24 * time.Hour

	if d.store != nil {
		pruned, err := d.store.Prune(ctx, time.Now().Add(-maxAge))
		if err != nil {
			logging.WarnWithContext(d.logger, "failed to prune job history", "job_prune_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "old jobs remain listed"),
			)
		} else if pruned > 0 {
			d.logger.Info("pruned job history", logging.Int64("jobs", pruned), logging.Int("retention_days", days))
		}
	}

	active, err := jobs.ActiveIDs(ctx, d.registry)
	if err != nil {
		logging.WarnWithContext(d.logger, "skipping storage sweep", "storage_cleanup_skipped",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "job registry could not be listed"),
		)
		return
	}
	opts := storage.CleanOptions{MaxAge: maxAge, Active: active}
	if d.store != nil {
		opts.Keep = []string{filepath.Base(d.store.Path())}
	}
	result := storage.CleanStale(ctx, d.cfg.Paths.StorageDir, opts, d.logger)
	if len(result.Removed) > 0 {
		d.logger.Info("swept stale storage files",
			logging.Int("files", len(result.Removed)),
			logging.String("freed", humanize.IBytes(uint64(result.Freed))),
		)
	}
}
