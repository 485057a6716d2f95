package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"subburn/internal/config"
	"subburn/internal/deps"
	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/preflight"
	"subburn/internal/runner"
)

// Options carries the collaborators the daemon owns the lifecycle of.
type Options struct {
	// Handler serves the public HTTP routes.
	Handler http.Handler
	// Pool runs compositing tasks; Start and Stop are called by the daemon.
	Pool *runner.Pool
	// Registry backs job counts in Status.
	Registry jobs.Registry
	// Store is the persisted registry, when enabled. It is closed by Close.
	Store *jobs.Store
}

// Daemon coordinates background compositing and the HTTP server and
// enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	pool     *runner.Pool
	registry jobs.Registry
	store    *jobs.Store
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Address      string
	LockFilePath string
	JobsDBPath   string
	StartedAt    time.Time
	Pool         runner.Stats
	Jobs         map[jobs.Status]int
	Dependencies []deps.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil || opts.Pool == nil || opts.Registry == nil {
		return nil, errors.New("daemon requires config, pool, and job registry")
	}

	lockPath := LockPath(cfg)
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		pool:     opts.Pool,
		registry: opts.Registry,
		store:    opts.Store,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	if opts.Handler != nil {
		d.api = newAPIServer(cfg.Paths.APIBind, opts.Handler, d, logger)
	}
	return d, nil
}

// LockPath returns the flock file a running daemon holds for cfg.
func LockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "subburn.lock")
}

// LockHeld reports whether some process currently holds the daemon lock for
// cfg. Tools that mutate daemon-owned state use it to stay out of the way.
func LockHeld(cfg *config.Config) (bool, error) {
	path := LockPath(cfg)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("check daemon lock: %w", err)
	}
	if !ok {
		return true, nil
	}
	_ = lock.Unlock()
	return false, nil
}

// Start acquires the daemon lock, recovers interrupted jobs, applies the
// retention window, starts the compositing pool, and begins serving HTTP.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("ensure lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another subburn daemon instance is already running")
	}

	if d.store != nil {
		recovered, err := d.store.RecoverInterrupted(ctx)
		if err != nil {
			logging.WarnWithContext(d.logger, "failed to recover interrupted jobs", "job_recovery_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "jobs from a previous run may stay burning"),
			)
		} else if recovered > 0 {
			d.logger.Info("failed jobs interrupted by restart", logging.Int64("jobs", recovered))
		}
	}

	d.applyRetention(ctx)

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.pool.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start compositing pool: %w", err)
	}
	if err := d.api.start(runCtx); err != nil {
		cancel()
		d.pool.Stop()
		_ = d.lock.Unlock()
		return err
	}

	d.cancel = cancel
	d.startedAt = time.Now()
	d.running.Store(true)
	d.logger.Info("subburn daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("workers", d.pool.Stats().Workers),
	)
	return nil
}

// Stop closes the listener, drains queued compositing work, and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.api.stop()
	stats := d.pool.Stats()
	if stats.Active+stats.Queued > 0 {
		d.logger.Info("waiting for compositing to drain",
			logging.Int("active", stats.Active),
			logging.Int("queued", stats.Queued),
		)
	}
	d.pool.Stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("subburn daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Address returns the bound HTTP address, or "" when not serving.
func (d *Daemon) Address() string {
	return d.api.address()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Address:      d.Address(),
		LockFilePath: d.lockPath,
		Pool:         d.pool.Stats(),
		Jobs:         d.jobCounts(ctx),
		Dependencies: preflight.CheckSystemDeps(d.cfg),
	}
	d.mu.Lock()
	status.StartedAt = d.startedAt
	d.mu.Unlock()
	if d.store != nil {
		status.JobsDBPath = d.store.Path()
	}
	return status
}

func (d *Daemon) jobCounts(ctx context.Context) map[jobs.Status]int {
	if d.store != nil {
		counts, err := d.store.Counts(ctx)
		if err == nil {
			return counts
		}
		d.logger.Warn("failed to count jobs", logging.Error(err))
	}
	counts := make(map[jobs.Status]int)
	list, err := d.registry.List(ctx)
	if err != nil {
		d.logger.Warn("failed to list jobs", logging.Error(err))
		return counts
	}
	for _, job := range list {
		counts[job.Status]++
	}
	return counts
}
