package jobs

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"subburn/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const jobColumns = "id, status, transcript, output, error_message, source_name, language, created_at, updated_at"

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store is a Registry backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open connects to the jobs database configured in cfg.Jobs.DBPath and
// creates the schema when needed.
func Open(cfg *config.Config) (*Store, error) {
	path := strings.TrimSpace(cfg.Jobs.DBPath)
	if path == "" {
		path = filepath.Join(cfg.Paths.StorageDir, "jobs.db")
	}
	return OpenPath(path)
}

// OpenPath connects to the SQLite database at path.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure jobs db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{
		db:   db,
		path: path,
		now:  func() time.Time { return time.Now().UTC() },
	}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Create(ctx context.Context, id, transcript string, opts ...CreateOption) (Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Job{}, fmt.Errorf("create job: empty id")
	}
	job := newJob(id, transcript, s.now(), opts)
	stamp := job.CreatedAt.Format(timeLayout)
	res, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (id, status, transcript, source_name, language, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(id) DO NOTHING`,
		job.ID, job.Status, job.Transcript,
		nullableString(job.SourceName), nullableString(job.Language),
		stamp, stamp,
	)
	if err != nil {
		return Job{}, fmt.Errorf("insert job: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Job{}, fmt.Errorf("%w: %s", ErrDuplicateJob, id)
	}
	return job, nil
}

func (s *Store) Get(ctx context.Context, id string) (Job, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, notFound(id)
	}
	if err != nil {
		return Job{}, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (s *Store) Complete(ctx context.Context, id, output string) error {
	return s.transition(ctx, id, StatusDone, "output", output)
}

func (s *Store) Fail(ctx context.Context, id, message string) error {
	return s.transition(ctx, id, StatusError, "error_message", message)
}

// transition updates a burning job in one statement so two concurrent
// updates cannot both succeed.
func (s *Store) transition(ctx context.Context, id string, to Status, column, value string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, `+column+` = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, value, s.now().Format(timeLayout), id, StatusBurning,
	)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return transitionError(id, current.Status, to)
}

// List returns every job, newest first.
func (s *Store) List(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT `+jobColumns+` FROM jobs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()
	var jobs []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Counts returns the number of jobs in each status.
func (s *Store) Counts(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()
	counts := make(map[Status]int)
	for rows.Next() {
		var (
			raw   string
			count int
		)
		if err := rows.Scan(&raw, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		if status, ok := ParseStatus(raw); ok {
			counts[status] = count
		}
	}
	return counts, rows.Err()
}

// RecoverInterrupted fails every job still burning. Compositing does not
// survive a restart, so such jobs would otherwise never reach a terminal status.
func (s *Store) RecoverInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET status = ?, error_message = ?, updated_at = ? WHERE status = ?`,
		StatusError, InterruptedMessage, s.now().Format(timeLayout), StatusBurning,
	)
	if err != nil {
		return 0, fmt.Errorf("recover interrupted jobs: %w", err)
	}
	return res.RowsAffected()
}

// Prune removes terminal jobs last updated before cutoff.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM jobs WHERE status IN (?, ?) AND updated_at < ?`,
		StatusDone, StatusError, cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune jobs: %w", err)
	}
	return res.RowsAffected()
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (Job, error) {
	var (
		id         string
		status     string
		transcript string
		output     sql.NullString
		errMessage sql.NullString
		sourceName sql.NullString
		language   sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&id, &status, &transcript, &output, &errMessage, &sourceName, &language, &createdRaw, &updatedRaw); err != nil {
		return Job{}, err
	}
	parsed, ok := ParseStatus(status)
	if !ok {
		return Job{}, fmt.Errorf("job %s has unknown status %q", id, status)
	}
	return Job{
		ID:         id,
		Status:     parsed,
		Transcript: transcript,
		Output:     output.String,
		Error:      errMessage.String,
		SourceName: sourceName.String,
		Language:   language.String,
		CreatedAt:  parseTime(createdRaw),
		UpdatedAt:  parseTime(updatedRaw),
	}, nil
}

func parseTime(raw string) time.Time {
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}
