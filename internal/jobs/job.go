package jobs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"subburn/internal/compositing"
	"subburn/internal/services"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusBurning Status = "burning"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// InterruptedMessage is recorded on jobs that were burning when the process stopped.
const InterruptedMessage = "interrupted by restart"

var (
	// ErrInvalidTransition is returned when a terminal job is updated again.
	ErrInvalidTransition = errors.New("invalid job status transition")
	// ErrDuplicateJob is returned when Create is called twice with one id.
	ErrDuplicateJob = errors.New("job already exists")
)

// Job is a snapshot of one compositing job.
type Job struct {
	ID         string    `json:"id"`
	Status     Status    `json:"status"`
	Transcript string    `json:"transcript"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	SourceName string    `json:"source_name,omitempty"`
	Language   string    `json:"language,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Terminal reports whether the job can no longer change.
func (j Job) Terminal() bool {
	return j.Status == StatusDone || j.Status == StatusError
}

// ParseStatus converts a stored status string.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusBurning:
		return StatusBurning, true
	case StatusDone:
		return StatusDone, true
	case StatusError:
		return StatusError, true
	}
	return "", false
}

func validTransition(from, to Status) bool {
	return from == StatusBurning && (to == StatusDone || to == StatusError)
}

func transitionError(id string, from, to Status) error {
	return fmt.Errorf("%w: job %s is %s, cannot become %s", ErrInvalidTransition, id, from, to)
}

func notFound(id string) error {
	return services.NewNotFoundError("job", id)
}

// CreateOption annotates a job at creation time.
type CreateOption func(*Job)

// WithSource records the uploaded file name.
func WithSource(name string) CreateOption {
	return func(j *Job) { j.SourceName = strings.TrimSpace(name) }
}

// WithLanguage records the requested caption language.
func WithLanguage(lang string) CreateOption {
	return func(j *Job) { j.Language = strings.TrimSpace(lang) }
}

func newJob(id, transcript string, now time.Time, opts []CreateOption) Job {
	job := Job{
		ID:         id,
		Status:     StatusBurning,
		Transcript: transcript,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&job)
		}
	}
	return job
}

// Registry stores jobs. Get returns a *services.NotFoundError for unknown
// ids; Complete and Fail return ErrInvalidTransition for terminal jobs.
type Registry interface {
	Create(ctx context.Context, id, transcript string, opts ...CreateOption) (Job, error)
	Get(ctx context.Context, id string) (Job, error)
	Complete(ctx context.Context, id, output string) error
	Fail(ctx context.Context, id, message string) error
	List(ctx context.Context) ([]Job, error)
}

// Apply records a compositing result on the job. Successful jobs store the
// output's base name, which is what the download endpoint accepts.
func Apply(ctx context.Context, reg Registry, id string, result compositing.Result) error {
	if result.Err != nil {
		return reg.Fail(ctx, id, result.Err.Error())
	}
	if strings.TrimSpace(result.Output) == "" {
		return reg.Fail(ctx, id, "compositing produced no output")
	}
	return reg.Complete(ctx, id, filepath.Base(result.Output))
}

// ActiveIDs returns the ids of jobs that are still burning.
func ActiveIDs(ctx context.Context, reg Registry) (map[string]struct{}, error) {
	list, err := reg.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make(map[string]struct{})
	for _, job := range list {
		if job.Status == StatusBurning {
			active[job.ID] = struct{}{}
		}
	}
	return active, nil
}
