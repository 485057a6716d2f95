package jobs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Registry. Records are stored and returned by value
// so readers never observe a partially updated job.
type Memory struct {
	mu   sync.RWMutex
	jobs map[string]Job
	now  func() time.Time
}

// NewMemory returns an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{
		jobs: make(map[string]Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) Create(_ context.Context, id, transcript string, opts ...CreateOption) (Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Job{}, fmt.Errorf("create job: empty id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.jobs[id]; exists {
		return Job{}, fmt.Errorf("%w: %s", ErrDuplicateJob, id)
	}
	job := newJob(id, transcript, m.now(), opts)
	m.jobs[id] = job
	return job, nil
}

func (m *Memory) Get(_ context.Context, id string) (Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, notFound(id)
	}
	return job, nil
}

func (m *Memory) Complete(_ context.Context, id, output string) error {
	return m.transition(id, StatusDone, func(j *Job) { j.Output = output })
}

func (m *Memory) Fail(_ context.Context, id, message string) error {
	return m.transition(id, StatusError, func(j *Job) { j.Error = message })
}

func (m *Memory) transition(id string, to Status, mutate func(*Job)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return notFound(id)
	}
	if !validTransition(job.Status, to) {
		return transitionError(id, job.Status, to)
	}
	job.Status = to
	job.UpdatedAt = m.now()
	mutate(&job)
	m.jobs[id] = job
	return nil
}

// List returns every job, newest first.
func (m *Memory) List(_ context.Context) ([]Job, error) {
	m.mu.RLock()
	out := make([]Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, job)
	}
	m.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(jobs []Job) {
	sort.SliceStable(jobs, func(i, k int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[k].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[k].CreatedAt)
		}
		return jobs[i].ID < jobs[k].ID
	})
}
