package testsupport

import (
	"context"
	"testing"

	"subburn/internal/config"
	"subburn/internal/jobs"
)

// MustOpenStore opens a jobs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a burning job in reg for tests.
func NewJob(t testing.TB, reg jobs.Registry, id, transcript string) jobs.Job {
	t.Helper()

	job, err := reg.Create(context.Background(), id, transcript)
	if err != nil {
		t.Fatalf("registry.Create: %v", err)
	}
	return job
}
