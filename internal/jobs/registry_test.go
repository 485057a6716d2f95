package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"subburn/internal/compositing"
	"subburn/internal/jobs"
	"subburn/internal/services"
	"subburn/internal/testsupport"
)

func registries(t *testing.T) map[string]jobs.Registry {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithPersistentJobs())
	return map[string]jobs.Registry{
		"memory": jobs.NewMemory(),
		"sqlite": testsupport.MustOpenStore(t, cfg),
	}
}

func TestRegistryLifecycle(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			job, err := reg.Create(ctx, "job-1", "hello\nworld", jobs.WithSource("talk.mp4"), jobs.WithLanguage("es"))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if job.Status != jobs.StatusBurning || job.Terminal() {
				t.Fatalf("new job should be burning, got %+v", job)
			}

			got, err := reg.Get(ctx, "job-1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Transcript != "hello\nworld" || got.SourceName != "talk.mp4" || got.Language != "es" {
				t.Fatalf("unexpected job %+v", got)
			}

			if err := reg.Complete(ctx, "job-1", "/storage/talk.es_burned.mp4"); err != nil {
				t.Fatalf("Complete: %v", err)
			}
			got, _ = reg.Get(ctx, "job-1")
			if got.Status != jobs.StatusDone || got.Output != "/storage/talk.es_burned.mp4" || got.Error != "" {
				t.Fatalf("unexpected completed job %+v", got)
			}
		})
	}
}

func TestRegistryRejectsSecondTransition(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			testsupport.NewJob(t, reg, "job-2", "")
			if err := reg.Fail(ctx, "job-2", "ffmpeg error"); err != nil {
				t.Fatalf("Fail: %v", err)
			}
			if err := reg.Complete(ctx, "job-2", "out.mp4"); !errors.Is(err, jobs.ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			if err := reg.Fail(ctx, "job-2", "again"); !errors.Is(err, jobs.ErrInvalidTransition) {
				t.Fatalf("expected ErrInvalidTransition, got %v", err)
			}
			got, _ := reg.Get(ctx, "job-2")
			if got.Status != jobs.StatusError || got.Error != "ffmpeg error" || got.Output != "" {
				t.Fatalf("terminal job changed: %+v", got)
			}
		})
	}
}

func TestRegistryUnknownAndDuplicate(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := reg.Get(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}
			if err := reg.Complete(ctx, "missing", "x"); !errors.Is(err, services.ErrNotFound) {
				t.Fatalf("expected not found on complete, got %v", err)
			}
			testsupport.NewJob(t, reg, "dup", "")
			if _, err := reg.Create(ctx, "dup", ""); !errors.Is(err, jobs.ErrDuplicateJob) {
				t.Fatalf("expected duplicate error, got %v", err)
			}
			if _, err := reg.Create(ctx, "  ", ""); err == nil {
				t.Fatal("expected error for empty id")
			}
		})
	}
}

func TestRegistryListNewestFirst(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			for i := 1; i <= 3; i++ {
				testsupport.NewJob(t, reg, fmt.Sprintf("job-%d", i), "")
				time.Sleep(2 * time.Millisecond)
			}
			list, err := reg.List(context.Background())
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(list) != 3 || list[0].ID != "job-3" || list[2].ID != "job-1" {
				t.Fatalf("unexpected order: %+v", list)
			}
		})
	}
}

func TestMemoryConcurrentTransitionsSucceedOnce(t *testing.T) {
	reg := jobs.NewMemory()
	testsupport.NewJob(t, reg, "race", "")

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			if i%2 == 0 {
				err = reg.Complete(context.Background(), "race", "out.mp4")
			} else {
				err = reg.Fail(context.Background(), "race", "boom")
			}
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if successes != 1 {
		t.Fatalf("expected exactly one successful transition, got %d", successes)
	}
}

func TestApplyMapsResult(t *testing.T) {
	reg := jobs.NewMemory()
	ctx := context.Background()
	testsupport.NewJob(t, reg, "ok", "")
	testsupport.NewJob(t, reg, "bad", "")
	testsupport.NewJob(t, reg, "empty", "")

	if err := jobs.Apply(ctx, reg, "ok", compositing.Result{Output: "/out/ok.mp4"}); err != nil {
		t.Fatalf("Apply ok: %v", err)
	}
	failure := &services.CompositingError{Diagnostic: "Invalid data found"}
	if err := jobs.Apply(ctx, reg, "bad", compositing.Result{Err: failure}); err != nil {
		t.Fatalf("Apply bad: %v", err)
	}
	if err := jobs.Apply(ctx, reg, "empty", compositing.Result{}); err != nil {
		t.Fatalf("Apply empty: %v", err)
	}

	ok, _ := reg.Get(ctx, "ok")
	bad, _ := reg.Get(ctx, "bad")
	empty, _ := reg.Get(ctx, "empty")
	if ok.Status != jobs.StatusDone || ok.Output != "ok.mp4" {
		t.Fatalf("unexpected ok job %+v", ok)
	}
	if bad.Status != jobs.StatusError || bad.Error != "ffmpeg error:\nInvalid data found\n" {
		t.Fatalf("unexpected failed job %+v", bad)
	}
	if empty.Status != jobs.StatusError {
		t.Fatalf("empty result should fail the job, got %+v", empty)
	}
}
