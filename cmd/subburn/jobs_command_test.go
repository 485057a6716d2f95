package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"subburn/internal/api"
	"subburn/internal/daemon"
	"subburn/internal/jobs"
	"subburn/internal/testsupport"
)

func TestJobsListFallsBackToStore(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithPersistentJobs())

	store, err := jobs.Open(env.cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Create(ctx, "4f1c2a9e-0000-4000-8000-000000000001", "Hello", jobs.WithSource("talk.mp4"), jobs.WithLanguage("en")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Fail(ctx, "4f1c2a9e-0000-4000-8000-000000000001", "ffmpeg error:\nUnknown encoder\n"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "4f1c2a9e")
	requireContains(t, out, "talk.mp4")
	requireContains(t, out, "Unknown encoder")
}

func TestJobsListWithoutHistory(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"jobs"}, env.configPath); err == nil {
		t.Fatal("expected an error when no daemon runs and persistence is off")
	}
}

func TestJobsPrune(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithPersistentJobs())
	if err := os.MkdirAll(env.cfg.Paths.StorageDir, 0o755); err != nil {
		t.Fatalf("mkdir storage: %v", err)
	}
	stale := filepath.Join(env.cfg.Paths.StorageDir, "old_clip.mp4")
	if err := os.WriteFile(stale, []byte("data"), 0o644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}
	old := time.Now().AddDate(0, 0, -30)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	out, _, err := runCLI(t, []string{"jobs", "prune", "--days", "7"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs prune: %v", err)
	}
	requireContains(t, out, "Removed 0 job(s)")
	requireContains(t, out, "Removed 1 storage file(s), freed 4 B")
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be removed, got %v", stale, err)
	}
	if _, err := os.Stat(env.cfg.Jobs.DBPath); err != nil {
		t.Fatalf("job database must survive the sweep: %v", err)
	}

	if _, _, err := runCLI(t, []string{"jobs", "prune", "--days", "0"}, env.configPath); err == nil {
		t.Fatal("expected --days 0 to be rejected")
	}
}

func TestJobsPruneRefusesWhileDaemonRuns(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithPersistentJobs())
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	lock := flock.New(daemon.LockPath(env.cfg))
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = lock.Unlock() })

	store, err := jobs.Open(env.cfg)
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	ctx := context.Background()
	if _, err := store.Create(ctx, "finished", "Hello"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Complete(ctx, "finished", "finished_out.mp4"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, _, err = runCLI(t, []string{"jobs", "prune", "--days", "1"}, env.configPath)
	if err == nil {
		t.Fatal("expected prune to refuse while the daemon lock is held")
	}
	requireContains(t, err.Error(), "daemon is running")

	reopened, err := jobs.Open(env.cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.Get(ctx, "finished"); err != nil {
		t.Fatalf("finished job must survive: %v", err)
	}
}

func TestBuildJobRows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := buildJobRows([]api.JobSummary{
		{
			ID:         "0123456789abcdef",
			Status:     "done",
			SourceName: "talk.mp4",
			Language:   "fr",
			Output:     "0123456789abcdef_talk.fr_burned.mp4",
			UpdatedAt:  now.Add(-2 * time.Hour),
		},
		{
			ID:        "short",
			Status:    "error",
			Error:     "ffmpeg error:\nfirst\nlast line\n",
			UpdatedAt: now,
		},
	}, now)

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "01234567" {
		t.Fatalf("expected shortened id, got %q", rows[0][0])
	}
	if rows[0][3] != "French" || rows[1][3] != "Unknown" {
		t.Fatalf("unexpected language columns %q, %q", rows[0][3], rows[1][3])
	}
	if rows[0][4] != "0123456789abcdef_talk.fr_burned.mp4" {
		t.Fatalf("unexpected result column %q", rows[0][4])
	}
	if rows[0][5] != "2 hours ago" {
		t.Fatalf("unexpected updated column %q", rows[0][5])
	}
	if rows[1][0] != "short" || rows[1][4] != "last line" {
		t.Fatalf("unexpected error row %v", rows[1])
	}
}
