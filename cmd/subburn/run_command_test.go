package main

import (
	"bytes"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subburn/internal/jobs"
)

type testHandler struct{}

func (testHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

func TestRunRejectsMissingVideo(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"run", filepath.Join(env.baseDir, "absent.mp4")}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "stat video") {
		t.Fatalf("expected stat error, got %v", err)
	}
}

func TestRunRejectsDubbing(t *testing.T) {
	env := setupCLITestEnv(t)
	video := filepath.Join(env.baseDir, "clip.mp4")
	if err := os.WriteFile(video, []byte("x"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	if _, _, err := runCLI(t, []string{"run", video, "--mode", "dub"}, env.configPath); err == nil {
		t.Fatal("expected dub mode to be rejected")
	}
}

func TestReportRun(t *testing.T) {
	storage := t.TempDir()
	if err := os.WriteFile(filepath.Join(storage, "a_clip.en_burned.mp4"), make([]byte, 2048), 0o644); err != nil {
		t.Fatalf("write output: %v", err)
	}

	var out bytes.Buffer
	if err := reportRun(&out, jobs.Job{ID: "a", Status: jobs.StatusDone, Output: "a_clip.en_burned.mp4"}, storage); err != nil {
		t.Fatalf("reportRun done: %v", err)
	}
	requireContains(t, out.String(), "Done: "+filepath.Join(storage, "a_clip.en_burned.mp4")+" (2.0 KiB)")

	err := reportRun(&out, jobs.Job{ID: "b", Status: jobs.StatusError, Error: "ffmpeg error:\nboom\n"}, storage)
	if err == nil || err.Error() != "ffmpeg error:\nboom" {
		t.Fatalf("unexpected error %v", err)
	}

	if err := reportRun(&out, jobs.Job{ID: "c", Status: jobs.StatusBurning}, storage); err == nil {
		t.Fatal("expected burning job to be reported as unfinished")
	}
}
