package main

import (
	"context"
	"strings"
	"testing"

	"subburn/internal/daemon"
	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/runner"
)

func TestStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status", "--skip-llm"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon ==")
	requireContains(t, out, "not running")
	requireContains(t, out, "FFmpeg:")
	requireContains(t, out, "Storage directory:")
	requireContains(t, out, "[OK] Disabled")
	requireContains(t, out, "Storage usage:")
	if strings.Contains(out, "Translation LLM") {
		t.Fatalf("expected LLM check to be skipped:\n%s", out)
	}
}

func TestStatusWithRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Paths.APIBind = "127.0.0.1:0"

	registry := jobs.NewMemory()
	if _, err := registry.Create(context.Background(), "job-1", "Hello"); err != nil {
		t.Fatalf("Create: %v", err)
	}
	d, err := daemon.New(env.cfg, logging.NewNop(), daemon.Options{
		Handler:  testHandler{},
		Pool:     runner.NewPool(2, 4, nil),
		Registry: registry,
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)

	env.cfg.Paths.APIBind = d.Address()
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"status", "--skip-llm"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "running (pid")
	requireContains(t, out, "0/2 workers busy")
	requireContains(t, out, "Jobs burning:")
}

func TestRenderStatusLine(t *testing.T) {
	plain := renderStatusLine("FFmpeg", statusOK, "/usr/bin/ffmpeg", false)
	if !strings.Contains(plain, "FFmpeg:") || !strings.HasSuffix(plain, "[OK] /usr/bin/ffmpeg") {
		t.Fatalf("unexpected plain line %q", plain)
	}
	colored := renderStatusLine("FFprobe", statusWarn, "", true)
	if !strings.HasPrefix(colored, ansiYellow) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected yellow line, got %q", colored)
	}
	header := renderSectionHeader(" Daemon ", false)
	if len(header) != 2 || header[0] != "== Daemon ==" || header[1] != strings.Repeat("-", len(header[0])) {
		t.Fatalf("unexpected header %v", header)
	}
}
