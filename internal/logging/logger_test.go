package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"subburn/internal/config"
	"subburn/internal/logging"
	"subburn/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (func() string, *logging.Options) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	opts := &logging.Options{
		Format:           format,
		Level:            level,
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	}
	read := func() string {
		content, err := os.ReadFile(logPath)
		if err != nil {
			t.Fatalf("read log file: %v", err)
		}
		return string(content)
	}
	return read, opts
}

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "subburn.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	read, opts := newFileLogger(t, "console", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	if strings.Contains(read(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", read())
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	read, opts := newFileLogger(t, "console", "debug")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")

	if !strings.Contains(read(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", read())
	}
}

func TestConsoleLoggerRendersComponentAndJob(t *testing.T) {
	read, opts := newFileLogger(t, "console", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "compositor")
	logger.Info("burn completed",
		logging.String(logging.FieldJobID, "3f2a9c1e-0000-4000-8000-000000000000"),
		logging.String(logging.FieldStage, "burning"),
		logging.Duration("elapsed", 1500*time.Millisecond),
	)

	out := read()
	for _, want := range []string{"INFO [compositor]", "Job 3f2a9c1e (burning)", "burn completed", "- elapsed: 1.5s"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got %q", want, out)
		}
	}
}

func TestNewInvalidFormatFails(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	read, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := context.Background()
	ctx = services.WithJobID(ctx, "job-123")
	ctx = services.WithStage(ctx, "transcribing")
	ctx = services.WithRequestID(ctx, "req-xyz")

	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	line := strings.TrimSpace(read())
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		t.Fatalf("decode json log %q: %v", line, err)
	}
	want := map[string]string{
		logging.FieldJobID:         "job-123",
		logging.FieldStage:         "transcribing",
		logging.FieldCorrelationID: "req-xyz",
		"msg":                      "contextual log",
		"level":                    "info",
	}
	for key, value := range want {
		if got, _ := record[key].(string); got != value {
			t.Fatalf("field %s = %q, want %q", key, got, value)
		}
	}
	if _, ok := record["ts"]; !ok {
		t.Fatal("expected ts field")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	read, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(*opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "translation padded", "translation_padded",
		logging.String(logging.FieldImpact, "some lines keep original text"),
	)

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(read())), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record[logging.FieldEventType] != "translation_padded" {
		t.Fatalf("unexpected event_type: %v", record[logging.FieldEventType])
	}
	if record[logging.FieldErrorHint] == nil {
		t.Fatal("expected default error_hint")
	}
	if record[logging.FieldImpact] != "some lines keep original text" {
		t.Fatalf("impact should not be overridden: %v", record[logging.FieldImpact])
	}
}

func TestPruneRunLogsKeepsActiveAndCurrent(t *testing.T) {
	dir := t.TempDir()
	past := time.Now().AddDate(0, 0, -10)
	stale := logging.RunLogPath(dir, past)
	pointed := logging.RunLogPath(dir, past.Add(time.Minute))
	active := logging.RunLogPath(dir, past.Add(2*time.Minute))
	recent := logging.RunLogPath(dir, time.Now())
	other := filepath.Join(dir, "notes.log")
	for _, path := range []string{stale, pointed, active, recent, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	for _, path := range []string{stale, pointed, active, other} {
		if err := os.Chtimes(path, past, past); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
	if err := os.Symlink(pointed, filepath.Join(dir, logging.CurrentLogName)); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	removed := logging.PruneRunLogs(logging.NewNop(), dir, 5, active)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale run log removed, stat err=%v", err)
	}
	for _, path := range []string{pointed, active, recent, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", filepath.Base(path), err)
		}
	}
}

func TestPruneRunLogsDisabled(t *testing.T) {
	dir := t.TempDir()
	path := logging.RunLogPath(dir, time.Now())
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	past := time.Now().AddDate(-1, 0, 0)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if removed := logging.PruneRunLogs(nil, dir, 0, ""); removed != 0 {
		t.Fatalf("removed = %d with retention disabled", removed)
	}
}

func TestRunLogPathUsesUTCStamp(t *testing.T) {
	started := time.Date(2026, 3, 4, 5, 6, 7, 8_000_000, time.FixedZone("x", 3600))
	got := filepath.Base(logging.RunLogPath("/logs", started))
	if got != "subburn-20260304T040607.008Z.log" {
		t.Fatalf("RunLogPath = %q", got)
	}
}
