package compositing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"subburn/internal/logging"
	"subburn/internal/media/ffprobe"
	"subburn/internal/services"
	"subburn/internal/subtitles"
	"subburn/internal/textutil"
)

// StageName labels log records and errors produced by this package.
const StageName = "compositing"

// maxDiagnosticLines bounds the ffmpeg stderr kept on failure.
const maxDiagnosticLines = 200

// Request identifies the inputs of one burn-in.
type Request struct {
	VideoPath    string
	SubtitlePath string
	OutputDir    string
	Language     string
}

// Result is the outcome of Burn. Exactly one of Output and Err is meaningful.
type Result struct {
	Output   string
	Err      error
	Warnings []string
	Elapsed  time.Duration
}

// OK reports whether the burn produced an output file.
func (r Result) OK() bool {
	return r.Err == nil
}

// CommandRunner executes a command and returns its captured stderr.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Prober inspects a media file.
type Prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Compositor runs ffmpeg to burn subtitles into videos.
type Compositor struct {
	opts   Options
	logger *slog.Logger
	runner CommandRunner
	probe  Prober
}

// New constructs a Compositor.
func New(opts Options, logger *slog.Logger) *Compositor {
	if strings.TrimSpace(opts.FFmpegBinary) == "" {
		opts.FFmpegBinary = "ffmpeg"
	}
	return &Compositor{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, StageName),
		runner: runCommand,
		probe:  ffprobe.Inspect,
	}
}

// WithCommandRunner replaces the ffmpeg runner (for testing).
func (c *Compositor) WithCommandRunner(runner CommandRunner) {
	if runner != nil {
		c.runner = runner
	}
}

// WithProber replaces the ffprobe inspection used for output verification.
func (c *Compositor) WithProber(probe Prober) {
	if probe != nil {
		c.probe = probe
	}
}

// OutputName returns <stem>.<lang>_burned.mp4 for the given video.
func OutputName(videoPath, lang string) string {
	return subtitles.Stem(videoPath) + "." + textutil.SanitizeFileName(lang) + "_burned.mp4"
}

// Burn composites req.SubtitlePath onto req.VideoPath.
func (c *Compositor) Burn(ctx context.Context, req Request) Result {
	started := time.Now()
	ctx = services.WithStage(ctx, StageName)
	logger := logging.WithContext(ctx, c.logger)

	output := filepath.Join(req.OutputDir, OutputName(req.VideoPath, req.Language))
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return c.failed(logger, started, "", fmt.Errorf("ensure output dir: %w", err))
	}

	args := BuildArgs(req.VideoPath, req.SubtitlePath, output, c.opts.Style, c.opts.Encoder)
	logger.Info("subtitle burn started",
		logging.String("input", req.VideoPath),
		logging.String("subtitles", req.SubtitlePath),
		logging.String("output", output),
		logging.String("command", c.opts.FFmpegBinary+" "+strings.Join(args, " ")),
	)

	stderr, err := c.runner(ctx, c.opts.FFmpegBinary, args...)
	if err != nil {
		_ = os.Remove(output)
		return c.failed(logger, started, tailLines(string(stderr), maxDiagnosticLines), err)
	}

	result := Result{Output: output}
	if c.opts.VerifyOutput {
		warnings, err := c.verify(ctx, output, req.SubtitlePath)
		if err != nil {
			return c.failed(logger, started, err.Error(), err)
		}
		result.Warnings = warnings
		for _, warning := range warnings {
			logging.WarnWithContext(logger, "subtitle check reported an issue", "subtitle_check",
				logging.String("check", warning),
				logging.String("subtitles", req.SubtitlePath),
				logging.String(logging.FieldImpact, "burned captions may be misaligned"),
			)
		}
	}

	result.Elapsed = time.Since(started)
	logger.Info("subtitle burn completed",
		logging.String("output", output),
		logging.Duration("elapsed", result.Elapsed),
	)
	return result
}

func (c *Compositor) verify(ctx context.Context, output, subtitlePath string) ([]string, error) {
	probe, err := c.probe(ctx, c.opts.FFprobeBinary, output)
	if err != nil {
		return nil, fmt.Errorf("verify output: %w", err)
	}
	if probe.VideoStreamCount() == 0 {
		return nil, errors.New("verify output: burned file has no video stream")
	}
	cues, err := subtitles.ParseFile(subtitlePath)
	if err != nil {
		return []string{"unparseable_subtitles: " + err.Error()}, nil
	}
	return subtitles.Inspect(cues, probe.DurationSeconds()), nil
}

func (c *Compositor) failed(logger *slog.Logger, started time.Time, diagnostic string, err error) Result {
	cerr := &services.CompositingError{Diagnostic: diagnostic, Err: err}
	logging.ErrorWithContext(logger, "subtitle burn failed", "compositing_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "inspect the job error for ffmpeg output; confirm ffmpeg was built with libass"),
	)
	return Result{Err: cerr, Elapsed: time.Since(started)}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

func tailLines(output string, maxLines int) string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return strings.Join(lines, "\n")
}
