package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"subburn/internal/compositing"
	"subburn/internal/fileutil"
	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/notifications"
	"subburn/internal/runner"
	"subburn/internal/services"
	"subburn/internal/textutil"
	"subburn/internal/transcription"
)

// DefaultLanguage is used when an upload names no target language.
const DefaultLanguage = "en"

// Transcriber produces subtitles and a transcript for a stored video.
type Transcriber interface {
	Run(ctx context.Context, videoPath, lang string) (transcription.Result, error)
}

// Burner composites subtitles into a video.
type Burner interface {
	Burn(ctx context.Context, req compositing.Request) compositing.Result
}

// Submitter accepts background tasks.
type Submitter interface {
	Submit(name string, task runner.Task) (*runner.Ticket, error)
}

// Deps holds the collaborators of a Pipeline. Notifier and Logger are optional.
type Deps struct {
	Transcriber Transcriber
	Burner      Burner
	Registry    jobs.Registry
	Pool        Submitter
	Notifier    notifications.Service
	StorageDir  string
	Logger      *slog.Logger
}

// Upload is a video received from a caller.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Language    string
	Mode        string
}

// Submission is returned once a job exists.
type Submission struct {
	JobID      string
	Transcript string
	InputPath  string
	Ticket     *runner.Ticket
}

// Pipeline wires transcription, the job registry, and background compositing.
type Pipeline struct {
	transcriber Transcriber
	burner      Burner
	registry    jobs.Registry
	pool        Submitter
	notifier    notifications.Service
	storageDir  string
	logger      *slog.Logger
	newID       func() string
}

// New validates deps and builds a Pipeline.
func New(deps Deps) (*Pipeline, error) {
	switch {
	case deps.Transcriber == nil:
		return nil, errors.New("pipeline: transcriber required")
	case deps.Burner == nil:
		return nil, errors.New("pipeline: burner required")
	case deps.Registry == nil:
		return nil, errors.New("pipeline: registry required")
	case deps.Pool == nil:
		return nil, errors.New("pipeline: pool required")
	case strings.TrimSpace(deps.StorageDir) == "":
		return nil, errors.New("pipeline: storage dir required")
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewNoop()
	}
	return &Pipeline{
		transcriber: deps.Transcriber,
		burner:      deps.Burner,
		registry:    deps.Registry,
		pool:        deps.Pool,
		notifier:    notifier,
		storageDir:  deps.StorageDir,
		logger:      logging.NewComponentLogger(deps.Logger, "pipeline"),
		newID:       uuid.NewString,
	}, nil
}

// Registry exposes the job registry for status lookups.
func (p *Pipeline) Registry() jobs.Registry {
	return p.registry
}

// StorageDir returns the directory holding inputs, subtitles, and outputs.
func (p *Pipeline) StorageDir() string {
	return p.storageDir
}

// Accept validates and stores an upload, then submits it.
func (p *Pipeline) Accept(ctx context.Context, upload Upload) (Submission, error) {
	if !strings.HasPrefix(strings.TrimSpace(upload.ContentType), "video") {
		return Submission{}, services.NewValidationError("", "Please upload a video file")
	}
	if upload.Body == nil {
		return Submission{}, services.NewValidationError("file", "upload body is empty")
	}
	if _, err := ParseMode(upload.Mode); err != nil {
		return Submission{}, err
	}
	lang := strings.TrimSpace(upload.Language)
	if lang == "" {
		lang = DefaultLanguage
	}

	id := p.newID()
	ctx = services.WithJobID(ctx, id)
	logger := logging.WithContext(ctx, p.logger)

	name := textutil.SanitizeUploadName(upload.Filename, "upload.mp4")
	inputPath := filepath.Join(p.storageDir, id+"_"+name)
	if err := os.MkdirAll(p.storageDir, 0o755); err != nil {
		return Submission{}, fmt.Errorf("ensure storage dir: %w", err)
	}
	written, err := fileutil.WriteStreamAtomic(inputPath, upload.Body, 0o644)
	if err != nil {
		return Submission{}, fmt.Errorf("store upload: %w", err)
	}
	logger.Info("upload stored",
		logging.String("source", upload.Filename),
		logging.String("path", inputPath),
		logging.String("size", humanize.IBytes(uint64(written))),
		logging.String("language", lang),
	)

	return p.Submit(ctx, id, inputPath, lang)
}

// Submit transcribes videoPath, creates job id, and queues compositing. The
// returned error is a TranscriptionError when no job was created.
func (p *Pipeline) Submit(ctx context.Context, id, videoPath, lang string) (Submission, error) {
	ctx = services.WithJobID(ctx, id)
	logger := logging.WithContext(ctx, p.logger)

	result, err := p.transcriber.Run(ctx, videoPath, lang)
	if err != nil {
		return Submission{}, err
	}

	source := strings.TrimPrefix(filepath.Base(videoPath), id+"_")
	if _, err := p.registry.Create(ctx, id, result.Transcript, jobs.WithSource(source), jobs.WithLanguage(lang)); err != nil {
		return Submission{}, fmt.Errorf("create job: %w", err)
	}
	sub := Submission{JobID: id, Transcript: result.Transcript, InputPath: videoPath}

	req := compositing.Request{
		VideoPath:    videoPath,
		SubtitlePath: result.SubtitlePath,
		OutputDir:    p.storageDir,
		Language:     lang,
	}
	ticket, err := p.pool.Submit("burn "+id, func(taskCtx context.Context) error {
		return p.compose(services.WithJobID(taskCtx, id), id, source, lang, req)
	})
	if err != nil {
		logging.ErrorWithContext(logger, "compositing could not be queued", "queue_rejected",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "raise compositing.queue_size or compositing.workers"),
		)
		if failErr := p.registry.Fail(ctx, id, "compositing not queued: "+err.Error()); failErr != nil {
			logger.Warn("failed to record queue rejection", logging.Error(failErr))
		}
		return sub, nil
	}
	sub.Ticket = ticket
	logger.Info("job created; compositing queued",
		logging.String("subtitle_path", result.SubtitlePath),
		logging.Bool("translated", result.Translated),
	)
	return sub, nil
}

func (p *Pipeline) compose(ctx context.Context, id, source, lang string, req compositing.Request) error {
	logger := logging.WithContext(ctx, p.logger)
	result := p.burner.Burn(ctx, req)
	if err := jobs.Apply(ctx, p.registry, id, result); err != nil {
		logging.ErrorWithContext(logger, "failed to record compositing result", "registry_update_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "job status may not reflect the compositing outcome"),
		)
		return err
	}

	event := notifications.EventJobCompleted
	payload := notifications.Payload{"jobID": id, "source": source, "language": lang}
	if result.Err != nil {
		event = notifications.EventJobFailed
		payload["error"] = result.Err.Error()
	} else {
		payload["output"] = result.Output
	}
	if err := p.notifier.Publish(ctx, event, payload); err != nil {
		logger.Warn("notification failed", logging.Error(err), logging.String("event", string(event)))
	}
	return result.Err
}
