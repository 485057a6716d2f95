package transcription

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"subburn/internal/logging"
	"subburn/internal/services"
	"subburn/internal/subtitles"
	"subburn/internal/translation"
)

// StageName labels log records and errors produced by this package.
const StageName = "transcription"

// Recognizer turns a media file into time-coded segments.
type Recognizer interface {
	Recognize(ctx context.Context, videoPath, model string) ([]subtitles.Segment, error)
}

// Translator rewrites segment text into a target language without changing
// the number or timing of segments.
type Translator interface {
	Translate(ctx context.Context, segments []subtitles.Segment, lang string) ([]subtitles.Segment, translation.Report, error)
}

// Result is the outcome of a successful Run.
type Result struct {
	Segments     []subtitles.Segment
	SubtitlePath string
	Transcript   string
	Translated   bool
}

// Stage wires a recognizer and translator to the subtitle writer.
type Stage struct {
	recognizer Recognizer
	translator Translator
	outputDir  string
	model      string
	logger     *slog.Logger
}

// NewStage constructs a Stage writing subtitles into outputDir.
func NewStage(recognizer Recognizer, translator Translator, outputDir, model string, logger *slog.Logger) *Stage {
	return &Stage{
		recognizer: recognizer,
		translator: translator,
		outputDir:  outputDir,
		model:      strings.TrimSpace(model),
		logger:     logging.NewComponentLogger(logger, StageName),
	}
}

// Run recognizes speech in videoPath, translates it into lang, and writes
// <stem>.<lang>.srt. When the recognizer yields no speech the translation
// step is skipped and the untranslated segments are written under the same
// name.
func (s *Stage) Run(ctx context.Context, videoPath, lang string) (Result, error) {
	ctx = services.WithStage(ctx, StageName)
	logger := logging.WithContext(ctx, s.logger)
	if s.recognizer == nil {
		return Result{}, s.fail(videoPath, errors.New("no speech recognizer configured"))
	}

	started := time.Now()
	logger.Info("transcription started",
		logging.String("source", videoPath),
		logging.String("language", lang),
		logging.String("model", s.model),
	)

	segments, err := s.recognizer.Recognize(ctx, videoPath, s.model)
	if err != nil {
		logging.ErrorWithContext(logger, "speech recognition failed", "asr_failed",
			logging.String("source", videoPath),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'subburn status' to confirm uvx and ffmpeg are installed"),
		)
		return Result{}, s.fail(videoPath, err)
	}
	logger.Info("speech recognized", logging.Int("segments", len(segments)))

	result := Result{SubtitlePath: subtitles.SubtitlePath(s.outputDir, videoPath, lang)}
	if subtitles.AllBlank(segments) {
		logging.WarnWithContext(logger, "no speech found; writing untranslated subtitles", "untranslated_subtitles",
			logging.String("subtitle_path", result.SubtitlePath),
			logging.Int("segments", len(segments)),
			logging.String(logging.FieldErrorHint, "the file name carries the requested language even though nothing was translated"),
			logging.String(logging.FieldImpact, "subtitle file is empty or blank"),
		)
		result.Segments = segments
	} else {
		if s.translator == nil {
			return Result{}, s.fail(videoPath, errors.New("no translator configured"))
		}
		translated, report, err := s.translator.Translate(ctx, segments, lang)
		if err != nil {
			return Result{}, s.fail(videoPath, err)
		}
		result.Segments = translated
		result.Translated = true
		logger.Debug("translation report",
			logging.Int("chunks", report.Chunks),
			logging.Int("received_lines", report.Received),
			logging.Int("padded_lines", report.Padded),
		)
	}

	if err := subtitles.Write(result.SubtitlePath, result.Segments); err != nil {
		return Result{}, s.fail(videoPath, err)
	}
	result.Transcript = subtitles.Transcript(result.Segments)

	logger.Info("subtitles written",
		logging.String("subtitle_path", result.SubtitlePath),
		logging.Int("segments", len(result.Segments)),
		logging.Bool("translated", result.Translated),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

func (s *Stage) fail(videoPath string, err error) error {
	return &services.TranscriptionError{Source: videoPath, Err: err}
}
