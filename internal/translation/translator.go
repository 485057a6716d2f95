package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"subburn/internal/language"
	"subburn/internal/logging"
	"subburn/internal/services"
	"subburn/internal/subtitles"
)

// DefaultChunkSize is the maximum number of lines sent per request.
const DefaultChunkSize = 80

// Completer sends a prompt to a translation model and returns its reply.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Report summarizes one Translate call.
type Report struct {
	Chunks         int
	Received       int
	Padded         int
	Surplus        int
	FallbackChunks int
}

// Translator translates segments chunk by chunk, sequentially.
type Translator struct {
	client    Completer
	chunkSize int
	logger    *slog.Logger
}

// New constructs a Translator. A non-positive chunkSize uses DefaultChunkSize.
func New(client Completer, chunkSize int, logger *slog.Logger) *Translator {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Translator{
		client:    client,
		chunkSize: chunkSize,
		logger:    logging.NewComponentLogger(logger, "translator"),
	}
}

// Translate returns a copy of segments whose Text is replaced by the
// translation into lang, with the prior text kept in OriginalText. Timings
// are never changed and the result always has len(segments) entries. An
// error is returned only when a chunk fails on both the primary and the
// fallback prompt; the input is left untouched in that case.
func (t *Translator) Translate(ctx context.Context, segments []subtitles.Segment, lang string) ([]subtitles.Segment, Report, error) {
	var report Report
	if t.client == nil {
		return nil, report, errors.New("translate: no completion client configured")
	}
	logger := logging.WithContext(ctx, t.logger)
	languageName := language.PromptName(lang)

	translated := make([]string, 0, len(segments))
	for start := 0; start < len(segments); start += t.chunkSize {
		end := min(start+t.chunkSize, len(segments))
		chunkIndex := start / t.chunkSize
		texts := make([]string, 0, end-start)
		for _, seg := range segments[start:end] {
			texts = append(texts, seg.Text)
		}

		lines, usedFallback, err := t.translateChunk(ctx, logger, chunkIndex, texts, languageName)
		if err != nil {
			return nil, report, err
		}
		report.Chunks++
		if usedFallback {
			report.FallbackChunks++
		}
		logger.Debug("translation chunk received",
			logging.Int("chunk", chunkIndex+1),
			logging.Int("sent_lines", len(texts)),
			logging.Int("received_lines", len(lines)),
			logging.Bool("fallback", usedFallback),
		)
		translated = append(translated, lines...)
	}
	report.Received = len(translated)

	out := make([]subtitles.Segment, len(segments))
	for i, seg := range segments {
		seg.OriginalText = seg.Text
		if i < len(translated) {
			seg.Text = translated[i]
		} else {
			report.Padded++
		}
		out[i] = seg
	}
	if len(translated) > len(segments) {
		report.Surplus = len(translated) - len(segments)
	}

	if report.Padded > 0 || report.Surplus > 0 {
		logging.WarnWithContext(logger, "translation line count mismatch; alignment may drift", "alignment_mismatch",
			logging.Int("expected_lines", len(segments)),
			logging.Int("received_lines", report.Received),
			logging.Int("padded_lines", report.Padded),
			logging.Int("discarded_lines", report.Surplus),
			logging.String(logging.FieldErrorHint, "the model merged, split, or dropped lines; try a smaller translation.chunk_size"),
			logging.String(logging.FieldImpact, "missing lines keep their original text and later lines may shift"),
		)
	}
	logger.Info("translation completed",
		logging.String("language", languageName),
		logging.Int("segments", len(segments)),
		logging.Int("chunks", report.Chunks),
		logging.Int("fallback_chunks", report.FallbackChunks),
	)
	return out, report, nil
}

func (t *Translator) translateChunk(ctx context.Context, logger *slog.Logger, chunkIndex int, texts []string, languageName string) ([]string, bool, error) {
	numbered := numberLines(texts)

	reply, primaryErr := t.complete(ctx, primaryPrompt(languageName, numbered))
	if primaryErr == nil {
		return parseReply(reply), false, nil
	}
	if ctx.Err() != nil {
		return nil, false, &services.TranslationError{Chunk: chunkIndex + 1, Primary: primaryErr, Fallback: ctx.Err()}
	}

	logging.WarnWithContext(logger, "translation request failed; retrying with simplified prompt", "translation_fallback",
		logging.Int("chunk", chunkIndex+1),
		logging.Error(primaryErr),
		logging.String(logging.FieldErrorHint, "check llm.api_key, llm.model, and provider status"),
		logging.String(logging.FieldImpact, "chunk is retried once with a shorter instruction"),
	)

	reply, fallbackErr := t.complete(ctx, fallbackPrompt(languageName, numbered))
	if fallbackErr != nil {
		logging.ErrorWithContext(logger, "translation fallback failed", "translation_failed",
			logging.Int("chunk", chunkIndex+1),
			logging.Error(fallbackErr),
			logging.String(logging.FieldErrorHint, "check llm.api_key, llm.model, and provider status"),
		)
		return nil, true, &services.TranslationError{Chunk: chunkIndex + 1, Primary: primaryErr, Fallback: fallbackErr}
	}
	return parseReply(reply), true, nil
}

func (t *Translator) complete(ctx context.Context, prompt string) (string, error) {
	reply, err := t.client.Complete(ctx, "", prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", fmt.Errorf("empty response from translation model")
	}
	return reply, nil
}
