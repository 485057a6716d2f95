package transcription

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subburn/internal/services"
	"subburn/internal/subtitles"
	"subburn/internal/translation"
)

type fakeRecognizer struct {
	segments []subtitles.Segment
	err      error
	model    string
}

func (f *fakeRecognizer) Recognize(_ context.Context, _ string, model string) ([]subtitles.Segment, error) {
	f.model = model
	return f.segments, f.err
}

type fakeTranslator struct {
	calls int
	err   error
}

func (f *fakeTranslator) Translate(_ context.Context, segments []subtitles.Segment, lang string) ([]subtitles.Segment, translation.Report, error) {
	f.calls++
	if f.err != nil {
		return nil, translation.Report{}, f.err
	}
	out := make([]subtitles.Segment, len(segments))
	for i, seg := range segments {
		seg.OriginalText = seg.Text
		seg.Text = lang + ":" + seg.Text
		out[i] = seg
	}
	return out, translation.Report{Chunks: 1, Received: len(segments)}, nil
}

func segment(t *testing.T, start, end float64, text string) subtitles.Segment {
	t.Helper()
	seg, err := subtitles.NewSegment(start, end, text)
	if err != nil {
		t.Fatalf("NewSegment: %v", err)
	}
	return seg
}

func TestRunTranslatesAndWritesSubtitles(t *testing.T) {
	dir := t.TempDir()
	recognizer := &fakeRecognizer{segments: []subtitles.Segment{
		segment(t, 0, 1.5, "Hello"),
		segment(t, 1.5, 3, "World"),
	}}
	translator := &fakeTranslator{}
	stage := NewStage(recognizer, translator, dir, "base", nil)

	result, err := stage.Run(context.Background(), "/uploads/abc_talk.mp4", "es")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if recognizer.model != "base" {
		t.Fatalf("expected model base, got %q", recognizer.model)
	}
	if !result.Translated || translator.calls != 1 {
		t.Fatalf("expected translation, got %+v", result)
	}
	if want := filepath.Join(dir, "abc_talk.es.srt"); result.SubtitlePath != want {
		t.Fatalf("subtitle path = %q, want %q", result.SubtitlePath, want)
	}
	if result.Transcript != "es:Hello\nes:World" {
		t.Fatalf("unexpected transcript %q", result.Transcript)
	}
	data, err := os.ReadFile(result.SubtitlePath)
	if err != nil {
		t.Fatalf("read srt: %v", err)
	}
	want := "1\n00:00:00,000 --> 00:00:01,500\nes:Hello\n\n2\n00:00:01,500 --> 00:00:03,000\nes:World\n\n"
	if string(data) != want {
		t.Fatalf("unexpected srt:\n%s", data)
	}
}

func TestRunSkipsTranslationWhenNoSpeech(t *testing.T) {
	for name, segments := range map[string][]subtitles.Segment{
		"none":  nil,
		"blank": {segment(t, 0, 1, "   "), segment(t, 1, 2, "")},
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			translator := &fakeTranslator{}
			stage := NewStage(&fakeRecognizer{segments: segments}, translator, dir, "base", nil)

			result, err := stage.Run(context.Background(), filepath.Join(dir, "clip.mov"), "fr")
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if result.Translated || translator.calls != 0 {
				t.Fatalf("translator should not run: %+v", result)
			}
			if filepath.Base(result.SubtitlePath) != "clip.fr.srt" {
				t.Fatalf("unexpected subtitle path %q", result.SubtitlePath)
			}
			data, err := os.ReadFile(result.SubtitlePath)
			if err != nil {
				t.Fatalf("read srt: %v", err)
			}
			if got := strings.Count(string(data), " --> "); got != len(segments) {
				t.Fatalf("expected %d blocks, got %d", len(segments), got)
			}
		})
	}
}

func TestRunWrapsRecognizerFailure(t *testing.T) {
	cause := errors.New("model load failed")
	stage := NewStage(&fakeRecognizer{err: cause}, &fakeTranslator{}, t.TempDir(), "base", nil)

	_, err := stage.Run(context.Background(), "video.mp4", "en")
	var terr *services.TranscriptionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TranscriptionError, got %v", err)
	}
	if !errors.Is(err, services.ErrTranscription) || !errors.Is(err, cause) {
		t.Fatalf("error chain incomplete: %v", err)
	}
}

func TestRunWrapsTranslationFailure(t *testing.T) {
	dir := t.TempDir()
	cause := &services.TranslationError{Chunk: 1, Primary: errors.New("a"), Fallback: errors.New("b")}
	stage := NewStage(&fakeRecognizer{segments: []subtitles.Segment{segment(t, 0, 1, "hi")}}, &fakeTranslator{err: cause}, dir, "base", nil)

	_, err := stage.Run(context.Background(), filepath.Join(dir, "clip.mp4"), "ja")
	if !errors.Is(err, services.ErrTranscription) || !errors.Is(err, services.ErrTranslation) {
		t.Fatalf("expected transcription and translation markers, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "clip.ja.srt")); !os.IsNotExist(statErr) {
		t.Fatalf("no subtitle file should be written on failure, stat err=%v", statErr)
	}
}
