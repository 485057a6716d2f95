package services_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"subburn/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "compositing", "ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"compositing", "ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestTypedErrorsCarryMarkers(t *testing.T) {
	cause := errors.New("rate limited")
	translationErr := &services.TranslationError{Chunk: 2, Primary: cause, Fallback: errors.New("empty response")}
	transcriptionErr := &services.TranscriptionError{Source: "clip.mp4", Err: translationErr}

	if !errors.Is(transcriptionErr, services.ErrTranscription) {
		t.Fatal("expected transcription marker")
	}
	if !errors.Is(transcriptionErr, services.ErrTranslation) {
		t.Fatal("expected translation marker through the chain")
	}
	if !errors.Is(transcriptionErr, cause) {
		t.Fatal("expected primary cause through the chain")
	}
	var asTranslation *services.TranslationError
	if !errors.As(transcriptionErr, &asTranslation) || asTranslation.Chunk != 2 {
		t.Fatalf("expected TranslationError for chunk 2, got %#v", asTranslation)
	}
}

func TestCompositingErrorMessage(t *testing.T) {
	err := &services.CompositingError{Diagnostic: "Invalid data found when processing input\n"}
	if got, want := err.Error(), "ffmpeg error:\nInvalid data found when processing input\n"; got != want {
		t.Fatalf("unexpected message\n got: %q\nwant: %q", got, want)
	}
	if !errors.Is(err, services.ErrCompositing) {
		t.Fatal("expected compositing marker")
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", services.NewValidationError("file", "Please upload a video file"), http.StatusBadRequest},
		{"not found", services.NewNotFoundError("job", "abc"), http.StatusNotFound},
		{"transcription", &services.TranscriptionError{Err: errors.New("asr")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.HTTPStatus(tc.err); got != tc.want {
				t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	if got := services.NewNotFoundError("job", "x").Error(); got != "job not found" {
		t.Fatalf("unexpected message %q", got)
	}
}
