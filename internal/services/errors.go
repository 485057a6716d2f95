package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTranscription = errors.New("transcription failed")
	ErrTranslation   = errors.New("translation failed")
	ErrCompositing   = errors.New("compositing failed")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ValidationError rejects caller input before any job exists.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for the named field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: strings.TrimSpace(field), Message: strings.TrimSpace(message)}
}

// TranscriptionError reports a failed synchronous transcription, including
// translation failures that could not be recovered.
type TranscriptionError struct {
	Source string
	Err    error
}

func (e *TranscriptionError) Error() string {
	if e.Err == nil {
		return "transcription failed"
	}
	return e.Err.Error()
}

func (e *TranscriptionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTranscription}
	}
	return []error{ErrTranscription, e.Err}
}

// TranslationError reports a chunk whose primary and fallback requests both failed.
type TranslationError struct {
	Chunk    int
	Primary  error
	Fallback error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation of chunk %d failed: %v (fallback: %v)", e.Chunk, e.Primary, e.Fallback)
}

func (e *TranslationError) Unwrap() []error {
	errs := []error{ErrTranslation}
	if e.Primary != nil {
		errs = append(errs, e.Primary)
	}
	if e.Fallback != nil {
		errs = append(errs, e.Fallback)
	}
	return errs
}

// CompositingError carries the encoder's diagnostic output.
type CompositingError struct {
	Diagnostic string
	Err        error
}

func (e *CompositingError) Error() string {
	diagnostic := strings.TrimSpace(e.Diagnostic)
	if diagnostic == "" && e.Err != nil {
		diagnostic = e.Err.Error()
	}
	return fmt.Sprintf("ffmpeg error:\n%s\n", diagnostic)
}

func (e *CompositingError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCompositing}
	}
	return []error{ErrCompositing, e.Err}
}

// NotFoundError covers unknown job identifiers and missing output files.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	kind := strings.TrimSpace(e.Kind)
	if kind == "" {
		kind = "resource"
	}
	return fmt.Sprintf("%s not found", kind)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFoundError builds a NotFoundError for the given kind and key.
func NewNotFoundError(kind, key string) *NotFoundError {
	return &NotFoundError{Kind: kind, Key: key}
}

// HTTPStatus maps a classified error onto the status code returned to callers.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
