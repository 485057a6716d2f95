package pipeline

import (
	"strings"

	"subburn/internal/services"
)

// Mode selects what the pipeline produces.
type Mode string

const (
	// ModeSubtitle burns translated captions into the video.
	ModeSubtitle Mode = "sub"
	// ModeDub would replace the audio with synthesized speech. It is
	// recognized but not implemented.
	ModeDub Mode = "dub"
)

// ParseMode validates a mode string. Empty selects ModeSubtitle.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeSubtitle:
		return ModeSubtitle, nil
	case ModeDub:
		return "", services.NewValidationError("mode", "dubbing is not supported")
	default:
		return "", services.NewValidationError("mode", "mode must be 'sub' or 'dub'")
	}
}
