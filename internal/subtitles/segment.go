package subtitles

import (
	"fmt"
	"math"
	"strings"
)

// Segment is a time-coded span of speech. Start and End are seconds from the
// beginning of the media. OriginalText keeps the recognizer's text after
// translation replaces Text.
type Segment struct {
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	Text         string  `json:"text"`
	OriginalText string  `json:"original_text,omitempty"`
}

// NewSegment builds a validated Segment.
func NewSegment(start, end float64, text string) (Segment, error) {
	seg := Segment{Start: start, End: end, Text: text}
	if err := seg.Validate(); err != nil {
		return Segment{}, err
	}
	return seg, nil
}

// Validate checks that the segment's timing is finite, non-negative, and ordered.
func (s Segment) Validate() error {
	if math.IsNaN(s.Start) || math.IsInf(s.Start, 0) || math.IsNaN(s.End) || math.IsInf(s.End, 0) {
		return fmt.Errorf("segment timing must be finite (start=%v end=%v)", s.Start, s.End)
	}
	if s.Start < 0 {
		return fmt.Errorf("segment start %.3f must be >= 0", s.Start)
	}
	if s.End < s.Start {
		return fmt.Errorf("segment end %.3f precedes start %.3f", s.End, s.Start)
	}
	return nil
}

// Duration returns End minus Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// AllBlank reports whether no segment carries non-whitespace text.
func AllBlank(segments []Segment) bool {
	for _, seg := range segments {
		if strings.TrimSpace(seg.Text) != "" {
			return false
		}
	}
	return true
}

// Transcript joins segment texts with newlines, one line per segment.
func Transcript(segments []Segment) string {
	lines := make([]string, len(segments))
	for i, seg := range segments {
		lines[i] = seg.Text
	}
	return strings.Join(lines, "\n")
}
