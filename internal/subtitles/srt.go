package subtitles

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"subburn/internal/fileutil"
	"subburn/internal/textutil"
)

// Cue is one parsed SRT block.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm. Milliseconds are truncated,
// not rounded, and hours grow past two digits rather than wrapping.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	ms := int64(seconds * 1000)
	hours := ms / 3_600_000
	ms -= hours * 3_600_000
	minutes := ms / 60_000
	ms -= minutes * 60_000
	secs := ms / 1000
	ms -= secs * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, ms)
}

// Render serializes segments into SRT text. Indices start at 1 and text is
// trimmed of surrounding whitespace; an empty slice renders as "".
func Render(segments []Segment) string {
	var b strings.Builder
	for i, seg := range segments {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(seg.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(seg.End))
		b.WriteByte('\n')
		b.WriteString(strings.TrimSpace(seg.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

// Write renders segments and atomically replaces path with the result.
func Write(path string, segments []Segment) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure subtitle dir: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, []byte(Render(segments)), 0o644); err != nil {
		return fmt.Errorf("write srt: %w", err)
	}
	return nil
}

// SubtitlePath returns <dir>/<stem>.<lang>.srt for the given video.
func SubtitlePath(dir, videoPath, lang string) string {
	return filepath.Join(dir, Stem(videoPath)+"."+textutil.SanitizeFileName(lang)+".srt")
}

// Stem returns the video's base name without its final extension.
func Stem(videoPath string) string {
	base := filepath.Base(videoPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ParseTimestamp parses HH:MM:SS,mmm (or HH:MM:SS.mmm) into seconds.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	clock, millisText, ok := strings.Cut(strings.ReplaceAll(value, ".", ","), ",")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(millisText)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || seconds < 0 || seconds > 59 || millis < 0 || millis > 999 {
		return 0, fmt.Errorf("timestamp out of range %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// Parse reads SRT content into cues. Blank text lines inside a block are
// preserved as an empty Text so block counts survive a round trip.
func Parse(content string) ([]Cue, error) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimPrefix(content, "\ufeff")
	lines := strings.Split(content, "\n")

	var cues []Cue
	for i := 0; i < len(lines); {
		if strings.TrimSpace(lines[i]) == "" {
			i++
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[i]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid cue index %q", i+1, lines[i])
		}
		if i+1 >= len(lines) {
			return nil, fmt.Errorf("cue %d: missing timing line", index)
		}
		startText, endText, ok := strings.Cut(lines[i+1], "-->")
		if !ok {
			return nil, fmt.Errorf("cue %d: invalid timing line %q", index, lines[i+1])
		}
		start, err := ParseTimestamp(startText)
		if err != nil {
			return nil, fmt.Errorf("cue %d: %w", index, err)
		}
		end, err := ParseTimestamp(endText)
		if err != nil {
			return nil, fmt.Errorf("cue %d: %w", index, err)
		}
		i += 2
		var text []string
		for i < len(lines) && strings.TrimSpace(lines[i]) != "" {
			text = append(text, lines[i])
			i++
		}
		cues = append(cues, Cue{Index: index, Start: start, End: end, Text: strings.Join(text, "\n")})
	}
	return cues, nil
}

// ParseFile reads and parses an SRT file.
func ParseFile(path string) ([]Cue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read srt: %w", err)
	}
	return Parse(string(data))
}
