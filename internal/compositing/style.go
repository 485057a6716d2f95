package compositing

import (
	"fmt"
	"strconv"
	"strings"

	"subburn/internal/config"
)

// Style is the ASS force_style override applied to burned subtitles.
type Style struct {
	FontSize      int
	PrimaryColour string
	OutlineColour string
	BorderStyle   int
}

// ForceStyle renders the style as a force_style value.
func (s Style) ForceStyle() string {
	return fmt.Sprintf("FontSize=%d,PrimaryColour=%s,OutlineColour=%s,BorderStyle=%d",
		s.FontSize, s.PrimaryColour, s.OutlineColour, s.BorderStyle)
}

// Encoder selects the video encoder settings. Audio is always stream-copied.
type Encoder struct {
	VideoCodec string
	Preset     string
	CRF        int
}

// Options configures a Compositor.
type Options struct {
	FFmpegBinary  string
	FFprobeBinary string
	Style         Style
	Encoder       Encoder
	VerifyOutput  bool
}

// DefaultOptions mirrors the [compositing] defaults.
func DefaultOptions() Options {
	cfg := config.Default()
	return OptionsFromConfig(&cfg)
}

// OptionsFromConfig derives compositor options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	comp := cfg.Compositing
	return Options{
		FFmpegBinary:  cfg.FFmpegBinary(),
		FFprobeBinary: cfg.FFprobeBinary(),
		Style: Style{
			FontSize:      comp.FontSize,
			PrimaryColour: comp.PrimaryColour,
			OutlineColour: comp.OutlineColour,
			BorderStyle:   comp.BorderStyle,
		},
		Encoder: Encoder{
			VideoCodec: comp.VideoCodec,
			Preset:     comp.Preset,
			CRF:        comp.CRF,
		},
		VerifyOutput: comp.VerifyOutput,
	}
}

// BuildArgs returns the ffmpeg argument list that burns subtitlePath into
// videoPath and writes output, overwriting any existing file.
func BuildArgs(videoPath, subtitlePath, output string, style Style, enc Encoder) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-vf", subtitlesFilter(subtitlePath, style),
		"-c:v", enc.VideoCodec,
		"-preset", enc.Preset,
		"-crf", strconv.Itoa(enc.CRF),
		"-c:a", "copy",
		"-movflags", "+faststart",
		"-loglevel", "info",
		output,
	}
}

func subtitlesFilter(subtitlePath string, style Style) string {
	return "subtitles='" + quoteFilterValue(escapeOptionValue(subtitlePath)) + "':force_style='" + style.ForceStyle() + "'"
}

// escapeOptionValue applies filter option escaping: backslash, quote, and
// colon are prefixed with a backslash.
func escapeOptionValue(value string) string {
	var b strings.Builder
	for _, r := range value {
		switch r {
		case '\\', '\'', ':':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// quoteFilterValue makes value safe inside a single-quoted filtergraph
// string, where a quote can only be written by closing the string, escaping
// it, and reopening.
func quoteFilterValue(value string) string {
	return strings.ReplaceAll(value, "'", `'\''`)
}
