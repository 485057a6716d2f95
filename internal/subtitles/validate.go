package subtitles

import "fmt"

// durationToleranceSeconds allows the last cue to overrun the media slightly;
// recognizers commonly pad the final segment.
const durationToleranceSeconds = 2.0

// Inspect checks parsed cues for problems worth reporting before burn-in.
// It returns human-readable issues; an empty slice means nothing was found.
// videoSeconds <= 0 skips the duration check.
func Inspect(cues []Cue, videoSeconds float64) []string {
	if len(cues) == 0 {
		return []string{"empty_subtitle_file"}
	}
	var issues []string
	prevStart := -1.0
	for i, cue := range cues {
		if cue.Index != i+1 {
			issues = append(issues, fmt.Sprintf("index_gap: cue %d has index %d", i+1, cue.Index))
		}
		if cue.End < cue.Start {
			issues = append(issues, fmt.Sprintf("inverted_timing: cue %d", cue.Index))
		}
		if cue.Start < prevStart {
			issues = append(issues, fmt.Sprintf("out_of_order: cue %d", cue.Index))
		}
		prevStart = cue.Start
	}
	if videoSeconds > 0 {
		last := cues[len(cues)-1].End
		if delta := last - videoSeconds; delta > durationToleranceSeconds {
			issues = append(issues, fmt.Sprintf("duration_mismatch: delta=%.1fs", delta))
		}
	}
	return issues
}
