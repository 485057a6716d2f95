// Package compositing burns an SRT file into a video with ffmpeg's subtitles
// filter.
//
// Burn never returns an error to its caller. Every outcome, including encoder
// failures, is reported as a Result so the job registry can record it.
package compositing
