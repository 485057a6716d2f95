// Package ffprobe runs ffprobe and decodes its JSON report.
//
// The compositing stage uses it to confirm that a burned output still carries
// a video stream and to learn the output duration for subtitle checks.
package ffprobe
