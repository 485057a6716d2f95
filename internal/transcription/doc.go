// Package transcription runs the synchronous half of the pipeline: speech
// recognition, translation, and writing the SRT file next to the stored
// upload.
//
// The stage never composites video. It hands back the segments, the subtitle
// path, and a newline-joined transcript so the caller can respond before the
// burn-in starts.
package transcription
