// Package subtitles defines the time-coded Segment record and the SRT
// serializer used by the transcription and compositing stages.
//
// Render emits one block per segment, in order, so block count always equals
// segment count. Parse reads SRT back into Cues for round-trip checks and for
// validating files before they are burned in.
package subtitles
