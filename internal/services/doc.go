// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - The error taxonomy (validation, transcription, translation, compositing,
//     not found) plus the Wrap helper for external tool failures, so callers
//     can classify failures with errors.Is and map them to HTTP statuses.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
