// Package config loads, normalizes, and validates subburn configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GEMINI_API_KEY and HF_TOKEN. The Config type centralizes every knob the
// server and CLI need, from the WhisperX model selector to the ffmpeg
// subtitle style and the compositing worker ceiling.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
