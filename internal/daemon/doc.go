// Package daemon coordinates the long-running subburn process.
//
// It wires the compositing pool, the optional SQLite job history, and the
// HTTP server into a single lifecycle with flock-based locking to prevent
// multiple instances sharing one storage directory. On start it fails jobs a
// previous process left burning; on stop it closes the listener first and
// then drains queued compositing work.
//
// Keep orchestration logic here: pipeline steps live in their own packages
// while the daemon focuses on startup, shutdown, and status reporting.
package daemon
