// Package logs reads the daemon log file for `subburn logs`.
//
// Tail returns the last N lines (negative offset) or everything written past
// a byte offset, optionally polling until new lines arrive. The returned
// offset is fed back into the next call, so follow mode never re-reads or
// skips output. A filter restricts lines to one job id.
package logs
