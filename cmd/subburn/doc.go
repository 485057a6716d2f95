// Command subburn transcribes, translates, and burns subtitles into videos.
//
// "subburn serve" runs the HTTP daemon; "subburn run" processes one local
// file without it. "subburn jobs" and "subburn status" inspect a running
// daemon over its API bind address and fall back to local state when no
// daemon answers. "subburn logs" tails the daemon log file.
package main
