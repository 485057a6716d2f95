// Package pipeline coordinates one upload from stored input to burned output.
//
// Accept stores the upload, runs transcription synchronously, creates the job
// with its transcript, and hands compositing to the worker pool. The caller
// gets the job id and transcript back as soon as the job exists; the job's
// status then moves from burning to done or error when the pool finishes.
package pipeline
