// Package runner executes background tasks on a fixed number of workers.
//
// Submit only enqueues; it fails fast with ErrQueueFull instead of blocking
// when the queue is at capacity. Every accepted task yields a Ticket whose
// Done channel closes when the task returns. Tasks run under a context that
// keeps the values of the context passed to Start but is never cancelled, so
// shutdown drains queued work instead of aborting it.
package runner
