// Package jobs tracks compositing jobs from creation to a terminal status.
//
// A job is created once its transcript exists, starts in StatusBurning, and
// moves exactly once more, to StatusDone or StatusError. Memory keeps jobs for
// the life of the process; Store persists them in SQLite so history survives
// restarts. Both enforce the same transition rules.
package jobs
