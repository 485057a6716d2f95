// Package storage sweeps and measures the upload storage directory.
//
// Every artifact a job produces (the uploaded video, extracted audio, the SRT
// and the burned output) is written directly inside storage_dir with the job
// id as a "<id>_" prefix. CleanStale removes regular files older than a
// retention window while skipping anything owned by a job that is still
// burning and the job database itself. Usage reports the file count and total
// size for the status command.
package storage
