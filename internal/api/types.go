package api

import (
	"time"

	"subburn/internal/jobs"
)

// UploadResponse is returned once transcription succeeded and a job exists.
type UploadResponse struct {
	JobID string `json:"job_id"`
}

// StatusResponse mirrors a registry entry. Output stays null until the job is done.
type StatusResponse struct {
	Status     string  `json:"status"`
	Transcript string  `json:"transcript"`
	Output     *string `json:"output"`
	Error      string  `json:"error,omitempty"`
}

// JobSummary is one row of the job listing.
type JobSummary struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	SourceName string    `json:"source_name,omitempty"`
	Language   string    `json:"language,omitempty"`
	Output     string    `json:"output,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// JobListResponse wraps the job listing.
type JobListResponse struct {
	Jobs []JobSummary `json:"jobs"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromJob converts a registry snapshot into its status payload.
func FromJob(job jobs.Job) StatusResponse {
	resp := StatusResponse{
		Status:     string(job.Status),
		Transcript: job.Transcript,
		Error:      job.Error,
	}
	if job.Status == jobs.StatusDone && job.Output != "" {
		output := job.Output
		resp.Output = &output
	}
	return resp
}

// SummarizeJob converts a registry snapshot into a listing row.
func SummarizeJob(job jobs.Job) JobSummary {
	return JobSummary{
		ID:         job.ID,
		Status:     string(job.Status),
		SourceName: job.SourceName,
		Language:   job.Language,
		Output:     job.Output,
		Error:      job.Error,
		CreatedAt:  job.CreatedAt,
		UpdatedAt:  job.UpdatedAt,
	}
}

// PoolStats mirrors runner.Stats for the daemon status payload.
type PoolStats struct {
	Workers   int    `json:"workers"`
	Capacity  int    `json:"capacity"`
	Active    int    `json:"active"`
	Queued    int    `json:"queued"`
	Completed uint64 `json:"completed"`
	Failed    uint64 `json:"failed"`
}

// DependencyStatus reports one external binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus is served by the running daemon at /api/status.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	Address      string             `json:"address,omitempty"`
	LockFilePath string             `json:"lock_file_path"`
	JobsDBPath   string             `json:"jobs_db_path,omitempty"`
	StartedAt    time.Time          `json:"started_at"`
	Pool         PoolStats          `json:"pool"`
	Jobs         map[string]int     `json:"jobs"`
	Dependencies []DependencyStatus `json:"dependencies"`
}
