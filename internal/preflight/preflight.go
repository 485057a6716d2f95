package preflight

import (
	"context"

	"subburn/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory checks and, when includeLLM is set, the LLM
// reachability check for the given config.
func RunAll(ctx context.Context, cfg *config.Config, includeLLM bool) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Storage directory", cfg.Paths.StorageDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	if includeLLM {
		results = append(results, CheckLLM(ctx, "Translation LLM", cfg.GetLLM()))
	}
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
