package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subburn/internal/api"
	"subburn/internal/daemon"
	"subburn/internal/jobs"
	"subburn/internal/language"
	"subburn/internal/storage"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "List and prune compositing jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listJobs(cmd, ctx)
		},
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsPruneCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listJobs(cmd, ctx)
		},
	}
}

// listJobs asks the running daemon first and falls back to the persisted
// job history when no daemon answers.
func listJobs(cmd *cobra.Command, ctx *commandContext) error {
	client, err := ctx.apiClient()
	if err != nil {
		return err
	}
	resp, err := client.Jobs(cmd.Context())
	if err == nil {
		renderJobs(cmd, resp.Jobs)
		return nil
	}
	if !api.IsUnavailable(err) {
		return err
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if !cfg.Jobs.Persist {
		return errors.New("daemon not running and jobs.persist is off; no job history to show")
	}
	store, err := jobs.Open(cfg)
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()
	list, err := store.List(cmd.Context())
	if err != nil {
		return err
	}
	summaries := make([]api.JobSummary, 0, len(list))
	for _, job := range list {
		summaries = append(summaries, api.SummarizeJob(job))
	}
	renderJobs(cmd, summaries)
	return nil
}

func renderJobs(cmd *cobra.Command, list []api.JobSummary) {
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No jobs")
		return
	}
	fmt.Fprintln(out, renderTable([]tableColumn{
		{Header: "ID"},
		{Header: "Status"},
		{Header: "Source", MaxWidth: 40},
		{Header: "Lang"},
		{Header: "Result", MaxWidth: 60},
		{Header: "Updated", Align: alignRight},
	}, buildJobRows(list, time.Now())))
}

func buildJobRows(list []api.JobSummary, now time.Time) [][]string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		result := job.Output
		if job.Status == string(jobs.StatusError) {
			result = lastLine(job.Error)
		}
		rows = append(rows, []string{
			shortID(job.ID),
			job.Status,
			job.SourceName,
			language.DisplayName(job.Language),
			result,
			humanize.RelTime(job.UpdatedAt, now, "ago", "from now"),
		})
	}
	return rows
}

func newJobsPruneCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete finished jobs and storage files older than --days",
		RunE: func(cmd *cobra.Command, args []string) error {
			if days <= 0 {
				return errors.New("--days must be positive")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Jobs.Persist {
				return errors.New("jobs.persist is off; nothing to prune")
			}
			running, err := daemon.LockHeld(cfg)
			if err != nil {
				return err
			}
			if running {
				return errors.New("subburn daemon is running; stop it before pruning (or set jobs.retention_days)")
			}
			store, err := jobs.Open(cfg)
			if err != nil {
				return fmt.Errorf("open job store: %w", err)
			}
			defer store.Close()

			cutoff := time.Now().AddDate(0, 0, -days)
			removed, err := store.Prune(cmd.Context(), cutoff)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Removed %d job(s) finished before %s\n", removed, cutoff.Format(time.DateOnly))

			active, err := jobs.ActiveIDs(cmd.Context(), store)
			if err != nil {
				return err
			}
			swept := storage.CleanStale(cmd.Context(), cfg.Paths.StorageDir, storage.CleanOptions{
				MaxAge: time.Since(cutoff),
				Active: active,
				Keep:   []string{filepath.Base(store.Path())},
			}, nil)
			fmt.Fprintf(out, "Removed %d storage file(s), freed %s\n", len(swept.Removed), humanize.IBytes(uint64(swept.Freed)))
			for _, failure := range swept.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed to remove %s: %v\n", failure.Path, failure.Error)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "Age threshold in days")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func lastLine(value string) string {
	lines := strings.Split(strings.TrimSpace(value), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
