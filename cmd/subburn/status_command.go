package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subburn/internal/api"
	"subburn/internal/deps"
	"subburn/internal/preflight"
	"subburn/internal/storage"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var skipLLM bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, dependency, and service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			p := newStatusPrinter(cmd.OutOrStdout())

			p.section("Daemon")
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			switch {
			case err == nil:
				renderDaemonStatus(p, status, time.Now())
			case api.IsUnavailable(err):
				p.line("Daemon", statusWarn, fmt.Sprintf("not running (%s)", cfg.Paths.APIBind))
			default:
				p.line("Daemon", statusError, err.Error())
			}
			p.blank()

			p.section("Dependencies")
			renderDependencies(p, preflight.CheckSystemDeps(cfg))
			p.blank()

			p.section("Services")
			for _, result := range preflight.RunAll(cmd.Context(), cfg, !skipLLM) {
				renderCheck(p, result)
			}
			renderCheck(p, preflight.CheckNotifications(cfg))
			renderStorage(p, cfg.Paths.StorageDir, time.Now())
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipLLM, "skip-llm", false, "Skip the LLM round-trip check")
	return cmd
}

func renderDaemonStatus(p *statusPrinter, status api.DaemonStatus, now time.Time) {
	detail := fmt.Sprintf("running (pid %d)", status.PID)
	if !status.StartedAt.IsZero() {
		detail = fmt.Sprintf("%s since %s", detail, humanize.RelTime(status.StartedAt, now, "ago", "from now"))
	}
	p.line("Daemon", statusOK, detail)
	p.line("Listening", statusInfo, status.Address)
	p.line("Compositing", statusInfo, fmt.Sprintf("%d/%d workers busy, %d queued (capacity %d)",
		status.Pool.Active, status.Pool.Workers, status.Pool.Queued, status.Pool.Capacity))
	p.line("Completed", statusInfo, fmt.Sprintf("%s ok, %s failed",
		humanize.Comma(int64(status.Pool.Completed)), humanize.Comma(int64(status.Pool.Failed))))

	states := make([]string, 0, len(status.Jobs))
	for state := range status.Jobs {
		states = append(states, state)
	}
	sort.Strings(states)
	for _, state := range states {
		p.line("Jobs "+state, statusInfo, fmt.Sprintf("%d", status.Jobs[state]))
	}
	if status.JobsDBPath != "" {
		p.line("Job history", statusInfo, status.JobsDBPath)
	}
}

func renderDependencies(p *statusPrinter, statuses []deps.Status) {
	for _, dep := range statuses {
		switch {
		case dep.Available:
			p.line(dep.Name, statusOK, dep.Path)
		case dep.Optional:
			p.line(dep.Name, statusWarn, dep.Detail+" (optional)")
		default:
			p.line(dep.Name, statusError, dep.Detail)
		}
	}
}

func renderStorage(p *statusPrinter, dir string, now time.Time) {
	usage, err := storage.Usage(dir)
	if err != nil {
		p.line("Storage usage", statusWarn, err.Error())
		return
	}
	detail := fmt.Sprintf("%d file(s), %s", usage.Files, humanize.IBytes(uint64(usage.Bytes)))
	if !usage.Oldest.IsZero() {
		detail += ", oldest " + humanize.RelTime(usage.Oldest, now, "ago", "from now")
	}
	p.line("Storage usage", statusInfo, detail)
}

func renderCheck(p *statusPrinter, result preflight.Result) {
	kind := statusOK
	if !result.Passed {
		kind = statusError
	}
	p.line(result.Name, kind, result.Detail)
}
