package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"subburn/internal/daemonrun"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var development bool
	var maxUpload string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			opts := daemonrun.Options{
				LogLevel:    logLevel,
				Development: development,
			}
			if value := strings.TrimSpace(maxUpload); value != "" {
				limit, err := humanize.ParseBytes(value)
				if err != nil {
					return fmt.Errorf("parse --max-upload: %w", err)
				}
				opts.MaxUploadBytes = int64(limit)
			}
			return daemonrun.Run(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level for this run")
	cmd.Flags().BoolVar(&development, "dev", false, "Include source locations in every log line")
	cmd.Flags().StringVar(&maxUpload, "max-upload", "", "Largest accepted upload, e.g. 2GiB (default 4GiB)")
	return cmd
}
