package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"subburn/internal/daemonrun"
	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/pipeline"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var lang string
	var mode string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Transcribe, translate, and burn subtitles into one local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := pipeline.ParseMode(mode); err != nil {
				return err
			}
			source, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve video path: %w", err)
			}
			info, err := os.Stat(source)
			if err != nil {
				return fmt.Errorf("stat video: %w", err)
			}
			if info.IsDir() {
				return fmt.Errorf("video path %q is a directory", source)
			}

			loaded, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg := *loaded
			if dir := strings.TrimSpace(outputDir); dir != "" {
				cfg.Paths.StorageDir = dir
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}

			logger, err := logging.NewFromConfig(&cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			components, err := daemonrun.Build(&cfg, logger)
			if err != nil {
				return err
			}
			defer components.Close()
			if err := components.Pool.Start(cmd.Context()); err != nil {
				return err
			}
			defer components.Pool.Stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Transcribing %s (%s)\n", filepath.Base(source), humanize.IBytes(uint64(info.Size())))
			sub, err := components.Pipeline.Submit(cmd.Context(), uuid.NewString(), source, lang)
			if err != nil {
				return fmt.Errorf("transcription failed: %w", err)
			}
			if sub.Ticket != nil {
				fmt.Fprintln(out, "Burning subtitles...")
				_ = sub.Ticket.Wait(cmd.Context())
			}

			job, err := components.Registry.Get(cmd.Context(), sub.JobID)
			if err != nil {
				return err
			}
			return reportRun(out, job, cfg.Paths.StorageDir)
		},
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", pipeline.DefaultLanguage, "Target subtitle language code")
	cmd.Flags().StringVar(&mode, "mode", string(pipeline.ModeSubtitle), "Processing mode (only 'sub' is supported)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for subtitles and the burned video (default paths.storage_dir)")
	return cmd
}

func reportRun(out io.Writer, job jobs.Job, storageDir string) error {
	switch job.Status {
	case jobs.StatusDone:
		output := filepath.Join(storageDir, job.Output)
		if info, err := os.Stat(output); err == nil {
			fmt.Fprintf(out, "Done: %s (%s)\n", output, humanize.IBytes(uint64(info.Size())))
		} else {
			fmt.Fprintf(out, "Done: %s\n", output)
		}
		return nil
	case jobs.StatusError:
		return errors.New(strings.TrimSpace(job.Error))
	default:
		return fmt.Errorf("job %s is still %s", job.ID, job.Status)
	}
}
