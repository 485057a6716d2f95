package daemonrun

import (
	"errors"
	"fmt"
	"log/slog"

	"subburn/internal/compositing"
	"subburn/internal/config"
	"subburn/internal/jobs"
	"subburn/internal/notifications"
	"subburn/internal/pipeline"
	"subburn/internal/runner"
	"subburn/internal/services/llm"
	"subburn/internal/services/whisperx"
	"subburn/internal/transcription"
	"subburn/internal/translation"
)

// Components is a fully wired pipeline plus the resources backing it.
type Components struct {
	Pipeline *pipeline.Pipeline
	Pool     *runner.Pool
	Registry jobs.Registry
	// Store is set when jobs are persisted.
	Store *jobs.Store
}

// Build wires recognizer, translator, compositor, registry, pool, and
// notifier from cfg. The pool is returned unstarted.
func Build(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	recognizer := whisperx.NewService(whisperx.Config{
		Model:       cfg.Transcription.Model,
		CUDAEnabled: cfg.Transcription.CUDAEnabled,
		VADMethod:   cfg.Transcription.VADMethod,
		HFToken:     cfg.Transcription.HFToken,
		Language:    cfg.Transcription.SourceLanguage,
	}, cfg.FFmpegBinary())

	llmCfg := cfg.GetLLM()
	client := llm.NewClient(llm.Config{
		APIKey:         llmCfg.APIKey,
		BaseURL:        llmCfg.BaseURL,
		Model:          llmCfg.Model,
		Referer:        llmCfg.Referer,
		Title:          llmCfg.Title,
		TimeoutSeconds: llmCfg.TimeoutSeconds,
		RetryAttempts:  llmCfg.RetryAttempts,
	})
	translator := translation.New(client, cfg.Translation.ChunkSize, logger)
	stage := transcription.NewStage(recognizer, translator, cfg.Paths.StorageDir, cfg.Transcription.Model, logger)
	compositor := compositing.New(compositing.OptionsFromConfig(cfg), logger)

	components := &Components{
		Pool: runner.NewPool(cfg.Compositing.Workers, cfg.Compositing.QueueSize, logger),
	}
	if cfg.Jobs.Persist {
		store, err := jobs.Open(cfg)
		if err != nil {
			return nil, fmt.Errorf("open job store: %w", err)
		}
		components.Store = store
		components.Registry = store
	} else {
		components.Registry = jobs.NewMemory()
	}

	p, err := pipeline.New(pipeline.Deps{
		Transcriber: stage,
		Burner:      compositor,
		Registry:    components.Registry,
		Pool:        components.Pool,
		Notifier:    notifications.NewService(cfg),
		StorageDir:  cfg.Paths.StorageDir,
		Logger:      logger,
	})
	if err != nil {
		_ = components.Close()
		return nil, err
	}
	components.Pipeline = p
	return components, nil
}

// Close releases the job store, if any.
func (c *Components) Close() error {
	if c == nil || c.Store == nil {
		return nil
	}
	return c.Store.Close()
}
