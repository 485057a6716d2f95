package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var validPresets = map[string]struct{}{
	"ultrafast": {}, "superfast": {}, "veryfast": {}, "faster": {}, "fast": {},
	"medium": {}, "slow": {}, "slower": {}, "veryslow": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCompositing(); err != nil {
		return err
	}
	if err := c.validateJobs(); err != nil {
		return err
	}
	if err := ensurePositiveMap(map[string]int{
		"translation.chunk_size":        c.Translation.ChunkSize,
		"llm.timeout_seconds":           c.LLM.TimeoutSeconds,
		"llm.retry_attempts":            c.LLM.RetryAttempts,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("llm.api_key is required. Set GEMINI_API_KEY env var or edit %s (create with 'subburn config init')", defaultPath)
	}
	if !strings.HasPrefix(c.LLM.BaseURL, "http://") && !strings.HasPrefix(c.LLM.BaseURL, "https://") {
		return fmt.Errorf("llm.base_url must be an http(s) URL, got %q", c.LLM.BaseURL)
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StorageDir == "" {
		return errors.New("paths.storage_dir must be set")
	}
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateCompositing() error {
	cfg := c.Compositing
	if cfg.CRF < 0 || cfg.CRF > maxCRF {
		return fmt.Errorf("compositing.crf must be between 0 and %d", maxCRF)
	}
	if cfg.BorderStyle < minBorderStyle || cfg.BorderStyle > maxBorderStyle {
		return fmt.Errorf("compositing.border_style must be between %d and %d", minBorderStyle, maxBorderStyle)
	}
	if _, ok := validPresets[cfg.Preset]; !ok {
		return fmt.Errorf("compositing.preset %q is not a recognized x264 preset", cfg.Preset)
	}
	for key, value := range map[string]string{
		"compositing.primary_colour": cfg.PrimaryColour,
		"compositing.outline_colour": cfg.OutlineColour,
	} {
		if !strings.HasPrefix(value, "&H") {
			return fmt.Errorf("%s must use ASS colour notation (&HBBGGRR&), got %q", key, value)
		}
	}
	return ensurePositiveMap(map[string]int{
		"compositing.font_size":  cfg.FontSize,
		"compositing.workers":    cfg.Workers,
		"compositing.queue_size": cfg.QueueSize,
	})
}

func (c *Config) validateJobs() error {
	if c.Jobs.Persist && strings.TrimSpace(c.Jobs.DBPath) == "" {
		return errors.New("jobs.db_path must be set when jobs.persist is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
