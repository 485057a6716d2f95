package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeLLM()
	c.normalizeTranslation()
	c.normalizeCompositing()
	if err := c.normalizeJobs(); err != nil {
		return err
	}
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StorageDir) == "" {
		c.Paths.StorageDir = defaultStorageDir
	}
	if c.Paths.StorageDir, err = expandPath(c.Paths.StorageDir); err != nil {
		return fmt.Errorf("paths.storage_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeTranscription() {
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	c.Transcription.VADMethod = strings.ToLower(strings.TrimSpace(c.Transcription.VADMethod))
	if c.Transcription.VADMethod == "" {
		c.Transcription.VADMethod = defaultVADMethod
	}
	c.Transcription.SourceLanguage = strings.ToLower(strings.TrimSpace(c.Transcription.SourceLanguage))
	c.Transcription.HFToken = strings.TrimSpace(c.Transcription.HFToken)
	if c.Transcription.HFToken == "" {
		if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.Transcription.HFToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLLM() {
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	if c.LLM.Referer == "" {
		c.LLM.Referer = defaultLLMReferer
	}
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.Title == "" {
		c.LLM.Title = defaultLLMTitle
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RetryAttempts <= 0 {
		c.LLM.RetryAttempts = defaultLLMRetryAttempts
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeTranslation() {
	if c.Translation.ChunkSize <= 0 {
		c.Translation.ChunkSize = defaultChunkSize
	}
}

func (c *Config) normalizeCompositing() {
	if c.Compositing.FontSize <= 0 {
		c.Compositing.FontSize = defaultFontSize
	}
	c.Compositing.PrimaryColour = strings.TrimSpace(c.Compositing.PrimaryColour)
	if c.Compositing.PrimaryColour == "" {
		c.Compositing.PrimaryColour = defaultPrimaryColour
	}
	c.Compositing.OutlineColour = strings.TrimSpace(c.Compositing.OutlineColour)
	if c.Compositing.OutlineColour == "" {
		c.Compositing.OutlineColour = defaultOutlineColour
	}
	if c.Compositing.BorderStyle == 0 {
		c.Compositing.BorderStyle = defaultBorderStyle
	}
	c.Compositing.VideoCodec = strings.TrimSpace(c.Compositing.VideoCodec)
	if c.Compositing.VideoCodec == "" {
		c.Compositing.VideoCodec = defaultVideoCodec
	}
	c.Compositing.Preset = strings.ToLower(strings.TrimSpace(c.Compositing.Preset))
	if c.Compositing.Preset == "" {
		c.Compositing.Preset = defaultPreset
	}
	if c.Compositing.Workers <= 0 {
		c.Compositing.Workers = defaultCompositingWorkers
	}
	if c.Compositing.QueueSize <= 0 {
		c.Compositing.QueueSize = defaultCompositingQueue
	}
}

func (c *Config) normalizeJobs() error {
	if c.Jobs.RetentionDays < 0 {
		c.Jobs.RetentionDays = 0
	}
	if !c.Jobs.Persist {
		return nil
	}
	if strings.TrimSpace(c.Jobs.DBPath) == "" {
		c.Jobs.DBPath = filepath.Join(c.Paths.StorageDir, defaultJobsDBName)
	}
	var err error
	if c.Jobs.DBPath, err = expandPath(c.Jobs.DBPath); err != nil {
		return fmt.Errorf("jobs.db_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
