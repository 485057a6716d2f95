package config

const (
	defaultConfigPath          = "~/.config/subburn/config.toml"
	defaultStorageDir          = "~/.local/share/subburn/storage"
	defaultLogDir              = "~/.local/share/subburn/logs"
	defaultAPIBind             = "127.0.0.1:8000"
	defaultTranscriptionModel  = "base"
	defaultVADMethod           = "silero"
	defaultLLMBaseURL          = "https://generativelanguage.googleapis.com/v1beta/openai/chat/completions"
	defaultLLMModel            = "gemini-1.5-flash"
	defaultLLMReferer          = "https://github.com/subburn/subburn"
	defaultLLMTitle            = "subburn"
	defaultLLMTimeoutSeconds   = 120
	defaultLLMRetryAttempts    = 3
	defaultChunkSize           = 80
	defaultFontSize            = 24
	defaultPrimaryColour       = "&Hffffff&"
	defaultOutlineColour       = "&H000000&"
	defaultBorderStyle         = 3
	defaultVideoCodec          = "libx264"
	defaultPreset              = "ultrafast"
	defaultCRF                 = 28
	defaultCompositingWorkers  = 2
	defaultCompositingQueue    = 64
	defaultJobsDBName          = "jobs.db"
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
	maxCRF                     = 51
	minBorderStyle             = 1
	maxBorderStyle             = 4
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StorageDir: defaultStorageDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Transcription: Transcription{
			Model:     defaultTranscriptionModel,
			VADMethod: defaultVADMethod,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			RetryAttempts:  defaultLLMRetryAttempts,
		},
		Translation: Translation{
			ChunkSize: defaultChunkSize,
		},
		Compositing: Compositing{
			FontSize:      defaultFontSize,
			PrimaryColour: defaultPrimaryColour,
			OutlineColour: defaultOutlineColour,
			BorderStyle:   defaultBorderStyle,
			VideoCodec:    defaultVideoCodec,
			Preset:        defaultPreset,
			CRF:           defaultCRF,
			Workers:       defaultCompositingWorkers,
			QueueSize:     defaultCompositingQueue,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			JobCompleted:   true,
			JobFailed:      true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
