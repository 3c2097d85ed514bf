package config

const (
	defaultConfigPath               = "~/.config/shortsdub/config.toml"
	defaultOutputDir                = "~/.local/share/shortsdub/output"
	defaultLogDir                   = "~/.local/share/shortsdub/logs"
	defaultAPIBind                  = "127.0.0.1:5000"
	defaultSourceLanguage           = "ko"
	defaultTargetLanguage           = "ja"
	defaultDownloaderCommand        = "yt-dlp"
	defaultDownloaderFormat         = "best[ext=mp4]/best"
	defaultFFmpegBinary             = "ffmpeg"
	defaultFFprobeBinary            = "ffprobe"
	defaultWhisperXModel            = "base"
	defaultWhisperXVADMethod        = "silero"
	defaultLLMBaseURL               = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel                 = "google/gemini-3-flash-preview"
	defaultLLMReferer               = "https://github.com/shortsdub/shortsdub"
	defaultLLMTitle                 = "shortsdub translator"
	defaultLLMTimeoutSeconds        = 60
	defaultElevenLabsBaseURL        = "https://api.elevenlabs.io"
	defaultElevenLabsVoiceID        = "yoZ06aMxZJJ28mfd3POQ"
	defaultElevenLabsModelID        = "eleven_multilingual_v2"
	defaultElevenLabsStability      = 0.5
	defaultElevenLabsSimilarity     = 0.75
	defaultElevenLabsMaxChars       = 5000
	defaultElevenLabsTimeoutSeconds = 120
	defaultJobTimeoutSeconds        = 1800
	defaultAcquireTimeoutSeconds    = 600
	defaultExtractTimeoutSeconds    = 300
	defaultTranscribeTimeoutSeconds = 900
	defaultTranslateTimeoutSeconds  = 180
	defaultSynthesizeTimeoutSeconds = 600
	defaultRemuxTimeoutSeconds      = 300
	defaultRetentionMaxAgeHours     = 24
	defaultRetentionIntervalMinutes = 30
	defaultNotificationsRedisList   = "shortsdub:outcomes"
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultCORSOrigin               = "*"
	PlaylistPolicyReject            = "reject"
	PlaylistPolicyFirst             = "first"
	defaultDownloaderPlaylistPolicy = PlaylistPolicyReject
	maxElevenLabsMaxChars           = 10000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
			APIBind:   defaultAPIBind,
		},
		Languages: Languages{
			Source: defaultSourceLanguage,
			Target: defaultTargetLanguage,
		},
		Downloader: Downloader{
			Command:        defaultDownloaderCommand,
			Format:         defaultDownloaderFormat,
			PlaylistPolicy: defaultDownloaderPlaylistPolicy,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
		},
		WhisperX: WhisperX{
			Model:     defaultWhisperXModel,
			VADMethod: defaultWhisperXVADMethod,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		ElevenLabs: ElevenLabs{
			BaseURL:         defaultElevenLabsBaseURL,
			VoiceID:         defaultElevenLabsVoiceID,
			ModelID:         defaultElevenLabsModelID,
			Stability:       defaultElevenLabsStability,
			SimilarityBoost: defaultElevenLabsSimilarity,
			MaxChars:        defaultElevenLabsMaxChars,
			TimeoutSeconds:  defaultElevenLabsTimeoutSeconds,
		},
		Pipeline: Pipeline{
			JobTimeoutSeconds:        defaultJobTimeoutSeconds,
			AcquireTimeoutSeconds:    defaultAcquireTimeoutSeconds,
			ExtractTimeoutSeconds:    defaultExtractTimeoutSeconds,
			TranscribeTimeoutSeconds: defaultTranscribeTimeoutSeconds,
			TranslateTimeoutSeconds:  defaultTranslateTimeoutSeconds,
			SynthesizeTimeoutSeconds: defaultSynthesizeTimeoutSeconds,
			RemuxTimeoutSeconds:      defaultRemuxTimeoutSeconds,
		},
		Retention: Retention{
			Enabled:              true,
			MaxAgeHours:          defaultRetentionMaxAgeHours,
			SweepIntervalMinutes: defaultRetentionIntervalMinutes,
		},
		Ledger: Ledger{
			Enabled: true,
		},
		Notifications: Notifications{
			RedisList: defaultNotificationsRedisList,
		},
		Server: Server{
			CORSOrigins: []string{defaultCORSOrigin},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
