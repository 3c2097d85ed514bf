package config

import (
	"fmt"
	"os"
	"strings"

	"shortsdub/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeLanguages(); err != nil {
		return err
	}
	c.normalizeDownloader()
	c.normalizeWhisperX()
	c.normalizeLLM()
	c.normalizeElevenLabs()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StaticDir) != "" {
		if c.Paths.StaticDir, err = expandPath(c.Paths.StaticDir); err != nil {
			return fmt.Errorf("paths.static_dir: %w", err)
		}
	}
	if strings.TrimSpace(c.Ledger.Path) != "" {
		if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
			return fmt.Errorf("ledger.path: %w", err)
		}
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) normalizeLanguages() error {
	source, err := language.Normalize(c.Languages.Source)
	if err != nil {
		return fmt.Errorf("languages.source: %w", err)
	}
	target, err := language.Normalize(c.Languages.Target)
	if err != nil {
		return fmt.Errorf("languages.target: %w", err)
	}
	c.Languages.Source = source
	c.Languages.Target = target
	return nil
}

func (c *Config) normalizeDownloader() {
	c.Downloader.Command = strings.TrimSpace(c.Downloader.Command)
	if c.Downloader.Command == "" {
		c.Downloader.Command = defaultDownloaderCommand
	}
	c.Downloader.Format = strings.TrimSpace(c.Downloader.Format)
	if c.Downloader.Format == "" {
		c.Downloader.Format = defaultDownloaderFormat
	}
	c.Downloader.PlaylistPolicy = strings.ToLower(strings.TrimSpace(c.Downloader.PlaylistPolicy))
	if c.Downloader.PlaylistPolicy == "" {
		c.Downloader.PlaylistPolicy = defaultDownloaderPlaylistPolicy
	}
}

func (c *Config) normalizeWhisperX() {
	c.WhisperX.Model = strings.TrimSpace(c.WhisperX.Model)
	if c.WhisperX.Model == "" {
		c.WhisperX.Model = defaultWhisperXModel
	}
	c.WhisperX.VADMethod = strings.ToLower(strings.TrimSpace(c.WhisperX.VADMethod))
	if c.WhisperX.VADMethod == "" {
		c.WhisperX.VADMethod = defaultWhisperXVADMethod
	}
	if c.WhisperX.HFToken == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok {
			c.WhisperX.HFToken = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLLM() {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		for _, key := range []string{"OPENROUTER_API_KEY", "LLM_API_KEY"} {
			if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
				c.LLM.APIKey = value
				break
			}
		}
	}
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeElevenLabs() {
	if strings.TrimSpace(c.ElevenLabs.APIKey) == "" {
		if value, ok := os.LookupEnv("ELEVENLABS_API_KEY"); ok {
			c.ElevenLabs.APIKey = value
		}
	}
	c.ElevenLabs.APIKey = strings.TrimSpace(c.ElevenLabs.APIKey)
	c.ElevenLabs.BaseURL = strings.TrimRight(strings.TrimSpace(c.ElevenLabs.BaseURL), "/")
	if c.ElevenLabs.BaseURL == "" {
		c.ElevenLabs.BaseURL = defaultElevenLabsBaseURL
	}
	c.ElevenLabs.VoiceID = strings.TrimSpace(c.ElevenLabs.VoiceID)
	if c.ElevenLabs.VoiceID == "" {
		c.ElevenLabs.VoiceID = defaultElevenLabsVoiceID
	}
	c.ElevenLabs.ModelID = strings.TrimSpace(c.ElevenLabs.ModelID)
	if c.ElevenLabs.ModelID == "" {
		c.ElevenLabs.ModelID = defaultElevenLabsModelID
	}
	if c.ElevenLabs.MaxChars <= 0 {
		c.ElevenLabs.MaxChars = defaultElevenLabsMaxChars
	}
	if c.ElevenLabs.TimeoutSeconds <= 0 {
		c.ElevenLabs.TimeoutSeconds = defaultElevenLabsTimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	if strings.TrimSpace(c.Notifications.RedisAddr) == "" {
		if value, ok := os.LookupEnv("SHORTSDUB_REDIS_ADDR"); ok {
			c.Notifications.RedisAddr = value
		}
	}
	c.Notifications.RedisAddr = strings.TrimSpace(c.Notifications.RedisAddr)
	c.Notifications.RedisList = strings.TrimSpace(c.Notifications.RedisList)
	if c.Notifications.RedisList == "" {
		c.Notifications.RedisList = defaultNotificationsRedisList
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
