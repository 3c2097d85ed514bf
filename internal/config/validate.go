package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDownloader(); err != nil {
		return err
	}
	if err := c.validateWhisperX(); err != nil {
		return err
	}
	if err := c.validateElevenLabs(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateRetention(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

// RequireCredentials reports missing API keys needed to run the pipeline.
// Commands that only inspect state (doctor, jobs, config) skip this check.
func (c *Config) RequireCredentials() error {
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key is required. Set OPENROUTER_API_KEY env var or edit %s (create with 'shortsdub config init')", defaultPath)
	}
	if c.ElevenLabs.APIKey == "" {
		return fmt.Errorf("elevenlabs.api_key is required. Set ELEVENLABS_API_KEY env var or edit %s", defaultPath)
	}
	return nil
}

func (c *Config) validateDownloader() error {
	switch c.Downloader.PlaylistPolicy {
	case PlaylistPolicyReject, PlaylistPolicyFirst:
		return nil
	default:
		return fmt.Errorf("downloader.playlist_policy must be %q or %q, got %q", PlaylistPolicyReject, PlaylistPolicyFirst, c.Downloader.PlaylistPolicy)
	}
}

func (c *Config) validateWhisperX() error {
	switch c.WhisperX.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("whisperx.vad_method must be silero or pyannote, got %q", c.WhisperX.VADMethod)
	}
	if c.WhisperX.VADMethod == "pyannote" && strings.TrimSpace(c.WhisperX.HFToken) == "" {
		return errors.New("whisperx.hf_token must be set when whisperx.vad_method is pyannote")
	}
	return nil
}

func (c *Config) validateElevenLabs() error {
	if c.ElevenLabs.Stability < 0 || c.ElevenLabs.Stability > 1 {
		return errors.New("elevenlabs.stability must be between 0 and 1")
	}
	if c.ElevenLabs.SimilarityBoost < 0 || c.ElevenLabs.SimilarityBoost > 1 {
		return errors.New("elevenlabs.similarity_boost must be between 0 and 1")
	}
	if c.ElevenLabs.MaxChars > maxElevenLabsMaxChars {
		return fmt.Errorf("elevenlabs.max_chars must not exceed %d", maxElevenLabsMaxChars)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.TranscribeTimeoutSeconds <= 0 {
		return errors.New("pipeline.transcribe_timeout_seconds must be positive")
	}
	if c.Pipeline.JobTimeoutSeconds < 0 {
		return errors.New("pipeline.job_timeout_seconds must not be negative")
	}
	return nil
}

func (c *Config) validateRetention() error {
	if !c.Retention.Enabled {
		return nil
	}
	if c.Retention.MaxAgeHours <= 0 {
		return errors.New("retention.max_age_hours must be positive when retention.enabled is true")
	}
	if c.Retention.SweepIntervalMinutes <= 0 {
		return errors.New("retention.sweep_interval_minutes must be positive when retention.enabled is true")
	}
	// The sweeper must never reach artifacts of a job that is still running.
	if c.Pipeline.JobTimeoutSeconds <= 0 {
		return errors.New("pipeline.job_timeout_seconds must be set when retention.enabled is true")
	}
	if c.JobTimeout() >= c.RetentionMaxAge() {
		return fmt.Errorf("pipeline.job_timeout_seconds (%s) must be shorter than retention.max_age_hours (%s)", c.JobTimeout(), c.RetentionMaxAge())
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
