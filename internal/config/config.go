package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	LogDir    string `toml:"log_dir"`
	StaticDir string `toml:"static_dir"`
	APIBind   string `toml:"api_bind"`
}

// Languages declares the spoken language of the source video and the
// language the dubbed output should be voiced in.
type Languages struct {
	Source string `toml:"source"`
	Target string `toml:"target"`
}

// Downloader contains yt-dlp settings for source acquisition.
type Downloader struct {
	Command        string `toml:"command"`
	Format         string `toml:"format"`
	PlaylistPolicy string `toml:"playlist_policy"`
}

// FFmpeg contains the media transcoder binaries.
type FFmpeg struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// WhisperX contains speech recognition settings.
type WhisperX struct {
	Model       string `toml:"model"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	VADMethod   string `toml:"vad_method"`
	HFToken     string `toml:"hf_token"`
}

// LLM contains connection settings for the translation model.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ElevenLabs contains text-to-speech provider settings. Stability and
// SimilarityBoost are passed through to the provider unchanged.
type ElevenLabs struct {
	APIKey          string  `toml:"api_key"`
	BaseURL         string  `toml:"base_url"`
	VoiceID         string  `toml:"voice_id"`
	ModelID         string  `toml:"model_id"`
	Stability       float64 `toml:"stability"`
	SimilarityBoost float64 `toml:"similarity_boost"`
	MaxChars        int     `toml:"max_chars"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
}

// Pipeline contains job and per-stage timeouts in seconds. Zero disables a
// stage timeout; the transcribe timeout is always enforced.
type Pipeline struct {
	JobTimeoutSeconds        int `toml:"job_timeout_seconds"`
	AcquireTimeoutSeconds    int `toml:"acquire_timeout_seconds"`
	ExtractTimeoutSeconds    int `toml:"extract_timeout_seconds"`
	TranscribeTimeoutSeconds int `toml:"transcribe_timeout_seconds"`
	TranslateTimeoutSeconds  int `toml:"translate_timeout_seconds"`
	SynthesizeTimeoutSeconds int `toml:"synthesize_timeout_seconds"`
	RemuxTimeoutSeconds      int `toml:"remux_timeout_seconds"`
}

// Retention controls the stale artifact sweeper.
type Retention struct {
	Enabled              bool `toml:"enabled"`
	MaxAgeHours          int  `toml:"max_age_hours"`
	SweepIntervalMinutes int  `toml:"sweep_interval_minutes"`
}

// Ledger controls the SQLite job history.
type Ledger struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Notifications contains the optional Redis outcome publisher settings.
type Notifications struct {
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	RedisList     string `toml:"redis_list"`
}

// Server contains HTTP surface settings.
type Server struct {
	CORSOrigins []string `toml:"cors_origins"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shortsdub.
//
// Configuration sections by subsystem:
//   - Paths: artifact/log directories and API bind address
//   - Languages: source and target spoken languages
//   - Downloader: yt-dlp invocation and playlist policy
//   - FFmpeg: transcoder binaries
//   - WhisperX: speech recognition
//   - LLM: translation model connection
//   - ElevenLabs: speech synthesis provider
//   - Pipeline: job and stage timeouts
//   - Retention: stale artifact cleanup
//   - Ledger: SQLite job history
//   - Notifications: Redis outcome publishing
//   - Server: HTTP surface (CORS)
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Languages     Languages     `toml:"languages"`
	Downloader    Downloader    `toml:"downloader"`
	FFmpeg        FFmpeg        `toml:"ffmpeg"`
	WhisperX      WhisperX      `toml:"whisperx"`
	LLM           LLM           `toml:"llm"`
	ElevenLabs    ElevenLabs    `toml:"elevenlabs"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Retention     Retention     `toml:"retention"`
	Ledger        Ledger        `toml:"ledger"`
	Notifications Notifications `toml:"notifications"`
	Server        Server        `toml:"server"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shortsdub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	if bin := strings.TrimSpace(c.FFmpeg.FFmpegBinary); bin != "" {
		return bin
	}
	return defaultFFmpegBinary
}

// FFprobeBinary returns the ffprobe executable name used for media validation.
func (c *Config) FFprobeBinary() string {
	if bin := strings.TrimSpace(c.FFmpeg.FFprobeBinary); bin != "" {
		return bin
	}
	return defaultFFprobeBinary
}

// LedgerPath returns the SQLite job history location.
func (c *Config) LedgerPath() string {
	if path := strings.TrimSpace(c.Ledger.Path); path != "" {
		return path
	}
	return filepath.Join(c.Paths.LogDir, "jobs.db")
}

// StageTimeouts holds resolved per-stage deadlines. Zero means no deadline.
type StageTimeouts struct {
	Acquire    time.Duration
	Extract    time.Duration
	Transcribe time.Duration
	Translate  time.Duration
	Synthesize time.Duration
	Remux      time.Duration
}

// Timeouts returns the stage deadlines derived from the pipeline section.
func (c *Config) Timeouts() StageTimeouts {
	return StageTimeouts{
		Acquire:    seconds(c.Pipeline.AcquireTimeoutSeconds),
		Extract:    seconds(c.Pipeline.ExtractTimeoutSeconds),
		Transcribe: seconds(c.Pipeline.TranscribeTimeoutSeconds),
		Translate:  seconds(c.Pipeline.TranslateTimeoutSeconds),
		Synthesize: seconds(c.Pipeline.SynthesizeTimeoutSeconds),
		Remux:      seconds(c.Pipeline.RemuxTimeoutSeconds),
	}
}

// JobTimeout bounds one whole pipeline run.
func (c *Config) JobTimeout() time.Duration {
	return seconds(c.Pipeline.JobTimeoutSeconds)
}

// RetentionMaxAge returns the artifact age after which files are reclaimed.
func (c *Config) RetentionMaxAge() time.Duration {
	return time.Duration(c.Retention.MaxAgeHours) * time.Hour
}

// RetentionInterval returns how often the daemon sweeps stale artifacts.
func (c *Config) RetentionInterval() time.Duration {
	return time.Duration(c.Retention.SweepIntervalMinutes) * time.Minute
}

func seconds(value int) time.Duration {
	if value <= 0 {
		return 0
	}
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration text.
func SampleConfig() string {
	return sampleConfig
}
