package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shortsdub/internal/job"
	"shortsdub/internal/services"
	"shortsdub/internal/services/retry"
	"shortsdub/internal/textutil"
)

const (
	stageName          = "synthesize"
	defaultBaseURL     = "https://api.elevenlabs.io"
	defaultModelID     = "eleven_multilingual_v2"
	defaultTimeout     = 120 * time.Second
	defaultMaxChars    = 5000
	defaultFFmpeg      = "ffmpeg"
	maxErrorBodyLength = 512
)

// Config contains provider settings.
type Config struct {
	APIKey          string
	BaseURL         string
	VoiceID         string
	ModelID         string
	Stability       float64
	SimilarityBoost float64
	MaxChars        int
	TimeoutSeconds  int
	// FFmpegBinary joins multi-chunk output.
	FFmpegBinary string
}

// Client talks to the ElevenLabs REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	retry      retry.Policy
	run        services.CommandRunner
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryPolicy overrides the provider retry policy.
func WithRetryPolicy(policy retry.Policy) Option {
	return func(c *Client) {
		c.retry = policy
	}
}

// WithCommandRunner overrides the runner used to join chunks.
func WithCommandRunner(runner services.CommandRunner) Option {
	return func(c *Client) {
		if runner != nil {
			c.run = runner
		}
	}
}

// NewClient constructs a synthesizer from cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.VoiceID = strings.TrimSpace(cfg.VoiceID)
	cfg.ModelID = strings.TrimSpace(cfg.ModelID)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModelID
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = defaultMaxChars
	}
	cfg.FFmpegBinary = strings.TrimSpace(cfg.FFmpegBinary)
	if cfg.FFmpegBinary == "" {
		cfg.FFmpegBinary = defaultFFmpeg
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retry.Default(),
		run:        services.RunCommand,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// VoiceID returns the configured voice for logging.
func (c *Client) VoiceID() string {
	return c.cfg.VoiceID
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Synthesize voices the translation and writes the MP3 to the job's target
// audio path.
func (c *Client) Synthesize(ctx context.Context, jc job.Context, translation job.Translation) (job.Artifact, error) {
	if c.cfg.APIKey == "" {
		return job.Artifact{}, services.Wrap(services.ErrConfiguration, stageName, "validate config", "elevenlabs api key required", nil)
	}
	if c.cfg.VoiceID == "" {
		return job.Artifact{}, services.Wrap(services.ErrConfiguration, stageName, "validate config", "elevenlabs voice id required", nil)
	}
	chunks := textutil.Chunk(translation.Text, c.cfg.MaxChars)
	if len(chunks) == 0 {
		return job.Artifact{}, services.Wrap(services.ErrValidation, stageName, "validate input", "empty translation", nil)
	}

	dest := jc.TargetAudioPath()
	tmp := job.TempPath(dest)
	keep := false
	defer func() {
		if !keep {
			_ = os.Remove(tmp)
		}
	}()

	if len(chunks) == 1 {
		audio, err := c.fetchChunk(ctx, chunks[0], "text to speech")
		if err != nil {
			return job.Artifact{}, err
		}
		if err := os.WriteFile(tmp, audio, 0o644); err != nil {
			return job.Artifact{}, services.Wrap(services.ErrExternalTool, stageName, "write output", "cannot write audio", err)
		}
	} else if err := c.synthesizeChunks(ctx, chunks, tmp); err != nil {
		return job.Artifact{}, err
	}

	if err := os.Rename(tmp, dest); err != nil {
		return job.Artifact{}, services.Wrap(services.ErrExternalTool, stageName, "finalize output", "cannot rename audio", err)
	}
	keep = true
	return job.Artifact{Path: dest, Kind: job.KindAudio}, nil
}

func (c *Client) fetchChunk(ctx context.Context, text, operation string) ([]byte, error) {
	audio, err := c.requestSpeech(ctx, text)
	if err != nil {
		return nil, wrapRequestError(err, operation)
	}
	if len(audio) == 0 {
		return nil, services.Wrap(services.ErrEmptyResult, stageName, operation, "empty result", nil)
	}
	return audio, nil
}

// synthesizeChunks joins per-chunk responses with the ffmpeg concat demuxer.
// Each response is a complete MP3 that may carry its own ID3 tag and
// Xing/Info frame, so the parts are remuxed rather than byte-appended.
func (c *Client) synthesizeChunks(ctx context.Context, chunks []string, output string) error {
	base := strings.TrimSuffix(output, filepath.Ext(output))
	listPath := base + ".concat.txt"
	parts := make([]string, 0, len(chunks))
	defer func() {
		for _, part := range parts {
			_ = os.Remove(part)
		}
		_ = os.Remove(listPath)
	}()

	var list strings.Builder
	for i, chunk := range chunks {
		operation := fmt.Sprintf("chunk %d/%d", i+1, len(chunks))
		audio, err := c.fetchChunk(ctx, chunk, operation)
		if err != nil {
			return err
		}
		part := fmt.Sprintf("%s.part%03d.mp3", base, i+1)
		parts = append(parts, part)
		if err := os.WriteFile(part, audio, 0o644); err != nil {
			return services.Wrap(services.ErrExternalTool, stageName, "write output", "cannot write audio chunk", err)
		}
		fmt.Fprintf(&list, "file '%s'\n", strings.ReplaceAll(part, "'", `'\''`))
	}
	if err := os.WriteFile(listPath, []byte(list.String()), 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "write output", "cannot write concat list", err)
	}

	args := []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "concat", "-safe", "0", "-i", listPath,
		"-c", "copy", "-f", "mp3", output,
	}
	if _, err := c.run(ctx, c.cfg.FFmpegBinary, args...); err != nil {
		return services.Wrap(services.CommandMarker(err), stageName, "join chunks", "ffmpeg concat failed", err)
	}
	return nil
}

func (c *Client) requestSpeech(ctx context.Context, text string) ([]byte, error) {
	endpoint, err := url.JoinPath(c.cfg.BaseURL, "v1", "text-to-speech", c.cfg.VoiceID)
	if err != nil {
		return nil, fmt.Errorf("build endpoint: %w", err)
	}
	body, err := json.Marshal(speechRequest{
		Text:    text,
		ModelID: c.cfg.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.SimilarityBoost,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	var audio []byte
	err = c.retry.Do(ctx, "elevenlabs tts", func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "audio/mpeg")
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("xi-api-key", c.cfg.APIKey)
		payload, err := c.do(req, "elevenlabs tts")
		if err != nil {
			return err
		}
		audio = payload
		return nil
	})
	if err != nil {
		return nil, err
	}
	return audio, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, retry.NewStatusError(op, resp, truncate(payload))
	}
	return payload, nil
}

func truncate(body []byte) []byte {
	if len(body) <= maxErrorBodyLength {
		return body
	}
	return body[:maxErrorBodyLength]
}

func wrapRequestError(err error, operation string) error {
	var statusErr *retry.StatusError
	switch {
	case errors.As(err, &statusErr):
		msg := fmt.Sprintf("http %d: %s", statusErr.StatusCode, statusErr.Body)
		return services.Wrap(services.ErrProviderStatus, stageName, operation, msg, err)
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, stageName, operation, "timeout", err)
	default:
		return services.Wrap(services.ErrTransient, stageName, operation, "speech request failed", err)
	}
}
