// Package ytdlp fetches the source video for a job with the yt-dlp CLI.
package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"shortsdub/internal/job"
	"shortsdub/internal/services"
)

const stageName = "acquire"

// Playlist policies.
const (
	PlaylistReject = "reject"
	PlaylistFirst  = "first"
)

// Config captures downloader settings.
type Config struct {
	// Command is the yt-dlp executable.
	Command string
	// Format is the yt-dlp format selector.
	Format string
	// PlaylistPolicy decides what happens when a URL names a playlist.
	PlaylistPolicy string
}

// Service downloads a single video per job.
type Service struct {
	cfg Config
	run services.CommandRunner
}

// NewService creates a downloader with defaults filled in.
func NewService(cfg Config) *Service {
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = "yt-dlp"
	}
	if strings.TrimSpace(cfg.Format) == "" {
		cfg.Format = "best[ext=mp4]/best"
	}
	if cfg.PlaylistPolicy == "" {
		cfg.PlaylistPolicy = PlaylistReject
	}
	return &Service{cfg: cfg, run: services.RunCommand}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner services.CommandRunner) {
	if runner != nil {
		s.run = runner
	}
}

// Acquire downloads rawURL into the job's original video path.
func (s *Service) Acquire(ctx context.Context, jc job.Context, rawURL string) (job.Artifact, error) {
	target, err := ValidateURL(rawURL)
	if err != nil {
		return job.Artifact{}, services.Wrap(services.ErrValidation, stageName, "validate url", err.Error(), nil)
	}

	if s.cfg.PlaylistPolicy == PlaylistReject {
		if err := s.rejectPlaylist(ctx, target); err != nil {
			return job.Artifact{}, err
		}
	}

	dest := jc.OriginalPath()
	tmp := job.TempPath(dest)
	cleanup := func() { removeWithLeftovers(tmp) }
	cleanup()

	if _, err := s.run(ctx, s.cfg.Command, s.downloadArgs(target, tmp)...); err != nil {
		cleanup()
		return job.Artifact{}, services.Wrap(services.CommandMarker(err), stageName, "download", classify(err), err)
	}
	if err := (job.Artifact{Path: tmp}).Verify(); err != nil {
		cleanup()
		return job.Artifact{}, services.Wrap(services.ErrExternalTool, stageName, "download", "downloader produced no file", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		cleanup()
		return job.Artifact{}, services.Wrap(services.ErrExternalTool, stageName, "finalize", "rename download", err)
	}
	cleanup()
	return job.Artifact{Path: dest, Kind: job.KindVideo}, nil
}

// ValidateURL accepts absolute http(s) URLs only.
func ValidateURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("url is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("invalid url: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("url has no host")
	}
	return trimmed, nil
}

func (s *Service) downloadArgs(target, output string) []string {
	args := []string{
		"--no-progress",
		"--no-warnings",
		"--force-overwrites",
		"--no-mtime",
		"-f", s.cfg.Format,
		"--merge-output-format", "mp4",
		"--no-playlist",
	}
	if s.cfg.PlaylistPolicy == PlaylistFirst {
		args = append(args, "--playlist-items", "1")
	}
	return append(args, "-o", output, "--", target)
}

type probeInfo struct {
	Type    string `json:"_type"`
	Title   string `json:"title"`
	Entries []struct {
		ID string `json:"id"`
	} `json:"entries"`
}

func (s *Service) rejectPlaylist(ctx context.Context, target string) error {
	out, err := s.run(ctx, s.cfg.Command, "--flat-playlist", "--dump-single-json", "--no-warnings", "--", target)
	if err != nil {
		return services.Wrap(services.CommandMarker(err), stageName, "probe url", classify(err), err)
	}
	var info probeInfo
	if err := json.Unmarshal(out, &info); err != nil {
		return services.Wrap(services.ErrExternalTool, stageName, "probe url", "unreadable probe output", err)
	}
	if strings.EqualFold(info.Type, "playlist") {
		msg := fmt.Sprintf("url resolves to a playlist of %d items; set downloader.playlist_policy = %q to take the first", len(info.Entries), PlaylistFirst)
		return services.Wrap(services.ErrValidation, stageName, "probe url", msg, nil)
	}
	return nil
}

// classify maps common yt-dlp failures to a short user-facing message.
func classify(err error) string {
	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "unsupported url"):
		return "unsupported url"
	case strings.Contains(text, "not available in your country"), strings.Contains(text, "geo-restrict"), strings.Contains(text, "geo restrict"):
		return "content is geo-restricted"
	case strings.Contains(text, "sign in"), strings.Contains(text, "login"), strings.Contains(text, "private video"):
		return "content requires authentication"
	case strings.Contains(text, "unable to download webpage"), strings.Contains(text, "name or service not known"):
		return "url unreachable"
	default:
		return "download failed"
	}
}

// removeWithLeftovers deletes path plus any .part/.ytdl fragments yt-dlp left beside it.
func removeWithLeftovers(path string) {
	_ = os.Remove(path)
	matches, _ := filepath.Glob(path + ".*")
	for _, match := range matches {
		_ = os.Remove(match)
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	fragments, _ := filepath.Glob(base + ".f*")
	for _, match := range fragments {
		_ = os.Remove(match)
	}
}
