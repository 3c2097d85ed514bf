package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"shortsdub/internal/config"
	"shortsdub/internal/deps"
	"shortsdub/internal/notifications"
	"shortsdub/internal/pipeline"
	"shortsdub/internal/services/elevenlabs"
	"shortsdub/internal/services/llm"
	"shortsdub/internal/services/retry"
	"shortsdub/internal/services/whisperx"
	"shortsdub/internal/stage"
)

const probeTimeout = 30 * time.Second

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err, "LLM API")}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckElevenLabs verifies the speech provider key and that the configured
// voice is set.
func CheckElevenLabs(ctx context.Context, cfg config.ElevenLabs) Result {
	const name = "ElevenLabs"

	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	if strings.TrimSpace(cfg.VoiceID) == "" {
		return Result{Name: name, Detail: "voice id missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	client := elevenlabs.NewClient(elevenlabs.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		VoiceID: cfg.VoiceID,
	}, elevenlabs.WithRetryPolicy(retry.Policy{MaxAttempts: 1}))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeError(err, "ElevenLabs API")}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckRedis pings the notification list's server.
func CheckRedis(ctx context.Context, cfg *config.Config) Result {
	const name = "Notifications"

	svc := notifications.NewService(cfg)
	defer svc.Close()

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := svc.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", cfg.Notifications.RedisAddr, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", cfg.Notifications.RedisAddr)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDiskSpace fails when the filesystem holding path has less than
// minFree bytes available to unprivileged users.
func CheckDiskSpace(name, path string, minFree uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%s (%s free)", path, formatBytes(free))
	if free < minFree {
		return Result{Name: name, Detail: detail + fmt.Sprintf(", need %s", formatBytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckSystemDeps evaluates the binaries the stage adapters shell out to.
// Both the daemon health endpoint and the CLI doctor command use this.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "yt-dlp",
			Command:     cfg.Downloader.Command,
			Description: "Required to download source videos",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio extraction and remux",
		},
	})
	statuses = append(statuses, deps.ResolveFFprobe(cfg.FFmpegBinary(), cfg.FFprobeBinary()))
	statuses = append(statuses, deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "uvx",
			Command:     whisperx.UVXCommand,
			Description: "Required for WhisperX-driven transcription",
		},
	})...)
	return statuses
}

// StageReadiness maps dependency availability and provider settings onto
// each pipeline stage, in execution order. It performs no network calls.
func StageReadiness(cfg *config.Config, statuses []deps.Status) []stage.Health {
	available := make(map[string]deps.Status, len(statuses))
	for _, s := range statuses {
		available[s.Name] = s
	}
	binary := func(st pipeline.Stage, names ...string) stage.Health {
		for _, n := range names {
			if s, ok := available[n]; ok && !s.Available {
				return stage.Unhealthy(string(st), fmt.Sprintf("%s unavailable: %s", n, s.Detail))
			}
		}
		return stage.Healthy(string(st))
	}

	health := make([]stage.Health, 0, len(pipeline.Order))
	for _, st := range pipeline.Order {
		switch st {
		case pipeline.StageAcquire:
			health = append(health, binary(st, "yt-dlp"))
		case pipeline.StageExtract:
			health = append(health, binary(st, "FFmpeg"))
		case pipeline.StageTranscribe:
			health = append(health, binary(st, "uvx"))
		case pipeline.StageTranslate:
			if strings.TrimSpace(cfg.LLM.APIKey) == "" {
				health = append(health, stage.Unhealthy(string(st), "llm api key missing"))
				continue
			}
			health = append(health, stage.Healthy(string(st)))
		case pipeline.StageSynthesize:
			switch {
			case strings.TrimSpace(cfg.ElevenLabs.APIKey) == "":
				health = append(health, stage.Unhealthy(string(st), "elevenlabs api key missing"))
			case strings.TrimSpace(cfg.ElevenLabs.VoiceID) == "":
				health = append(health, stage.Unhealthy(string(st), "elevenlabs voice id missing"))
			default:
				health = append(health, stage.Healthy(string(st)))
			}
		case pipeline.StageRemux:
			health = append(health, binary(st, "FFmpeg", "FFprobe"))
		}
	}
	return health
}

// summarizeError produces a human-readable summary for provider probe failures.
func summarizeError(err error, target string) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("health check timed out (%s unresponsive)", target)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("health check timed out (%s unreachable)", target)
	}
	var statusErr *retry.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case 401, 403:
			return "auth failed (invalid api key)"
		}
		return fmt.Sprintf("health check failed (%d)", statusErr.StatusCode)
	}
	return err.Error()
}

func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
