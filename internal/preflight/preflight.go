package preflight

import (
	"context"
	"strings"

	"shortsdub/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minFreeBytes is the free space below which the output directory check
// fails. A short source plus its intermediates stays well under this.
const minFreeBytes = 512 << 20

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir))
	results = append(results, CheckDiskSpace("Output disk space", cfg.Paths.OutputDir, minFreeBytes))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	results = append(results, CheckLLM(ctx, "Translation LLM", cfg.LLM))
	results = append(results, CheckElevenLabs(ctx, cfg.ElevenLabs))

	if strings.TrimSpace(cfg.Notifications.RedisAddr) != "" {
		results = append(results, CheckRedis(ctx, cfg))
	}

	return results
}
