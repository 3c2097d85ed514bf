package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"shortsdub/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigShowCommand(ctx))

	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			var err error
			if target == "" {
				target, err = config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
			} else if target, err = config.ExpandPath(target); err != nil {
				return fmt.Errorf("resolve config path: %w", err)
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Set OPENROUTER_API_KEY and ELEVENLABS_API_KEY (or edit the file) before running shortsdub.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets redacted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", ctx.configPath)
			fmt.Fprintln(out, renderTable(tableLayout{
				Headers: []string{"Setting", "Value"},
				Rows:    configSummary(cfg),
			}))
			return nil
		},
	}
}

// configSummary is the redacted view printed by config show.
func configSummary(cfg *config.Config) [][]string {
	return [][]string{
		{"paths.output_dir", cfg.Paths.OutputDir},
		{"paths.log_dir", cfg.Paths.LogDir},
		{"paths.static_dir", cfg.Paths.StaticDir},
		{"paths.api_bind", cfg.Paths.APIBind},
		{"languages", cfg.Languages.Source + " -> " + cfg.Languages.Target},
		{"downloader.playlist_policy", cfg.Downloader.PlaylistPolicy},
		{"ffmpeg.ffmpeg_binary", cfg.FFmpegBinary()},
		{"ffmpeg.ffprobe_binary", cfg.FFprobeBinary()},
		{"whisperx.model", cfg.WhisperX.Model},
		{"whisperx.cuda_enabled", yesNo(cfg.WhisperX.CUDAEnabled)},
		{"llm.model", cfg.LLM.Model},
		{"llm.api_key", redact(cfg.LLM.APIKey)},
		{"elevenlabs.voice_id", cfg.ElevenLabs.VoiceID},
		{"elevenlabs.model_id", cfg.ElevenLabs.ModelID},
		{"elevenlabs.api_key", redact(cfg.ElevenLabs.APIKey)},
		{"pipeline.job_timeout", cfg.JobTimeout().String()},
		{"retention.enabled", yesNo(cfg.Retention.Enabled)},
		{"retention.max_age", cfg.RetentionMaxAge().String()},
		{"ledger.path", ledgerLabel(cfg)},
		{"notifications.redis_addr", cfg.Notifications.RedisAddr},
		{"logging", cfg.Logging.Format + "/" + cfg.Logging.Level},
	}
}

func ledgerLabel(cfg *config.Config) string {
	if !cfg.Ledger.Enabled {
		return "disabled"
	}
	return cfg.LedgerPath()
}

func redact(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-2:]
}
