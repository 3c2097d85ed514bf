package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"shortsdub/internal/config"
	"shortsdub/internal/daemon"
	"shortsdub/internal/deps"
	"shortsdub/internal/ledger"
	"shortsdub/internal/logging"
	"shortsdub/internal/notifications"
	"shortsdub/internal/pipeline"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the shortsdub daemon and blocks until a signal or cmdCtx ends.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("shortsdub-%s.log", runID))
	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update shortsdub.log link: %v\n", err)
	}
	if cfg.Retention.Enabled {
		logging.CleanupOldLogs(logger, cfg.RetentionMaxAge(),
			logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "shortsdub-*.log", Exclude: []string{logPath}},
		)
	}
	pidPath := filepath.Join(cfg.Paths.LogDir, "shortsdub.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	stages, speech := BuildStages(cfg)
	pipelineOpts := []pipeline.Option{pipeline.WithJobLogs(cfg.Paths.LogDir)}
	daemonOpts := daemon.Options{Voices: speech}

	if cfg.Ledger.Enabled {
		store, err := ledger.Open(cfg.LedgerPath())
		if err != nil {
			logger.Error("open job ledger", logging.Error(err),
				logging.String(logging.FieldEventType, "ledger_open_failed"),
				logging.String(logging.FieldErrorHint, "check ledger.path permissions or disable the ledger"),
			)
			return err
		}
		defer store.Close()
		pipelineOpts = append(pipelineOpts, pipeline.WithObserver(store.Observer(logger)))
		daemonOpts.Ledger = store
	}

	notifier := notifications.NewService(cfg)
	defer notifier.Close()
	daemonOpts.Notifier = notifier

	orchestrator, err := pipeline.New(cfg, stages, logger, pipelineOpts...)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	daemonOpts.Runner = orchestrator

	d, err := daemon.New(cfg, logger, daemonOpts)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(signalCtx); err != nil {
		logger.Error("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check paths.api_bind and whether another daemon holds "+d.LockPath()),
		)
		return err
	}
	defer d.Stop()

	<-signalCtx.Done()
	logger.Info("shortsdub daemon shutting down")
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "shortsdub.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	ffprobe := deps.ResolveFFprobe(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.String("source_language", cfg.Languages.Source),
		logging.String("target_language", cfg.Languages.Target),
		logging.Bool("ytdlp_available", binaryAvailable(cfg.Downloader.Command)),
		logging.String("playlist_policy", cfg.Downloader.PlaylistPolicy),
		logging.Bool("ffmpeg_available", binaryAvailable(cfg.FFmpegBinary())),
		logging.String("ffmpeg_binary", cfg.FFmpegBinary()),
		logging.Bool("ffprobe_available", ffprobe.Available),
		logging.String("ffprobe_binary", ffprobe.Command),
		logging.Bool("uvx_available", binaryAvailable("uvx")),
		logging.Bool("whisperx_cuda", cfg.WhisperX.CUDAEnabled),
		logging.String("whisperx_model", cfg.WhisperX.Model),
		logging.Bool("llm_key_present", strings.TrimSpace(cfg.LLM.APIKey) != ""),
		logging.Bool("elevenlabs_key_present", strings.TrimSpace(cfg.ElevenLabs.APIKey) != ""),
		logging.Bool("elevenlabs_voice_set", strings.TrimSpace(cfg.ElevenLabs.VoiceID) != ""),
		logging.Bool("ledger_enabled", cfg.Ledger.Enabled),
		logging.Bool("notifications_enabled", strings.TrimSpace(cfg.Notifications.RedisAddr) != ""),
	)
}

func binaryAvailable(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	_, err := exec.LookPath(name)
	return err == nil
}
