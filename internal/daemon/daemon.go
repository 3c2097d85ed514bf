package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"shortsdub/internal/api"
	"shortsdub/internal/config"
	"shortsdub/internal/ledger"
	"shortsdub/internal/logging"
	"shortsdub/internal/notifications"
	"shortsdub/internal/preflight"
	"shortsdub/internal/retention"
	"shortsdub/internal/stage"
)

// LockFileName is the single-instance lock under the log directory.
const LockFileName = "shortsdubd.lock"

// Options carries the collaborators the daemon serves. Ledger and Notifier
// are optional.
type Options struct {
	Runner   api.Runner
	Voices   api.VoiceLister
	Ledger   *ledger.Store
	Notifier notifications.Service
}

// Daemon owns the HTTP surface, the retention sweeper, and the
// single-instance lock.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger

	translate *api.TranslateService
	jobs      *api.JobService
	voices    *api.VoiceService
	ledger    *ledger.Store

	lockPath string
	lock     *flock.Flock
	server   *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Daemon, error) {
	if cfg == nil || opts.Runner == nil || opts.Voices == nil {
		return nil, errors.New("daemon requires config, pipeline runner, and voice lister")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	var translateOpts []api.TranslateOption
	if opts.Ledger != nil {
		translateOpts = append(translateOpts, api.WithRecorder(opts.Ledger))
	}
	if opts.Notifier != nil {
		translateOpts = append(translateOpts, api.WithPublisher(opts.Notifier))
	}

	d := &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		translate: api.NewTranslateService(opts.Runner, cfg.Paths.OutputDir, logger, translateOpts...),
		voices:    api.NewVoiceService(opts.Voices, cfg.Languages.Target),
		ledger:    opts.Ledger,
		lockPath:  filepath.Join(cfg.Paths.LogDir, LockFileName),
	}
	if opts.Ledger != nil {
		d.jobs = api.NewJobService(opts.Ledger)
	}
	d.lock = flock.New(d.lockPath)
	d.server = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, starts serving, and launches the
// retention sweeper when enabled.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another shortsdub daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}
	d.cancel = cancel

	if d.cfg.Retention.Enabled {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			retention.Loop(runCtx, d.cfg.RetentionInterval(), d.sweepOptions())
		}()
	}

	d.running.Store(true)
	d.logger.Info("shortsdub daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.server.addr()),
		logging.Bool("retention", d.cfg.Retention.Enabled),
		logging.Bool("ledger", d.ledger != nil),
	)
	return nil
}

// Stop stops serving, waits for the sweeper, and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("shortsdub daemon stopped")
}

// Addr returns the bound listener address once started.
func (d *Daemon) Addr() string {
	return d.server.addr()
}

// LockPath returns the single-instance lock file path.
func (d *Daemon) LockPath() string {
	return d.lockPath
}

// Health reports dependency availability and per-stage readiness without
// calling remote providers.
func (d *Daemon) Health(context.Context) api.HealthStatus {
	statuses := preflight.CheckSystemDeps(d.cfg)
	stages := preflight.StageReadiness(d.cfg, statuses)
	overall, _ := stage.Overall(stages)
	status := api.HealthStatus{
		Status:         overall,
		PID:            os.Getpid(),
		SourceLanguage: d.cfg.Languages.Source,
		TargetLanguage: d.cfg.Languages.Target,
		Stages:         api.FromStageHealth(stages),
		Dependencies:   api.FromDependencies(statuses),
	}
	if d.ledger != nil {
		status.LedgerPath = d.ledger.Path()
	}
	return status
}

func (d *Daemon) sweepOptions() retention.Options {
	opts := retention.Options{
		OutputDir: d.cfg.Paths.OutputDir,
		LogDir:    d.cfg.Paths.LogDir,
		MaxAge:    d.cfg.RetentionMaxAge(),
		Logger:    d.logger,
	}
	if d.ledger != nil {
		opts.Ledger = d.ledger
	}
	return opts
}
