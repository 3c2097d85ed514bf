package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"shortsdub/internal/config"
	"shortsdub/internal/job"
	"shortsdub/internal/logging"
	"shortsdub/internal/services"
	"shortsdub/internal/textutil"
)

// Orchestrator runs dubbing jobs against a fixed set of collaborators.
type Orchestrator struct {
	stages     Stages
	outputDir  string
	logDir     string
	source     string
	target     string
	timeouts   config.StageTimeouts
	jobTimeout time.Duration
	logger     *slog.Logger
	observer   Observer
	now        func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithObserver registers a transition observer.
func WithObserver(observer Observer) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// WithJobLogs tees each job's log lines into a per-job file under logDir.
func WithJobLogs(logDir string) Option {
	return func(o *Orchestrator) {
		o.logDir = strings.TrimSpace(logDir)
	}
}

// WithStageTimeouts overrides the per-stage deadlines from config.
func WithStageTimeouts(timeouts config.StageTimeouts) Option {
	return func(o *Orchestrator) {
		o.timeouts = timeouts
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New builds an orchestrator from the loaded configuration.
func New(cfg *config.Config, stages Stages, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("pipeline: config required")
	}
	if missing := stages.missing(); len(missing) > 0 {
		return nil, fmt.Errorf("pipeline: missing stage collaborators: %s", strings.Join(missing, ", "))
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		stages:     stages,
		outputDir:  cfg.Paths.OutputDir,
		source:     cfg.Languages.Source,
		target:     cfg.Languages.Target,
		timeouts:   cfg.Timeouts(),
		jobTimeout: cfg.JobTimeout(),
		logger:     logging.NewComponentLogger(logger, "pipeline"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes one job for url and returns its outcome. Run never panics on
// collaborator failures and never reports partial success.
func (o *Orchestrator) Run(ctx context.Context, url string) Outcome {
	started := o.now()
	if o.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.jobTimeout)
		defer cancel()
	}

	jc, err := job.New(o.outputDir)
	if err != nil {
		stageErr := &StageError{Detail: "cannot prepare job directory", Err: err}
		o.logger.Error("job setup failed",
			logging.EventType("job_setup_failure"),
			logging.String("output_dir", o.outputDir),
			logging.Error(err),
		)
		return Outcome{State: StateFailed, Message: stageErr.Error(), Err: stageErr, Elapsed: o.now().Sub(started)}
	}

	ctx = services.WithJobID(ctx, jc.ID)
	logger := o.logger.With(logging.JobID(jc.ID))
	if o.logDir != "" {
		jobLogger, closer, err := logging.OpenJobLogger(o.logger, o.logDir, jc.ID)
		if err != nil {
			logger.Warn("job log unavailable",
				logging.EventType("job_log_unavailable"),
				logging.ErrorHint("check log_dir permissions"),
				logging.Error(err),
			)
		} else {
			logger = jobLogger
			defer closeQuietly(closer)
		}
	}
	if requestID, ok := services.RequestIDFromContext(ctx); ok {
		logger = logger.With(logging.String(logging.FieldCorrelationID, requestID))
	}

	r := &run{o: o, jc: jc, url: url, logger: logger, state: StateCreated, started: started}
	r.notify(ctx, StateCreated, "", 0, "", "")
	logger.Info("job created",
		logging.EventType("job_created"),
		logging.String("source_url", url),
		logging.String("source_language", o.source),
		logging.String("target_language", o.target),
		logging.String("job_dir", jc.Dir),
	)
	return r.execute(ctx)
}

type run struct {
	o       *Orchestrator
	jc      job.Context
	url     string
	logger  *slog.Logger
	state   State
	started time.Time
}

func (r *run) execute(ctx context.Context) Outcome {
	o := r.o

	video := runStage(ctx, r, StageAcquire, o.timeouts.Acquire, func(ctx context.Context) (job.Artifact, error) {
		return o.stages.Acquirer.Acquire(ctx, r.jc, r.url)
	}, verifyArtifact)
	if !video.OK() {
		return r.fail(ctx, video.Stage, video.Err)
	}

	audio := runStage(ctx, r, StageExtract, o.timeouts.Extract, func(ctx context.Context) (job.Artifact, error) {
		return o.stages.Extractor.Extract(ctx, r.jc, video.Value)
	}, verifyArtifact)
	if !audio.OK() {
		return r.fail(ctx, audio.Stage, audio.Err)
	}

	transcript := runStage(ctx, r, StageTranscribe, o.timeouts.Transcribe, func(ctx context.Context) (job.Transcript, error) {
		return o.stages.Transcriber.Transcribe(ctx, r.jc, audio.Value, o.source)
	}, verifyTranscript)
	if !transcript.OK() {
		return r.fail(ctx, transcript.Stage, transcript.Err)
	}
	if transcript.Value.Language == "" {
		transcript.Value.Language = o.source
	}

	translation := runStage(ctx, r, StageTranslate, o.timeouts.Translate, func(ctx context.Context) (job.Translation, error) {
		return o.stages.Translator.Translate(ctx, transcript.Value, o.target)
	}, verifyTranslation)
	if !translation.OK() {
		return r.fail(ctx, translation.Stage, translation.Err)
	}

	dubbed := runStage(ctx, r, StageSynthesize, o.timeouts.Synthesize, func(ctx context.Context) (job.Artifact, error) {
		return o.stages.Synthesizer.Synthesize(ctx, r.jc, translation.Value)
	}, verifyArtifact)
	if !dubbed.OK() {
		return r.fail(ctx, dubbed.Stage, dubbed.Err)
	}

	final := runStage(ctx, r, StageRemux, o.timeouts.Remux, func(ctx context.Context) (job.Artifact, error) {
		return o.stages.Remuxer.Remux(ctx, r.jc, video.Value, dubbed.Value)
	}, verifyArtifact)
	if !final.OK() {
		return r.fail(ctx, final.Stage, final.Err)
	}

	elapsed := o.now().Sub(r.started)
	r.notify(ctx, StateDone, "", elapsed, final.Value.Path, "")
	r.logger.Info("job completed",
		logging.EventType("job_complete"),
		logging.String("output_path", final.Value.Path),
		logging.Duration("output_duration", final.Value.Duration),
		logging.Duration("job_duration", elapsed),
	)
	return Outcome{
		JobID:      r.jc.ID,
		SourceText: transcript.Value.Text,
		TargetText: translation.Value.Text,
		OutputPath: final.Value.Path,
		Duration:   final.Value.Duration,
		State:      StateDone,
		Elapsed:    elapsed,
	}
}

// runStage invokes one collaborator under the stage deadline, converts panics
// into failures, and validates the returned value before it can be used.
func runStage[T any](ctx context.Context, r *run, stage Stage, timeout time.Duration, call func(context.Context) (T, error), verify func(T) error) (result Result[T]) {
	stageCtx := services.WithStage(ctx, string(stage))
	if timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(stageCtx, timeout)
		defer cancel()
	}
	logger := r.logger.With(logging.Stage(string(stage)))
	started := r.o.now()
	r.notify(ctx, stage.State(), stage, 0, "", "")
	logger.Info("stage started", logging.EventType("stage_start"))

	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("stage panicked",
				logging.EventType("stage_panic"),
				logging.String("panic", fmt.Sprint(rec)),
				logging.String("stack", string(debug.Stack())),
			)
			result = Failed[T](stage, services.Wrap(services.ErrTransient, string(stage), "run", "unexpected error", fmt.Errorf("panic: %v", rec)))
		}
	}()

	value, err := call(stageCtx)
	if err == nil {
		err = verify(value)
	}
	if err != nil {
		if errors.Is(stageCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, services.ErrTimeout) {
			err = services.Wrap(services.ErrTimeout, string(stage), "deadline", "timeout", err)
		}
		return Failed[T](stage, err)
	}

	duration := r.o.now().Sub(started)
	attrs := []logging.Attr{
		logging.EventType("stage_complete"),
		logging.Duration("stage_duration", duration),
	}
	artifact := artifactPath(value)
	if artifact != "" {
		attrs = append(attrs, logging.String("artifact", artifact))
	}
	logger.Info("stage completed", logging.Args(attrs...)...)
	r.notify(ctx, stage.State(), stage, duration, artifact, "")
	return Ok(stage, value)
}

func (r *run) fail(ctx context.Context, stage Stage, err error) Outcome {
	stageErr := newStageError(stage, err)
	elapsed := r.o.now().Sub(r.started)
	details := services.Details(err)
	logging.ErrorWithContext(
		r.logger.With(logging.Stage(string(stage))),
		"stage failed",
		"stage_failure",
		logging.String("error_message", stageErr.Detail),
		logging.String("error_kind", details.Kind),
		logging.String("error_operation", details.Operation),
		logging.Alert("stage_failure"),
		logging.Duration("job_duration", elapsed),
		logging.Error(err),
	)
	r.notify(ctx, StateFailed, stage, elapsed, "", stageErr.Error())
	return Outcome{
		JobID:       r.jc.ID,
		FailedStage: stage,
		Message:     stageErr.Error(),
		State:       StateFailed,
		Elapsed:     elapsed,
		Err:         stageErr,
	}
}

func (r *run) notify(ctx context.Context, to State, stage Stage, duration time.Duration, artifact, message string) {
	from := r.state
	r.state = to
	if r.o.observer == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("transition observer panicked",
				logging.EventType("observer_panic"),
				logging.String("panic", fmt.Sprint(rec)),
			)
		}
	}()
	r.o.observer.Transition(ctx, Transition{
		JobID:     r.jc.ID,
		SourceURL: r.url,
		From:      from,
		To:        to,
		Stage:     stage,
		At:        r.o.now(),
		Duration:  duration,
		Artifact:  artifact,
		Message:   message,
	})
}

func verifyArtifact(a job.Artifact) error {
	if err := a.Verify(); err != nil {
		return services.Wrap(services.ErrValidation, "", "verify artifact", "artifact missing or empty", err)
	}
	return nil
}

func verifyTranscript(t job.Transcript) error {
	if textutil.IsBlank(t.Text) {
		return services.Wrap(services.ErrEmptyResult, "", "verify transcript", "empty result", nil)
	}
	return nil
}

func verifyTranslation(t job.Translation) error {
	if textutil.IsBlank(t.Text) {
		return services.Wrap(services.ErrEmptyResult, "", "verify translation", "empty result", nil)
	}
	return nil
}

func artifactPath(value any) string {
	if a, ok := value.(job.Artifact); ok {
		return a.Path
	}
	return ""
}

func closeQuietly(c io.Closer) {
	if c != nil {
		_ = c.Close()
	}
}
