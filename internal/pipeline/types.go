package pipeline

import (
	"context"
	"time"
)

// Stage names one pipeline step.
type Stage string

const (
	StageAcquire    Stage = "acquire"
	StageExtract    Stage = "extract_audio"
	StageTranscribe Stage = "transcribe"
	StageTranslate  Stage = "translate"
	StageSynthesize Stage = "synthesize"
	StageRemux      Stage = "remux"
)

// Order lists the stages in execution order.
var Order = []Stage{StageAcquire, StageExtract, StageTranscribe, StageTranslate, StageSynthesize, StageRemux}

// State is the job lifecycle position.
type State string

const (
	StateCreated         State = "created"
	StateDownloading     State = "downloading"
	StateExtractingAudio State = "extracting_audio"
	StateTranscribing    State = "transcribing"
	StateTranslating     State = "translating"
	StateSynthesizing    State = "synthesizing"
	StateRemuxing        State = "remuxing"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// State returns the processing state entered when the stage starts.
func (s Stage) State() State {
	switch s {
	case StageAcquire:
		return StateDownloading
	case StageExtract:
		return StateExtractingAudio
	case StageTranscribe:
		return StateTranscribing
	case StageTranslate:
		return StateTranslating
	case StageSynthesize:
		return StateSynthesizing
	case StageRemux:
		return StateRemuxing
	default:
		return StateCreated
	}
}

// Terminal reports whether no further transition can follow.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Result is the tagged outcome of one stage.
type Result[T any] struct {
	Value T
	Stage Stage
	Err   error
}

// Ok wraps a successful stage value.
func Ok[T any](stage Stage, value T) Result[T] {
	return Result[T]{Value: value, Stage: stage}
}

// Failed wraps a stage failure.
func Failed[T any](stage Stage, err error) Result[T] {
	return Result[T]{Stage: stage, Err: err}
}

// OK reports whether the stage succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Outcome is the externally visible result of a run. On success OutputPath
// names the final video; on failure FailedStage and Message describe the
// first failure.
type Outcome struct {
	JobID       string
	SourceText  string
	TargetText  string
	OutputPath  string
	Duration    time.Duration
	FailedStage Stage
	Message     string
	State       State
	Elapsed     time.Duration
	Err         error
}

// Succeeded reports whether every stage completed.
func (o Outcome) Succeeded() bool {
	return o.State == StateDone
}

// Transition is one state change reported to an Observer.
type Transition struct {
	JobID     string
	SourceURL string
	From      State
	To        State
	Stage     Stage
	At        time.Time
	Duration  time.Duration
	Artifact  string
	Message   string
}

// Observer receives job state transitions. Implementations must not block
// for long; they run on the job's goroutine.
type Observer interface {
	Transition(ctx context.Context, t Transition)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, t Transition)

// Transition calls f.
func (f ObserverFunc) Transition(ctx context.Context, t Transition) {
	f(ctx, t)
}
