package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"shortsdub/internal/services"
)

var (
	ErrAcquireFailed    = errors.New("acquire failed")
	ErrExtractFailed    = errors.New("extract_audio failed")
	ErrTranscribeFailed = errors.New("transcribe failed")
	ErrTranslateFailed  = errors.New("translate failed")
	ErrSynthesizeFailed = errors.New("synthesize failed")
	ErrRemuxFailed      = errors.New("remux failed")
	// ErrSetupFailed covers failures before the first stage, such as an
	// unwritable output directory.
	ErrSetupFailed = errors.New("job setup failed")
)

// Sentinel returns the taxonomy error for stage.
func (s Stage) Sentinel() error {
	switch s {
	case StageAcquire:
		return ErrAcquireFailed
	case StageExtract:
		return ErrExtractFailed
	case StageTranscribe:
		return ErrTranscribeFailed
	case StageTranslate:
		return ErrTranslateFailed
	case StageSynthesize:
		return ErrSynthesizeFailed
	case StageRemux:
		return ErrRemuxFailed
	default:
		return ErrSetupFailed
	}
}

// StageError is the single user-facing failure of a run.
type StageError struct {
	Stage  Stage
	Detail string
	Err    error
}

func (e *StageError) Error() string {
	name := string(e.Stage)
	if name == "" {
		name = "job setup"
	}
	return fmt.Sprintf("%s failed: %s", name, e.Detail)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Stage.Sentinel()}
	}
	return []error{e.Stage.Sentinel(), e.Err}
}

func newStageError(stage Stage, err error) *StageError {
	return &StageError{Stage: stage, Detail: failureDetail(err), Err: err}
}

// failureDetail prefers the adapter's user-facing message over the raw chain.
func failureDetail(err error) string {
	if err == nil {
		return "unknown error"
	}
	if errors.Is(err, services.ErrTimeout) {
		return "timeout"
	}
	details := services.Details(err)
	if msg := strings.TrimSpace(details.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(err.Error())
}
