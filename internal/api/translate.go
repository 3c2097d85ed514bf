package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"shortsdub/internal/job"
	"shortsdub/internal/logging"
	"shortsdub/internal/pipeline"
	"shortsdub/internal/services"
)

// ErrNotFound reports an unknown job or a job without a finished artifact.
var ErrNotFound = errors.New("job not found")

// Runner executes one dubbing job.
type Runner interface {
	Run(ctx context.Context, url string) pipeline.Outcome
}

// OutcomeRecorder persists final outcomes.
type OutcomeRecorder interface {
	Finish(ctx context.Context, outcome pipeline.Outcome) error
}

// Publisher announces final outcomes.
type Publisher interface {
	Publish(ctx context.Context, outcome pipeline.Outcome, downloadURL string) error
}

// RequestError carries the HTTP status a failed request maps to.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status for err, defaulting to 500.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Status > 0 {
		return reqErr.Status
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// TranslateOption customizes a TranslateService.
type TranslateOption func(*TranslateService)

// WithRecorder records every outcome.
func WithRecorder(recorder OutcomeRecorder) TranslateOption {
	return func(s *TranslateService) {
		s.recorder = recorder
	}
}

// WithPublisher announces every outcome.
func WithPublisher(publisher Publisher) TranslateOption {
	return func(s *TranslateService) {
		s.publisher = publisher
	}
}

// TranslateService runs dubbing requests synchronously.
type TranslateService struct {
	runner    Runner
	outputDir string
	recorder  OutcomeRecorder
	publisher Publisher
	logger    *slog.Logger
}

// NewTranslateService constructs a service around runner.
func NewTranslateService(runner Runner, outputDir string, logger *slog.Logger, opts ...TranslateOption) *TranslateService {
	if logger == nil {
		logger = logging.NewNop()
	}
	svc := &TranslateService{
		runner:    runner,
		outputDir: outputDir,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Translate validates req, runs the pipeline, and shapes the result.
func (s *TranslateService) Translate(ctx context.Context, req TranslateRequest) (TranslateResponse, error) {
	url := strings.TrimSpace(req.URL)
	if url == "" {
		return TranslateResponse{}, &RequestError{Status: http.StatusBadRequest, Message: "url is required"}
	}

	outcome := s.runner.Run(ctx, url)
	downloadURL := ""
	if outcome.Succeeded() {
		downloadURL = DownloadURL(outcome.JobID)
	}
	s.afterRun(ctx, outcome, downloadURL)

	if !outcome.Succeeded() {
		return TranslateResponse{}, &RequestError{
			Status:  failureStatus(outcome),
			Message: outcome.Message,
			Err:     outcome.Err,
		}
	}
	return TranslateResponse{
		Success:     true,
		JobID:       outcome.JobID,
		SourceText:  outcome.SourceText,
		TargetText:  outcome.TargetText,
		DownloadURL: downloadURL,
	}, nil
}

// afterRun never changes the response; bookkeeping failures are logged.
func (s *TranslateService) afterRun(ctx context.Context, outcome pipeline.Outcome, downloadURL string) {
	ctx = context.WithoutCancel(ctx)
	if s.recorder != nil && outcome.JobID != "" {
		if err := s.recorder.Finish(ctx, outcome); err != nil {
			logging.WarnWithContext(s.logger, "ledger finish failed", "ledger_write_failed",
				logging.JobID(outcome.JobID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "job history incomplete"),
			)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, outcome, downloadURL); err != nil {
			logging.WarnWithContext(s.logger, "outcome notification failed", "notification_failed",
				logging.JobID(outcome.JobID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "subscribers not informed"),
			)
		}
	}
}

// failureStatus maps bad input to 400 and everything else to 500.
func failureStatus(outcome pipeline.Outcome) int {
	if outcome.FailedStage == pipeline.StageAcquire && errors.Is(outcome.Err, services.ErrValidation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// DownloadURL is the relative path serving a job's final artifact.
func DownloadURL(jobID string) string {
	return "/api/download/" + jobID
}

// DownloadName is the attachment filename offered to clients.
func DownloadName(jobID string) string {
	return fmt.Sprintf("dubbed_%s.mp4", jobID)
}

// DownloadPath resolves a job id to its finished artifact.
func DownloadPath(outputDir, jobID string) (string, error) {
	jc, err := job.Open(outputDir, strings.TrimSpace(jobID))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, jobID)
	}
	path := jc.FinalPath()
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, jc.ID)
	}
	return path, nil
}

// DownloadPath resolves jobID within the service's output directory.
func (s *TranslateService) DownloadPath(jobID string) (string, error) {
	return DownloadPath(s.outputDir, jobID)
}
