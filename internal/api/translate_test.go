package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"shortsdub/internal/job"
	"shortsdub/internal/pipeline"
	"shortsdub/internal/services"
)

type stubRunner struct {
	outcome pipeline.Outcome
	urls    []string
}

func (s *stubRunner) Run(_ context.Context, url string) pipeline.Outcome {
	s.urls = append(s.urls, url)
	return s.outcome
}

type recordingSink struct {
	finished  []pipeline.Outcome
	published []string
	err       error
}

func (r *recordingSink) Finish(_ context.Context, outcome pipeline.Outcome) error {
	r.finished = append(r.finished, outcome)
	return r.err
}

func (r *recordingSink) Publish(_ context.Context, _ pipeline.Outcome, downloadURL string) error {
	r.published = append(r.published, downloadURL)
	return r.err
}

func TestTranslateSuccess(t *testing.T) {
	runner := &stubRunner{outcome: pipeline.Outcome{
		JobID:      "0123456789ab",
		SourceText: "안녕하세요",
		TargetText: "こんにちは",
		OutputPath: "/tmp/0123456789ab_final.mp4",
		State:      pipeline.StateDone,
	}}
	sink := &recordingSink{}
	svc := NewTranslateService(runner, t.TempDir(), nil, WithRecorder(sink), WithPublisher(sink))

	resp, err := svc.Translate(context.Background(), TranslateRequest{URL: "  https://example.com/v  "})
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if !resp.Success || resp.JobID != "0123456789ab" {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if resp.DownloadURL != "/api/download/0123456789ab" {
		t.Fatalf("unexpected download url %q", resp.DownloadURL)
	}
	if resp.SourceText != "안녕하세요" || resp.TargetText != "こんにちは" {
		t.Fatalf("texts not carried through: %#v", resp)
	}
	if len(runner.urls) != 1 || runner.urls[0] != "https://example.com/v" {
		t.Fatalf("expected trimmed url, got %v", runner.urls)
	}
	if len(sink.finished) != 1 || len(sink.published) != 1 {
		t.Fatalf("expected outcome recorded and published, got %d/%d", len(sink.finished), len(sink.published))
	}
}

func TestTranslateMissingURL(t *testing.T) {
	runner := &stubRunner{}
	svc := NewTranslateService(runner, t.TempDir(), nil)

	_, err := svc.Translate(context.Background(), TranslateRequest{URL: "   "})
	if StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%v)", StatusCode(err), err)
	}
	if len(runner.urls) != 0 {
		t.Fatalf("pipeline must not run without a url")
	}
}

func TestTranslateFailureStatus(t *testing.T) {
	tests := []struct {
		name    string
		outcome pipeline.Outcome
		want    int
	}{
		{
			name: "invalid url",
			outcome: pipeline.Outcome{
				JobID:       "0123456789ab",
				State:       pipeline.StateFailed,
				FailedStage: pipeline.StageAcquire,
				Message:     "acquire failed: playlist urls are not supported",
				Err:         services.Wrap(services.ErrValidation, "acquire", "probe", "playlist urls are not supported", nil),
			},
			want: http.StatusBadRequest,
		},
		{
			name: "download error",
			outcome: pipeline.Outcome{
				JobID:       "0123456789ab",
				State:       pipeline.StateFailed,
				FailedStage: pipeline.StageAcquire,
				Message:     "acquire failed: video unavailable",
				Err:         services.Wrap(services.ErrExternalTool, "acquire", "download", "video unavailable", nil),
			},
			want: http.StatusInternalServerError,
		},
		{
			name: "provider status",
			outcome: pipeline.Outcome{
				JobID:       "0123456789ab",
				State:       pipeline.StateFailed,
				FailedStage: pipeline.StageSynthesize,
				Message:     "synthesize failed: http 401: ",
				Err:         services.Wrap(services.ErrProviderStatus, "synthesize", "chunk 1/1", "http 401: ", nil),
			},
			want: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordingSink{}
			svc := NewTranslateService(&stubRunner{outcome: tt.outcome}, t.TempDir(), nil, WithRecorder(sink), WithPublisher(sink))
			_, err := svc.Translate(context.Background(), TranslateRequest{URL: "https://example.com/v"})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := StatusCode(err); got != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, got)
			}
			if err.Error() != tt.outcome.Message {
				t.Fatalf("expected message %q, got %q", tt.outcome.Message, err.Error())
			}
			if len(sink.published) != 1 || sink.published[0] != "" {
				t.Fatalf("failed job must publish without a download url, got %v", sink.published)
			}
		})
	}
}

func TestTranslateIgnoresBookkeepingErrors(t *testing.T) {
	runner := &stubRunner{outcome: pipeline.Outcome{JobID: "0123456789ab", State: pipeline.StateDone}}
	sink := &recordingSink{err: errors.New("disk full")}
	svc := NewTranslateService(runner, t.TempDir(), nil, WithRecorder(sink), WithPublisher(sink))

	resp, err := svc.Translate(context.Background(), TranslateRequest{URL: "https://example.com/v"})
	if err != nil {
		t.Fatalf("bookkeeping errors must not fail the request: %v", err)
	}
	if !resp.Success {
		t.Fatalf("expected success")
	}
}

func TestDownloadPath(t *testing.T) {
	dir := t.TempDir()
	jc, err := job.Open(dir, "0123456789ab")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := os.WriteFile(jc.FinalPath(), []byte("mp4"), 0o644); err != nil {
		t.Fatalf("write final: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ba9876543210_final.mp4"), nil, 0o644); err != nil {
		t.Fatalf("write empty: %v", err)
	}

	path, err := DownloadPath(dir, "0123456789ab")
	if err != nil {
		t.Fatalf("DownloadPath: %v", err)
	}
	if path != jc.FinalPath() {
		t.Fatalf("unexpected path %q", path)
	}

	for _, id := range []string{"ffffffffffff", "ba9876543210", "../etc/passwd", "", "0123456789AB"} {
		if _, err := DownloadPath(dir, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("id %q: expected ErrNotFound, got %v", id, err)
		}
		if _, err := DownloadPath(dir, id); StatusCode(err) != http.StatusNotFound {
			t.Fatalf("id %q: expected 404", id)
		}
	}
}

func TestDownloadName(t *testing.T) {
	if got := DownloadName("0123456789ab"); got != "dubbed_0123456789ab.mp4" {
		t.Fatalf("unexpected name %q", got)
	}
}
