package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"shortsdub/internal/api"
	"shortsdub/internal/config"
	"shortsdub/internal/job"
	"shortsdub/internal/pipeline"
	"shortsdub/internal/services"
	"shortsdub/internal/services/elevenlabs"
	"shortsdub/internal/testsupport"
)

type fakeMedia struct {
	synthErr error
	remuxes  atomic.Int32
}

func (f *fakeMedia) Acquire(_ context.Context, jc job.Context, _ string) (job.Artifact, error) {
	return writeArtifact(jc.OriginalPath(), job.KindVideo)
}

func (f *fakeMedia) Extract(_ context.Context, jc job.Context, _ job.Artifact) (job.Artifact, error) {
	return writeArtifact(jc.AudioPath(), job.KindAudio)
}

func (f *fakeMedia) Transcribe(context.Context, job.Context, job.Artifact, string) (job.Transcript, error) {
	return job.Transcript{Text: "안녕하세요", Language: "ko"}, nil
}

func (f *fakeMedia) Translate(_ context.Context, transcript job.Transcript, target string) (job.Translation, error) {
	return job.Translation{Text: "こんにちは", SourceLanguage: transcript.Language, TargetLanguage: target}, nil
}

func (f *fakeMedia) Synthesize(_ context.Context, jc job.Context, _ job.Translation) (job.Artifact, error) {
	if f.synthErr != nil {
		return job.Artifact{}, f.synthErr
	}
	return writeArtifact(jc.TargetAudioPath(), job.KindAudio)
}

func (f *fakeMedia) Remux(_ context.Context, jc job.Context, _, _ job.Artifact) (job.Artifact, error) {
	f.remuxes.Add(1)
	return writeArtifact(jc.FinalPath(), job.KindVideo)
}

func writeArtifact(path string, kind job.Kind) (job.Artifact, error) {
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		return job.Artifact{}, err
	}
	return job.Artifact{Path: path, Kind: kind}, nil
}

type stubVoices struct {
	voices []elevenlabs.Voice
	err    error
}

func (s stubVoices) ListVoices(context.Context, string) ([]elevenlabs.Voice, error) {
	return s.voices, s.err
}

type panicRunner struct{}

func (panicRunner) Run(context.Context, string) pipeline.Outcome {
	panic("boom")
}

func newTestServer(t *testing.T, cfg *config.Config, opts Options) *httptest.Server {
	t.Helper()
	if opts.Runner == nil {
		media := &fakeMedia{}
		orch, err := pipeline.New(cfg, pipeline.Stages{
			Acquirer: media, Extractor: media, Transcriber: media,
			Translator: media, Synthesizer: media, Remuxer: media,
		}, nil)
		if err != nil {
			t.Fatalf("pipeline.New: %v", err)
		}
		opts.Runner = orch
	}
	if opts.Voices == nil {
		opts.Voices = stubVoices{}
	}
	d, err := New(cfg, nil, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv := httptest.NewServer(d.server.server.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func postTranslate(t *testing.T, srv *httptest.Server, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/translate", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func TestTranslateThenDownload(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, Options{})

	resp, body := postTranslate(t, srv, `{"url":"https://example.com/shorts/abc"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var out api.TranslateResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !out.Success || !job.ValidID(out.JobID) {
		t.Fatalf("unexpected response: %s", body)
	}
	if out.SourceText != "안녕하세요" || out.TargetText != "こんにちは" {
		t.Fatalf("unexpected texts: %s", body)
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Fatal("expected request id header")
	}

	dl, err := http.Get(srv.URL + out.DownloadURL)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	defer dl.Body.Close()
	if dl.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 download, got %d", dl.StatusCode)
	}
	if got := dl.Header.Get("Content-Disposition"); !strings.Contains(got, "dubbed_"+out.JobID+".mp4") {
		t.Fatalf("unexpected content disposition %q", got)
	}
	data, _ := io.ReadAll(dl.Body)
	if string(data) != "payload" {
		t.Fatalf("unexpected artifact body %q", data)
	}
}

func TestTranslateSynthesisFailureSkipsRemux(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	media := &fakeMedia{synthErr: services.Wrap(services.ErrProviderStatus, "synthesize", "chunk 1/1", "http 401: unauthorized", nil)}
	orch, err := pipeline.New(cfg, pipeline.Stages{
		Acquirer: media, Extractor: media, Transcriber: media,
		Translator: media, Synthesizer: media, Remuxer: media,
	}, nil)
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	srv := newTestServer(t, cfg, Options{Runner: orch})

	resp, body := postTranslate(t, srv, `{"url":"https://example.com/shorts/abc"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var out api.ErrorResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Error != "synthesize failed: http 401: unauthorized" {
		t.Fatalf("unexpected error %q", out.Error)
	}
	if media.remuxes.Load() != 0 {
		t.Fatal("remux must not run after a synthesis failure")
	}
}

func TestTranslateRejectsBadRequests(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, Options{})

	for _, body := range []string{`{}`, `{"url":"  "}`, ``, `not json`} {
		resp, data := postTranslate(t, srv, body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, resp.StatusCode)
		}
		var out api.ErrorResponse
		if err := json.Unmarshal(data, &out); err != nil || out.Error == "" {
			t.Fatalf("body %q: expected error payload, got %s", body, data)
		}
	}
}

func TestDownloadUnknownJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, Options{})

	for _, id := range []string{"ffffffffffff", "not-a-job", "0123456789AB"} {
		resp, err := http.Get(srv.URL + "/api/download/" + id)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("id %q: expected 404, got %d", id, resp.StatusCode)
		}
	}
}

func TestHandlerPanicReportsGenericFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, Options{Runner: panicRunner{}})

	resp, body := postTranslate(t, srv, `{"url":"https://example.com/v"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "internal server error") {
		t.Fatalf("unexpected body %s", body)
	}
}

func TestVoicesEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, Options{Voices: stubVoices{voices: []elevenlabs.Voice{{ID: "v1", Name: "Haru"}}}})

	resp, err := http.Get(srv.URL + "/api/voices")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out api.VoiceListResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Voices) != 1 || out.Voices[0].Name != "Haru" {
		t.Fatalf("unexpected voices %#v", out.Voices)
	}

	failing := newTestServer(t, cfg, Options{Voices: stubVoices{err: errors.New("list voices: http 401")}})
	resp2, err := http.Get(failing.URL + "/api/voices")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp2.StatusCode)
	}
}

func TestJobsEndpointsWithLedger(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLedger(true))
	store := testsupport.MustOpenLedger(t, cfg)
	media := &fakeMedia{}
	orch, err := pipeline.New(cfg, pipeline.Stages{
		Acquirer: media, Extractor: media, Transcriber: media,
		Translator: media, Synthesizer: media, Remuxer: media,
	}, nil, pipeline.WithObserver(store.Observer(nil)))
	if err != nil {
		t.Fatalf("pipeline.New: %v", err)
	}
	srv := newTestServer(t, cfg, Options{Runner: orch, Ledger: store})

	_, body := postTranslate(t, srv, `{"url":"https://example.com/shorts/abc"}`)
	var created api.TranslateResponse
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp, err := http.Get(srv.URL + "/api/jobs")
	if err != nil {
		t.Fatalf("get jobs: %v", err)
	}
	var list api.JobListResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode jobs: %v", err)
	}
	resp.Body.Close()
	if len(list.Jobs) != 1 || list.Jobs[0].ID != created.JobID || list.Jobs[0].State != "done" {
		t.Fatalf("unexpected job list %#v", list)
	}

	resp, err = http.Get(srv.URL + "/api/jobs/" + created.JobID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	var detail api.JobDetailResponse
	if err := json.NewDecoder(resp.Body).Decode(&detail); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	resp.Body.Close()
	if len(detail.Events) == 0 || detail.Events[len(detail.Events)-1].To != "done" {
		t.Fatalf("expected transitions ending in done, got %#v", detail.Events)
	}

	resp, err = http.Get(srv.URL + "/api/jobs/ffffffffffff")
	if err != nil {
		t.Fatalf("get missing job: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/jobs?limit=zero")
	if err != nil {
		t.Fatalf("get jobs: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	srv := newTestServer(t, cfg, Options{})

	resp, err := http.Get(srv.URL + "/api/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var out api.HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "ok" {
		t.Fatalf("expected ok with stubbed binaries and keys, got %#v", out)
	}
	if len(out.Stages) != len(pipeline.Order) {
		t.Fatalf("expected a health entry per stage, got %d", len(out.Stages))
	}
	if out.TargetLanguage != cfg.Languages.Target {
		t.Fatalf("unexpected target language %q", out.TargetLanguage)
	}
}

func TestIndexAndUnknownRoutes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, Options{})

	resp, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("get index: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "/api/translate") {
		t.Fatalf("expected embedded index, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/translate")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestRequestIDReused(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	srv := newTestServer(t, cfg, Options{})

	const id = "1b4e28ba-2fa1-11d2-883f-0016d3cca427"
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/health", nil)
	req.Header.Set(requestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get(requestIDHeader) != id {
		t.Fatalf("expected inbound request id reused, got %q", resp.Header.Get(requestIDHeader))
	}
}
