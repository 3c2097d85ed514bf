package elevenlabs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"shortsdub/internal/job"
	"shortsdub/internal/services"
	"shortsdub/internal/services/retry"
)

func noSleep() Option {
	return WithRetryPolicy(retry.Policy{MaxAttempts: 3, Sleeper: func(time.Duration) {}})
}

func newJob(t *testing.T) job.Context {
	t.Helper()
	jc, err := job.New(t.TempDir())
	if err != nil {
		t.Fatalf("job.New: %v", err)
	}
	return jc
}

func TestSynthesizeWritesAudio(t *testing.T) {
	var got speechRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/text-to-speech/voice-1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("xi-api-key") != "key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("Accept") != "audio/mpeg" {
			t.Errorf("unexpected accept header %q", r.Header.Get("Accept"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte("ID3-audio"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, VoiceID: "voice-1", Stability: 0.5, SimilarityBoost: 0.75})
	jc := newJob(t)
	artifact, err := client.Synthesize(context.Background(), jc, job.Translation{Text: "こんにちは", TargetLanguage: "ja"})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if artifact.Path != jc.TargetAudioPath() || artifact.Kind != job.KindAudio {
		t.Fatalf("unexpected artifact %+v", artifact)
	}
	data, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "ID3-audio" {
		t.Fatalf("unexpected audio %q", data)
	}
	if got.ModelID != defaultModelID || got.VoiceSettings.Stability != 0.5 || got.VoiceSettings.SimilarityBoost != 0.75 {
		t.Fatalf("unexpected request payload %+v", got)
	}
	if _, err := os.Stat(job.TempPath(jc.TargetAudioPath())); !os.IsNotExist(err) {
		t.Fatalf("expected temp file to be gone, stat err=%v", err)
	}
}

// concatRunner stands in for ffmpeg's concat demuxer: it reads the list
// file and writes the parts, in order, to the output path.
func concatRunner(t *testing.T, calls *[][]string) services.CommandRunner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, append([]string{name}, args...))
		var listPath string
		for i, arg := range args {
			if arg == "-i" && i+1 < len(args) {
				listPath = args[i+1]
			}
		}
		list, err := os.ReadFile(listPath)
		if err != nil {
			t.Fatalf("read concat list: %v", err)
		}
		var joined []byte
		for _, line := range strings.Split(strings.TrimSpace(string(list)), "\n") {
			part := strings.TrimSuffix(strings.TrimPrefix(line, "file '"), "'")
			data, err := os.ReadFile(part)
			if err != nil {
				t.Fatalf("read part %s: %v", part, err)
			}
			joined = append(joined, data...)
		}
		return nil, os.WriteFile(args[len(args)-1], joined, 0o644)
	}
}

func TestSynthesizeJoinsChunksWithFFmpeg(t *testing.T) {
	var (
		mu    sync.Mutex
		texts []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req speechRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		texts = append(texts, req.Text)
		n := len(texts)
		mu.Unlock()
		_, _ = w.Write([]byte{byte('0' + n)})
	}))
	defer server.Close()

	var calls [][]string
	client := NewClient(
		Config{APIKey: "key", BaseURL: server.URL, VoiceID: "v", MaxChars: 12, FFmpegBinary: "/opt/ffmpeg"},
		WithCommandRunner(concatRunner(t, &calls)),
	)
	jc := newJob(t)
	artifact, err := client.Synthesize(context.Background(), jc, job.Translation{Text: "First one. Second one. Third one."})
	if err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(texts) != 3 {
		t.Fatalf("expected 3 chunk requests, got %d: %q", len(texts), texts)
	}
	for _, text := range texts {
		if len([]rune(text)) > 12 {
			t.Fatalf("chunk exceeds limit: %q", text)
		}
	}
	if len(calls) != 1 || calls[0][0] != "/opt/ffmpeg" {
		t.Fatalf("expected one ffmpeg call, got %q", calls)
	}
	joinedArgs := strings.Join(calls[0], " ")
	if !strings.Contains(joinedArgs, "-f concat -safe 0") || !strings.Contains(joinedArgs, "-c copy") {
		t.Fatalf("expected concat demuxer args, got %q", joinedArgs)
	}
	data, _ := os.ReadFile(artifact.Path)
	if string(data) != "123" {
		t.Fatalf("expected chunks joined in order, got %q", data)
	}
	entries, err := os.ReadDir(filepath.Dir(artifact.Path))
	if err != nil {
		t.Fatalf("read output dir: %v", err)
	}
	for _, entry := range entries {
		if entry.Name() != filepath.Base(artifact.Path) {
			t.Fatalf("expected only the final audio, found %s", entry.Name())
		}
	}
}

func TestSynthesizeSingleChunkSkipsFFmpeg(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("audio"))
	}))
	defer server.Close()

	var calls [][]string
	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, VoiceID: "v"}, WithCommandRunner(concatRunner(t, &calls)))
	if _, err := client.Synthesize(context.Background(), newJob(t), job.Translation{Text: "Short line."}); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if len(calls) != 0 {
		t.Fatalf("expected no ffmpeg call for one chunk, got %q", calls)
	}
}

func TestSynthesizeJoinFailureIsExternalTool(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer server.Close()

	failing := func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	}
	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, VoiceID: "v", MaxChars: 12}, WithCommandRunner(failing))
	jc := newJob(t)
	_, err := client.Synthesize(context.Background(), jc, job.Translation{Text: "First one. Second one."})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if _, statErr := os.Stat(jc.TargetAudioPath()); !os.IsNotExist(statErr) {
		t.Fatalf("expected no target audio after failed join, stat err=%v", statErr)
	}
}

func TestSynthesizeUnauthorizedFails(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid_api_key"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, VoiceID: "v"}, noSleep())
	jc := newJob(t)
	_, err := client.Synthesize(context.Background(), jc, job.Translation{Text: "hola"})
	if !errors.Is(err, services.ErrProviderStatus) {
		t.Fatalf("expected provider status error, got %v", err)
	}
	details := services.Details(err)
	if details.Stage != "synthesize" || !strings.HasPrefix(details.Message, "http 401: ") {
		t.Fatalf("unexpected details %+v", details)
	}
	if calls != 1 {
		t.Fatalf("expected no retry on 401, got %d calls", calls)
	}
	if _, err := os.Stat(jc.TargetAudioPath()); !os.IsNotExist(err) {
		t.Fatalf("expected no target audio, stat err=%v", err)
	}
	if _, err := os.Stat(job.TempPath(jc.TargetAudioPath())); !os.IsNotExist(err) {
		t.Fatalf("expected temp audio removed, stat err=%v", err)
	}
}

func TestSynthesizeRetriesServerErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("audio"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, VoiceID: "v"}, noSleep())
	if _, err := client.Synthesize(context.Background(), newJob(t), job.Translation{Text: "hola"}); err != nil {
		t.Fatalf("Synthesize returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestSynthesizeEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, VoiceID: "v"})
	_, err := client.Synthesize(context.Background(), newJob(t), job.Translation{Text: "hola"})
	if !errors.Is(err, services.ErrEmptyResult) {
		t.Fatalf("expected empty result, got %v", err)
	}
}

func TestSynthesizeRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{VoiceID: "v"})
	_, err := client.Synthesize(context.Background(), newJob(t), job.Translation{Text: "hola"})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestListVoicesFiltersByLanguage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"voices":[
			{"voice_id":"a","name":"Yuki","labels":{"accent":"japanese"}},
			{"voice_id":"b","name":"Adam","labels":{"accent":"american"}},
			{"voice_id":"c","name":"Aria","labels":{"use case":"multilingual narration"}},
			{"voice_id":"d","name":"Haru","labels":{"language":"ja"}}
		]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	voices, err := client.ListVoices(context.Background(), "ja")
	if err != nil {
		t.Fatalf("ListVoices returned error: %v", err)
	}
	want := []Voice{{ID: "c", Name: "Aria"}, {ID: "d", Name: "Haru"}, {ID: "a", Name: "Yuki"}}
	if len(voices) != len(want) {
		t.Fatalf("expected %d voices, got %+v", len(want), voices)
	}
	for i := range want {
		if voices[i] != want[i] {
			t.Fatalf("voice %d: expected %+v, got %+v", i, want[i], voices[i])
		}
	}
}

func TestListVoicesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("nope"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	_, err := client.ListVoices(context.Background(), "ja")
	if err == nil || !strings.Contains(err.Error(), "http 401") {
		t.Fatalf("expected http 401 error, got %v", err)
	}
}
