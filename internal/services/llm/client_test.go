package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"shortsdub/internal/job"
	"shortsdub/internal/services"
)

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": `{"ok":true}`,
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": "```json\n{\"ok\":true}\n```",
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"message": map[string]any{
						"content": content,
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
}

func TestClientCompleteJSONToolCallsArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "tool_calls",
					"message": map[string]any{
						"content": "",
						"tool_calls": []any{
							map[string]any{
								"type": "function",
								"function": map[string]any{
									"name":      "translate",
									"arguments": `{"translation":"hello"}`,
								},
							},
						},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if !strings.Contains(content, `"translation"`) {
		t.Fatalf("expected tool call arguments, got %q", content)
	}
}

func TestClientCompleteJSONDeltaContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"delta": map[string]any{"content": `{"translation":"hola"}`},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if content != `{"translation":"hola"}` {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestClientEmptyContentHasSnippet(t *testing.T) {
	server := completionServer(t, "")
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected completion to fail")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": `{"translation":"bonjour"}`},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	out, err := client.Translate(context.Background(), job.Transcript{Text: "hello", Language: "en"}, "fr")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if out.Text != "bonjour" {
		t.Fatalf("expected bonjour, got %q", out.Text)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := ""
		if calls >= 3 {
			content = `{"translation":"hallo"}`
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"message":       map[string]any{"content": content},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	out, err := client.Translate(context.Background(), job.Transcript{Text: "hello", Language: "en"}, "de")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if out.Text != "hallo" || out.SourceLanguage != "en" || out.TargetLanguage != "de" {
		t.Fatalf("unexpected translation %+v", out)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestTranslateSendsLanguageNamesInPrompt(t *testing.T) {
	var system, user string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if len(req.Messages) == 2 {
			system, user = req.Messages[0].Content, req.Messages[1].Content
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": "```json\n{\"translation\":\"hola mundo\"}\n```"}}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	out, err := client.Translate(context.Background(), job.Transcript{Text: "hello world", Language: "en"}, "es")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if out.Text != "hola mundo" {
		t.Fatalf("expected fenced payload to decode, got %q", out.Text)
	}
	if !strings.Contains(system, "English") || !strings.Contains(system, "Spanish") {
		t.Fatalf("expected language names in system prompt, got %q", system)
	}
	if user != "hello world" {
		t.Fatalf("expected transcript as user prompt, got %q", user)
	}
}

func TestTranslateEmptyResult(t *testing.T) {
	server := completionServer(t, `{"translation":"   "}`)
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	_, err := client.Translate(context.Background(), job.Transcript{Text: "hello", Language: "en"}, "ko")
	if !errors.Is(err, services.ErrEmptyResult) {
		t.Fatalf("expected empty result error, got %v", err)
	}
	if details := services.Details(err); details.Stage != "translate" || details.Message != "empty result" {
		t.Fatalf("unexpected details %+v", details)
	}
}

func TestTranslateRejectsUnchangedText(t *testing.T) {
	server := completionServer(t, `{"translation":"Hello  world"}`)
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	_, err := client.Translate(context.Background(), job.Transcript{Text: "hello world", Language: "en"}, "ja")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTranslateAllowsIdentityForSameLanguage(t *testing.T) {
	server := completionServer(t, `{"translation":"hello world"}`)
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	out, err := client.Translate(context.Background(), job.Transcript{Text: "hello world", Language: "en"}, "eng")
	if err != nil {
		t.Fatalf("Translate returned error: %v", err)
	}
	if out.Text != "hello world" {
		t.Fatalf("unexpected translation %q", out.Text)
	}
}

func TestTranslateProviderStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid key"}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo-model"})
	_, err := client.Translate(context.Background(), job.Transcript{Text: "hello", Language: "en"}, "fr")
	if !errors.Is(err, services.ErrProviderStatus) {
		t.Fatalf("expected provider status error, got %v", err)
	}
	if msg := services.Details(err).Message; !strings.HasPrefix(msg, "http 401: ") || !strings.Contains(msg, "invalid key") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestTranslateRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{Model: "demo-model"})
	_, err := client.Translate(context.Background(), job.Transcript{Text: "hello", Language: "en"}, "fr")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
