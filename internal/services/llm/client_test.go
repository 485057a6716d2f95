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
)

func completionServer(t *testing.T, handler func(call int, req chatCompletionRequest) (int, any)) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		status, payload := handler(calls, req)
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func contentPayload(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"finish_reason": "stop",
				"message":       map[string]any{"content": content},
			},
		},
	}
}

func noSleepClient(url string, opts ...Option) *Client {
	opts = append([]Option{WithRetryBackoff(0, 0), WithSleeper(func(time.Duration) {})}, opts...)
	return NewClient(Config{APIKey: "test", BaseURL: url, Model: "demo-model"}, opts...)
}

func TestClientCompleteReturnsPlainText(t *testing.T) {
	var seen chatCompletionRequest
	server, _ := completionServer(t, func(_ int, req chatCompletionRequest) (int, any) {
		seen = req
		return 0, contentPayload("1. Hola\n2. Mundo\n")
	})

	client := noSleepClient(server.URL)
	got, err := client.Complete(context.Background(), "", "Translate:\n1. Hello\n2. World")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "1. Hola\n2. Mundo" {
		t.Fatalf("unexpected content %q", got)
	}
	if len(seen.Messages) != 1 || seen.Messages[0].Role != "user" {
		t.Fatalf("expected single user message, got %+v", seen.Messages)
	}
	if seen.ResponseFormat != nil {
		t.Fatalf("plain completion must not request json mode: %+v", seen.ResponseFormat)
	}
	if seen.Model != "demo-model" {
		t.Fatalf("unexpected model %q", seen.Model)
	}
}

func TestClientCompleteSendsHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "subburn" {
			t.Errorf("unexpected title header %q", got)
		}
		_ = json.NewEncoder(w).Encode(contentPayload("ok"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "secret", BaseURL: server.URL, Model: "m", Title: "subburn"})
	if _, err := client.Complete(context.Background(), "system", "user"); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
}

func TestClientCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := client.Complete(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestClientHealthCheck(t *testing.T) {
	server, _ := completionServer(t, func(_ int, req chatCompletionRequest) (int, any) {
		if req.ResponseFormat["type"] != jsonResponseType {
			t.Errorf("health check should request json mode, got %+v", req.ResponseFormat)
		}
		return 0, contentPayload(`{"ok":true}`)
	})

	client := noSleepClient(server.URL)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server, _ := completionServer(t, func(int, chatCompletionRequest) (int, any) {
		return 0, contentPayload("```json\n{\"ok\":true}\n```")
	})

	client := noSleepClient(server.URL)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server, calls := completionServer(t, func(int, chatCompletionRequest) (int, any) {
		return http.StatusUnauthorized, map[string]string{"error": "unauthorized"}
	})

	client := noSleepClient(server.URL)
	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected health check to fail")
	}
	var statusErr *httpStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 status error, got %v", err)
	}
	if *calls != 1 {
		t.Fatalf("401 must not be retried, got %d calls", *calls)
	}
}

func TestClientEmptyContentHasSnippet(t *testing.T) {
	server, calls := completionServer(t, func(int, chatCompletionRequest) (int, any) {
		return 0, contentPayload("")
	})

	client := noSleepClient(server.URL, WithRetryMaxAttempts(2))
	_, err := client.Complete(context.Background(), "", "hello")
	if err == nil {
		t.Fatal("expected empty reply to fail")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
	if *calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", *calls)
	}
}

func TestClientDeltaAndLegacyText(t *testing.T) {
	payloads := []map[string]any{
		{"choices": []any{map[string]any{"delta": map[string]any{"content": "from delta"}}}},
		{"choices": []any{map[string]any{"text": "from text"}}},
	}
	want := []string{"from delta", "from text"}
	for i, payload := range payloads {
		server, _ := completionServer(t, func(int, chatCompletionRequest) (int, any) { return 0, payload })
		got, err := noSleepClient(server.URL).Complete(context.Background(), "", "hi")
		if err != nil {
			t.Fatalf("case %d: Complete returned error: %v", i, err)
		}
		if got != want[i] {
			t.Fatalf("case %d: got %q want %q", i, got, want[i])
		}
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
		_ = json.NewEncoder(w).Encode(contentPayload("1. Bonjour"))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	got, err := client.Complete(context.Background(), "", "1. Hello")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "1. Bonjour" {
		t.Fatalf("unexpected content %q", got)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	server, calls := completionServer(t, func(call int, _ chatCompletionRequest) (int, any) {
		if call < 3 {
			return 0, contentPayload("")
		}
		return 0, contentPayload("1. Hallo")
	})

	client := noSleepClient(server.URL, WithRetryMaxAttempts(5))
	got, err := client.Complete(context.Background(), "", "1. Hello")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "1. Hallo" {
		t.Fatalf("unexpected content %q", got)
	}
	if *calls != 3 {
		t.Fatalf("expected 3 calls, got %d", *calls)
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second}
	for i, expected := range want {
		if got := client.backoffDelay(i + 1); got != expected {
			t.Fatalf("attempt %d: got %s want %s", i+1, got, expected)
		}
	}
}

func TestDecodeLLMJSONHandlesProse(t *testing.T) {
	var parsed struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON("Sure! Here you go: {\"ok\": true} Hope that helps.", &parsed); err != nil {
		t.Fatalf("DecodeLLMJSON returned error: %v", err)
	}
	if !parsed.OK {
		t.Fatal("expected ok=true")
	}
	if err := DecodeLLMJSON("   ", &parsed); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := map[string]string{
		"```\n1. Hola\n2. Adiós\n```": "1. Hola\n2. Adiós",
		"```text\n1. Hola\n```":      "1. Hola",
		"1. Hola":                    "1. Hola",
	}
	for input, want := range tests {
		if got := StripCodeFence(input); got != want {
			t.Fatalf("StripCodeFence(%q) = %q, want %q", input, got, want)
		}
	}
}
