package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"reelsmith/internal/content"
	"reelsmith/internal/services"
)

func completion(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"finish_reason": "stop",
				"message":       map[string]any{"content": content},
			},
		},
	}
}

func jsonServer(t *testing.T, handler func(w http.ResponseWriter, body map[string]any)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		handler(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "reelsmith" {
			t.Fatalf("unexpected title header %q", got)
		}
		if err := json.NewEncoder(w).Encode(completion(`{"ok":true}`)); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Title: "reelsmith"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := jsonServer(t, func(w http.ResponseWriter, _ map[string]any) {
		_ = json.NewEncoder(w).Encode(completion("```json\n{\"ok\":true}\n```"))
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientRejectedCredentialsAreConfigurationErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected health check to fail")
	}
	if services.Classify(err) != services.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestClientRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := client.WritePrompt(context.Background(), content.PromptRequest{Description: "serum"})
	if services.Classify(err) != services.KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "api key required") {
		t.Fatalf("unexpected message %v", err)
	}
}

func TestClientSendsJSONModeWithoutTools(t *testing.T) {
	var requests atomic.Int32
	server := jsonServer(t, func(w http.ResponseWriter, body map[string]any) {
		requests.Add(1)
		if _, ok := body["tools"]; ok {
			t.Errorf("request should not declare tools: %v", body)
		}
		format, _ := body["response_format"].(map[string]any)
		if format["type"] != "json_object" {
			t.Errorf("unexpected response_format %v", body["response_format"])
		}
		if body["model"] != "override-model" {
			t.Errorf("unexpected model %v", body["model"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "tool_calls",
					"message": map[string]any{
						"content": "",
						"tool_calls": []any{
							map[string]any{"type": "function", "function": map[string]any{"arguments": `{"videoPrompt":"x"}`}},
						},
					},
				},
			},
		})
	})

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryMaxAttempts(2),
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.complete(context.Background(), "write prompt", "override-model", []chatMessage{
		{Role: "user", Content: "hello"},
	})
	if !services.Soft(err) {
		t.Fatalf("a tool-call-only reply should be empty content, got %v", err)
	}
	if !strings.Contains(err.Error(), `finish_reason="tool_calls"`) || !strings.Contains(err.Error(), "gave up after 2 attempts") {
		t.Fatalf("unexpected error %v", err)
	}
	if requests.Load() != 2 {
		t.Fatalf("expected 2 requests, got %d", requests.Load())
	}
}

func TestClientEmptyContentIsUnparseable(t *testing.T) {
	server := jsonServer(t, func(w http.ResponseWriter, _ map[string]any) {
		_ = json.NewEncoder(w).Encode(completion(""))
	})

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.WritePrompt(context.Background(), content.PromptRequest{Description: "whisk"})
	if err == nil {
		t.Fatal("expected empty content to fail")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
	if !services.Soft(err) {
		t.Fatalf("empty content should be a soft failure: %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls atomic.Int32
	server := jsonServer(t, func(w http.ResponseWriter, _ map[string]any) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		_ = json.NewEncoder(w).Encode(completion(`{"ok":true}`))
	})

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := jsonServer(t, func(w http.ResponseWriter, _ map[string]any) {
		text := ""
		if calls.Add(1) >= 3 {
			text = `{"ok":true}`
		}
		_ = json.NewEncoder(w).Encode(completion(text))
	})

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 calls, got %d", calls.Load())
	}
}

func TestDecodeLLMJSONExtractsEmbeddedObject(t *testing.T) {
	var out struct {
		Type string `json:"type"`
	}
	if err := DecodeLLMJSON("Here you go:\n{\"type\":\"serum\"}\nThanks!", &out); err != nil {
		t.Fatalf("DecodeLLMJSON: %v", err)
	}
	if out.Type != "serum" {
		t.Fatalf("unexpected type %q", out.Type)
	}
	if err := DecodeLLMJSON("no json here", &out); err == nil {
		t.Fatal("expected error for prose payload")
	}
}
