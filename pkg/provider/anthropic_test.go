package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/obyrne/llmbridge/pkg/llm"
)

func TestAnthropicCreateCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request headers.
		if got := r.Header.Get("X-Api-Key"); got != "test-key" {
			t.Errorf("X-Api-Key = %q, want %q", got, "test-key")
		}
		if got := r.Header.Get("Anthropic-Version"); got != defaultAnthropicVersion {
			t.Errorf("Anthropic-Version = %q, want %q", got, defaultAnthropicVersion)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want %q", got, "application/json")
		}

		// Verify request body.
		var reqBody anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if reqBody.Model != "claude-2" {
			t.Errorf("model = %q, want %q", reqBody.Model, "claude-2")
		}
		if reqBody.Prompt != "\n\nHuman: Hi\n\nAssistant:" {
			t.Errorf("prompt = %q, want the tagged transcript", reqBody.Prompt)
		}
		if reqBody.MaxTokensToSample != 10000 {
			t.Errorf("max_tokens_to_sample = %d, want 10000", reqBody.MaxTokensToSample)
		}
		if reqBody.Temperature == nil || *reqBody.Temperature != 0 {
			t.Errorf("temperature = %v, want explicit 0", reqBody.Temperature)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicResponse{
			Completion: " Hello! How can I help?",
			StopReason: "stop_sequence",
		})
	}))
	defer server.Close()

	p := NewAnthropicClient("test-key", WithAnthropicBaseURL(server.URL))

	temp := 0.0
	got, err := p.CreateCompletion(context.Background(), llm.CompletionRequest{
		Prompt:            "\n\nHuman: Hi\n\nAssistant:",
		Model:             "claude-2",
		MaxTokensToSample: 10000,
		Temperature:       &temp,
	})
	if err != nil {
		t.Fatalf("CreateCompletion() error = %v", err)
	}

	if got.Completion != " Hello! How can I help?" {
		t.Errorf("Completion = %q, want %q", got.Completion, " Hello! How can I help?")
	}
}

func TestAnthropicCreateCompletion_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad request"}}`))
	}))
	defer server.Close()

	p := NewAnthropicClient("test-key", WithAnthropicBaseURL(server.URL))

	_, err := p.CreateCompletion(context.Background(), llm.CompletionRequest{
		Prompt: "\n\nHuman: Hi\n\nAssistant:",
		Model:  "claude-2",
	})
	if err == nil {
		t.Fatal("CreateCompletion() expected error, got nil")
	}
	want := "HTTP 400: bad request"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestAnthropicCreateCompletion_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	p := NewAnthropicClient("test-key", WithAnthropicBaseURL(server.URL))

	_, err := p.CreateCompletion(context.Background(), llm.CompletionRequest{
		Prompt: "\n\nHuman: Hi\n\nAssistant:",
		Model:  "claude-2",
	})
	if err == nil {
		t.Fatal("CreateCompletion() expected error, got nil")
	}
}
