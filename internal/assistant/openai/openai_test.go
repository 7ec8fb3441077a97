package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/covergrid/pulse/internal/assistant"
	"github.com/covergrid/pulse/internal/core"
	"github.com/sashabaranov/go-openai"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	if _, err := New("", "", ""); err == nil {
		t.Error("expected error for empty API key")
	}
}

func TestNew_DefaultModel(t *testing.T) {
	p, err := New("sk-test", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.model == "" {
		t.Error("expected a default model")
	}
	if p.Name() != "openai" {
		t.Errorf("unexpected name: %s", p.Name())
	}
}

func TestProvider_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Here to help with your policy questions."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 9, "total_tokens": 21}
		}`))
	}))
	defer srv.Close()

	p, err := New("sk-test", srv.URL, "gpt-4o-mini")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	resp, err := p.Chat(context.Background(), assistant.ChatRequest{
		SystemPrompt: "You are an insurance marketing assistant.",
		Messages:     []assistant.Message{{Role: "user", Content: "Draft a post"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "Here to help with your policy questions." {
		t.Errorf("unexpected content: %s", resp.Content)
	}
	if resp.Usage.InputTokens != 12 || resp.Usage.OutputTokens != 9 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
}

func TestProvider_Chat_ModelNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": {"message": "The model 'gpt-9' does not exist", "type": "invalid_request_error", "code": "model_not_found"}}`))
	}))
	defer srv.Close()

	p, err := New("sk-test", srv.URL, "gpt-9")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = p.Chat(context.Background(), assistant.ChatRequest{
		Messages: []assistant.Message{{Role: "user", Content: "hi"}},
	})
	if !errors.Is(err, core.ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound, got %v", err)
	}
}

func TestIsModelNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"model_not_found code", &openai.APIError{Code: "model_not_found"}, true},
		{"404 status", &openai.APIError{HTTPStatusCode: 404}, true},
		{"does not exist message", &openai.APIError{Message: "model gpt-9 does not exist"}, true},
		{"rate limit", &openai.APIError{HTTPStatusCode: 429, Code: "rate_limit_exceeded"}, false},
		{"plain error", errors.New("connection refused"), false},
	}

	for _, tc := range tests {
		if got := isModelNotFound(tc.err); got != tc.want {
			t.Errorf("%s: isModelNotFound = %v, want %v", tc.name, got, tc.want)
		}
	}
}
