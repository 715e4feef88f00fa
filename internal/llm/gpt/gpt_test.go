package gpt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/povarna/generative-ai-agents/kindfilter/internal/llm"
)

func TestNewClient_RequiresKey(t *testing.T) {
	if _, err := NewClient("", "gpt-4-turbo", ""); err == nil {
		t.Fatal("expected error for empty API key")
	}
}

func TestNewClient_DefaultModel(t *testing.T) {
	c, err := NewClient("sk-test", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.ModelID != DefaultModelID {
		t.Errorf("expected model %q, got %q", DefaultModelID, c.ModelID)
	}
}

func TestInvokeModel_SendsSystemPrompt(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1,
			"model": "gpt-4-turbo",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"offended\": false}"}
			}]
		}`))
	}))
	defer server.Close()

	c, err := NewClient("sk-test", "gpt-4-turbo", server.URL+"/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := c.InvokeModel(context.Background(), llm.LLMRequest{
		Prompt:      "judge this",
		MaxTokens:   64,
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("InvokeModel failed: %v", err)
	}

	if resp.Content != `{"offended": false}` {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.StopReason != "stop" {
		t.Errorf("expected stop reason 'stop', got %q", resp.StopReason)
	}

	if body["model"] != "gpt-4-turbo" {
		t.Errorf("expected model gpt-4-turbo, got %v", body["model"])
	}
	messages, ok := body["messages"].([]any)
	if !ok || len(messages) != 1 {
		t.Fatalf("expected exactly one message, got %v", body["messages"])
	}
	first := messages[0].(map[string]any)
	if first["role"] != "system" {
		t.Errorf("expected system role, got %v", first["role"])
	}
	if first["content"] != "judge this" {
		t.Errorf("expected prompt content, got %v", first["content"])
	}
}

func TestInvokeModel_NoRetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer server.Close()

	c, err := NewClient("sk-test", "gpt-4-turbo", server.URL+"/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := c.InvokeModel(context.Background(), llm.LLMRequest{Prompt: "x", MaxTokens: 8}); err == nil {
		t.Fatal("expected error from failing server")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly one upstream call, got %d", got)
	}
}

func TestInvokeModel_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "object": "chat.completion", "created": 1, "model": "gpt-4-turbo", "choices": []}`))
	}))
	defer server.Close()

	c, _ := NewClient("sk-test", "gpt-4-turbo", server.URL+"/")
	if _, err := c.InvokeModel(context.Background(), llm.LLMRequest{Prompt: "x", MaxTokens: 8}); err == nil {
		t.Fatal("expected error when response has no choices")
	}
}
