package mcpadapter

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/config"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/gate"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/llm"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/models"
	"github.com/rs/zerolog"
)

type stubOracle struct {
	content string
}

func (s stubOracle) InvokeModel(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	return &llm.LLMResponse{Content: s.content}, nil
}

func newGate(t *testing.T, content string) *gate.Gate {
	t.Helper()
	logger := zerolog.Nop()
	g, err := gate.New(config.GateSettings{Prompt: "{{.Message}}", Model: config.ModelConfig{MaxTokens: 32}, Timeout: time.Second}, stubOracle{content: content}, &logger)
	if err != nil {
		t.Fatalf("gate.New failed: %v", err)
	}
	return g
}

func TestEvaluateMessage(t *testing.T) {
	g := newGate(t, `{"offended": true, "reason": "rude", "suggestion": "please"}`)

	result, verdict, err := EvaluateMessage(context.Background(), g, nil, models.ModerationRequest{RequestID: "r1", Text: "gimme"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result != nil {
		t.Error("Expected structured output only")
	}
	if verdict.Accepted || verdict.Reason != "rude" || verdict.Suggestion != "please" {
		t.Errorf("Unexpected verdict %+v", verdict)
	}
	if verdict.RequestID != "r1" || verdict.OriginalText != "gimme" {
		t.Errorf("Expected request id and text to be carried, got %+v", verdict)
	}
}

func TestServer_CallTool(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	server := NewServer(newGate(t, `{"offended": false}`), "test")

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      ToolEvaluateMessage,
		Arguments: map[string]any{"text": "Let's ship the Tuesday release"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("Tool returned an error result: %+v", res.Content)
	}

	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatalf("Failed to marshal structured content: %v", err)
	}
	var verdict models.ModerationVerdict
	if err := json.Unmarshal(raw, &verdict); err != nil {
		t.Fatalf("Failed to decode verdict: %v", err)
	}
	if !verdict.Accepted || verdict.Outcome != models.OutcomeAccepted {
		t.Errorf("Unexpected verdict %+v", verdict)
	}
}
