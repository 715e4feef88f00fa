package llm

import (
	"context"
)

// LLMClient is the text-classification oracle behind the gate.
// Implementations make exactly one upstream call per InvokeModel and never retry.
type LLMClient interface {
	InvokeModel(ctx context.Context, request LLMRequest) (*LLMResponse, error)
}

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks . LLMClient
