package gate

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/povarna/generative-ai-agents/kindfilter/internal/config"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/llm"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/models"
	"github.com/rs/zerolog"
)

// Gate asks the oracle whether a message is offensive and turns the answer into a verdict.
// It holds no mutable state and is safe for concurrent use.
type Gate struct {
	promptTemplate *template.Template
	maxTokens      int
	temperature    float64
	timeout        time.Duration
	llmClient      llm.LLMClient
	logger         *zerolog.Logger
}

func New(cfg config.GateSettings, llmClient llm.LLMClient, logger *zerolog.Logger) (*Gate, error) {
	tmpl, err := template.New("gate").Parse(cfg.Prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gate prompt template: %w", err)
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Gate{
		promptTemplate: tmpl,
		maxTokens:      cfg.Model.MaxTokens,
		temperature:    cfg.Model.TemperatureOrDefault(),
		timeout:        cfg.Timeout,
		llmClient:      llmClient,
		logger:         logger,
	}, nil
}

// WithClient returns a copy of the gate that talks to a different oracle client.
func (g *Gate) WithClient(llmClient llm.LLMClient) *Gate {
	clone := *g
	clone.llmClient = llmClient
	return &clone
}

// HasClient reports whether the gate can reach an oracle at all.
func (g *Gate) HasClient() bool {
	return g.llmClient != nil
}

// Evaluate classifies text. It always returns a verdict whose OriginalText is text,
// and fails closed: anything other than a well-formed "not offended" answer rejects.
func (g *Gate) Evaluate(ctx context.Context, text string) (verdict models.ModerationVerdict) {
	now := time.Now()

	defer func() {
		if r := recover(); r != nil {
			g.logger.Error().
				Interface("panic", r).
				Msg("gate evaluation panicked")
			verdict = models.TransportFailure(text)
		}
		verdict.Duration = time.Since(now)
	}()

	if g.llmClient == nil {
		g.logger.Error().Msg("gate has no LLM client configured")
		return models.TransportFailure(text)
	}

	prompt, err := g.buildPrompt(text)
	if err != nil {
		g.logger.Error().
			Err(err).
			Msg("failed to build prompt from template")
		return models.TransportFailure(text)
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.llmClient.InvokeModel(callCtx, llm.LLMRequest{
		Prompt:      prompt,
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		g.logger.Error().
			Err(err).
			Msg("LLM call failed")
		return models.TransportFailure(text)
	}
	if resp == nil {
		g.logger.Error().Msg("LLM returned no response")
		return models.TransportFailure(text)
	}

	answer, err := parseResponse(resp.Content)
	if err != nil {
		g.logger.Error().
			Err(err).
			Str("content", resp.Content).
			Msg("failed to deserialize LLM response")
		return models.MalformedResponse(text)
	}

	if answer.Offended {
		verdict = models.Reject(text, answer.Reason, answer.Suggestion)
	} else {
		verdict = models.Accept(text)
	}

	g.logger.Debug().
		Str("outcome", string(verdict.Outcome)).
		Dur("duration", time.Since(now)).
		Msg("gate completed")

	return verdict
}

func (g *Gate) buildPrompt(text string) (string, error) {
	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, config.PromptData{Message: text}); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}
	return buf.String(), nil
}
