package mcpadapter

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/gate"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/metrics"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/models"
)

const ToolEvaluateMessage = "evaluate_message"

// NewEvaluateHandler returns a tool handler backed by the gate.
// Pass the returned function to mcp.AddTool.
func NewEvaluateHandler(g *gate.Gate) func(context.Context, *mcp.CallToolRequest, models.ModerationRequest) (*mcp.CallToolResult, models.ModerationVerdict, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input models.ModerationRequest) (*mcp.CallToolResult, models.ModerationVerdict, error) {
		return EvaluateMessage(ctx, g, req, input)
	}
}

// EvaluateMessage moderates one message. Gate failures come back as verdicts, never as tool errors.
func EvaluateMessage(
	ctx context.Context,
	g *gate.Gate,
	req *mcp.CallToolRequest,
	input models.ModerationRequest,
) (*mcp.CallToolResult, models.ModerationVerdict, error) {
	verdict := g.Evaluate(ctx, input.Text)
	verdict.RequestID = input.RequestID
	metrics.Record(metrics.SourceMCP, verdict)
	return nil, verdict, nil
}

// NewServer registers the moderation tool on a fresh MCP server.
func NewServer(g *gate.Gate, version string) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "kindfilter",
			Version: version,
		}, nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolEvaluateMessage,
		Description: "Ask the moderation gate whether a message may be posted. Returns accepted, and when rejected a reason and a suggested rewrite.",
	}, NewEvaluateHandler(g))

	return server
}
