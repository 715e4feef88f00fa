package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/mcpadapter"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/setup"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const version = "1.0.0"

func main() {
	// stdout carries the protocol, so every log line goes to stderr
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx); err != nil {
		log.Error().Err(err).Msg("kindfilter MCP server failed")
		stop()
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	cfg := setup.LoadConfig()

	deps, err := setup.Wire(ctx, cfg, &log.Logger)
	if err != nil {
		return err
	}
	defer deps.Close()

	if !deps.Gate.HasClient() {
		log.Warn().Msg("No default LLM client, evaluate_message will fail closed")
	}

	server := mcpadapter.NewServer(deps.Gate, version)
	log.Info().Str("tool", mcpadapter.ToolEvaluateMessage).Msg("Serving MCP over stdio")

	err = server.Run(ctx, &mcp.StdioTransport{})
	if err == nil || errors.Is(err, io.EOF) || strings.Contains(err.Error(), "server is closing") {
		// client hung up
		return nil
	}
	return err
}
