package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/models"
	red "github.com/povarna/generative-ai-agents/kindfilter/internal/redis"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/stream"
	streamredis "github.com/povarna/generative-ai-agents/kindfilter/internal/stream/redis"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	data := flag.String("d", "", "Inline JSON ModerationRequest")
	text := flag.String("text", "", "Message text, used instead of -d")
	requestID := flag.String("id", "", "Request id, overrides the one in -d")
	streamName := flag.String("stream", stream.DefaultRequestStream, "Request stream name")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	req, err := buildRequest(*data, *text, *requestID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\nUsage: producer -d '<json>' | -text '<message>' [-id <request id>]\n", err)
		flag.PrintDefaults()
		os.Exit(2)
	}

	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := publish(ctx, *streamName, req)
	if err != nil {
		log.Error().Err(err).Str("stream", *streamName).Msg("Failed to publish moderation request")
		os.Exit(1)
	}

	log.Info().
		Str("stream", *streamName).
		Str("id", id).
		Str("request_id", req.RequestID).
		Msg("Moderation request queued")
}

func buildRequest(data, text, requestID string) (models.ModerationRequest, error) {
	var req models.ModerationRequest

	switch {
	case data != "" && text != "":
		return req, errors.New("use either -d or -text, not both")
	case data != "":
		if err := json.Unmarshal([]byte(data), &req); err != nil {
			return req, fmt.Errorf("invalid request JSON: %w", err)
		}
	case text != "":
		req.Text = text
	default:
		return req, errors.New("nothing to publish")
	}

	if requestID != "" {
		req.RequestID = requestID
	}
	return req, nil
}

func publish(ctx context.Context, streamName string, req models.ModerationRequest) (string, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	client, err := red.ConnectRedis(ctx, addr, os.Getenv("REDIS_PASSWORD"), 3)
	if err != nil {
		return "", err
	}
	defer client.Close()

	return streamredis.PublishRequest(ctx, client, streamName, req)
}
