package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/povarna/generative-ai-agents/kindfilter/internal/models"
	"github.com/redis/go-redis/v9"
)

type publisher interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// PublishRequest appends a moderation request to stream and returns the entry id.
func PublishRequest(ctx context.Context, client publisher, stream string, request models.ModerationRequest) (string, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	values := map[string]any{fieldPayload: string(body)}
	if request.RequestID != "" {
		values[fieldRequestID] = request.RequestID
	}

	id, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish to %s: %w", stream, err)
	}
	return id, nil
}
