package stream

import (
	"context"
	"fmt"

	red "github.com/povarna/generative-ai-agents/kindfilter/internal/redis"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/stream/redis"
	"github.com/rs/zerolog"
)

const (
	DefaultRequestStream = "moderation-requests"
	DefaultVerdictStream = "moderation-verdicts"
	DefaultGroup         = "kindfilter-group"
)

type StreamConfig struct {
	Provider      string // only redis for now
	RedisAddr     string
	RedisPassword string
	RequestStream string
	VerdictStream string
	Group         string
	ConsumerName  string
	MaxRetries    int
}

func (c *StreamConfig) applyDefaults() {
	if c.Provider == "" {
		c.Provider = "redis"
	}
	if c.RedisAddr == "" {
		c.RedisAddr = "localhost:6379"
	}
	if c.RequestStream == "" {
		c.RequestStream = DefaultRequestStream
	}
	if c.VerdictStream == "" {
		c.VerdictStream = DefaultVerdictStream
	}
	if c.Group == "" {
		c.Group = DefaultGroup
	}
	if c.ConsumerName == "" {
		c.ConsumerName = "kindfilter"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
}

// NewStreamConsumer connects to the configured provider and returns a consumer
// that moderates every request it reads.
func NewStreamConsumer(
	ctx context.Context,
	cfg StreamConfig,
	evaluator redis.Evaluator,
	logger *zerolog.Logger,
) (StreamConsumer, error) {
	cfg.applyDefaults()

	switch cfg.Provider {
	case "redis":
		client, err := red.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.MaxRetries)
		if err != nil {
			return nil, err
		}

		return redis.NewConsumer(client, redis.ConsumerConfig{
			RequestStream: cfg.RequestStream,
			VerdictStream: cfg.VerdictStream,
			Group:         cfg.Group,
			ConsumerName:  cfg.ConsumerName,
		}, evaluator, logger), nil

	default:
		return nil, fmt.Errorf("unsupported stream provider: %s", cfg.Provider)
	}
}
