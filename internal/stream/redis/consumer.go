package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/kindfilter/internal/metrics"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	fieldPayload   = "payload"
	fieldRequestID = "request_id"

	defaultMinIdle       = 30 * time.Second
	defaultClaimInterval = 30 * time.Second
	claimBatchSize       = 10
)

// Evaluator is satisfied by *gate.Gate.
type Evaluator interface {
	Evaluate(ctx context.Context, text string) models.ModerationVerdict
}

// streamClient is the part of *redis.Client the consumer uses.
type streamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XAutoClaim(ctx context.Context, a *redis.XAutoClaimArgs) *redis.XAutoClaimCmd
}

type ConsumerConfig struct {
	RequestStream string
	VerdictStream string
	Group         string
	ConsumerName  string
	// MinIdle is how long an entry must sit unacked before it is reclaimed.
	MinIdle       time.Duration
	ClaimInterval time.Duration
}

type Consumer struct {
	client    streamClient
	cfg       ConsumerConfig
	evaluator Evaluator
	logger    *zerolog.Logger
}

func NewConsumer(client streamClient, cfg ConsumerConfig, evaluator Evaluator, logger *zerolog.Logger) *Consumer {
	if cfg.MinIdle <= 0 {
		cfg.MinIdle = defaultMinIdle
	}
	if cfg.ClaimInterval <= 0 {
		cfg.ClaimInterval = defaultClaimInterval
	}
	return &Consumer{
		client:    client,
		cfg:       cfg,
		evaluator: evaluator,
		logger:    logger,
	}
}

func (c *Consumer) Setup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.RequestStream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group %s: %w", c.cfg.Group, err)
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("stream", c.cfg.RequestStream).
		Str("verdicts", c.cfg.VerdictStream).
		Str("group", c.cfg.Group).
		Str("consumer", c.cfg.ConsumerName).
		Msg("Consumer started")

	c.reclaimPending(ctx)
	lastClaim := time.Now()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if time.Since(lastClaim) >= c.cfg.ClaimInterval {
			c.reclaimPending(ctx)
			lastClaim = time.Now()
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.cfg.Group,
			Consumer: c.cfg.ConsumerName,
			Streams:  []string{c.cfg.RequestStream, ">"},
			Count:    1,
			Block:    2 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				// timeout, no message -> loop again
				continue
			}

			if ctx.Err() != nil {
				return ctx.Err() // context cancelled during block
			}

			c.logger.Error().Err(err).Msg("Failed to read from stream")
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				c.process(ctx, msg)
			}
		}
	}
}

// reclaimPending takes over entries that were delivered but never acked, such as
// those whose verdict could not be published, and processes them again.
func (c *Consumer) reclaimPending(ctx context.Context) {
	start := "0-0"
	for ctx.Err() == nil {
		msgs, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.cfg.RequestStream,
			Group:    c.cfg.Group,
			Consumer: c.cfg.ConsumerName,
			MinIdle:  c.cfg.MinIdle,
			Start:    start,
			Count:    claimBatchSize,
		}).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				c.logger.Error().Err(err).Msg("Failed to reclaim pending messages")
			}
			return
		}

		for _, msg := range msgs {
			c.logger.Info().Str("id", msg.ID).Msg("Reprocessing pending message")
			c.process(ctx, msg)
		}

		if next == "" || next == "0-0" || len(msgs) == 0 {
			return
		}
		start = next
	}
}

func (c *Consumer) Stop() error {
	// No-op
	return nil
}

// process moderates one message. Undecodable messages are acked and dropped;
// a message whose verdict could not be published stays pending for redelivery.
func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	payload, ok := msg.Values[fieldPayload].(string)
	if !ok {
		c.logger.Error().Str("id", msg.ID).Msg("Missing payload field")
		c.ack(ctx, msg.ID)
		return
	}

	var request models.ModerationRequest
	if err := json.Unmarshal([]byte(payload), &request); err != nil {
		c.logger.Error().Err(err).Str("id", msg.ID).Msg("Failed to decode message")
		c.ack(ctx, msg.ID) // bad message, ack to skip it
		return
	}
	if request.RequestID == "" {
		request.RequestID, _ = msg.Values[fieldRequestID].(string)
	}
	if request.RequestID == "" {
		request.RequestID = msg.ID
	}

	verdict := c.evaluator.Evaluate(ctx, request.Text)
	verdict.RequestID = request.RequestID
	metrics.Record(metrics.SourceStream, verdict)

	c.logger.Info().
		Str("id", msg.ID).
		Str("request_id", verdict.RequestID).
		Str("outcome", string(verdict.Outcome)).
		Dur("duration", verdict.Duration).
		Msg("Moderation complete")

	if err := c.publish(ctx, verdict); err != nil {
		c.logger.Error().Err(err).Str("id", msg.ID).Msg("Failed to publish verdict")
		return
	}

	c.ack(ctx, msg.ID)
}

func (c *Consumer) publish(ctx context.Context, verdict models.ModerationVerdict) error {
	body, err := json.Marshal(verdict)
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}

	return c.client.XAdd(ctx, &redis.XAddArgs{
		Stream: c.cfg.VerdictStream,
		Values: map[string]any{
			fieldPayload:   string(body),
			fieldRequestID: verdict.RequestID,
		},
	}).Err()
}

func (c *Consumer) ack(ctx context.Context, msgID string) {
	if err := c.client.XAck(ctx, c.cfg.RequestStream, c.cfg.Group, msgID).Err(); err != nil {
		c.logger.Error().Err(err).Str("id", msgID).Msg("Failed to ACK message")
	}
}
