package slackbot

import (
	"context"
	"fmt"
	"strings"

	"github.com/povarna/generative-ai-agents/kindfilter/internal/credentials"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/gate"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/llm"
	"github.com/rs/zerolog"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

// ClientFactory builds an oracle client from a user's own API key.
type ClientFactory func(apiKey string) (llm.LLMClient, error)

type Config struct {
	BotToken            string
	AppToken            string
	Debug               bool
	EchoRejectedMessage bool
}

// Bot is the Socket Mode front end of the gate.
type Bot struct {
	api          SlackAPI
	socket       *socketmode.Client
	gate         *gate.Gate
	store        credentials.Store
	newClient    ClientFactory
	echoRejected bool
	logger       *zerolog.Logger
}

func New(cfg Config, g *gate.Gate, store credentials.Store, newClient ClientFactory, logger *zerolog.Logger) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if !strings.HasPrefix(cfg.AppToken, "xapp-") {
		return nil, fmt.Errorf("app token must start with xapp- for Socket Mode")
	}

	client := slack.New(
		cfg.BotToken,
		slack.OptionDebug(cfg.Debug),
		slack.OptionAppLevelToken(cfg.AppToken),
	)

	bot := newBot(client, g, store, newClient, cfg.EchoRejectedMessage, logger)
	bot.socket = socketmode.New(client, socketmode.OptionDebug(cfg.Debug))
	return bot, nil
}

func newBot(api SlackAPI, g *gate.Gate, store credentials.Store, newClient ClientFactory, echoRejected bool, logger *zerolog.Logger) *Bot {
	return &Bot{
		api:          api,
		gate:         g,
		store:        store,
		newClient:    newClient,
		echoRejected: echoRejected,
		logger:       logger,
	}
}

// Run processes Socket Mode events until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if resp, err := b.api.AuthTestContext(ctx); err != nil {
		b.logger.Warn().Err(err).Msg("failed to verify bot token")
	} else {
		b.logger.Info().
			Str("bot_user_id", resp.UserID).
			Str("team", resp.Team).
			Msg("authenticated with Slack")
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-b.socket.Events:
				if !ok {
					return
				}
				b.handleEvent(ctx, evt)
			}
		}
	}()

	return b.socket.RunContext(ctx)
}

func (b *Bot) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.logger.Info().Msg("connecting to Slack with Socket Mode")

	case socketmode.EventTypeConnected:
		b.logger.Info().Msg("connected to Slack with Socket Mode")

	case socketmode.EventTypeConnectionError:
		b.logger.Error().Interface("data", evt.Data).Msg("socket mode connection error")

	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slack.SlashCommand)
		if !ok {
			return
		}
		b.socket.Ack(*evt.Request)
		go b.handleSlashCommand(ctx, cmd)

	case socketmode.EventTypeInteractive:
		callback, ok := evt.Data.(slack.InteractionCallback)
		if !ok {
			return
		}
		b.socket.Ack(*evt.Request)
		go b.handleInteraction(ctx, callback)
	}
}
