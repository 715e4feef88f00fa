package slackbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/povarna/generative-ai-agents/kindfilter/internal/credentials"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/gate"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/metrics"
	"github.com/slack-go/slack"
)

var errNoOracle = errors.New("no oracle client available")

func (b *Bot) handleSlashCommand(ctx context.Context, cmd slack.SlashCommand) {
	switch cmd.Command {
	case CommandSend:
		b.openView(ctx, cmd.TriggerID, messageModal(""))
	case CommandKey:
		b.handleKeyCommand(ctx, cmd)
	default:
		b.logger.Warn().
			Str("command", cmd.Command).
			Str("user_id", cmd.UserID).
			Msg("unknown slash command")
	}
}

func (b *Bot) handleKeyCommand(ctx context.Context, cmd slack.SlashCommand) {
	creds, err := b.store.Get(ctx, cmd.UserID)
	if err != nil && !errors.Is(err, credentials.ErrNotFound) {
		b.logger.Error().Err(err).Str("user_id", cmd.UserID).Msg("failed to look up credentials")
	}

	if err == nil && creds.OpenAIAPIKey != "" {
		b.notify(ctx, cmd.UserID, msgKeyOnFile)
		return
	}

	b.openView(ctx, cmd.TriggerID, openAIKeyModal())
}

func (b *Bot) handleInteraction(ctx context.Context, callback slack.InteractionCallback) {
	switch callback.Type {
	case slack.InteractionTypeMessageAction:
		if callback.CallbackID != ShortcutCallback {
			return
		}
		text := callback.Message.Text
		if text == "" {
			text = missingMessageText
		}
		b.openView(ctx, callback.TriggerID, messageModal(text))

	case slack.InteractionTypeViewSubmission:
		switch callback.View.CallbackID {
		case CallbackMessageSubmission:
			b.handleMessageSubmission(ctx, callback)
		case CallbackUserOAuth:
			b.handleKeySubmission(ctx, callback)
		}
	}
}

// handleMessageSubmission runs the submitted text through the gate and either relays
// it to the chosen destination or tells the author why it was blocked.
func (b *Bot) handleMessageSubmission(ctx context.Context, callback slack.InteractionCallback) {
	userID := callback.User.ID

	var text, destination string
	if action, ok := submittedValue(callback.View, blockMessageInput, actionUserMessage); ok {
		text = action.Value
	}
	if action, ok := submittedValue(callback.View, blockChannelSelect, actionSelectedChannel); ok {
		destination = action.SelectedConversation
	}

	g, err := b.gateFor(ctx, userID)
	if err != nil {
		b.logger.Warn().Err(err).Str("user_id", userID).Msg("no oracle client for user")
		b.notify(ctx, userID, msgNoOracle)
		return
	}

	verdict := g.Evaluate(ctx, text)
	metrics.Record(metrics.SourceSlack, verdict)

	b.logger.Info().
		Str("user_id", userID).
		Str("channel", destination).
		Str("outcome", string(verdict.Outcome)).
		Dur("duration", verdict.Duration).
		Msg("message evaluated")

	if !verdict.Accepted {
		b.notify(ctx, userID, rejectionMessage(verdict, b.echoRejected))
		return
	}

	if err := b.relay(ctx, destination, verdict.OriginalText); err != nil {
		b.logger.Error().Err(err).Str("user_id", userID).Str("channel", destination).Msg("failed to relay message")
		b.notify(ctx, userID, relayFailedMessage(text))
		return
	}

	b.notify(ctx, userID, acceptedMessage(verdict.OriginalText))
}

func (b *Bot) handleKeySubmission(ctx context.Context, callback slack.InteractionCallback) {
	userID := callback.User.ID

	var key string
	if action, ok := submittedValue(callback.View, blockOpenAIKey, actionOpenAIKey); ok {
		key = strings.TrimSpace(action.Value)
	}

	if key == "" {
		b.notify(ctx, userID, msgKeySaveFailed)
		return
	}

	if err := b.store.SetOpenAIKey(ctx, userID, key); err != nil {
		b.logger.Error().Err(err).Str("user_id", userID).Msg("failed to store OpenAI key")
		b.notify(ctx, userID, msgKeySaveFailed)
		return
	}

	b.notify(ctx, userID, msgKeySaved)
}

// gateFor prefers the user's own OpenAI key and falls back to the default client.
func (b *Bot) gateFor(ctx context.Context, userID string) (*gate.Gate, error) {
	creds, err := b.store.Get(ctx, userID)
	switch {
	case err == nil && creds.OpenAIAPIKey != "" && b.newClient != nil:
		client, err := b.newClient(creds.OpenAIAPIKey)
		if err == nil {
			return b.gate.WithClient(client), nil
		}
		b.logger.Error().Err(err).Str("user_id", userID).Msg("failed to build per-user oracle client")
	case err != nil && !errors.Is(err, credentials.ErrNotFound):
		b.logger.Error().Err(err).Str("user_id", userID).Msg("failed to look up credentials")
	}

	if b.gate.HasClient() {
		return b.gate, nil
	}
	return nil, errNoOracle
}

// relay posts text to a channel, opening a DM first when the destination is a user.
func (b *Bot) relay(ctx context.Context, destination, text string) error {
	if destination == "" {
		return fmt.Errorf("no destination selected")
	}

	channelID := destination
	if isUserID(destination) {
		channel, _, _, err := b.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
			Users: []string{destination},
		})
		if err != nil {
			return fmt.Errorf("failed to open DM with %s: %w", destination, err)
		}
		if channel == nil || channel.ID == "" {
			return fmt.Errorf("failed to open DM with %s: no channel id returned", destination)
		}
		channelID = channel.ID
	}

	if _, _, err := b.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("failed to post message to %s: %w", channelID, err)
	}
	return nil
}

// notify DMs the user through the app's own conversation.
func (b *Bot) notify(ctx context.Context, userID, text string) {
	if _, _, err := b.api.PostMessageContext(ctx, userID, slack.MsgOptionText(text, false)); err != nil {
		b.logger.Error().Err(err).Str("user_id", userID).Msg("failed to notify user")
	}
}

func (b *Bot) openView(ctx context.Context, triggerID string, view slack.ModalViewRequest) {
	if _, err := b.api.OpenViewContext(ctx, triggerID, view); err != nil {
		b.logger.Error().Err(err).Str("callback_id", view.CallbackID).Msg("failed to open modal")
	}
}

func isUserID(id string) bool {
	return strings.HasPrefix(id, "U") || strings.HasPrefix(id, "W")
}
