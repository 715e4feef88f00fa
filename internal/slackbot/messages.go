package slackbot

import (
	"fmt"

	"github.com/povarna/generative-ai-agents/kindfilter/internal/models"
)

const (
	msgKeyOnFile     = "You already have an OpenAI key on file."
	msgKeySaved      = "✅ OpenAI key saved successfully!"
	msgKeySaveFailed = "Failed to save your OpenAI key. Please try again."
	msgNoOracle      = "🔑 No OpenAI key is configured for you yet. Run /kf-key to add one."
)

func rejectionMessage(verdict models.ModerationVerdict, echo bool) string {
	msg := fmt.Sprintf("🚫 Your message was not sent because: \"%s\".\n💡 Suggestion: \"%s\"", verdict.Reason, verdict.Suggestion)
	if echo {
		msg += fmt.Sprintf("\nThis was your message -- %s", verdict.OriginalText)
	}
	return msg
}

func acceptedMessage(text string) string {
	return fmt.Sprintf("✅ Your message is all good! -- %s", text)
}

func relayFailedMessage(text string) string {
	return fmt.Sprintf("❌ Failed to send your message. Please try again. This was your message -- %s", text)
}
