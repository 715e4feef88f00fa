package slackbot

import "github.com/slack-go/slack"

const (
	CommandSend      = "/kf"
	CommandKey       = "/kf-key"
	ShortcutCallback = "kf"

	CallbackMessageSubmission = "message_submission"
	CallbackUserOAuth         = "user_oauth"

	blockMessageInput     = "message_input"
	actionUserMessage     = "user_message"
	blockChannelSelect    = "channel_select"
	actionSelectedChannel = "selected_channel"
	blockOpenAIKey        = "openai_key"
	actionOpenAIKey       = "openai_key"

	missingMessageText = "No message text found"
)

// messageModal collects the text to moderate and where to send it.
func messageModal(initialText string) slack.ModalViewRequest {
	input := slack.NewPlainTextInputBlockElement(nil, actionUserMessage)
	input.Multiline = true
	input.InitialValue = initialText

	destination := slack.NewOptionsSelectBlockElement(slack.OptTypeConversations, nil, actionSelectedChannel)
	destination.DefaultToCurrentConversation = true

	return slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: CallbackMessageSubmission,
		Title:      plainText("Send a Safe Message"),
		Submit:     plainText("Send"),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewInputBlock(blockMessageInput, plainText("Your Message"), nil, input),
				slack.NewInputBlock(blockChannelSelect, plainText("Choose Channel or DM"), nil, destination),
			},
		},
	}
}

func openAIKeyModal() slack.ModalViewRequest {
	input := slack.NewPlainTextInputBlockElement(plainText("Enter your OpenAI API key"), actionOpenAIKey)

	return slack.ModalViewRequest{
		Type:       slack.VTModal,
		CallbackID: CallbackUserOAuth,
		Title:      plainText("Add OpenAI Key"),
		Submit:     plainText("Save"),
		Blocks: slack.Blocks{
			BlockSet: []slack.Block{
				slack.NewInputBlock(blockOpenAIKey, plainText("OpenAI API Key"), nil, input),
			},
		},
	}
}

func plainText(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.PlainTextType, text, false, false)
}

// submittedValue reads a single input out of a view submission.
func submittedValue(view slack.View, blockID, actionID string) (slack.BlockAction, bool) {
	if view.State == nil {
		return slack.BlockAction{}, false
	}
	block, ok := view.State.Values[blockID]
	if !ok {
		return slack.BlockAction{}, false
	}
	action, ok := block[actionID]
	return action, ok
}
