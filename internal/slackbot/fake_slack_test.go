package slackbot

import (
	"context"
	"errors"
	"sync"

	"github.com/slack-go/slack"
)

type postedMessage struct {
	channel string
	text    string
}

// fakeSlackAPI records everything the bot sends to Slack.
type fakeSlackAPI struct {
	mu sync.Mutex

	posts      []postedMessage
	views      []slack.ModalViewRequest
	triggerIDs []string
	opened     [][]string

	postErrFor  map[string]error
	openErr     error
	openChannel string
	viewErr     error
}

func newFakeSlackAPI() *fakeSlackAPI {
	return &fakeSlackAPI{
		postErrFor:  map[string]error{},
		openChannel: "D0DM",
	}
}

func (f *fakeSlackAPI) AuthTestContext(ctx context.Context) (*slack.AuthTestResponse, error) {
	return &slack.AuthTestResponse{UserID: "UBOT"}, nil
}

func (f *fakeSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	_, values, err := slack.UnsafeApplyMsgOptions("", channelID, "", options...)
	if err != nil {
		return "", "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.postErrFor[channelID]; err != nil {
		return "", "", err
	}
	f.posts = append(f.posts, postedMessage{channel: channelID, text: values.Get("text")})
	return channelID, "1700000000.000100", nil
}

func (f *fakeSlackAPI) OpenViewContext(ctx context.Context, triggerID string, view slack.ModalViewRequest) (*slack.ViewResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.viewErr != nil {
		return nil, f.viewErr
	}
	f.triggerIDs = append(f.triggerIDs, triggerID)
	f.views = append(f.views, view)
	return &slack.ViewResponse{}, nil
}

func (f *fakeSlackAPI) OpenConversationContext(ctx context.Context, params *slack.OpenConversationParameters) (*slack.Channel, bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = append(f.opened, params.Users)
	if f.openErr != nil {
		return nil, false, false, f.openErr
	}
	if f.openChannel == "" {
		return &slack.Channel{}, false, false, nil
	}
	channel := &slack.Channel{}
	channel.ID = f.openChannel
	return channel, false, false, nil
}

func (f *fakeSlackAPI) postsTo(channel string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.posts {
		if p.channel == channel {
			out = append(out, p.text)
		}
	}
	return out
}

var errSlack = errors.New("slack_error")
