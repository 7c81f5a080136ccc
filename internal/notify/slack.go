package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"docuchat/internal/core"
)

// SlackNotifier posts upload/chat events to a Slack channel. Posting is
// best-effort and asynchronous: a Slack outage never fails the request path.
type SlackNotifier struct {
	client  *slack.Client
	channel string
}

func NewSlackNotifier(token, channel string) *SlackNotifier {
	return &SlackNotifier{client: slack.New(token), channel: channel}
}

func (n *SlackNotifier) Post(message any) {
	text := formatMessage(message)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _, err := n.client.PostMessageContext(ctx, n.channel, slack.MsgOptionText(text, false))
		if err != nil {
			log.Warn().Err(err).Str("channel", n.channel).Msg("slack notification failed")
		}
	}()
}

// Maps and structs are posted as a fenced code block, plain strings as-is.
func formatMessage(message any) string {
	if s, ok := message.(string); ok {
		return s
	}
	return fmt.Sprintf("```%v```", message)
}

var _ core.Notifier = (*SlackNotifier)(nil)

// Noop discards notifications; used when no Slack token is configured.
type Noop struct{}

func (Noop) Post(any) {}

var _ core.Notifier = Noop{}
