package alerts

import (
	"context"

	"github.com/slack-go/slack"
)

// SlackNotifier posts alerts to an incoming webhook
type SlackNotifier struct {
	webhookURL string
}

func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{webhookURL: webhookURL}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Configured() bool {
	return s != nil && s.webhookURL != ""
}

func (s *SlackNotifier) Send(ctx context.Context, subject, body string) error {
	return slack.PostWebhookContext(ctx, s.webhookURL, &slack.WebhookMessage{
		Text: "*" + subject + "*\n```" + body + "```",
	})
}
