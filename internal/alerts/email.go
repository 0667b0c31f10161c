package alerts

import (
	"context"
	"errors"
	"html"

	resend "github.com/resend/resend-go/v2"
)

// EmailNotifier sends alerts through Resend
type EmailNotifier struct {
	client        *resend.Client
	defaultSender string
	to            []string
}

// NewEmailNotifier returns a notifier that is unconfigured when client is nil
func NewEmailNotifier(client *resend.Client, defaultSender string, to ...string) *EmailNotifier {
	var recipients []string
	for _, addr := range to {
		if addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return &EmailNotifier{client: client, defaultSender: defaultSender, to: recipients}
}

func (e *EmailNotifier) Name() string { return "email" }

func (e *EmailNotifier) Configured() bool {
	return e != nil && e.client != nil && e.defaultSender != "" && len(e.to) > 0
}

func (e *EmailNotifier) Send(ctx context.Context, subject, body string) error {
	if !e.Configured() {
		return errors.New("resend client not initialized")
	}

	params := &resend.SendEmailRequest{
		From:    e.defaultSender,
		To:      e.to,
		Subject: subject,
		Text:    body,
		Html:    "<pre>" + html.EscapeString(body) + "</pre>",
	}
	_, err := e.client.Emails.SendWithContext(ctx, params)
	return err
}
