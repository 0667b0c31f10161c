package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const DefaultTwilioBaseURL = "https://api.twilio.com"

type SMSConfig struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
	// BaseURL overrides the Twilio API host, used by tests
	BaseURL string
}

// SMSNotifier sends alerts as text messages through the Twilio REST API
type SMSNotifier struct {
	cfg  SMSConfig
	http *resty.Client
}

func NewSMSNotifier(cfg SMSConfig) *SMSNotifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTwilioBaseURL
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(10*time.Second).
		SetBasicAuth(cfg.AccountSID, cfg.AuthToken)

	return &SMSNotifier{cfg: cfg, http: client}
}

func (s *SMSNotifier) Name() string { return "sms" }

func (s *SMSNotifier) Configured() bool {
	return s != nil && s.cfg.AccountSID != "" && s.cfg.AuthToken != "" && s.cfg.From != "" && s.cfg.To != ""
}

// Send posts a single message. Subject is dropped since SMS has no subject line.
func (s *SMSNotifier) Send(ctx context.Context, subject, body string) error {
	resp, err := s.http.R().
		SetContext(ctx).
		SetPathParam("sid", s.cfg.AccountSID).
		SetFormData(map[string]string{
			"To":   s.cfg.To,
			"From": s.cfg.From,
			"Body": truncate(body, MaxMessageLength),
		}).
		Post("/2010-04-01/Accounts/{sid}/Messages.json")
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}

	if resp.IsError() {
		msg := gjson.GetBytes(resp.Body(), "message").String()
		if msg == "" {
			msg = resp.String()
		}
		return fmt.Errorf("twilio returned %d: %s", resp.StatusCode(), msg)
	}
	return nil
}
