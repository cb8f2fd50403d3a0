package delivery

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridConfig carries the API-based transport parameters.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// SendGridTransport submits mail through the SendGrid v3 API. It exists as
// an alternative to SMTP for deployments where outbound port 25/587 is
// blocked; the dispatcher is oblivious to which transport is configured.
type SendGridTransport struct {
	cfg    SendGridConfig
	client *sendgrid.Client
}

func NewSendGridTransport(cfg SendGridConfig) *SendGridTransport {
	return &SendGridTransport{
		cfg:    cfg,
		client: sendgrid.NewSendClient(cfg.APIKey),
	}
}

func (t *SendGridTransport) Name() string { return "sendgrid" }

func (t *SendGridTransport) Send(ctx context.Context, msg Message) error {
	from := sgmail.NewEmail(t.cfg.FromName, t.cfg.FromEmail)
	to := sgmail.NewEmail("", msg.To)
	message := sgmail.NewSingleEmail(from, msg.Subject, to, msg.Body, "")

	resp, err := t.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid request failed for %s: %w", msg.To, err)
	}
	if resp.StatusCode >= 300 {
		return classifySendGridStatus(resp.StatusCode, msg.To)
	}
	return nil
}

// classifySendGridStatus maps API response codes onto the retry taxonomy:
// client errors short of rate limiting are permanent, 429 and server errors
// are transient.
func classifySendGridStatus(status int, recipient string) error {
	err := fmt.Errorf("sendgrid returned status %d for %s", status, recipient)
	if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
		return MarkPermanent(err)
	}
	return err
}
