package delivery

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/textproto"

	mail "gopkg.in/gomail.v2"
)

// SMTPConfig carries the authenticated submission parameters for the SMTP
// transport.
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	SkipTLSVerify bool
}

// SMTPTransport submits mail over authenticated SMTP with STARTTLS.
type SMTPTransport struct {
	cfg    SMTPConfig
	dialer *mail.Dialer
}

func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.SkipTLSVerify,
	}
	return &SMTPTransport{cfg: cfg, dialer: d}
}

func (t *SMTPTransport) Name() string { return "smtp" }

// Send dials, authenticates and submits in one shot. The context only gates
// entry: gomail's dial does not take a context, so cancellation between
// attempts is handled by the retry loop.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", t.cfg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := t.dialer.DialAndSend(m); err != nil {
		return classifySMTPError(err, msg.To)
	}
	return nil
}

// classifySMTPError splits server replies into retryable and permanent
// kinds. 5xx replies (bad credentials, rejected recipient, policy refusals)
// cannot succeed on retry; 4xx replies and connection-level failures can.
func classifySMTPError(err error, recipient string) error {
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		if protoErr.Code >= 500 {
			return MarkPermanent(fmt.Errorf("smtp server rejected send to %s: %w", recipient, err))
		}
		return fmt.Errorf("smtp transient server error sending to %s: %w", recipient, err)
	}
	// Dial, TLS and auth-mechanism negotiation failures land here.
	return fmt.Errorf("smtp connection error sending to %s: %w", recipient, err)
}
