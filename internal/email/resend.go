// Package email sends newsletter mail through Resend.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"ms-storefront/internal/config"
	"ms-storefront/internal/logger"

	"github.com/resend/resend-go/v2"
)

type Sender interface {
	SendWelcome(ctx context.Context, to string) error
}

var welcomeTemplate = template.Must(template.New("welcome").Parse(`<!doctype html>
<html><body>
<h1>Thanks for subscribing</h1>
<p>We will write to {{.Email}} when new events go on sale.</p>
</body></html>`))

type ResendSender struct {
	Client *resend.Client
	From   string
	Logger *logger.Logger
}

// NewSender returns a Resend sender, or a no-op sender when email is disabled
// or no API key is configured.
func NewSender(cfg config.EmailConfig, log *logger.Logger) Sender {
	if !cfg.Enabled || cfg.ResendAPIKey == "" {
		log.Info("EMAIL", "Email disabled, welcome mails will be skipped")
		return NopSender{}
	}
	return &ResendSender{
		Client: resend.NewClient(cfg.ResendAPIKey),
		From:   cfg.From,
		Logger: log,
	}
}

func (s *ResendSender) SendWelcome(ctx context.Context, to string) error {
	var body bytes.Buffer
	if err := welcomeTemplate.Execute(&body, struct{ Email string }{to}); err != nil {
		return fmt.Errorf("render welcome mail: %w", err)
	}

	sent, err := s.Client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.From,
		To:      []string{to},
		Subject: "Welcome to our newsletter",
		Html:    body.String(),
	})
	if err != nil {
		var rateLimitErr *resend.RateLimitError
		if errors.As(err, &rateLimitErr) {
			return fmt.Errorf("email rate limit exceeded (limit: %s, resets in: %s seconds): %w",
				rateLimitErr.Limit, rateLimitErr.Reset, err)
		}
		return fmt.Errorf("resend API error: %w", err)
	}

	s.Logger.Info("EMAIL", fmt.Sprintf("Welcome mail %s sent to %s", sent.Id, to))
	return nil
}

type NopSender struct{}

func (NopSender) SendWelcome(context.Context, string) error { return nil }
