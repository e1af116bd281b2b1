// Package mailer sends transactional email through Resend.
//
// Handlers depend on the Sender interface, not the Resend client, so
// tests can capture sends. Send failures never roll back the action
// that triggered them; callers log and continue.
package mailer

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
	"go.uber.org/zap"
)

// Email is one outbound message with both HTML and text bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Mailer is the Resend-backed Sender.
type Mailer struct {
	client   *resend.Client
	from     string // e.g. "Junction <noreply@junction.network>"
	siteName string
	baseURL  string
	log      *zap.Logger
}

// New creates a Mailer. baseURL is used by the template builders for
// links (reset, report access).
func New(apiKey, from, siteName, baseURL string, logger *zap.Logger) *Mailer {
	return &Mailer{
		client:   resend.NewClient(apiKey),
		from:     from,
		siteName: siteName,
		baseURL:  baseURL,
		log:      logger,
	}
}

// Send delivers one email.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{e.To},
		Subject: e.Subject,
		Html:    e.HTMLBody,
		Text:    e.TextBody,
	})
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}

// SendPasswordReset satisfies auth.ResetMailer: builds the reset email
// and sends it.
func (m *Mailer) SendPasswordReset(ctx context.Context, toEmail, token string) error {
	e := BuildPasswordResetEmail(PasswordResetData{
		SiteName:  m.siteName,
		ResetLink: fmt.Sprintf("%s/reset-password/%s", m.baseURL, token),
		ExpiresIn: "30 minutes",
	})
	e.To = toEmail
	return m.Send(ctx, e)
}
