// Package notify delivers pickup and delivery reports: SMTP email with the
// rendered PDF attached, and best-effort push notifications to drivers.
package notify

import (
	"context"
	"fmt"
	"io"

	gomail "gopkg.in/gomail.v2"

	"loadtrack/internal/apperrors"
	"loadtrack/internal/config"
)

// Email is one outbound message. MessageID threads the pickup mail; delivery
// mails reply to it via InReplyTo.
type Email struct {
	To             []string
	Subject        string
	HTMLBody       string
	AttachmentName string
	Attachment     []byte
	MessageID      string
	InReplyTo      string
}

// Mailer sends one email and confirms delivery to the transport.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// SMTPMailer sends through the configured SMTP relay using gomail.
type SMTPMailer struct {
	settings config.SMTPSettings
}

func NewSMTPMailer(settings config.SMTPSettings) *SMTPMailer {
	return &SMTPMailer{settings: settings}
}

func (m *SMTPMailer) Send(_ context.Context, msg Email) error {
	mail := gomail.NewMessage()
	mail.SetHeader("From", m.settings.From)
	mail.SetHeader("To", msg.To...)
	mail.SetHeader("Subject", msg.Subject)
	if msg.MessageID != "" {
		mail.SetHeader("Message-ID", msg.MessageID)
	}
	if msg.InReplyTo != "" {
		mail.SetHeader("In-Reply-To", msg.InReplyTo)
		mail.SetHeader("References", msg.InReplyTo)
	}
	mail.SetBody("text/html", msg.HTMLBody)
	if len(msg.Attachment) > 0 {
		mail.Attach(msg.AttachmentName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(msg.Attachment)
			return err
		}))
	}

	dialer := gomail.NewDialer(m.settings.Host, m.settings.Port, m.settings.User, m.settings.Pass)
	if err := dialer.DialAndSend(mail); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrDelivery, err)
	}
	return nil
}
