package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/zorvex/zorvex-backend/config"
	"github.com/zorvex/zorvex-backend/pkg/logger"
)

// Mailer delivers transactional email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// New returns a SendGrid mailer when an API key is configured and a
// logging mailer otherwise.
func New(cfg config.MailConfig) Mailer {
	if cfg.SendGridAPIKey == "" {
		logger.Warn("SENDGRID_API_KEY not set, outgoing mail will only be logged")
		return &LogMailer{}
	}
	return NewSendGridMailer(cfg.SendGridAPIKey, cfg.FromAddress, cfg.FromName)
}

type sendFunc func(*mail.SGMailV3) (statusCode int, body string, err error)

type SendGridMailer struct {
	from     *mail.Email
	sendMail sendFunc
}

func NewSendGridMailer(apiKey, fromAddress, fromName string) *SendGridMailer {
	client := sendgrid.NewSendClient(apiKey)
	return &SendGridMailer{
		from: mail.NewEmail(fromName, fromAddress),
		sendMail: func(m *mail.SGMailV3) (int, string, error) {
			resp, err := client.Send(m)
			if err != nil {
				return 0, "", err
			}
			return resp.StatusCode, resp.Body, nil
		},
	}
}

func (m *SendGridMailer) Send(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("to address is empty")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	message := mail.NewSingleEmail(
		m.from,
		subject,
		mail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", body),
	)

	status, respBody, err := m.sendMail(message)
	if err != nil {
		logger.Error("SendGrid request failed", err, map[string]interface{}{
			"to":      to,
			"subject": subject,
		})
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if status >= 400 {
		logger.Warn("SendGrid rejected message", map[string]interface{}{
			"status": status,
			"body":   respBody,
		})
		return fmt.Errorf("sendgrid send failed: status=%d", status)
	}

	logger.Info("Mail sent", map[string]interface{}{
		"to":      to,
		"subject": subject,
		"status":  status,
	})
	return nil
}

// LogMailer records messages in the application log instead of sending them.
type LogMailer struct {
	Sent []Message
}

type Message struct {
	To      string
	Subject string
	Body    string
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.Sent = append(m.Sent, Message{To: to, Subject: subject, Body: body})
	logger.Info("Mail delivery skipped (log mailer)", map[string]interface{}{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	return nil
}
