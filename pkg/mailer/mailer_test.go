package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zorvex/zorvex-backend/config"
)

func TestNew_FallsBackToLogMailer(t *testing.T) {
	m := New(config.MailConfig{})
	_, ok := m.(*LogMailer)
	assert.True(t, ok)

	m = New(config.MailConfig{SendGridAPIKey: "SG.test", FromAddress: "no-reply@zorvex.com"})
	_, ok = m.(*SendGridMailer)
	assert.True(t, ok)
}

func TestSendGridMailer_Send(t *testing.T) {
	m := NewSendGridMailer("SG.test", "no-reply@zorvex.com", "Zorvex")

	var captured *mail.SGMailV3
	m.sendMail = func(msg *mail.SGMailV3) (int, string, error) {
		captured = msg
		return 202, "", nil
	}

	require.NoError(t, m.Send(context.Background(), "shopper@example.com", "Reset your password", "link"))
	require.NotNil(t, captured)
	assert.Equal(t, "Reset your password", captured.Subject)
	assert.Equal(t, "no-reply@zorvex.com", captured.From.Address)
}

func TestSendGridMailer_Failures(t *testing.T) {
	m := NewSendGridMailer("SG.test", "no-reply@zorvex.com", "Zorvex")

	m.sendMail = func(*mail.SGMailV3) (int, string, error) { return 401, "unauthorized", nil }
	assert.Error(t, m.Send(context.Background(), "a@example.com", "s", "b"))

	m.sendMail = func(*mail.SGMailV3) (int, string, error) { return 0, "", errors.New("network down") }
	assert.Error(t, m.Send(context.Background(), "a@example.com", "s", "b"))

	assert.Error(t, m.Send(context.Background(), "", "s", "b"))
}

func TestLogMailer_RecordsMessages(t *testing.T) {
	m := &LogMailer{}
	require.NoError(t, m.Send(context.Background(), "a@example.com", "Hello", "Body"))
	require.Len(t, m.Sent, 1)
	assert.Equal(t, "a@example.com", m.Sent[0].To)
}
