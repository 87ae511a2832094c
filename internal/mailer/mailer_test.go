package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderKnownTemplates(t *testing.T) {
	payload := map[string]string{KeyItemName: "PE - Top", KeyRequesterName: "Ana Cruz"}

	for _, kind := range []string{TemplateRequestSubmitted, TemplateRequestApproved, TemplateRequestRejected, TemplateRequestCompleted} {
		subject, body, err := Render(kind, payload)
		require.NoError(t, err, kind)
		assert.NotEmpty(t, subject)
		assert.Contains(t, body, "PE - Top")
		assert.Contains(t, body, "Hello Ana Cruz")
	}
}

func TestRenderRejectedIncludesReason(t *testing.T) {
	_, body, err := Render(TemplateRequestRejected, map[string]string{KeyItemName: "PE - Top", KeyReason: "Out of <stock>"})
	require.NoError(t, err)
	assert.Contains(t, body, "Reason: Out of &lt;stock&gt;")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := Render("welcome", nil)
	assert.Error(t, err)
}

func TestSMTPSendEmail(t *testing.T) {
	m := NewSMTP("mail.local", 2525, "", "", "noreply@example.com")

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	err := m.SendEmail(context.Background(), "ana@example.com", TemplateRequestApproved,
		map[string]string{KeyItemName: "Academic - Bottom"})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:2525", gotAddr)
	assert.Equal(t, []string{"ana@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Uniform Request Approved")
	assert.Contains(t, string(gotMsg), "Academic - Bottom")
}

func TestSMTPSendEmailPropagatesRelayError(t *testing.T) {
	m := NewSMTP("mail.local", 25, "user", "secret", "noreply@example.com")
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("relay refused")
	}

	err := m.SendEmail(context.Background(), "ana@example.com", TemplateRequestCompleted, nil)
	assert.ErrorContains(t, err, "relay refused")
}

func TestSMTPSendEmailHonorsContext(t *testing.T) {
	m := NewSMTP("mail.local", 25, "", "", "noreply@example.com")
	release := make(chan struct{})
	defer close(release)
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := m.SendEmail(ctx, "ana@example.com", TemplateRequestSubmitted, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestLogMailerRejectsUnknownTemplate(t *testing.T) {
	l := NewLog()
	assert.NoError(t, l.SendEmail(context.Background(), "a@example.com", TemplateRequestSubmitted, nil))
	assert.Error(t, l.SendEmail(context.Background(), "a@example.com", "nope", nil))
}
