package mailer

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"uniform-service/internal/util"

	"go.uber.org/zap"
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTP delivers templated emails through an SMTP relay
type SMTP struct {
	addr   string
	from   string
	auth   smtp.Auth
	send   sendFunc
	logger *zap.Logger
}

// NewSMTP creates a relay client. Auth is skipped when username is empty.
func NewSMTP(host string, port int, username, password, from string) *SMTP {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTP{
		addr:   net.JoinHostPort(host, strconv.Itoa(port)),
		from:   from,
		auth:   auth,
		send:   smtp.SendMail,
		logger: util.GetLogger(),
	}
}

// SendEmail renders the template and hands it to the relay. net/smtp does
// not take a context, so ctx only bounds how long the caller waits.
func (m *SMTP) SendEmail(ctx context.Context, address, template string, payload map[string]string) error {
	subject, body, err := Render(template, payload)
	if err != nil {
		return err
	}
	msg := buildMessage(m.from, address, subject, body, time.Now())

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.send(m.addr, m.auth, m.from, []string{address}, msg)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s: %w", address, ctx.Err())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", address, err)
		}
	}
	m.logger.Debug("Email sent", zap.String("template", template), zap.String("to", address))
	return nil
}

func buildMessage(from, to, subject, body string, at time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + at.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
