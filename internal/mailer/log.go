package mailer

import (
	"context"

	"uniform-service/internal/util"

	"go.uber.org/zap"
)

// Log writes emails to the logger instead of sending them
type Log struct {
	logger *zap.Logger
}

func NewLog() *Log {
	return &Log{logger: util.GetLogger()}
}

func (l *Log) SendEmail(ctx context.Context, address, template string, payload map[string]string) error {
	subject, _, err := Render(template, payload)
	if err != nil {
		return err
	}
	l.logger.Info("Email (not sent)",
		zap.String("to", address),
		zap.String("template", template),
		zap.String("subject", subject),
		zap.Any("payload", payload))
	return nil
}
