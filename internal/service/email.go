package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"uniform-service/internal/util"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultEmailTimeout bounds a single detached email send
const DefaultEmailTimeout = 10 * time.Second

// EmailDispatcher sends emails on detached goroutines. Callers never wait and
// never see delivery errors; failures are logged and counted.
type EmailDispatcher struct {
	mailer  Mailer
	timeout time.Duration
	wg      sync.WaitGroup
	logger  *zap.Logger
}

// NewEmailDispatcher creates a dispatcher. A zero timeout falls back to DefaultEmailTimeout.
func NewEmailDispatcher(mailer Mailer, timeout time.Duration) *EmailDispatcher {
	if timeout <= 0 {
		timeout = DefaultEmailTimeout
	}
	return &EmailDispatcher{mailer: mailer, timeout: timeout, logger: util.GetLogger()}
}

// Dispatch schedules an email. It returns immediately.
func (d *EmailDispatcher) Dispatch(ctx context.Context, address, template string, payload map[string]string) {
	if d == nil || d.mailer == nil {
		return
	}
	address = strings.TrimSpace(address)
	if address == "" {
		d.logger.Warn("Skipping email without address", zap.String("template", template))
		return
	}

	// keep the trace, drop the caller's cancellation
	detached := trace.ContextWithSpan(context.Background(), trace.SpanFromContext(ctx))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		sendCtx, cancel := context.WithTimeout(detached, d.timeout)
		defer cancel()

		if err := d.mailer.SendEmail(sendCtx, address, template, payload); err != nil {
			util.EmailFailuresTotal.WithLabelValues(template).Inc()
			d.logger.Error("Failed to send email",
				zap.String("template", template),
				zap.String("to", address),
				zap.Error(err))
			return
		}
		util.EmailsSentTotal.WithLabelValues(template).Inc()
	}()
}

// Wait blocks until every dispatched email has finished
func (d *EmailDispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
