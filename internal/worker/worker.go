package worker

import (
	"context"
	"sync"
	"time"

	"uniform-service/internal/broker"
	"uniform-service/internal/util"

	"go.uber.org/zap"
)

// SweepLockKey serializes retention sweeps across replicas
const SweepLockKey = "notification-sweep"

// Sweeper deletes expired notifications
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Locker is a distributed lock
type Locker interface {
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// RetentionWorker periodically purges notifications past the retention window.
// Fan-out also sweeps, so this only bounds the table when no events arrive.
type RetentionWorker struct {
	sweeper  Sweeper
	locker   Locker
	interval time.Duration
	logger   *zap.Logger

	stop chan struct{}
	once sync.Once
}

// NewRetentionWorker creates a retention worker. A nil locker sweeps without
// coordination.
func NewRetentionWorker(sweeper Sweeper, locker Locker, interval time.Duration) *RetentionWorker {
	return &RetentionWorker{
		sweeper:  sweeper,
		locker:   locker,
		interval: interval,
		logger:   util.GetLogger(),
		stop:     make(chan struct{}),
	}
}

// Start runs the sweep loop until ctx is cancelled or Stop is called
func (w *RetentionWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting retention worker", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep if the lock can be taken
func (w *RetentionWorker) RunOnce(ctx context.Context) {
	ctx, span := util.StartSpan(ctx, "RetentionWorker.RunOnce")
	defer span.End()

	if w.locker != nil {
		ok, err := w.locker.AcquireLock(ctx, SweepLockKey, w.interval)
		if err != nil {
			w.logger.Warn("Failed to acquire sweep lock", zap.Error(err))
			return
		}
		if !ok {
			w.logger.Debug("Sweep already running elsewhere")
			return
		}
		defer func() {
			if err := w.locker.ReleaseLock(ctx, SweepLockKey); err != nil {
				w.logger.Warn("Failed to release sweep lock", zap.Error(err))
			}
		}()
	}

	removed, err := w.sweeper.Sweep(ctx)
	if err != nil {
		util.RecordError(span, err)
		w.logger.Error("Retention sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		w.logger.Info("Retention sweep removed notifications", zap.Int64("removed", removed))
	}
}

// Stop stops the sweep loop
func (w *RetentionWorker) Stop() error {
	w.logger.Info("Stopping retention worker...")
	w.once.Do(func() { close(w.stop) })
	return nil
}

// MailWorker delivers queued mail jobs
type MailWorker struct {
	consumer *broker.Consumer
	handler  *broker.MailJobHandler
	logger   *zap.Logger
}

// NewMailWorker creates a mail worker consuming the mail topic
func NewMailWorker(consumer *broker.Consumer, sender broker.Sender) *MailWorker {
	return &MailWorker{
		consumer: consumer,
		handler:  broker.NewMailJobHandler(sender),
		logger:   util.GetLogger(),
	}
}

// Start starts the mail worker
func (w *MailWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting mail worker...")
	return w.consumer.StartConsuming(ctx, w.handler.HandleMessage)
}

// Stop stops the mail worker
func (w *MailWorker) Stop() error {
	w.logger.Info("Stopping mail worker...")
	return w.consumer.Close()
}
