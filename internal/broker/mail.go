package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"uniform-service/internal/models"
	"uniform-service/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MailQueue hands emails to the mail worker through Kafka
type MailQueue struct {
	producer *Producer
}

// NewMailQueue creates a mail queue on top of a producer for the mail topic
func NewMailQueue(producer *Producer) *MailQueue {
	return &MailQueue{producer: producer}
}

// SendEmail enqueues a mail job; delivery happens in the mail worker
func (q *MailQueue) SendEmail(ctx context.Context, address, template string, payload map[string]string) error {
	job := models.MailJob{
		JobID:     uuid.New().String(),
		To:        address,
		Template:  template,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	return q.producer.PublishEvent(ctx, address, job)
}

// Sender delivers one email
type Sender interface {
	SendEmail(ctx context.Context, address, template string, payload map[string]string) error
}

// MailJobHandler decodes queued mail jobs and delivers them
type MailJobHandler struct {
	sender Sender
	logger *zap.Logger
}

// NewMailJobHandler creates a handler delivering through sender
func NewMailJobHandler(sender Sender) *MailJobHandler {
	return &MailJobHandler{sender: sender, logger: util.GetLogger()}
}

// HandleMessage delivers one queued job. Undecodable jobs are dropped so they
// do not block the partition.
func (h *MailJobHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var job models.MailJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		util.MailJobsProcessedTotal.WithLabelValues("dropped").Inc()
		h.logger.Error("Dropping malformed mail job", zap.Int64("offset", msg.Offset), zap.Error(err))
		return nil
	}
	if job.To == "" {
		util.MailJobsProcessedTotal.WithLabelValues("dropped").Inc()
		h.logger.Warn("Dropping mail job without recipient", zap.String("job_id", job.JobID))
		return nil
	}

	if err := h.sender.SendEmail(ctx, job.To, job.Template, job.Payload); err != nil {
		util.MailJobsProcessedTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to deliver mail job %s: %w", job.JobID, err)
	}
	util.MailJobsProcessedTotal.WithLabelValues("delivered").Inc()
	h.logger.Info("Delivered mail job", zap.String("job_id", job.JobID), zap.String("template", job.Template))
	return nil
}
