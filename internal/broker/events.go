package broker

import (
	"context"
	"fmt"
	"time"

	"uniform-service/internal/models"

	"github.com/google/uuid"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// NewBaseEvent stamps a fresh event id and time
func NewBaseEvent(kind models.EventKind) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: kind,
		Timestamp: time.Now(),
	}
}

// PublishCatalogItemCreated publishes a CatalogItemEvent
func (ep *EventPublisher) PublishCatalogItemCreated(ctx context.Context, event *models.CatalogItemEvent) error {
	key := fmt.Sprintf("catalog-%d", event.CatalogItemID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishRequestEvent publishes a RequestEvent keyed by request so a request's
// history stays ordered within one partition
func (ep *EventPublisher) PublishRequestEvent(ctx context.Context, event *models.RequestEvent) error {
	key := fmt.Sprintf("request-%d", event.RequestID)
	return ep.producer.PublishEvent(ctx, key, event)
}
