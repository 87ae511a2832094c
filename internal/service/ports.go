package service

import (
	"context"
	"database/sql"
	"time"

	"uniform-service/internal/models"
	"uniform-service/internal/store"
)

// CatalogRepository persists catalog items
type CatalogRepository interface {
	CreateCatalogItem(ctx context.Context, item *models.CatalogItem) error
	UpdateCatalogItem(ctx context.Context, item *models.CatalogItem) error
	GetCatalogItem(ctx context.Context, id int64) (*models.CatalogItem, error)
	ListCatalogItems(ctx context.Context) ([]models.CatalogItem, error)
	ListEligibleItems(ctx context.Context, gender models.Gender, scopeLevel int) ([]models.CatalogItem, error)
	SetCatalogAvailability(ctx context.Context, id int64, availability models.Availability) (*models.CatalogItem, error)
	SetCatalogActiveState(ctx context.Context, id int64, state models.ActiveState) (*models.CatalogItem, error)
	DeleteCatalogItem(ctx context.Context, id int64) (*models.CatalogItem, error)
}

// RequesterRepository reads requesters owned by the identity service
type RequesterRepository interface {
	GetRequester(ctx context.Context, id int64) (*models.Requester, error)
	RecipientsForItem(ctx context.Context, item models.CatalogItem) ([]int64, error)
	AdministratorIDs(ctx context.Context) ([]int64, error)
}

// RequestRepository persists the request ledger
type RequestRepository interface {
	SubmitRequest(ctx context.Context, req *models.Request) error
	GetRequest(ctx context.Context, id int64) (*models.Request, error)
	TransitionRequest(ctx context.Context, id int64, from []models.RequestStatus, to models.RequestStatus, reason string) (*models.Request, error)
	ListRequests(ctx context.Context, f store.RequestFilter) ([]models.RequestView, int, error)
	CountRequestsByStatus(ctx context.Context, requesterID int64) (models.RequestStats, error)
}

// NotificationRepository persists notifications
type NotificationRepository interface {
	CreateNotifications(ctx context.Context, recipients []int64, message string, itemID sql.NullInt64) ([]models.Notification, error)
	DeleteNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
	ListNotifications(ctx context.Context, recipientID int64, since time.Time, limit int) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, recipientID, id int64) error
	CountUnread(ctx context.Context, recipientID int64, since time.Time) (int, error)
}

// Repository is everything the services need from storage; *store.Store implements it
type Repository interface {
	CatalogRepository
	RequesterRepository
	RequestRepository
	NotificationRepository
}

var _ Repository = (*store.Store)(nil)

// Mailer delivers templated emails (the external notifier)
type Mailer interface {
	SendEmail(ctx context.Context, address, template string, payload map[string]string) error
}

// EventPublisher emits domain events to the event stream
type EventPublisher interface {
	PublishCatalogItemCreated(ctx context.Context, event *models.CatalogItemEvent) error
	PublishRequestEvent(ctx context.Context, event *models.RequestEvent) error
}

// SubmissionCache remembers submissions by idempotency key
type SubmissionCache interface {
	LookupSubmission(ctx context.Context, requesterID int64, key string) (int64, bool, error)
	RememberSubmission(ctx context.Context, requesterID int64, key string, requestID int64, ttl time.Duration) error
}

// ImageStore removes stored catalog images
type ImageStore interface {
	Remove(ctx context.Context, ref string) error
}
