package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"uniform-service/internal/models"
	"uniform-service/internal/util"

	"go.uber.org/zap"
)

// Listing bounds for notifications
const (
	DefaultNotificationLimit = 50
	MaxNotificationLimit     = 200
)

// DefaultRetention is how long a notification lives, read or not
const DefaultRetention = 24 * time.Hour

// DefaultItemImage stands in for notifications whose item has no image
const DefaultItemImage = "/images/uniform.jpg"

// NotificationRepo is the storage NotificationService needs
type NotificationRepo interface {
	RequesterRepository
	NotificationRepository
}

// NotificationService computes recipients for events, materializes one
// notification per recipient and enforces the retention window.
//
// Fan-out does not deduplicate: delivering the same event twice creates two
// notifications per recipient.
type NotificationService struct {
	repo      NotificationRepo
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewNotificationService creates a notification service. A zero retention
// falls back to DefaultRetention.
func NewNotificationService(repo NotificationRepo, retention time.Duration) *NotificationService {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &NotificationService{
		repo:      repo,
		retention: retention,
		now:       time.Now,
		logger:    util.GetLogger(),
	}
}

// FanOut creates notifications for every recipient of ev, then sweeps expired
// notifications. Sweep failures are logged, never returned.
func (s *NotificationService) FanOut(ctx context.Context, ev models.Event) ([]models.Notification, error) {
	ctx, span := util.StartSpan(ctx, "NotificationService.FanOut")
	defer span.End()

	start := time.Now()
	defer func() {
		util.FanOutLatency.Observe(time.Since(start).Seconds())
	}()
	defer s.sweepQuietly(ctx)

	recipients, message, itemID, err := s.route(ctx, ev)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to compute recipients for %s: %w", ev.Kind(), err)
	}

	notes, err := s.repo.CreateNotifications(ctx, recipients, message, itemID)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to create %s notifications: %w", ev.Kind(), err)
	}

	util.NotificationsCreatedTotal.WithLabelValues(string(ev.Kind())).Add(float64(len(notes)))
	s.logger.Debug("Fan-out complete",
		zap.String("event", string(ev.Kind())),
		zap.Int("recipients", len(notes)))
	return notes, nil
}

// route computes recipients and the message text for one event
func (s *NotificationService) route(ctx context.Context, ev models.Event) ([]int64, string, sql.NullInt64, error) {
	switch e := ev.(type) {
	case models.NewCatalogItem:
		ids, err := s.repo.RecipientsForItem(ctx, e.Item)
		msg := fmt.Sprintf("A new %s - %s (%s) uniform is now available!", e.Item.Category, e.Item.Kind, e.Item.Size)
		return ids, msg, itemRef(e.Item.ID), err

	case models.RequestSubmitted:
		ids, err := s.repo.AdministratorIDs(ctx)
		msg := fmt.Sprintf("New uniform request from %s for %s", e.Requester.FullName(), e.Item.Label())
		return ids, msg, itemRef(e.Item.ID), err

	case models.RequestCancelled:
		ids, err := s.repo.AdministratorIDs(ctx)
		msg := fmt.Sprintf("%s cancelled their uniform request for %s", e.Requester.FullName(), e.Item.Label())
		return ids, msg, itemRef(e.Item.ID), err

	case models.RequestStatusChanged:
		return []int64{e.Request.RequesterID}, statusMessage(e), itemRef(e.Item.ID), nil
	}
	return nil, "", sql.NullInt64{}, fmt.Errorf("unknown event %T", ev)
}

func statusMessage(e models.RequestStatusChanged) string {
	label := e.Item.Label()
	switch e.NewStatus {
	case models.StatusApproved:
		return fmt.Sprintf("Your request for %s has been approved.", label)
	case models.StatusRejected:
		if e.Reason == "" {
			return fmt.Sprintf("Your request for %s has been rejected.", label)
		}
		return fmt.Sprintf("Your request for %s has been rejected. Reason: %s", label, e.Reason)
	case models.StatusCompleted:
		return fmt.Sprintf("Your request for %s has been completed.", label)
	}
	return fmt.Sprintf("Your request for %s is now %s.", label, e.NewStatus)
}

func itemRef(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// Sweep deletes notifications older than the retention window
func (s *NotificationService) Sweep(ctx context.Context) (int64, error) {
	ctx, span := util.StartSpan(ctx, "NotificationService.Sweep")
	defer span.End()

	n, err := s.repo.DeleteNotificationsBefore(ctx, s.cutoff())
	if err != nil {
		util.RecordError(span, err)
		return 0, err
	}
	util.NotificationsSweptTotal.Add(float64(n))
	return n, nil
}

func (s *NotificationService) sweepQuietly(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("Failed to sweep expired notifications", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Debug("Swept expired notifications", zap.Int64("deleted", n))
	}
}

func (s *NotificationService) cutoff() time.Time {
	return s.now().Add(-s.retention)
}

// List returns a recipient's live notifications, newest first
func (s *NotificationService) List(ctx context.Context, recipientID int64, limit int) ([]models.Notification, error) {
	ctx, span := util.StartSpan(ctx, "NotificationService.List")
	defer span.End()

	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	if limit > MaxNotificationLimit {
		limit = MaxNotificationLimit
	}
	notes, err := s.repo.ListNotifications(ctx, recipientID, s.cutoff(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	for i := range notes {
		if notes[i].ItemImage == "" {
			notes[i].ItemImage = DefaultItemImage
		}
	}
	return notes, nil
}

// MarkRead flips a recipient's notification to read. Marking twice is not an error.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID int64) error {
	ctx, span := util.StartSpan(ctx, "NotificationService.MarkRead")
	defer span.End()

	err := s.repo.MarkNotificationRead(ctx, recipientID, notificationID)
	return fromStore(err, "notification %d", notificationID)
}

// UnreadCount counts a recipient's live unread notifications
func (s *NotificationService) UnreadCount(ctx context.Context, recipientID int64) (int, error) {
	ctx, span := util.StartSpan(ctx, "NotificationService.UnreadCount")
	defer span.End()

	return s.repo.CountUnread(ctx, recipientID, s.cutoff())
}
