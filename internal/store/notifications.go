package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"uniform-service/internal/models"

	"github.com/lib/pq"
)

// CreateNotifications inserts one unread notification per recipient in a single statement
func (s *Store) CreateNotifications(ctx context.Context, recipients []int64, message string, itemID sql.NullInt64) ([]models.Notification, error) {
	if len(recipients) == 0 {
		return []models.Notification{}, nil
	}

	query := `
		INSERT INTO notifications (recipient_id, message, catalog_item_id)
		SELECT recipient, $2, $3 FROM UNNEST($1::bigint[]) AS recipient
		RETURNING id, recipient_id, message, catalog_item_id, is_read, created_at`

	notes := []models.Notification{}
	if err := s.db.SelectContext(ctx, &notes, query, pq.Array(recipients), message, itemID); err != nil {
		return nil, fmt.Errorf("failed to create notifications: %w", classify(err))
	}
	return notes, nil
}

// DeleteNotificationsBefore purges notifications created before cutoff
func (s *Store) DeleteNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM notifications WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep notifications: %w", err)
	}
	return res.RowsAffected()
}

// ListNotifications retrieves a recipient's notifications created at or after
// since, newest first
func (s *Store) ListNotifications(ctx context.Context, recipientID int64, since time.Time, limit int) ([]models.Notification, error) {
	query := `
		SELECT n.id, n.recipient_id, n.message, n.catalog_item_id, n.is_read, n.created_at,
			COALESCE(c.image_ref, '') AS item_image
		FROM notifications n
		LEFT JOIN catalog_items c ON c.id = n.catalog_item_id
		WHERE n.recipient_id = $1 AND n.created_at >= $2
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $3`

	notes := []models.Notification{}
	err := s.db.SelectContext(ctx, &notes, query, recipientID, since, limit)
	return notes, err
}

// MarkNotificationRead flips is_read on a recipient's notification. Marking an
// already read notification succeeds.
func (s *Store) MarkNotificationRead(ctx context.Context, recipientID, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET is_read = TRUE WHERE id = $1 AND recipient_id = $2", id, recipientID)
	if err != nil {
		return fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}
	return nil
}

// CountUnread counts a recipient's unread notifications created at or after since
func (s *Store) CountUnread(ctx context.Context, recipientID int64, since time.Time) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND is_read = FALSE AND created_at >= $2",
		recipientID, since)
	return n, err
}
