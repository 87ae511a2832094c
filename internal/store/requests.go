package store

import (
	"context"
	"errors"
	"fmt"

	"uniform-service/internal/models"

	"github.com/lib/pq"
)

const requestColumns = "id, requester_id, catalog_item_id, category, item_kind, proof_ref, status, reason, created_at, updated_at"

// RequestFilter narrows a request listing
type RequestFilter struct {
	RequesterID int64 // 0 lists every requester
	Status      models.RequestStatus
	Limit       int
	Offset      int
}

// SubmitRequest inserts a pending request after checking, under a lock on the
// requester row, that no active request holds the same category and kind and
// that the category is not already fulfilled. The item row is share-locked and
// its category and kind are copied from it, so a concurrent edit cannot leave
// the request with stale values.
func (s *Store) SubmitRequest(ctx context.Context, req *models.Request) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var locked int64
	err = tx.GetContext(ctx, &locked, "SELECT id FROM requesters WHERE id = $1 FOR UPDATE", req.RequesterID)
	if err != nil {
		return fmt.Errorf("failed to lock requester %d: %w", req.RequesterID, classify(err))
	}

	err = tx.QueryRowxContext(ctx,
		"SELECT category, item_kind FROM catalog_items WHERE id = $1 FOR SHARE", req.CatalogItemID).
		Scan(&req.Category, &req.Kind)
	if err != nil {
		return fmt.Errorf("failed to lock catalog item %d: %w", req.CatalogItemID, classify(err))
	}

	var active bool
	err = tx.GetContext(ctx, &active, `
		SELECT EXISTS(
			SELECT 1 FROM requests
			WHERE requester_id = $1 AND category = $2 AND item_kind = $3 AND status = ANY($4)
		)`,
		req.RequesterID, req.Category, req.Kind, pq.Array(toStrings(models.ActiveStatuses)))
	if err != nil {
		return fmt.Errorf("failed to check active requests: %w", err)
	}
	if active {
		return ErrActiveRequest
	}

	var completed []models.ItemKind
	err = tx.SelectContext(ctx, &completed, `
		SELECT DISTINCT item_kind FROM requests
		WHERE requester_id = $1 AND category = $2 AND status = $3`,
		req.RequesterID, req.Category, models.StatusCompleted)
	if err != nil {
		return fmt.Errorf("failed to check completed requests: %w", err)
	}
	if models.CategoryFulfilled(completed) {
		return ErrCategoryFulfilled
	}

	req.Status = models.StatusPending
	err = tx.GetContext(ctx, req, `
		INSERT INTO requests (requester_id, catalog_item_id, category, item_kind, proof_ref, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+requestColumns,
		req.RequesterID, req.CatalogItemID, req.Category, req.Kind, req.ProofRef, req.Status)
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", classify(err))
	}

	return tx.Commit()
}

// GetRequest retrieves a request by ID
func (s *Store) GetRequest(ctx context.Context, id int64) (*models.Request, error) {
	var req models.Request
	err := s.db.GetContext(ctx, &req, "SELECT "+requestColumns+" FROM requests WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("request %d: %w", id, classify(err))
	}
	return &req, nil
}

// TransitionRequest moves a request to status `to` only if its current status
// is one of `from`. Returns ErrNotFound or ErrStatusMismatch when nothing changed.
func (s *Store) TransitionRequest(ctx context.Context, id int64, from []models.RequestStatus, to models.RequestStatus, reason string) (*models.Request, error) {
	var req models.Request
	err := s.db.GetContext(ctx, &req, `
		UPDATE requests SET status = $2, reason = $3, updated_at = NOW()
		WHERE id = $1 AND status = ANY($4)
		RETURNING `+requestColumns,
		id, to, reason, pq.Array(toStrings(from)))
	if err == nil {
		return &req, nil
	}

	err = classify(err)
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("transition request %d: %w", id, err)
	}
	current, getErr := s.GetRequest(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	return current, fmt.Errorf("request %d is %s: %w", id, current.Status, ErrStatusMismatch)
}

// ListRequests retrieves requests joined with their item and requester, newest
// first, along with the total number of matches
func (s *Store) ListRequests(ctx context.Context, f RequestFilter) ([]models.RequestView, int, error) {
	where := `WHERE ($1::bigint = 0 OR r.requester_id = $1) AND ($2::text = '' OR r.status = $2)`

	var total int
	err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM requests r "+where, f.RequesterID, f.Status)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count requests: %w", err)
	}

	query := `
		SELECT r.id, r.requester_id, r.catalog_item_id, r.category, r.item_kind, r.proof_ref,
			r.status, r.reason, r.created_at, r.updated_at,
			c.size, c.gender, c.image_ref,
			TRIM(q.first_name || ' ' || q.last_name) AS requester_name, q.email AS requester_email
		FROM requests r
		JOIN catalog_items c ON c.id = r.catalog_item_id
		JOIN requesters q ON q.id = r.requester_id
		` + where + `
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $3 OFFSET $4`

	views := []models.RequestView{}
	if err := s.db.SelectContext(ctx, &views, query, f.RequesterID, f.Status, f.Limit, f.Offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list requests: %w", err)
	}
	return views, total, nil
}

// CountRequestsByStatus tallies a requester's requests per status
func (s *Store) CountRequestsByStatus(ctx context.Context, requesterID int64) (models.RequestStats, error) {
	var rows []struct {
		Status models.RequestStatus `db:"status"`
		N      int                  `db:"n"`
	}
	var stats models.RequestStats
	err := s.db.SelectContext(ctx, &rows,
		"SELECT status, COUNT(*) AS n FROM requests WHERE requester_id = $1 GROUP BY status", requesterID)
	if err != nil {
		return stats, fmt.Errorf("failed to count requests: %w", err)
	}
	for _, r := range rows {
		stats.Add(r.Status, r.N)
	}
	return stats, nil
}
