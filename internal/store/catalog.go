package store

import (
	"context"
	"fmt"

	"uniform-service/internal/models"

	"github.com/lib/pq"
)

const catalogColumns = `id, category, item_kind, size, gender, COALESCE(scope_level, 0) AS scope_level,
	availability, active_state, image_ref, created_at, updated_at`

// CreateCatalogItem inserts an item; the identity index rejects duplicates
func (s *Store) CreateCatalogItem(ctx context.Context, item *models.CatalogItem) error {
	query := `
		INSERT INTO catalog_items (category, item_kind, size, gender, scope_level, availability, active_state, image_ref)
		VALUES ($1, $2, $3, $4, NULLIF($5, 0), $6, $7, $8)
		RETURNING ` + catalogColumns

	err := s.db.GetContext(ctx, item, query,
		item.Category, item.Kind, item.Size, item.Gender, item.ScopeLevel,
		item.Availability, item.ActiveState, item.ImageRef)
	if err != nil {
		return fmt.Errorf("create catalog item: %w", classify(err))
	}
	return nil
}

// UpdateCatalogItem overwrites every editable field of an item. Requests copy
// their item's category and kind, so changing either is refused with
// ErrReferenced once any request points at the item.
func (s *Store) UpdateCatalogItem(ctx context.Context, item *models.CatalogItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var current struct {
		Category models.Category `db:"category"`
		Kind     models.ItemKind `db:"item_kind"`
	}
	err = tx.GetContext(ctx, &current,
		"SELECT category, item_kind FROM catalog_items WHERE id = $1 FOR UPDATE", item.ID)
	if err != nil {
		return fmt.Errorf("update catalog item %d: %w", item.ID, classify(err))
	}

	if current.Category != item.Category || current.Kind != item.Kind {
		var referenced bool
		err = tx.GetContext(ctx, &referenced,
			"SELECT EXISTS(SELECT 1 FROM requests WHERE catalog_item_id = $1)", item.ID)
		if err != nil {
			return fmt.Errorf("failed to check item references: %w", err)
		}
		if referenced {
			return fmt.Errorf("update catalog item %d: %w", item.ID, ErrReferenced)
		}
	}

	query := `
		UPDATE catalog_items
		SET category = $2, item_kind = $3, size = $4, gender = $5, scope_level = NULLIF($6, 0),
			availability = $7, active_state = $8, image_ref = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + catalogColumns

	err = tx.GetContext(ctx, item, query, item.ID,
		item.Category, item.Kind, item.Size, item.Gender, item.ScopeLevel,
		item.Availability, item.ActiveState, item.ImageRef)
	if err != nil {
		return fmt.Errorf("update catalog item %d: %w", item.ID, classify(err))
	}
	return tx.Commit()
}

// GetCatalogItem retrieves an item by ID
func (s *Store) GetCatalogItem(ctx context.Context, id int64) (*models.CatalogItem, error) {
	var item models.CatalogItem
	err := s.db.GetContext(ctx, &item, "SELECT "+catalogColumns+" FROM catalog_items WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("catalog item %d: %w", id, classify(err))
	}
	return &item, nil
}

// ListCatalogItems retrieves all items, newest first
func (s *Store) ListCatalogItems(ctx context.Context) ([]models.CatalogItem, error) {
	items := []models.CatalogItem{}
	err := s.db.SelectContext(ctx, &items,
		"SELECT "+catalogColumns+" FROM catalog_items ORDER BY created_at DESC, id DESC")
	return items, err
}

// ListEligibleItems retrieves requestable items matching a requester's gender and scope.
// The result is unordered; callers sort with models.SortCatalog.
func (s *Store) ListEligibleItems(ctx context.Context, gender models.Gender, scopeLevel int) ([]models.CatalogItem, error) {
	query := `
		SELECT ` + catalogColumns + `
		FROM catalog_items
		WHERE availability = $1 AND active_state = $2
			AND (gender = $3 OR gender = $4)
			AND (NOT (category = ANY($5)) OR scope_level = $6)`

	items := []models.CatalogItem{}
	err := s.db.SelectContext(ctx, &items, query,
		models.AvailabilityAvailable, models.ActiveStateActive,
		gender, models.GenderUnisex,
		pq.Array(toStrings(models.ScopedCategories())), scopeLevel)
	return items, err
}

// SetCatalogAvailability updates an item's availability
func (s *Store) SetCatalogAvailability(ctx context.Context, id int64, availability models.Availability) (*models.CatalogItem, error) {
	return s.setCatalogField(ctx, id, "availability", string(availability))
}

// SetCatalogActiveState updates an item's active state
func (s *Store) SetCatalogActiveState(ctx context.Context, id int64, state models.ActiveState) (*models.CatalogItem, error) {
	return s.setCatalogField(ctx, id, "active_state", string(state))
}

// column is one of a fixed set of names, never caller input
func (s *Store) setCatalogField(ctx context.Context, id int64, column, value string) (*models.CatalogItem, error) {
	var item models.CatalogItem
	query := "UPDATE catalog_items SET " + column + " = $2, updated_at = NOW() WHERE id = $1 RETURNING " + catalogColumns
	if err := s.db.GetContext(ctx, &item, query, id, value); err != nil {
		return nil, fmt.Errorf("set %s on catalog item %d: %w", column, id, classify(err))
	}
	return &item, nil
}

// DeleteCatalogItem removes an item that no request references and returns it
func (s *Store) DeleteCatalogItem(ctx context.Context, id int64) (*models.CatalogItem, error) {
	var item models.CatalogItem
	err := s.db.GetContext(ctx, &item,
		"DELETE FROM catalog_items WHERE id = $1 RETURNING "+catalogColumns, id)
	if err != nil {
		return nil, fmt.Errorf("delete catalog item %d: %w", id, classify(err))
	}
	return &item, nil
}

