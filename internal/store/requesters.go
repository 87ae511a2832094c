package store

import (
	"context"
	"fmt"

	"uniform-service/internal/models"
)

const requesterColumns = "id, first_name, last_name, email, gender, scope_level, role, created_at"

// GetRequester retrieves a requester by ID
func (s *Store) GetRequester(ctx context.Context, id int64) (*models.Requester, error) {
	var r models.Requester
	err := s.db.GetContext(ctx, &r, "SELECT "+requesterColumns+" FROM requesters WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("requester %d: %w", id, classify(err))
	}
	return &r, nil
}

// RecipientsForItem returns requesters a new catalog item should be announced to:
// matching gender (everyone for unisex items) and, for scoped categories, matching scope level
func (s *Store) RecipientsForItem(ctx context.Context, item models.CatalogItem) ([]int64, error) {
	query := `
		SELECT id FROM requesters
		WHERE ($1::boolean OR gender = $2)
			AND ($3::boolean OR scope_level = $4)
		ORDER BY id`

	ids := []int64{}
	err := s.db.SelectContext(ctx, &ids, query,
		item.Gender == models.GenderUnisex || item.Gender == "", item.Gender,
		!item.Category.Scoped(), item.ScopeLevel)
	return ids, err
}

// AdministratorIDs returns every requester holding the administrator role
func (s *Store) AdministratorIDs(ctx context.Context) ([]int64, error) {
	ids := []int64{}
	err := s.db.SelectContext(ctx, &ids,
		"SELECT id FROM requesters WHERE role = $1 ORDER BY id", models.RoleAdministrator)
	return ids, err
}

// UpsertAdministrator creates the requester identified by email or promotes an
// existing one to administrator
func (s *Store) UpsertAdministrator(ctx context.Context, r *models.Requester) error {
	query := `
		INSERT INTO requesters (first_name, last_name, email, gender, scope_level, role)
		VALUES ($1, $2, $3, $4, 0, $5)
		ON CONFLICT (email) WHERE email <> '' DO UPDATE
		SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, role = EXCLUDED.role
		RETURNING ` + requesterColumns

	err := s.db.GetContext(ctx, r, query,
		r.FirstName, r.LastName, r.Email, r.Gender, models.RoleAdministrator)
	if err != nil {
		return fmt.Errorf("upsert administrator %s: %w", r.Email, classify(err))
	}
	return nil
}
