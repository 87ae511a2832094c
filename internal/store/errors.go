package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

const activeRequestIndex = "requests_one_active_idx"

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflicts with an existing row")
	ErrActiveRequest     = errors.New("an active request already exists for this category and kind")
	ErrCategoryFulfilled = errors.New("category already fulfilled")
	ErrReferenced        = errors.New("still referenced by requests")
	ErrStatusMismatch    = errors.New("current status does not allow this transition")
)

// Postgres SQLSTATE codes
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// classify converts driver errors into store sentinels
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeUniqueViolation:
			if pqErr.Constraint == activeRequestIndex {
				return ErrActiveRequest
			}
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
		case codeForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrReferenced, pqErr.Constraint)
		}
	}
	return err
}
