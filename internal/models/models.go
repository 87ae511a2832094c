package models

import (
	"database/sql"
	"time"
)

// CatalogItem represents a requestable uniform definition
type CatalogItem struct {
	ID           int64        `db:"id" json:"id"`
	Category     Category     `db:"category" json:"category"`
	Kind         ItemKind     `db:"item_kind" json:"item_kind"`
	Size         Size         `db:"size" json:"size"`
	Gender       Gender       `db:"gender" json:"gender"`
	ScopeLevel   int          `db:"scope_level" json:"scope_level,omitempty"`
	Availability Availability `db:"availability" json:"availability"`
	ActiveState  ActiveState  `db:"active_state" json:"active_state"`
	ImageRef     string       `db:"image_ref" json:"image_ref,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// Label renders the item the way notification and email texts refer to it
func (c CatalogItem) Label() string {
	return string(c.Category) + " - " + string(c.Kind)
}

// Requestable reports whether the item can currently be requested by anyone
func (c CatalogItem) Requestable() bool {
	return c.Availability == AvailabilityAvailable && c.ActiveState == ActiveStateActive
}

// Requester represents an end user as seen by the core (owned externally)
type Requester struct {
	ID         int64     `db:"id" json:"id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Email      string    `db:"email" json:"email"`
	Gender     Gender    `db:"gender" json:"gender"`
	ScopeLevel int       `db:"scope_level" json:"scope_level"`
	Role       Role      `db:"role" json:"role"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FullName returns "First Last"
func (r Requester) FullName() string {
	switch {
	case r.FirstName == "":
		return r.LastName
	case r.LastName == "":
		return r.FirstName
	}
	return r.FirstName + " " + r.LastName
}

// IsAdmin reports whether the requester holds the administrator role
func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdministrator
}

// Request represents one submitted uniform request
type Request struct {
	ID            int64         `db:"id" json:"id"`
	RequesterID   int64         `db:"requester_id" json:"requester_id"`
	CatalogItemID int64         `db:"catalog_item_id" json:"catalog_item_id"`
	Category      Category      `db:"category" json:"category"`
	Kind          ItemKind      `db:"item_kind" json:"item_kind"`
	ProofRef      string        `db:"proof_ref" json:"proof_ref,omitempty"`
	Status        RequestStatus `db:"status" json:"status"`
	Reason        string        `db:"reason" json:"reason,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// RequestView is a request joined with its catalog item and requester name
type RequestView struct {
	Request
	Size          Size   `db:"size" json:"size"`
	Gender        Gender `db:"gender" json:"gender"`
	ItemImage     string `db:"image_ref" json:"item_image,omitempty"`
	RequesterName string `db:"requester_name" json:"requester_name,omitempty"`
	RequesterMail string `db:"requester_email" json:"requester_email,omitempty"`
}

// Notification represents one recipient inbox entry
type Notification struct {
	ID            int64         `db:"id" json:"id"`
	RecipientID   int64         `db:"recipient_id" json:"recipient_id"`
	Message       string        `db:"message" json:"message"`
	CatalogItemID sql.NullInt64 `db:"catalog_item_id" json:"-"`
	IsRead        bool          `db:"is_read" json:"is_read"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`

	// Joined for display, not always populated
	ItemImage string `db:"item_image" json:"item_image,omitempty"`
}

// ItemID returns the referenced catalog item id, or 0
func (n Notification) ItemID() int64 {
	if !n.CatalogItemID.Valid {
		return 0
	}
	return n.CatalogItemID.Int64
}

// RequestStats counts a requester's requests per status
type RequestStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

// Add counts n requests in the given status
func (s *RequestStats) Add(status RequestStatus, n int) {
	s.Total += n
	switch status {
	case StatusPending:
		s.Pending += n
	case StatusApproved:
		s.Approved += n
	case StatusRejected:
		s.Rejected += n
	case StatusCompleted:
		s.Completed += n
	case StatusCancelled:
		s.Cancelled += n
	}
}
