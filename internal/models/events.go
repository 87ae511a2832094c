package models

import "time"

// EventKind identifies a fan-out trigger
type EventKind string

// Event kinds
const (
	EventNewCatalogItem       EventKind = "NEW_CATALOG_ITEM"
	EventRequestSubmitted     EventKind = "REQUEST_SUBMITTED"
	EventRequestCancelled     EventKind = "REQUEST_CANCELLED"
	EventRequestStatusChanged EventKind = "REQUEST_STATUS_CHANGED"
)

// Event is a closed set of fan-out triggers. Each variant carries the
// payload its recipient rule needs.
type Event interface {
	Kind() EventKind
	isEvent()
}

// NewCatalogItem is raised when an administrator adds an item
type NewCatalogItem struct {
	Item CatalogItem
}

// RequestSubmitted is raised after a requester submits a request
type RequestSubmitted struct {
	Request   Request
	Item      CatalogItem
	Requester Requester
}

// RequestCancelled is raised after a requester cancels a pending request
type RequestCancelled struct {
	Request   Request
	Item      CatalogItem
	Requester Requester
}

// RequestStatusChanged is raised after an administrator moves a request
type RequestStatusChanged struct {
	Request   Request
	Item      CatalogItem
	NewStatus RequestStatus
	Reason    string
}

func (NewCatalogItem) Kind() EventKind       { return EventNewCatalogItem }
func (RequestSubmitted) Kind() EventKind     { return EventRequestSubmitted }
func (RequestCancelled) Kind() EventKind     { return EventRequestCancelled }
func (RequestStatusChanged) Kind() EventKind { return EventRequestStatusChanged }

func (NewCatalogItem) isEvent()       {}
func (RequestSubmitted) isEvent()     {}
func (RequestCancelled) isEvent()     {}
func (RequestStatusChanged) isEvent() {}

// BaseEvent contains common fields for all stream events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType EventKind `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CatalogItemEvent is published when an item is created
type CatalogItemEvent struct {
	BaseEvent
	CatalogItemID int64    `json:"catalog_item_id"`
	Category      Category `json:"category"`
	Kind          ItemKind `json:"item_kind"`
	Size          Size     `json:"size"`
	Gender        Gender   `json:"gender"`
	ScopeLevel    int      `json:"scope_level,omitempty"`
}

// RequestEvent is published on every request lifecycle change
type RequestEvent struct {
	BaseEvent
	RequestID     int64         `json:"request_id"`
	RequesterID   int64         `json:"requester_id"`
	CatalogItemID int64         `json:"catalog_item_id"`
	Status        RequestStatus `json:"status"`
	Reason        string        `json:"reason,omitempty"`
}

// MailJob is one queued email for the mail worker
type MailJob struct {
	JobID     string            `json:"job_id"`
	To        string            `json:"to"`
	Template  string            `json:"template"`
	Payload   map[string]string `json:"payload"`
	CreatedAt time.Time         `json:"created_at"`
}
