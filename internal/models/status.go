package models

import (
	"fmt"
	"strings"
)

// RequestStatus is the lifecycle state of a request
type RequestStatus string

// Request statuses
const (
	StatusPending   RequestStatus = "Pending"
	StatusApproved  RequestStatus = "Approved"
	StatusRejected  RequestStatus = "Rejected"
	StatusCompleted RequestStatus = "Completed"
	StatusCancelled RequestStatus = "Cancelled"
)

// AllStatuses lists every request status
var AllStatuses = []RequestStatus{StatusPending, StatusApproved, StatusRejected, StatusCompleted, StatusCancelled}

// ActiveStatuses hold the (requester, category, kind) slot
var ActiveStatuses = []RequestStatus{StatusPending, StatusApproved}

var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCompleted, StatusRejected},
}

func (s RequestStatus) Valid() bool { return rank(AllStatuses, s) >= 0 }

// Active reports whether the request still occupies its category/kind slot
func (s RequestStatus) Active() bool {
	return s == StatusPending || s == StatusApproved
}

// Terminal reports whether no transition leaves s
func (s RequestStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransition reports whether from -> to is allowed
func CanTransition(from, to RequestStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// SourcesOf returns every status from which to is reachable in one step
func SourcesOf(to RequestStatus) []RequestStatus {
	var out []RequestStatus
	for _, from := range AllStatuses {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// statusAliases maps legacy filter names onto the closed status set
var statusAliases = map[string]RequestStatus{
	"processed": StatusRejected,
}

// ParseStatusFilter resolves a listing filter value. Matching is
// case-insensitive; an empty value means no filter.
func ParseStatusFilter(raw string) (RequestStatus, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if s, ok := statusAliases[strings.ToLower(raw)]; ok {
		return s, nil
	}
	s, err := parseEnum(AllStatuses, raw)
	if err != nil {
		return "", fmt.Errorf("status filter: %w", err)
	}
	return s, nil
}

// CategoryFulfilled reports whether completed kinds cover both Top and Bottom
func CategoryFulfilled(completed []ItemKind) bool {
	var top, bottom bool
	for _, k := range completed {
		switch k {
		case KindTop:
			top = true
		case KindBottom:
			bottom = true
		}
	}
	return top && bottom
}
