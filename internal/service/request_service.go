package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"uniform-service/internal/broker"
	"uniform-service/internal/mailer"
	"uniform-service/internal/models"
	"uniform-service/internal/store"
	"uniform-service/internal/util"

	"go.uber.org/zap"
)

// Listing bounds for requests
const (
	DefaultRequestPageSize = 20
	MaxRequestPageSize     = 100
)

// DefaultIdempotencyTTL is how long a submission idempotency key is remembered
const DefaultIdempotencyTTL = 24 * time.Hour

// LedgerRepo is the storage RequestService needs
type LedgerRepo interface {
	GetCatalogItem(ctx context.Context, id int64) (*models.CatalogItem, error)
	GetRequester(ctx context.Context, id int64) (*models.Requester, error)
	RequestRepository
}

// RequestService owns the request lifecycle
type RequestService struct {
	repo           LedgerRepo
	notifications  *NotificationService
	emails         *EmailDispatcher
	events         EventPublisher
	submissions    SubmissionCache
	idempotencyTTL time.Duration
	logger         *zap.Logger
}

// NewRequestService creates a new request service. submissions may be nil,
// which disables idempotency keys.
func NewRequestService(
	repo LedgerRepo,
	notifications *NotificationService,
	emails *EmailDispatcher,
	events EventPublisher,
	submissions SubmissionCache,
	idempotencyTTL time.Duration,
) *RequestService {
	if idempotencyTTL <= 0 {
		idempotencyTTL = DefaultIdempotencyTTL
	}
	return &RequestService{
		repo:           repo,
		notifications:  notifications,
		emails:         emails,
		events:         events,
		submissions:    submissions,
		idempotencyTTL: idempotencyTTL,
		logger:         util.GetLogger(),
	}
}

// SubmitRequestInput is the body of a submit call
type SubmitRequestInput struct {
	CatalogItemID int64  `json:"catalog_item_id" binding:"required,min=1"`
	ProofRef      string `json:"proof_ref" binding:"max=512"`
}

// Submit creates a pending request for the requester against a catalog item
func (s *RequestService) Submit(ctx context.Context, requesterID int64, in SubmitRequestInput, idempotencyKey string) (*models.Request, error) {
	ctx, span := util.StartSpan(ctx, "RequestService.Submit")
	defer span.End()

	if prior := s.replayed(ctx, requesterID, idempotencyKey); prior != nil {
		return prior, nil
	}

	item, err := s.repo.GetCatalogItem(ctx, in.CatalogItemID)
	if err != nil {
		return nil, fromStore(err, "catalog item %d", in.CatalogItemID)
	}
	requester, err := s.repo.GetRequester(ctx, requesterID)
	if err != nil {
		return nil, fromStore(err, "requester %d", requesterID)
	}

	if !item.Requestable() {
		util.RequestsRejectedAtSubmitTotal.WithLabelValues("unavailable").Inc()
		return nil, newError(KindUnavailable, nil, "%s is not available for request", item.Label())
	}
	if !models.Eligible(*item, *requester) {
		util.RequestsRejectedAtSubmitTotal.WithLabelValues("not_eligible").Inc()
		return nil, newError(KindUnavailable, nil, "%s is not offered to this requester", item.Label())
	}

	req := &models.Request{
		RequesterID:   requesterID,
		CatalogItemID: item.ID,
		Category:      item.Category,
		Kind:          item.Kind,
		ProofRef:      strings.TrimSpace(in.ProofRef),
	}
	if err := s.repo.SubmitRequest(ctx, req); err != nil {
		util.RecordError(span, err)
		switch {
		case errors.Is(err, store.ErrActiveRequest):
			util.RequestsRejectedAtSubmitTotal.WithLabelValues("active_request").Inc()
			return nil, newError(KindConflict, err, "you already have an active request for %s", item.Label())
		case errors.Is(err, store.ErrCategoryFulfilled):
			util.RequestsRejectedAtSubmitTotal.WithLabelValues("category_fulfilled").Inc()
			return nil, newError(KindConflict, err, "you have already completed both Top and Bottom for %s", item.Category)
		}
		util.RequestsRejectedAtSubmitTotal.WithLabelValues("error").Inc()
		return nil, fromStore(err, "failed to submit request")
	}

	util.RequestsSubmittedTotal.Inc()
	s.logger.Info("Request submitted",
		zap.Int64("request_id", req.ID),
		zap.Int64("requester_id", requesterID),
		zap.Int64("catalog_item_id", item.ID))

	s.remember(ctx, requesterID, idempotencyKey, req.ID)

	if _, err := s.notifications.FanOut(ctx, models.RequestSubmitted{Request: *req, Item: *item, Requester: *requester}); err != nil {
		s.logger.Error("Failed to fan out RequestSubmitted", zap.Int64("request_id", req.ID), zap.Error(err))
	}
	s.emails.Dispatch(ctx, requester.Email, mailer.TemplateRequestSubmitted, map[string]string{
		mailer.KeyItemName:      item.Label(),
		mailer.KeyRequesterName: requester.FullName(),
	})
	s.publish(ctx, req)

	return req, nil
}

// replayed returns the request an idempotency key already produced, if any
func (s *RequestService) replayed(ctx context.Context, requesterID int64, key string) *models.Request {
	if s.submissions == nil || key == "" {
		return nil
	}
	id, ok, err := s.submissions.LookupSubmission(ctx, requesterID, key)
	if err != nil {
		s.logger.Warn("Idempotency lookup failed", zap.String("idempotency_key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	req, err := s.repo.GetRequest(ctx, id)
	if err != nil || req.RequesterID != requesterID {
		return nil
	}
	s.logger.Info("Duplicate submission detected",
		zap.String("idempotency_key", key),
		zap.Int64("request_id", id))
	return req
}

func (s *RequestService) remember(ctx context.Context, requesterID int64, key string, requestID int64) {
	if s.submissions == nil || key == "" {
		return
	}
	if err := s.submissions.RememberSubmission(ctx, requesterID, key, requestID, s.idempotencyTTL); err != nil {
		s.logger.Warn("Failed to remember idempotency key", zap.String("idempotency_key", key), zap.Error(err))
	}
}

// Cancel withdraws a pending request owned by the requester
func (s *RequestService) Cancel(ctx context.Context, requesterID, requestID int64) (*models.Request, error) {
	ctx, span := util.StartSpan(ctx, "RequestService.Cancel")
	defer span.End()

	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fromStore(err, "request %d", requestID)
	}
	if req.RequesterID != requesterID {
		return nil, newError(KindNotFound, nil, "request %d", requestID)
	}
	if req.Status != models.StatusPending {
		return nil, newError(KindInvalidTransition, nil, "only pending requests can be cancelled; request %d is %s", requestID, req.Status)
	}

	updated, err := s.repo.TransitionRequest(ctx, requestID, models.SourcesOf(models.StatusCancelled), models.StatusCancelled, "")
	if err != nil {
		util.RecordError(span, err)
		return nil, fromStore(err, "cancel request %d", requestID)
	}

	util.RequestTransitionsTotal.WithLabelValues(string(models.StatusCancelled)).Inc()
	s.logger.Info("Request cancelled", zap.Int64("request_id", requestID), zap.Int64("requester_id", requesterID))

	requester, err := s.repo.GetRequester(ctx, requesterID)
	if err != nil {
		s.logger.Error("Failed to load requester for RequestCancelled", zap.Int64("request_id", requestID), zap.Error(err))
	} else if _, err := s.notifications.FanOut(ctx, models.RequestCancelled{
		Request:   *updated,
		Item:      itemOf(updated),
		Requester: *requester,
	}); err != nil {
		s.logger.Error("Failed to fan out RequestCancelled", zap.Int64("request_id", requestID), zap.Error(err))
	}
	s.publish(ctx, updated)

	return updated, nil
}

// Approve moves a pending request to Approved
func (s *RequestService) Approve(ctx context.Context, requestID int64) (*models.Request, error) {
	return s.transition(ctx, requestID, models.StatusApproved, "")
}

// Reject moves a pending or approved request to Rejected. Approved requests
// stay rejectable so an administrator can withdraw an approval before the
// uniform is handed over.
func (s *RequestService) Reject(ctx context.Context, requestID int64, reason string) (*models.Request, error) {
	return s.transition(ctx, requestID, models.StatusRejected, strings.TrimSpace(reason))
}

// Complete moves an approved request to Completed
func (s *RequestService) Complete(ctx context.Context, requestID int64) (*models.Request, error) {
	return s.transition(ctx, requestID, models.StatusCompleted, "")
}

var statusTemplates = map[models.RequestStatus]string{
	models.StatusApproved:  mailer.TemplateRequestApproved,
	models.StatusRejected:  mailer.TemplateRequestRejected,
	models.StatusCompleted: mailer.TemplateRequestCompleted,
}

// transition runs an administrator transition. The requester must have a
// contact address before the status is touched.
func (s *RequestService) transition(ctx context.Context, requestID int64, to models.RequestStatus, reason string) (*models.Request, error) {
	ctx, span := util.StartSpan(ctx, "RequestService.Transition")
	defer span.End()

	req, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fromStore(err, "request %d", requestID)
	}
	if !models.CanTransition(req.Status, to) {
		return nil, newError(KindInvalidTransition, nil, "request %d is %s and cannot become %s", requestID, req.Status, to)
	}

	requester, err := s.repo.GetRequester(ctx, req.RequesterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindInvalidState, err, "requester of request %d cannot be resolved", requestID)
		}
		return nil, fmt.Errorf("failed to load requester: %w", err)
	}
	if strings.TrimSpace(requester.Email) == "" {
		return nil, newError(KindInvalidState, nil, "requester of request %d has no email address", requestID)
	}

	updated, err := s.repo.TransitionRequest(ctx, requestID, models.SourcesOf(to), to, reason)
	if err != nil {
		util.RecordError(span, err)
		return nil, fromStore(err, "move request %d to %s", requestID, to)
	}

	util.RequestTransitionsTotal.WithLabelValues(string(to)).Inc()
	s.logger.Info("Request status changed",
		zap.Int64("request_id", requestID),
		zap.String("from", string(req.Status)),
		zap.String("to", string(to)))

	item := itemOf(updated)
	if _, err := s.notifications.FanOut(ctx, models.RequestStatusChanged{
		Request:   *updated,
		Item:      item,
		NewStatus: to,
		Reason:    reason,
	}); err != nil {
		s.logger.Error("Failed to fan out RequestStatusChanged", zap.Int64("request_id", requestID), zap.Error(err))
	}

	payload := map[string]string{
		mailer.KeyItemName:      item.Label(),
		mailer.KeyRequesterName: requester.FullName(),
	}
	if reason != "" {
		payload[mailer.KeyReason] = reason
	}
	s.emails.Dispatch(ctx, requester.Email, statusTemplates[to], payload)
	s.publish(ctx, updated)

	return updated, nil
}

// itemOf rebuilds the item fields a request carries
func itemOf(req *models.Request) models.CatalogItem {
	return models.CatalogItem{ID: req.CatalogItemID, Category: req.Category, Kind: req.Kind}
}

func (s *RequestService) publish(ctx context.Context, req *models.Request) {
	if s.events == nil {
		return
	}
	kind := models.EventRequestStatusChanged
	switch req.Status {
	case models.StatusPending:
		kind = models.EventRequestSubmitted
	case models.StatusCancelled:
		kind = models.EventRequestCancelled
	}
	event := &models.RequestEvent{
		BaseEvent:     broker.NewBaseEvent(kind),
		RequestID:     req.ID,
		RequesterID:   req.RequesterID,
		CatalogItemID: req.CatalogItemID,
		Status:        req.Status,
		Reason:        req.Reason,
	}
	if err := s.events.PublishRequestEvent(ctx, event); err != nil {
		util.EventsPublishFailedTotal.Inc()
		s.logger.Error("Failed to publish request event", zap.Int64("request_id", req.ID), zap.Error(err))
	}
}

// ListRequestsInput selects a page of requests
type ListRequestsInput struct {
	RequesterID int64 // 0 lists every requester
	Status      string
	Page        int
	Limit       int
}

// RequestPage is one page of a request listing
type RequestPage struct {
	Items []models.RequestView `json:"items"`
	Total int                  `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

// List returns requests newest first
func (s *RequestService) List(ctx context.Context, in ListRequestsInput) (*RequestPage, error) {
	ctx, span := util.StartSpan(ctx, "RequestService.List")
	defer span.End()

	status, err := models.ParseStatusFilter(in.Status)
	if err != nil {
		return nil, newError(KindInvalid, err, "invalid status filter")
	}
	page, limit := normalizePage(in.Page, in.Limit, DefaultRequestPageSize, MaxRequestPageSize)

	items, total, err := s.repo.ListRequests(ctx, store.RequestFilter{
		RequesterID: in.RequesterID,
		Status:      status,
		Limit:       limit,
		Offset:      pageOffset(page, limit),
	})
	if err != nil {
		return nil, err
	}
	return &RequestPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Stats counts a requester's requests per status
func (s *RequestService) Stats(ctx context.Context, requesterID int64) (models.RequestStats, error) {
	ctx, span := util.StartSpan(ctx, "RequestService.Stats")
	defer span.End()

	return s.repo.CountRequestsByStatus(ctx, requesterID)
}

// pageOffset is (page-1)*limit, saturating at math.MaxInt32 so that huge pages
// read as empty instead of overflowing
func pageOffset(page, limit int) int {
	if page-1 >= math.MaxInt32/limit {
		return math.MaxInt32
	}
	return (page - 1) * limit
}

func normalizePage(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return page, limit
}
