package service

import (
	"context"
	"errors"
	"fmt"

	"uniform-service/internal/broker"
	"uniform-service/internal/models"
	"uniform-service/internal/store"
	"uniform-service/internal/util"

	"go.uber.org/zap"
)

// CatalogRepo is the storage CatalogService needs
type CatalogRepo interface {
	CatalogRepository
	GetRequester(ctx context.Context, id int64) (*models.Requester, error)
}

// CatalogService administers catalog items and answers eligibility queries
type CatalogService struct {
	repo          CatalogRepo
	notifications *NotificationService
	events        EventPublisher
	images        ImageStore
	logger        *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo CatalogRepo, notifications *NotificationService, events EventPublisher, images ImageStore) *CatalogService {
	return &CatalogService{
		repo:          repo,
		notifications: notifications,
		events:        events,
		images:        images,
		logger:        util.GetLogger(),
	}
}

// Create validates and stores a new item, then announces it to eligible requesters
func (s *CatalogService) Create(ctx context.Context, spec models.CatalogItemSpec) (*models.CatalogItem, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Create")
	defer span.End()

	spec = spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, newError(KindInvalid, err, "invalid catalog item")
	}

	item := spec.Item()
	if err := s.repo.CreateCatalogItem(ctx, &item); err != nil {
		util.RecordError(span, err)
		return nil, catalogWriteError(err, item)
	}

	util.CatalogItemsCreatedTotal.Inc()
	s.logger.Info("Catalog item created", zap.Int64("catalog_item_id", item.ID), zap.String("item", item.Label()))

	if _, err := s.notifications.FanOut(ctx, models.NewCatalogItem{Item: item}); err != nil {
		s.logger.Error("Failed to fan out NewCatalogItem", zap.Int64("catalog_item_id", item.ID), zap.Error(err))
	}
	s.publishCreated(ctx, item)

	return &item, nil
}

// Edit replaces an item's fields, keeping the stored image when none is given.
// Category and kind are frozen once a request references the item.
func (s *CatalogService) Edit(ctx context.Context, id int64, spec models.CatalogItemSpec) (*models.CatalogItem, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Edit")
	defer span.End()

	spec = spec.Normalize()
	if err := spec.Validate(); err != nil {
		return nil, newError(KindInvalid, err, "invalid catalog item")
	}

	existing, err := s.repo.GetCatalogItem(ctx, id)
	if err != nil {
		return nil, fromStore(err, "catalog item %d", id)
	}

	item := spec.Item()
	item.ID = id
	if item.ImageRef == "" {
		item.ImageRef = existing.ImageRef
	}
	if err := s.repo.UpdateCatalogItem(ctx, &item); err != nil {
		util.RecordError(span, err)
		return nil, catalogWriteError(err, item)
	}

	if existing.ImageRef != "" && existing.ImageRef != item.ImageRef {
		s.removeImage(ctx, existing.ImageRef)
	}
	s.logger.Info("Catalog item updated", zap.Int64("catalog_item_id", id))
	return &item, nil
}

func catalogWriteError(err error, item models.CatalogItem) error {
	if errors.Is(err, store.ErrConflict) {
		desc := fmt.Sprintf("%s (%s, size %s", item.Label(), item.Gender, item.Size)
		if item.Category.Scoped() {
			desc += fmt.Sprintf(", level %d", item.ScopeLevel)
		}
		return newError(KindConflict, err, "%s) already exists", desc)
	}
	if errors.Is(err, store.ErrReferenced) {
		return newError(KindConflict, err, "catalog item %d is referenced by requests; its category and kind cannot change", item.ID)
	}
	return fromStore(err, "catalog item")
}

// SetAvailability marks an item available or unavailable
func (s *CatalogService) SetAvailability(ctx context.Context, id int64, availability models.Availability) (*models.CatalogItem, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.SetAvailability")
	defer span.End()

	if !availability.Valid() {
		return nil, newError(KindInvalid, nil, "invalid availability %q", availability)
	}
	item, err := s.repo.SetCatalogAvailability(ctx, id, availability)
	if err != nil {
		return nil, fromStore(err, "catalog item %d", id)
	}
	return item, nil
}

// SetActiveState activates or deactivates an item
func (s *CatalogService) SetActiveState(ctx context.Context, id int64, state models.ActiveState) (*models.CatalogItem, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.SetActiveState")
	defer span.End()

	if !state.Valid() {
		return nil, newError(KindInvalid, nil, "invalid active state %q", state)
	}
	item, err := s.repo.SetCatalogActiveState(ctx, id, state)
	if err != nil {
		return nil, fromStore(err, "catalog item %d", id)
	}
	return item, nil
}

// Delete removes an item no request references, along with its stored image
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.Delete")
	defer span.End()

	item, err := s.repo.DeleteCatalogItem(ctx, id)
	if err != nil {
		util.RecordError(span, err)
		if errors.Is(err, store.ErrReferenced) {
			return newError(KindConflict, err, "catalog item %d is referenced by requests; deactivate it instead", id)
		}
		return fromStore(err, "catalog item %d", id)
	}

	if item.ImageRef != "" {
		s.removeImage(ctx, item.ImageRef)
	}
	s.logger.Info("Catalog item deleted", zap.Int64("catalog_item_id", id))
	return nil
}

func (s *CatalogService) removeImage(ctx context.Context, ref string) {
	if s.images == nil {
		return
	}
	if err := s.images.Remove(ctx, ref); err != nil {
		s.logger.Error("Failed to remove catalog image", zap.String("image_ref", ref), zap.Error(err))
	}
}

// List returns every item, newest first
func (s *CatalogService) List(ctx context.Context) ([]models.CatalogItem, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.List")
	defer span.End()

	return s.repo.ListCatalogItems(ctx)
}

// EligibleCatalog returns the items the requester may request, ordered by
// category, kind, size, scope level and id
func (s *CatalogService) EligibleCatalog(ctx context.Context, requester models.Requester) ([]models.CatalogItem, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.EligibleCatalog")
	defer span.End()

	candidates, err := s.repo.ListEligibleItems(ctx, requester.Gender, requester.ScopeLevel)
	if err != nil {
		return nil, err
	}
	items := make([]models.CatalogItem, 0, len(candidates))
	for _, item := range candidates {
		if models.Eligible(item, requester) {
			items = append(items, item)
		}
	}
	models.SortCatalog(items)
	return items, nil
}

// EligibleCatalogFor resolves the requester and returns their eligible items
func (s *CatalogService) EligibleCatalogFor(ctx context.Context, requesterID int64) ([]models.CatalogItem, error) {
	requester, err := s.repo.GetRequester(ctx, requesterID)
	if err != nil {
		return nil, fromStore(err, "requester %d", requesterID)
	}
	return s.EligibleCatalog(ctx, *requester)
}

func (s *CatalogService) publishCreated(ctx context.Context, item models.CatalogItem) {
	if s.events == nil {
		return
	}
	event := &models.CatalogItemEvent{
		BaseEvent:     broker.NewBaseEvent(models.EventNewCatalogItem),
		CatalogItemID: item.ID,
		Category:      item.Category,
		Kind:          item.Kind,
		Size:          item.Size,
		Gender:        item.Gender,
		ScopeLevel:    item.ScopeLevel,
	}
	if err := s.events.PublishCatalogItemCreated(ctx, event); err != nil {
		util.EventsPublishFailedTotal.Inc()
		s.logger.Error("Failed to publish catalog event", zap.Int64("catalog_item_id", item.ID), zap.Error(err))
	}
}
