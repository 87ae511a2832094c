package service

import (
	"context"
	"os"
	"testing"

	"uniform-service/internal/models"
	"uniform-service/internal/util"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	util.SetLogger(zap.NewNop())
	os.Exit(m.Run())
}

type harness struct {
	clock         *clock
	store         *memStore
	mailer        *fakeMailer
	events        *fakePublisher
	images        *fakeImages
	cache         *fakeCache
	emails        *EmailDispatcher
	notifications *NotificationService
	requests      *RequestService
	catalog       *CatalogService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock:  newClock(),
		mailer: &fakeMailer{},
		events: &fakePublisher{},
		images: &fakeImages{},
		cache:  &fakeCache{},
	}
	h.store = newMemStore(h.clock)
	h.emails = NewEmailDispatcher(h.mailer, 0)
	h.notifications = NewNotificationService(h.store, 0)
	h.notifications.now = h.clock.Now
	h.requests = NewRequestService(h.store, h.notifications, h.emails, h.events, h.cache, 0)
	h.catalog = NewCatalogService(h.store, h.notifications, h.events, h.images)
	return h
}

func (h *harness) requester(gender models.Gender, scope int) models.Requester {
	return h.store.addRequester(models.Requester{
		FirstName:  "Req",
		LastName:   string(gender),
		Email:      "req@example.com",
		Gender:     gender,
		ScopeLevel: scope,
	})
}

func (h *harness) admin() models.Requester {
	return h.store.addRequester(models.Requester{
		FirstName: "Ada",
		LastName:  "Admin",
		Email:     "admin@example.com",
		Gender:    models.GenderFemale,
		Role:      models.RoleAdministrator,
	})
}

func (h *harness) item(t *testing.T, spec models.CatalogItemSpec) models.CatalogItem {
	t.Helper()
	item, err := h.catalog.Create(context.Background(), spec)
	require.NoError(t, err)
	return *item
}

func (h *harness) submit(t *testing.T, requesterID, itemID int64) *models.Request {
	t.Helper()
	req, err := h.requests.Submit(context.Background(), requesterID, SubmitRequestInput{CatalogItemID: itemID}, "")
	require.NoError(t, err)
	return req
}

func spec(category models.Category, kind models.ItemKind, size models.Size, gender models.Gender, scope int) models.CatalogItemSpec {
	return models.CatalogItemSpec{Category: category, Kind: kind, Size: size, Gender: gender, ScopeLevel: scope}
}
