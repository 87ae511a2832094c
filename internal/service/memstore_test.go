package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"uniform-service/internal/models"
	"uniform-service/internal/store"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// memStore is an in-memory Repository enforcing the same constraints as the
// Postgres schema
type memStore struct {
	mu         sync.Mutex
	clock      *clock
	nextID     int64
	items      map[int64]models.CatalogItem
	requesters map[int64]models.Requester
	requests   map[int64]models.Request
	notes      []models.Notification

	sweepErr  error
	createErr error
}

var _ Repository = (*memStore)(nil)

func newMemStore(c *clock) *memStore {
	return &memStore{
		clock:      c,
		items:      map[int64]models.CatalogItem{},
		requesters: map[int64]models.Requester{},
		requests:   map[int64]models.Request{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addRequester(r models.Requester) models.Requester {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.Role == "" {
		r.Role = models.RoleStandard
	}
	r.ID = m.id()
	r.CreatedAt = m.clock.Now()
	m.requesters[r.ID] = r
	return r
}

func sameIdentity(a, b models.CatalogItem) bool {
	return a.Category == b.Category && a.Kind == b.Kind && a.Gender == b.Gender &&
		a.ScopeLevel == b.ScopeLevel && a.Size == b.Size
}

func (m *memStore) duplicate(item models.CatalogItem) bool {
	for _, other := range m.items {
		if other.ID != item.ID && sameIdentity(other, item) {
			return true
		}
	}
	return false
}

func (m *memStore) CreateCatalogItem(_ context.Context, item *models.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.duplicate(*item) {
		return fmt.Errorf("create catalog item: %w", store.ErrConflict)
	}
	item.ID = m.id()
	item.CreatedAt = m.clock.Now()
	item.UpdatedAt = item.CreatedAt
	m.items[item.ID] = *item
	return nil
}

func (m *memStore) UpdateCatalogItem(_ context.Context, item *models.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[item.ID]
	if !ok {
		return store.ErrNotFound
	}
	if existing.Category != item.Category || existing.Kind != item.Kind {
		for _, r := range m.requests {
			if r.CatalogItemID == item.ID {
				return fmt.Errorf("update catalog item %d: %w", item.ID, store.ErrReferenced)
			}
		}
	}
	if m.duplicate(*item) {
		return fmt.Errorf("update catalog item: %w", store.ErrConflict)
	}
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = m.clock.Now()
	m.items[item.ID] = *item
	return nil
}

func (m *memStore) GetCatalogItem(_ context.Context, id int64) (*models.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("catalog item %d: %w", id, store.ErrNotFound)
	}
	return &item, nil
}

func (m *memStore) ListCatalogItems(_ context.Context) ([]models.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CatalogItem{}
	for _, item := range m.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) ListEligibleItems(_ context.Context, gender models.Gender, scopeLevel int) ([]models.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CatalogItem{}
	for _, item := range m.items {
		if !item.Requestable() {
			continue
		}
		if item.Gender != gender && item.Gender != models.GenderUnisex {
			continue
		}
		if item.Category.Scoped() && item.ScopeLevel != scopeLevel {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (m *memStore) SetCatalogAvailability(_ context.Context, id int64, a models.Availability) (*models.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	item.Availability = a
	m.items[id] = item
	return &item, nil
}

func (m *memStore) SetCatalogActiveState(_ context.Context, id int64, s models.ActiveState) (*models.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	item.ActiveState = s
	m.items[id] = item
	return &item, nil
}

func (m *memStore) DeleteCatalogItem(_ context.Context, id int64) (*models.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	for _, r := range m.requests {
		if r.CatalogItemID == id {
			return nil, fmt.Errorf("delete catalog item %d: %w", id, store.ErrReferenced)
		}
	}
	delete(m.items, id)
	for i := range m.notes {
		if m.notes[i].ItemID() == id {
			m.notes[i].CatalogItemID = sql.NullInt64{}
		}
	}
	return &item, nil
}

func (m *memStore) GetRequester(_ context.Context, id int64) (*models.Requester, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requesters[id]
	if !ok {
		return nil, fmt.Errorf("requester %d: %w", id, store.ErrNotFound)
	}
	return &r, nil
}

func (m *memStore) RecipientsForItem(_ context.Context, item models.CatalogItem) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []int64{}
	for id, r := range m.requesters {
		if item.Gender != models.GenderUnisex && item.Gender != "" && r.Gender != item.Gender {
			continue
		}
		if item.Category.Scoped() && r.ScopeLevel != item.ScopeLevel {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memStore) AdministratorIDs(_ context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := []int64{}
	for id, r := range m.requesters {
		if r.IsAdmin() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *memStore) SubmitRequest(_ context.Context, req *models.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requesters[req.RequesterID]; !ok {
		return store.ErrNotFound
	}
	var completed []models.ItemKind
	for _, r := range m.requests {
		if r.RequesterID != req.RequesterID || r.Category != req.Category {
			continue
		}
		if r.Kind == req.Kind && r.Status.Active() {
			return store.ErrActiveRequest
		}
		if r.Status == models.StatusCompleted {
			completed = append(completed, r.Kind)
		}
	}
	if models.CategoryFulfilled(completed) {
		return store.ErrCategoryFulfilled
	}
	req.ID = m.id()
	req.Status = models.StatusPending
	req.CreatedAt = m.clock.Now()
	req.UpdatedAt = req.CreatedAt
	m.requests[req.ID] = *req
	return nil
}

func (m *memStore) GetRequest(_ context.Context, id int64) (*models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, fmt.Errorf("request %d: %w", id, store.ErrNotFound)
	}
	return &r, nil
}

func (m *memStore) TransitionRequest(_ context.Context, id int64, from []models.RequestStatus, to models.RequestStatus, reason string) (*models.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	allowed := false
	for _, f := range from {
		allowed = allowed || f == r.Status
	}
	if !allowed {
		return &r, store.ErrStatusMismatch
	}
	r.Status = to
	r.Reason = reason
	r.UpdatedAt = m.clock.Now()
	m.requests[id] = r
	return &r, nil
}

func (m *memStore) ListRequests(_ context.Context, f store.RequestFilter) ([]models.RequestView, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []models.RequestView
	for _, r := range m.requests {
		if f.RequesterID != 0 && r.RequesterID != f.RequesterID {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		item := m.items[r.CatalogItemID]
		owner := m.requesters[r.RequesterID]
		all = append(all, models.RequestView{
			Request:       r,
			Size:          item.Size,
			Gender:        item.Gender,
			ItemImage:     item.ImageRef,
			RequesterName: owner.FullName(),
			RequesterMail: owner.Email,
		})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	total := len(all)
	if f.Offset >= total {
		return []models.RequestView{}, total, nil
	}
	end := f.Offset + f.Limit
	if end > total {
		end = total
	}
	return all[f.Offset:end], total, nil
}

func (m *memStore) CountRequestsByStatus(_ context.Context, requesterID int64) (models.RequestStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stats models.RequestStats
	for _, r := range m.requests {
		if r.RequesterID == requesterID {
			stats.Add(r.Status, 1)
		}
	}
	return stats, nil
}

func (m *memStore) CreateNotifications(_ context.Context, recipients []int64, message string, itemID sql.NullInt64) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	out := []models.Notification{}
	for _, rid := range recipients {
		n := models.Notification{
			ID:            m.id(),
			RecipientID:   rid,
			Message:       message,
			CatalogItemID: itemID,
			CreatedAt:     m.clock.Now(),
		}
		m.notes = append(m.notes, n)
		out = append(out, n)
	}
	return out, nil
}

func (m *memStore) DeleteNotificationsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sweepErr != nil {
		return 0, m.sweepErr
	}
	kept := m.notes[:0]
	var deleted int64
	for _, n := range m.notes {
		if n.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, n)
	}
	m.notes = kept
	return deleted, nil
}

func (m *memStore) ListNotifications(_ context.Context, recipientID int64, since time.Time, limit int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Notification{}
	for i := len(m.notes) - 1; i >= 0 && len(out) < limit; i-- {
		n := m.notes[i]
		if n.RecipientID == recipientID && !n.CreatedAt.Before(since) {
			if item, ok := m.items[n.ItemID()]; ok {
				n.ItemImage = item.ImageRef
			}
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) MarkNotificationRead(_ context.Context, recipientID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notes {
		if m.notes[i].ID == id && m.notes[i].RecipientID == recipientID {
			m.notes[i].IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %d: %w", id, store.ErrNotFound)
}

func (m *memStore) CountUnread(_ context.Context, recipientID int64, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, note := range m.notes {
		if note.RecipientID == recipientID && !note.IsRead && !note.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// notesFor returns every stored notification addressed to recipientID
func (m *memStore) notesFor(recipientID int64) []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, n := range m.notes {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

func (m *memStore) noteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notes)
}

func (m *memStore) itemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type sentEmail struct {
	to       string
	template string
	payload  map[string]string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeMailer) SendEmail(_ context.Context, address, template string, payload map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: address, template: template, payload: payload})
	return nil
}

func (f *fakeMailer) templates() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		out = append(out, s.template)
	}
	return out
}

type fakePublisher struct {
	mu       sync.Mutex
	catalog  []*models.CatalogItemEvent
	requests []*models.RequestEvent
	err      error
}

func (f *fakePublisher) PublishCatalogItemCreated(_ context.Context, e *models.CatalogItemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.catalog = append(f.catalog, e)
	return f.err
}

func (f *fakePublisher) PublishRequestEvent(_ context.Context, e *models.RequestEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, e)
	return f.err
}

type fakeCache struct {
	mu   sync.Mutex
	keys map[string]int64
}

func (f *fakeCache) LookupSubmission(_ context.Context, requesterID int64, key string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.keys[fmt.Sprintf("%d:%s", requesterID, key)]
	return id, ok, nil
}

func (f *fakeCache) RememberSubmission(_ context.Context, requesterID int64, key string, requestID int64, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys == nil {
		f.keys = map[string]int64{}
	}
	f.keys[fmt.Sprintf("%d:%s", requesterID, key)] = requestID
	return nil
}

type fakeImages struct {
	mu      sync.Mutex
	removed []string
	err     error
}

func (f *fakeImages) Remove(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.removed = append(f.removed, ref)
	return nil
}

var errBoom = errors.New("boom")
