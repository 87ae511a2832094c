package service

import (
	"context"
	"testing"

	"uniform-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDuplicateCatalogItemConflicts(t *testing.T) {
	h := newHarness(t)
	s := spec(models.CategoryCorporate, models.KindTop, models.SizeM, models.GenderFemale, 2)
	h.item(t, s)

	_, err := h.catalog.Create(context.Background(), s)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, h.store.itemCount())

	s.ScopeLevel = 3
	h.item(t, s)
	assert.Equal(t, 2, h.store.itemCount())
}

func TestCreateScopedItemRequiresScopeLevel(t *testing.T) {
	h := newHarness(t)
	_, err := h.catalog.Create(context.Background(), spec(models.CategoryDepartment, models.KindTop, models.SizeM, models.GenderMale, 0))
	assert.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "scope_level")
	assert.Zero(t, h.store.itemCount())
}

func TestCreateRejectsUnknownEnumerations(t *testing.T) {
	h := newHarness(t)
	_, err := h.catalog.Create(context.Background(), models.CatalogItemSpec{
		Category: "Formal", Kind: models.KindTop, Size: "XXXL", Gender: models.GenderMale,
	})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCreateUnscopedItemDropsScopeLevel(t *testing.T) {
	h := newHarness(t)
	item := h.item(t, spec(models.CategoryPE, models.KindTop, models.SizeM, models.GenderMale, 3))
	assert.Zero(t, item.ScopeLevel)
	assert.Equal(t, models.AvailabilityAvailable, item.Availability)
	assert.Equal(t, models.ActiveStateActive, item.ActiveState)
}

func TestCreatePublishesEvent(t *testing.T) {
	h := newHarness(t)
	item := h.item(t, spec(models.CategoryCorporate, models.KindBottom, models.SizeXL, models.GenderMale, 4))

	require.Len(t, h.events.catalog, 1)
	assert.Equal(t, item.ID, h.events.catalog[0].CatalogItemID)
	assert.Equal(t, models.EventNewCatalogItem, h.events.catalog[0].EventType)
	assert.NotEmpty(t, h.events.catalog[0].EventID)
}

func TestEditEnforcesUniqueness(t *testing.T) {
	h := newHarness(t)
	h.item(t, spec(models.CategoryPE, models.KindTop, models.SizeM, models.GenderMale, 0))
	other := h.item(t, spec(models.CategoryPE, models.KindTop, models.SizeL, models.GenderMale, 0))

	_, err := h.catalog.Edit(context.Background(), other.ID, spec(models.CategoryPE, models.KindTop, models.SizeM, models.GenderMale, 0))
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := h.store.GetCatalogItem(context.Background(), other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SizeL, stored.Size)
}

func TestEditUnknownItemIsNotFound(t *testing.T) {
	h := newHarness(t)
	_, err := h.catalog.Edit(context.Background(), 42, spec(models.CategoryPE, models.KindTop, models.SizeM, models.GenderMale, 0))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditReferencedItemKeepsCategoryAndKind(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r := h.requester(models.GenderMale, 1)
	item := h.item(t, spec(models.CategoryPE, models.KindTop, models.SizeM, models.GenderMale, 0))
	h.submit(t, r.ID, item.ID)

	_, err := h.catalog.Edit(ctx, item.ID, spec(models.CategoryPE, models.KindBottom, models.SizeM, models.GenderMale, 0))
	assert.ErrorIs(t, err, ErrConflict)
	_, err = h.catalog.Edit(ctx, item.ID, spec(models.CategoryCorporate, models.KindTop, models.SizeM, models.GenderMale, 2))
	assert.ErrorIs(t, err, ErrConflict)

	stored, err := h.store.GetCatalogItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CategoryPE, stored.Category)
	assert.Equal(t, models.KindTop, stored.Kind)

	edited, err := h.catalog.Edit(ctx, item.ID, spec(models.CategoryPE, models.KindTop, models.SizeL, models.GenderMale, 0))
	require.NoError(t, err)
	assert.Equal(t, models.SizeL, edited.Size)
}

func TestEditImageHandling(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := spec(models.CategoryPE, models.KindTop, models.SizeM, models.GenderMale, 0)
	s.ImageRef = "uniforms/old.png"
	item := h.item(t, s)

	s.ImageRef = ""
	s.Size = models.SizeL
	edited, err := h.catalog.Edit(ctx, item.ID, s)
	require.NoError(t, err)
	assert.Equal(t, "uniforms/old.png", edited.ImageRef)
	assert.Empty(t, h.images.removed)

	s.ImageRef = "uniforms/new.png"
	edited, err = h.catalog.Edit(ctx, item.ID, s)
	require.NoError(t, err)
	assert.Equal(t, "uniforms/new.png", edited.ImageRef)
	assert.Equal(t, []string{"uniforms/old.png"}, h.images.removed)
}

func TestDeleteReferencedItemConflicts(t *testing.T) {
	h := newHarness(t)
	r := h.requester(models.GenderMale, 1)
	item := h.item(t, spec(models.CategoryPE, models.KindTop, models.SizeM, models.GenderMale, 0))
	h.submit(t, r.ID, item.ID)

	err := h.catalog.Delete(context.Background(), item.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, h.store.itemCount())
}

func TestDeleteRemovesImage(t *testing.T) {
	h := newHarness(t)
	s := spec(models.CategoryPE, models.KindTop, models.SizeM, models.GenderMale, 0)
	s.ImageRef = "uniforms/pe-top.png"
	item := h.item(t, s)

	require.NoError(t, h.catalog.Delete(context.Background(), item.ID))
	assert.Zero(t, h.store.itemCount())
	assert.Equal(t, []string{"uniforms/pe-top.png"}, h.images.removed)
}

func TestDeleteSucceedsWhenImageRemovalFails(t *testing.T) {
	h := newHarness(t)
	h.images.err = errBoom
	s := spec(models.CategoryPE, models.KindTop, models.SizeM, models.GenderMale, 0)
	s.ImageRef = "uniforms/pe-top.png"
	item := h.item(t, s)

	assert.NoError(t, h.catalog.Delete(context.Background(), item.ID))
	assert.ErrorIs(t, h.catalog.Delete(context.Background(), item.ID), ErrNotFound)
}

func TestEligibleCatalogFiltersAndOrders(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r := h.requester(models.GenderFemale, 2)

	deptL := h.item(t, spec(models.CategoryDepartment, models.KindTop, models.SizeL, models.GenderFemale, 2))
	peBottom := h.item(t, spec(models.CategoryPE, models.KindBottom, models.SizeS, models.GenderUnisex, 0))
	peTopL := h.item(t, spec(models.CategoryPE, models.KindTop, models.SizeL, models.GenderFemale, 0))
	peTopXS := h.item(t, spec(models.CategoryPE, models.KindTop, models.SizeXS, models.GenderFemale, 0))
	corpTop := h.item(t, spec(models.CategoryCorporate, models.KindTop, models.SizeM, models.GenderFemale, 2))

	h.item(t, spec(models.CategoryCorporate, models.KindTop, models.SizeM, models.GenderFemale, 3))
	h.item(t, spec(models.CategoryAcademic, models.KindTop, models.SizeM, models.GenderMale, 0))
	hidden := h.item(t, spec(models.CategoryAcademic, models.KindBottom, models.SizeM, models.GenderFemale, 0))
	_, err := h.catalog.SetAvailability(ctx, hidden.ID, models.AvailabilityUnavailable)
	require.NoError(t, err)

	items, err := h.catalog.EligibleCatalogFor(ctx, r.ID)
	require.NoError(t, err)

	var got []int64
	for _, item := range items {
		got = append(got, item.ID)
	}
	assert.Equal(t, []int64{peTopXS.ID, peTopL.ID, peBottom.ID, corpTop.ID, deptL.ID}, got)
}

func TestEligibleCatalogEmptyIsValid(t *testing.T) {
	h := newHarness(t)
	r := h.requester(models.GenderMale, 1)

	items, err := h.catalog.EligibleCatalog(context.Background(), r)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSetAvailabilityRejectsUnknownValue(t *testing.T) {
	h := newHarness(t)
	item := h.item(t, spec(models.CategoryPE, models.KindTop, models.SizeM, models.GenderMale, 0))

	_, err := h.catalog.SetAvailability(context.Background(), item.ID, "Sold Out")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = h.catalog.SetActiveState(context.Background(), 999, models.ActiveStateInactive)
	assert.ErrorIs(t, err, ErrNotFound)
}
