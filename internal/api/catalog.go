package api

import (
	"net/http"

	"uniform-service/internal/models"

	"github.com/gin-gonic/gin"
)

// maxCatalogPageSize caps the limit query parameter of the eligible catalog
const maxCatalogPageSize = 100

// eligibleCatalog lists the caller's eligible items. Without a limit the whole
// ordered list is returned.
func (h *Handler) eligibleCatalog(c *gin.Context) {
	page, err := queryInt(c, "page")
	if err != nil || page < 0 {
		badRequest(c, "invalid page", err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil || limit < 0 {
		badRequest(c, "invalid limit", err)
		return
	}

	items, err := h.catalog.EligibleCatalogFor(c.Request.Context(), claimsFrom(c).RequesterID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	total := len(items)
	if page < 1 {
		page = 1
	}
	if limit > maxCatalogPageSize {
		limit = maxCatalogPageSize
	}
	if limit > 0 {
		start := total
		if page-1 < (total+limit-1)/limit {
			start = (page - 1) * limit
		}
		end := min(start+limit, total)
		items = items[start:end]
	}

	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func (h *Handler) listCatalog(c *gin.Context) {
	items, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) createCatalogItem(c *gin.Context) {
	var spec models.CatalogItemSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	item, err := h.catalog.Create(c.Request.Context(), spec)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) editCatalogItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var spec models.CatalogItemSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	item, err := h.catalog.Edit(c.Request.Context(), id, spec)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type availabilityBody struct {
	Availability string `json:"availability" binding:"required"`
}

func (h *Handler) setAvailability(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body availabilityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	availability, err := models.ParseAvailability(body.Availability)
	if err != nil {
		badRequest(c, "invalid availability", err)
		return
	}

	item, err := h.catalog.SetAvailability(c.Request.Context(), id, availability)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type activeStateBody struct {
	ActiveState string `json:"active_state" binding:"required"`
}

func (h *Handler) setActiveState(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body activeStateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}
	state, err := models.ParseActiveState(body.ActiveState)
	if err != nil {
		badRequest(c, "invalid active_state", err)
		return
	}

	item, err := h.catalog.SetActiveState(c.Request.Context(), id, state)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) deleteCatalogItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
