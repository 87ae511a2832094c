package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"uniform-service/internal/service"

	"github.com/gin-gonic/gin"
)

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id", nil)
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

// bindOptionalJSON binds a JSON body when one is present
func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// submitRequest handles request submission
func (h *Handler) submitRequest(c *gin.Context) {
	var in service.SubmitRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	claims := claimsFrom(c)
	req, err := h.requests.Submit(c.Request.Context(), claims.RequesterID, in, c.GetHeader("Idempotency-Key"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

// cancelRequest handles cancellation by the owning requester
func (h *Handler) cancelRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	req, err := h.requests.Cancel(c.Request.Context(), claimsFrom(c).RequesterID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) approveRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	req, err := h.requests.Approve(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type rejectBody struct {
	Reason string `json:"reason" binding:"max=1000"`
}

func (h *Handler) rejectRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body rejectBody
	if err := bindOptionalJSON(c, &body); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	req, err := h.requests.Reject(c.Request.Context(), id, body.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) completeRequest(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	req, err := h.requests.Complete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// listMyRequests lists the caller's own requests
func (h *Handler) listMyRequests(c *gin.Context) {
	h.listRequests(c, claimsFrom(c).RequesterID)
}

// listAllRequests lists every requester's requests, optionally for one requester
func (h *Handler) listAllRequests(c *gin.Context) {
	var requesterID int64
	if raw := c.Query("requester_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			badRequest(c, "invalid requester_id", err)
			return
		}
		requesterID = id
	}
	h.listRequests(c, requesterID)
}

func (h *Handler) listRequests(c *gin.Context, requesterID int64) {
	page, err := queryInt(c, "page")
	if err != nil {
		badRequest(c, "invalid page", err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		badRequest(c, "invalid limit", err)
		return
	}

	result, err := h.requests.List(c.Request.Context(), service.ListRequestsInput{
		RequesterID: requesterID,
		Status:      c.Query("status"),
		Page:        page,
		Limit:       limit,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) requestStats(c *gin.Context) {
	stats, err := h.requests.Stats(c.Request.Context(), claimsFrom(c).RequesterID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
