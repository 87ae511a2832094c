package api

import (
	"net/http"

	"uniform-service/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var kindStatus = map[service.ErrorKind]int{
	service.KindNotFound:          http.StatusNotFound,
	service.KindConflict:          http.StatusConflict,
	service.KindInvalidTransition: http.StatusConflict,
	service.KindInvalidState:      http.StatusUnprocessableEntity,
	service.KindUnavailable:       http.StatusNotFound,
	service.KindInvalid:           http.StatusBadRequest,
}

// statusFor maps a service error to its HTTP status
func statusFor(err error) int {
	if status, ok := kindStatus[service.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError writes err as JSON. Internal failures are logged and masked.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("request_id", requestID(c)),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
		"kind":  service.KindOf(err),
	})
}

func badRequest(c *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
