package api

import (
	"context"
	"net/http"
	"time"

	"uniform-service/internal/models"
	"uniform-service/internal/service"
	"uniform-service/internal/util"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RequestAPI is the request ledger as the HTTP layer sees it
type RequestAPI interface {
	Submit(ctx context.Context, requesterID int64, in service.SubmitRequestInput, idempotencyKey string) (*models.Request, error)
	Cancel(ctx context.Context, requesterID, requestID int64) (*models.Request, error)
	Approve(ctx context.Context, requestID int64) (*models.Request, error)
	Reject(ctx context.Context, requestID int64, reason string) (*models.Request, error)
	Complete(ctx context.Context, requestID int64) (*models.Request, error)
	List(ctx context.Context, in service.ListRequestsInput) (*service.RequestPage, error)
	Stats(ctx context.Context, requesterID int64) (models.RequestStats, error)
}

// CatalogAPI is the catalog as the HTTP layer sees it
type CatalogAPI interface {
	Create(ctx context.Context, spec models.CatalogItemSpec) (*models.CatalogItem, error)
	Edit(ctx context.Context, id int64, spec models.CatalogItemSpec) (*models.CatalogItem, error)
	SetAvailability(ctx context.Context, id int64, availability models.Availability) (*models.CatalogItem, error)
	SetActiveState(ctx context.Context, id int64, state models.ActiveState) (*models.CatalogItem, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]models.CatalogItem, error)
	EligibleCatalogFor(ctx context.Context, requesterID int64) ([]models.CatalogItem, error)
}

// NotificationAPI is the notification inbox as the HTTP layer sees it
type NotificationAPI interface {
	List(ctx context.Context, recipientID int64, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, recipientID, notificationID int64) error
	UnreadCount(ctx context.Context, recipientID int64) (int, error)
}

// ReadinessCheck reports whether a dependency is reachable
type ReadinessCheck func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	requests      RequestAPI
	catalog       CatalogAPI
	notifications NotificationAPI
	jwtSecret     string
	corsOrigins   []string
	checks        map[string]ReadinessCheck
	logger        *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(requests RequestAPI, catalog CatalogAPI, notifications NotificationAPI, jwtSecret string) *Handler {
	return &Handler{
		requests:      requests,
		catalog:       catalog,
		notifications: notifications,
		jwtSecret:     jwtSecret,
		checks:        make(map[string]ReadinessCheck),
		logger:        util.GetLogger(),
	}
}

// WithReadinessCheck registers a dependency checked by /ready
func (h *Handler) WithReadinessCheck(name string, check ReadinessCheck) *Handler {
	h.checks[name] = check
	return h
}

// WithCORSOrigins allows browser calls from the given origins
func (h *Handler) WithCORSOrigins(origins []string) *Handler {
	h.corsOrigins = origins
	return h
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(h.logger))
	router.Use(prometheusMiddleware())
	if len(h.corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     h.corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Idempotency-Key"},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(authMiddleware(h.jwtSecret))
	{
		v1.POST("/requests", h.submitRequest)
		v1.GET("/requests", h.listMyRequests)
		v1.GET("/requests/stats", h.requestStats)
		v1.POST("/requests/:id/cancel", h.cancelRequest)

		v1.GET("/catalog/eligible", h.eligibleCatalog)

		v1.GET("/notifications", h.listNotifications)
		v1.GET("/notifications/unread-count", h.unreadCount)
		v1.PATCH("/notifications/:id/read", h.markNotificationRead)
	}

	admin := v1.Group("/admin")
	admin.Use(requireAdmin())
	{
		admin.GET("/requests", h.listAllRequests)
		admin.PATCH("/requests/:id/approve", h.approveRequest)
		admin.PATCH("/requests/:id/reject", h.rejectRequest)
		admin.PATCH("/requests/:id/complete", h.completeRequest)

		admin.GET("/catalog", h.listCatalog)
		admin.POST("/catalog", h.createCatalogItem)
		admin.PUT("/catalog/:id", h.editCatalogItem)
		admin.PATCH("/catalog/:id/availability", h.setAvailability)
		admin.PATCH("/catalog/:id/active", h.setActiveState)
		admin.DELETE("/catalog/:id", h.deleteCatalogItem)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}
