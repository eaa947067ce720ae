package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-chain-events/internal/api/middleware"
	"github.com/feral-file/ff-chain-events/internal/api/shared/dto"
	"github.com/feral-file/ff-chain-events/internal/domain"
	"github.com/feral-file/ff-chain-events/internal/fanout"
	"github.com/feral-file/ff-chain-events/internal/logger"
	"github.com/feral-file/ff-chain-events/internal/store"
)

// Handler defines the interface for REST API handlers
type Handler interface {
	// ListEventTypes lists event type descriptors
	// GET /api/v1/event-types?network=<network>
	ListEventTypes(c *gin.Context)

	// ListSubscriptions lists the caller's subscriptions
	// GET /api/v1/subscriptions
	ListSubscriptions(c *gin.Context)

	// CreateSubscriptions subscribes the caller to event types and joins their live connections
	// POST /api/v1/subscriptions
	CreateSubscriptions(c *gin.Context)

	// DeleteSubscriptions unsubscribes the caller from event types
	// DELETE /api/v1/subscriptions
	DeleteSubscriptions(c *gin.Context)

	// ListNotifications lists the caller's notifications, newest first
	// GET /api/v1/notifications?limit=<limit>&offset=<offset>
	ListNotifications(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

type handler struct {
	store     store.Store
	namespace fanout.Namespace
}

// NewHandler creates a new REST API handler.
// Subscription writes go through the namespace so live rooms follow the stored list
func NewHandler(st store.Store, ns fanout.Namespace) Handler {
	return &handler{
		store:     st,
		namespace: ns,
	}
}

func (h *handler) ListEventTypes(c *gin.Context) {
	params, err := ParseListEventTypesQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	eventTypes, err := h.store.ListEventTypes(c.Request.Context(), params.network())
	if err != nil {
		respondInternalError(c, err, "Failed to list event types")
		return
	}

	resp := dto.EventTypeListResponse{EventTypes: make([]dto.EventType, 0, len(eventTypes))}
	for _, et := range eventTypes {
		resp.EventTypes = append(resp.EventTypes, dto.MapEventTypeToDTO(et))
	}

	c.JSON(http.StatusOK, resp)
}

func (h *handler) ListSubscriptions(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondUnauthorized(c, "No user associated with the request")
		return
	}

	subs, err := h.store.ListSubscriptionsByUser(c.Request.Context(), userID)
	if err != nil {
		respondInternalError(c, err, "Failed to list subscriptions", logger.UserID(userID))
		return
	}

	c.JSON(http.StatusOK, dto.MapSubscriptionsToDTO(userID, subs))
}

func (h *handler) CreateSubscriptions(c *gin.Context) {
	userID, req, ok := h.bindSubscriptionsRequest(c)
	if !ok {
		return
	}

	if err := h.namespace.NewSubscriptions(c.Request.Context(), userID, req.EventTypeIDs); err != nil {
		if errors.Is(err, domain.ErrEventTypeNotFound) {
			respondNotFound(c, "Event type not found", err.Error())
			return
		}
		respondInternalError(c, err, "Failed to create subscriptions", logger.UserID(userID))
		return
	}

	subs, err := h.store.ListSubscriptionsByUser(c.Request.Context(), userID)
	if err != nil {
		respondInternalError(c, err, "Failed to list subscriptions", logger.UserID(userID))
		return
	}

	c.JSON(http.StatusCreated, dto.MapSubscriptionsToDTO(userID, subs))
}

func (h *handler) DeleteSubscriptions(c *gin.Context) {
	userID, req, ok := h.bindSubscriptionsRequest(c)
	if !ok {
		return
	}

	if err := h.namespace.DeleteSubscriptions(c.Request.Context(), userID, req.EventTypeIDs); err != nil {
		respondInternalError(c, err, "Failed to delete subscriptions", logger.UserID(userID))
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *handler) bindSubscriptionsRequest(c *gin.Context) (string, *dto.SubscriptionsRequest, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondUnauthorized(c, "No user associated with the request")
		return "", nil, false
	}

	var req dto.SubscriptionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return "", nil, false
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return "", nil, false
	}

	return userID, &req, true
}

func (h *handler) ListNotifications(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondUnauthorized(c, "No user associated with the request")
		return
	}

	params, err := ParseListNotificationsQuery(c)
	if err != nil {
		respondValidationError(c, err.Error())
		return
	}

	rows, err := h.store.ListNotificationsByUser(c.Request.Context(), userID, params.Limit, params.Offset)
	if err != nil {
		respondInternalError(c, err, "Failed to list notifications", logger.UserID(userID))
		return
	}

	c.JSON(http.StatusOK, dto.MapNotificationsToDTO(rows, params.Limit, params.Offset))
}

func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ff-chain-events-api",
	})
}
