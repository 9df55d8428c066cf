package notification

import (
	"errors"
	"net/http"

	"gymhub/internal/api"
	"gymhub/internal/auth"
	"gymhub/internal/logger"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
	hub     *Hub
}

func NewHandler(service Service, hub *Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated" example:"4"`
}

// @Summary      List my notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        page   query int  false "Page number"
// @Param        unread query bool false "Only unread"
// @Success      200 {object} api.Page[notification.Notification]
// @Failure      401 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /notifications [get]
func (h *Handler) List(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	page := api.PaginationFromQuery(c)

	items, total, err := h.service.List(c.Request.Context(), userID, c.Query("unread") == "true", page)
	if err != nil {
		logger.WithError(err).Error("failed to list notifications", "user_id", userID)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, api.NewPage(items, page, total))
}

// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} api.CountResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /notifications/unread-count [get]
func (h *Handler) UnreadCount(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	count, err := h.service.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to count notifications"})
		return
	}
	c.JSON(http.StatusOK, api.CountResponse{Count: count})
}

// @Summary      Mark a notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Notification ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /notifications/{id}/read [post]
func (h *Handler) MarkRead(c *gin.Context) {
	id, ok := api.ParamID(c, "id", "notification")
	if !ok {
		return
	}
	userID, _ := auth.GetUserID(c)

	err := h.service.MarkRead(c.Request.Context(), id, userID)
	switch {
	case err == nil, errors.Is(err, ErrAlreadyRead):
		c.JSON(http.StatusOK, api.MessageResponse{Message: "Notification marked as read"})
	case errors.Is(err, ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Notification not found"})
	default:
		logger.WithError(err).Error("failed to mark notification read", "notification_id", id)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to update notification"})
	}
}

// @Summary      Mark all notifications read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} notification.MarkAllReadResponse
// @Router       /notifications/read-all [post]
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	updated, err := h.service.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to update notifications"})
		return
	}
	c.JSON(http.StatusOK, MarkAllReadResponse{Updated: updated})
}

// @Summary      Live notification feed
// @Description  Upgrades to a WebSocket that receives each new notification as JSON.
// @Tags         notifications
// @Security     BearerAuth
// @Param        token query string false "Access token for browser clients"
// @Success      101
// @Router       /ws/notifications [get]
func (h *Handler) Stream(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	if err := h.hub.Serve(c.Writer, c.Request, userID); err != nil {
		logger.WithError(err).Debug("websocket upgrade failed", "user_id", userID)
	}
}
