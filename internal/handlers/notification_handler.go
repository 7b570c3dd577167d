package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/anonto42/campus-notices/backend/internal/apperrors"
	"github.com/anonto42/campus-notices/backend/internal/middleware"
	"github.com/anonto42/campus-notices/backend/internal/models"
	"github.com/anonto42/campus-notices/backend/internal/repositories"
	"github.com/anonto42/campus-notices/backend/internal/services"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepository: notifRepo}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group, guards Guards) {
	g.GET("/notifications", h.GetNotifications, guards.Required)
	g.PUT("/notifications/:id/read", h.MarkAsRead, guards.Required)
}

type notificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int64                 `json:"unread_count"`
	Pagination    services.Pagination   `json:"pagination"`
}

// GetNotifications returns the caller's notifications, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	actor := middleware.ActorFrom(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	ctx := c.Request().Context()
	notifications, total, err := h.notificationRepository.GetByRecipientID(ctx, actor.ID, page, limit)
	if err != nil {
		return errors.Wrap(err, "listing notifications")
	}
	unread, err := h.notificationRepository.GetUnreadCount(ctx, actor.ID)
	if err != nil {
		return errors.Wrap(err, "counting unread notifications")
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}

	return respond(c, http.StatusOK, notificationPage{
		Notifications: notifications,
		UnreadCount:   unread,
		Pagination: services.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(limit))),
		},
	})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	notifID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return apperrors.NotFound("notification not found")
	}

	err = h.notificationRepository.MarkAsRead(c.Request().Context(), uint(notifID), middleware.ActorFrom(c).ID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return apperrors.NotFound("notification not found")
		}
		return errors.Wrap(err, "marking notification read")
	}
	return respondMessage(c, http.StatusOK, "notification marked as read", nil)
}
