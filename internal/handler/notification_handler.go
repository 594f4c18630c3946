package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pasarlink/marketplace-backend/internal/service"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type notificationResponse struct {
	ID        uint64  `json:"id"`
	Type      string  `json:"type"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	OrderID   *uint64 `json:"orderId,omitempty"`
	ReadAt    *string `json:"readAt,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

func (h *NotificationHandler) List(c echo.Context) error {
	actor := actorFromContext(c)
	if actor.UID == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	unreadOnly := c.QueryParam("unread") == "true"
	list, unread, err := h.svc.List(c.Request().Context(), actor.UID, unreadOnly, 50)
	if err != nil {
		return writeError(c, err)
	}
	resp := make([]notificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, notificationResponse{
			ID:        n.ID,
			Type:      n.Type,
			Title:     n.Title,
			Body:      n.Body,
			OrderID:   n.OrderID,
			ReadAt:    fmtTimePtr(n.ReadAt),
			CreatedAt: n.CreatedAt.Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": resp,
		"unreadCount":   unread,
	})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	actor := actorFromContext(c)
	if actor.UID == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	if err := h.svc.MarkAllRead(c.Request().Context(), actor.UID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
