package handler

import (
	"net/http"
	"strconv"

	"globalchek/internal/delivery/api/response"
	domainerrors "globalchek/internal/domain/errors"
	"globalchek/internal/usecase"

	"github.com/labstack/echo/v4"
)

const maxNotificationPage = 100

// NotificationHandler serves the host notification inbox.
type NotificationHandler struct {
	notificationUC usecase.NotificationUsecase
}

// NewNotificationHandler is the constructor for NotificationHandler
func NewNotificationHandler(notificationUC usecase.NotificationUsecase) *NotificationHandler {
	return &NotificationHandler{notificationUC: notificationUC}
}

// List returns notifications, newest first.
func (h *NotificationHandler) List(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	input := usecase.ListNotificationsInput{UnreadOnly: queryBool(c, "unreadOnly")}
	if input.Limit, err = queryInt(c, "limit", 0, maxNotificationPage); err != nil {
		return err
	}
	if input.Offset, err = queryInt(c, "offset", 0, -1); err != nil {
		return err
	}

	list, err := h.notificationUC.List(c.Request().Context(), userID, input)
	if err != nil {
		return err
	}

	return response.OK(c, list)
}

// UnreadCount returns the number of unread notifications.
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	count, err := h.notificationUC.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return response.OK(c, map[string]int64{"count": count})
}

// MarkRead marks one notification as read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	notificationID, err := pathID(c, "id", domainerrors.ErrNotificationNotFound)
	if err != nil {
		return err
	}

	notification, err := h.notificationUC.MarkRead(c.Request().Context(), userID, notificationID)
	if err != nil {
		return err
	}

	return response.OK(c, notification)
}

// MarkAllRead marks every notification of the host as read.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	updated, err := h.notificationUC.MarkAllRead(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, "All notifications marked as read", map[string]int64{"updated": updated})
}

func queryBool(c echo.Context, name string) bool {
	value, err := strconv.ParseBool(c.QueryParam(name))

	return err == nil && value
}

// queryInt parses an optional non-negative integer. A negative max means unbounded.
func queryInt(c echo.Context, name string, fallback, maxValue int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fieldError(name, "must be a non-negative integer")
	}
	if maxValue >= 0 && value > maxValue {
		value = maxValue
	}

	return value, nil
}
