package controllers

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/services"
)

type NotificationController struct {
	notifications *services.NotificationService
	logger        *logrus.Entry
}

func NewNotificationController(notifications *services.NotificationService, logger *logrus.Logger) *NotificationController {
	return &NotificationController{notifications: notifications, logger: logger.WithField("controller", "notification")}
}

// ListNotifications returns ?email= (or the caller's) notifications, newest first
func (nc *NotificationController) ListNotifications(c echo.Context) error {
	items, err := nc.notifications.List(c.Request().Context(), actor(c), c.QueryParam("email"))
	if err != nil {
		return respondError(c, nc.logger, err)
	}
	return ok(c, "Notifications retrieved successfully", items)
}
