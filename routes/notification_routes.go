package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/microtask/microtask_backend/controllers"
)

// RegisterNotificationRoutes registers all notification-related routes
func RegisterNotificationRoutes(api *echo.Group, notificationController *controllers.NotificationController) {
	api.GET("/notifications", notificationController.ListNotifications)
}
