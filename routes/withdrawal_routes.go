package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/microtask/microtask_backend/controllers"
	"github.com/microtask/microtask_backend/middleware"
	"github.com/microtask/microtask_backend/models"
)

func RegisterWithdrawalRoutes(api *echo.Group, withdrawalController *controllers.WithdrawalController) {
	api.GET("/withdrawals", withdrawalController.ListWithdrawals)
	api.POST("/withdrawals", withdrawalController.CreateWithdrawal, middleware.RequireRole(models.RoleWorker))
	api.PATCH("/withdrawals/:id/approve", withdrawalController.ApproveWithdrawal, middleware.RequireRole(models.RoleAdmin))
}
