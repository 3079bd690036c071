package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/microtask/microtask_backend/controllers"
	"github.com/microtask/microtask_backend/middleware"
	"github.com/microtask/microtask_backend/models"
)

func RegisterUserRoutes(api *echo.Group, userController *controllers.UserController) {
	admin := middleware.RequireRole(models.RoleAdmin)

	api.GET("/users", userController.GetUser)
	api.GET("/allUsers", userController.ListUsers, admin)
	api.DELETE("/users/:id", userController.DeleteUser, admin)
	api.PATCH("/users/role", userController.UpdateRole, admin)
	api.PATCH("/users/profile", userController.UpdateProfile)
	api.PATCH("/users/coins", userController.SetCoins, admin)

	// non-admins may only spend their own coins; the service enforces it
	api.PATCH("/modify-coins", userController.ModifyCoins)
}
