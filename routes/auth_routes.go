package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/microtask/microtask_backend/controllers"
)

// RegisterAuthRoutes registers the public sign-in and sign-up routes
func RegisterAuthRoutes(e *echo.Echo, authController *controllers.AuthController, userController *controllers.UserController) {
	e.POST("/jwt", authController.CreateToken)
	e.POST("/user", userController.CreateUser)
}
