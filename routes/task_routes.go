package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/microtask/microtask_backend/controllers"
	"github.com/microtask/microtask_backend/middleware"
	"github.com/microtask/microtask_backend/models"
)

func RegisterTaskRoutes(api *echo.Group, taskController *controllers.TaskController) {
	tasks := api.Group("/tasks")

	tasks.GET("", taskController.ListTasks)
	tasks.POST("", taskController.CreateTask, middleware.RequireRole(models.RoleBuyer))
	tasks.GET("/:id", taskController.GetTask)
	tasks.PATCH("/:id", taskController.UpdateTask, middleware.RequireRole(models.RoleBuyer))
	tasks.DELETE("/:id", taskController.DeleteTask, middleware.RequireRole(models.RoleBuyer, models.RoleAdmin))
	tasks.PATCH("/:id/required-workers", taskController.UpdateRequiredWorkers, middleware.RequireRole(models.RoleBuyer, models.RoleAdmin))
}
