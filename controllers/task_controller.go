// controllers/task_controller.go
package controllers

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/services"
)

type TaskController struct {
	tasks  *services.TaskService
	logger *logrus.Entry
}

func NewTaskController(tasks *services.TaskService, logger *logrus.Logger) *TaskController {
	return &TaskController{tasks: tasks, logger: logger.WithField("controller", "task")}
}

// ListTasks supports ?buyer_email= and ?available=true
func (tc *TaskController) ListTasks(c echo.Context) error {
	available, _ := strconv.ParseBool(c.QueryParam("available"))
	tasks, err := tc.tasks.ListTasks(c.Request().Context(), models.TaskFilter{
		BuyerEmail:    c.QueryParam("buyer_email"),
		AvailableOnly: available,
	})
	if err != nil {
		return respondError(c, tc.logger, err)
	}
	return ok(c, "Tasks retrieved successfully", tasks)
}

func (tc *TaskController) GetTask(c echo.Context) error {
	task, err := tc.tasks.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, tc.logger, err)
	}
	return ok(c, "Task retrieved successfully", task)
}

func (tc *TaskController) CreateTask(c echo.Context) error {
	var req models.CreateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	task, err := tc.tasks.CreateTask(c.Request().Context(), actor(c), req)
	if err != nil {
		return respondError(c, tc.logger, err)
	}
	return created(c, "Task created successfully", task)
}

func (tc *TaskController) UpdateTask(c echo.Context) error {
	var req models.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	task, err := tc.tasks.UpdateTask(c.Request().Context(), actor(c), c.Param("id"), req)
	if err != nil {
		return respondError(c, tc.logger, err)
	}
	return ok(c, "Task updated successfully", task)
}

func (tc *TaskController) UpdateRequiredWorkers(c echo.Context) error {
	var req models.UpdateRequiredWorkersRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := tc.tasks.UpdateRequiredWorkers(c.Request().Context(), actor(c), c.Param("id"), req.RequiredWorkers); err != nil {
		return respondError(c, tc.logger, err)
	}
	return ok(c, "Required workers updated successfully", nil)
}

func (tc *TaskController) DeleteTask(c echo.Context) error {
	if err := tc.tasks.DeleteTask(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return respondError(c, tc.logger, err)
	}
	return ok(c, "Task deleted successfully", nil)
}
