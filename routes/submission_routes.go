package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/microtask/microtask_backend/controllers"
	"github.com/microtask/microtask_backend/middleware"
	"github.com/microtask/microtask_backend/models"
)

func RegisterSubmissionRoutes(api *echo.Group, submissionController *controllers.SubmissionController) {
	reviewers := middleware.RequireRole(models.RoleBuyer, models.RoleAdmin)

	api.GET("/submissions", submissionController.ListSubmissions)
	api.POST("/submissions", submissionController.CreateSubmission, middleware.RequireRole(models.RoleWorker))
	api.PATCH("/submissions/:id/approve", submissionController.ApproveSubmission, reviewers)
	api.PATCH("/submissions/:id/reject", submissionController.RejectSubmission, reviewers)
}
