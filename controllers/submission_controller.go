// controllers/submission_controller.go
package controllers

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/services"
)

type SubmissionController struct {
	submissions *services.SubmissionService
	logger      *logrus.Entry
}

func NewSubmissionController(submissions *services.SubmissionService, logger *logrus.Logger) *SubmissionController {
	return &SubmissionController{submissions: submissions, logger: logger.WithField("controller", "submission")}
}

// ListSubmissions supports ?status=&page=&limit=
func (sc *SubmissionController) ListSubmissions(c echo.Context) error {
	page, err := sc.submissions.ListSubmissions(c.Request().Context(), actor(c),
		c.QueryParam("status"), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		return respondError(c, sc.logger, err)
	}
	return ok(c, "Submissions retrieved successfully", page)
}

func (sc *SubmissionController) CreateSubmission(c echo.Context) error {
	var req models.CreateSubmissionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	sub, err := sc.submissions.CreateSubmission(c.Request().Context(), actor(c), req)
	if err != nil {
		return respondError(c, sc.logger, err)
	}
	return created(c, "Submission created successfully", sub)
}

func (sc *SubmissionController) ApproveSubmission(c echo.Context) error {
	var req models.ApproveSubmissionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := sc.submissions.ApproveSubmission(c.Request().Context(), actor(c), c.Param("id"), req); err != nil {
		return respondError(c, sc.logger, err)
	}
	return ok(c, "Submission approved successfully", nil)
}

func (sc *SubmissionController) RejectSubmission(c echo.Context) error {
	var req models.RejectSubmissionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := sc.submissions.RejectSubmission(c.Request().Context(), actor(c), c.Param("id"), req); err != nil {
		return respondError(c, sc.logger, err)
	}
	return ok(c, "Submission rejected successfully", nil)
}
