package controllers

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/services"
)

type UploadController struct {
	uploads *services.UploadService
	logger  *logrus.Entry
}

func NewUploadController(uploads *services.UploadService, logger *logrus.Logger) *UploadController {
	return &UploadController{uploads: uploads, logger: logger.WithField("controller", "upload")}
}

// UploadImage accepts a multipart "file" field and returns the hosted URL
func (uc *UploadController) UploadImage(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "No image uploaded")
	}
	src, err := file.Open()
	if err != nil {
		return badRequest(c, "Failed to read uploaded file")
	}
	defer src.Close()

	url, err := uc.uploads.Upload(c.Request().Context(), file.Filename, src)
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return created(c, "Image uploaded successfully", map[string]string{"url": url})
}
