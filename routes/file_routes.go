package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/microtask/microtask_backend/controllers"
)

// RegisterFileRoutes registers the image upload route. Uploaded files under
// the local backend are served statically by main.
func RegisterFileRoutes(api *echo.Group, uploadController *controllers.UploadController) {
	api.POST("/upload", uploadController.UploadImage)
}
