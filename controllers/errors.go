package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/middleware"
	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/services"
)

var kindStatus = map[services.Kind]int{
	services.KindValidation:   http.StatusBadRequest,
	services.KindUnauthorized: http.StatusUnauthorized,
	services.KindForbidden:    http.StatusForbidden,
	services.KindNotFound:     http.StatusNotFound,
	services.KindConflict:     http.StatusConflict,
}

// respondError maps a service error onto the JSON envelope. Internal errors
// are logged and reported without detail.
func respondError(c echo.Context, logger *logrus.Entry, err error) error {
	status, ok := kindStatus[services.KindOf(err)]
	if !ok {
		logger.WithError(err).WithField("path", c.Path()).Error("request failed")
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
	return c.JSON(status, models.Response{
		Status:  status,
		Message: err.Error(),
	})
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, models.Response{
		Status:  http.StatusBadRequest,
		Message: message,
	})
}

func ok(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

func created(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// bindAndValidate binds the body into req and runs the echo validator, if
// any. The returned error is already phrased for the client.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return errors.New("Invalid request body")
	}
	if c.Echo().Validator != nil {
		if err := c.Validate(req); err != nil {
			return fmt.Errorf("Validation failed: %v", err)
		}
	}
	return nil
}

// actor reads the identity set by the JWT middleware. Routes behind the
// middleware always have one; the zero Identity fails every role check.
func actor(c echo.Context) models.Identity {
	id, _ := middleware.IdentityFromContext(c)
	return id
}

func queryInt(c echo.Context, name string) int64 {
	n, err := strconv.ParseInt(c.QueryParam(name), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
