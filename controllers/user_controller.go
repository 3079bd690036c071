// controllers/user_controller.go
package controllers

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/services"
)

type UserController struct {
	users  *services.UserService
	logger *logrus.Entry
}

func NewUserController(users *services.UserService, logger *logrus.Logger) *UserController {
	return &UserController{users: users, logger: logger.WithField("controller", "user")}
}

// CreateUser handles public sign-up
func (uc *UserController) CreateUser(c echo.Context) error {
	var req models.CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	user, err := uc.users.CreateUser(c.Request().Context(), req)
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return created(c, "User created successfully", user)
}

// GetUser returns ?email= or the caller when omitted
func (uc *UserController) GetUser(c echo.Context) error {
	user, err := uc.users.GetUser(c.Request().Context(), actor(c), c.QueryParam("email"))
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return ok(c, "User retrieved successfully", user)
}

func (uc *UserController) ListUsers(c echo.Context) error {
	users, err := uc.users.ListUsers(c.Request().Context(), actor(c), models.UserFilter{
		Role: c.QueryParam("role"),
		Name: c.QueryParam("name"),
	})
	if err != nil {
		return respondError(c, uc.logger, err)
	}
	return ok(c, "Users retrieved successfully", users)
}

func (uc *UserController) DeleteUser(c echo.Context) error {
	if err := uc.users.DeleteUser(c.Request().Context(), actor(c), c.Param("id")); err != nil {
		return respondError(c, uc.logger, err)
	}
	return ok(c, "User deleted successfully", nil)
}

func (uc *UserController) UpdateRole(c echo.Context) error {
	var req models.UpdateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if err := uc.users.UpdateRole(c.Request().Context(), actor(c), req.Email, req.Role); err != nil {
		return respondError(c, uc.logger, err)
	}
	return ok(c, "Role updated successfully", nil)
}

func (uc *UserController) UpdateProfile(c echo.Context) error {
	var req models.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := uc.users.UpdateProfile(c.Request().Context(), actor(c), req); err != nil {
		return respondError(c, uc.logger, err)
	}
	return ok(c, "Profile updated successfully", nil)
}

// SetCoins overwrites a balance (admin)
func (uc *UserController) SetCoins(c echo.Context) error {
	var req models.SetCoinsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if err := uc.users.SetCoins(c.Request().Context(), actor(c), req.Email, req.Coins); err != nil {
		return respondError(c, uc.logger, err)
	}
	return ok(c, "Coins updated successfully", nil)
}

// ModifyCoins applies a signed delta
func (uc *UserController) ModifyCoins(c echo.Context) error {
	var req models.ModifyCoinsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	if err := uc.users.ModifyCoins(c.Request().Context(), actor(c), req.Email, req.Delta); err != nil {
		return respondError(c, uc.logger, err)
	}
	return ok(c, "Coins updated successfully", nil)
}
