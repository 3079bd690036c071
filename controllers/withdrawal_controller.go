// controllers/withdrawal_controller.go
package controllers

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/services"
)

type WithdrawalController struct {
	withdrawals *services.WithdrawalService
	logger      *logrus.Entry
}

func NewWithdrawalController(withdrawals *services.WithdrawalService, logger *logrus.Logger) *WithdrawalController {
	return &WithdrawalController{withdrawals: withdrawals, logger: logger.WithField("controller", "withdrawal")}
}

func (wc *WithdrawalController) ListWithdrawals(c echo.Context) error {
	items, err := wc.withdrawals.ListWithdrawals(c.Request().Context(), actor(c), c.QueryParam("status"))
	if err != nil {
		return respondError(c, wc.logger, err)
	}
	return ok(c, "Withdrawals retrieved successfully", items)
}

func (wc *WithdrawalController) CreateWithdrawal(c echo.Context) error {
	var req models.CreateWithdrawalRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	w, err := wc.withdrawals.CreateWithdrawal(c.Request().Context(), actor(c), req)
	if err != nil {
		return respondError(c, wc.logger, err)
	}
	return created(c, "Withdrawal request submitted", w)
}

func (wc *WithdrawalController) ApproveWithdrawal(c echo.Context) error {
	var req models.ApproveWithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := wc.withdrawals.ApproveWithdrawal(c.Request().Context(), actor(c), c.Param("id"), req); err != nil {
		return respondError(c, wc.logger, err)
	}
	return ok(c, "Withdrawal approved successfully", nil)
}
