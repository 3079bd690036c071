// controllers/payment_controller.go
package controllers

import (
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/services"
)

type PaymentController struct {
	payments *services.PaymentService
	logger   *logrus.Entry
}

func NewPaymentController(payments *services.PaymentService, logger *logrus.Logger) *PaymentController {
	return &PaymentController{payments: payments, logger: logger.WithField("controller", "payment")}
}

// CreatePaymentIntent starts a gateway checkout for a coin package
func (pc *PaymentController) CreatePaymentIntent(c echo.Context) error {
	var req models.CreatePaymentIntentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	intent, err := pc.payments.CreatePaymentIntent(c.Request().Context(), actor(c), req.Coins)
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return ok(c, "Payment intent created", intent)
}

// CreatePayment records a completed purchase and credits the coins
func (pc *PaymentController) CreatePayment(c echo.Context) error {
	var req models.CreatePaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return badRequest(c, err.Error())
	}
	p, err := pc.payments.CreatePayment(c.Request().Context(), actor(c), req)
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return created(c, "Payment recorded successfully", p)
}

func (pc *PaymentController) ListPayments(c echo.Context) error {
	items, err := pc.payments.ListPayments(c.Request().Context(), actor(c), c.QueryParam("email"))
	if err != nil {
		return respondError(c, pc.logger, err)
	}
	return ok(c, "Payments retrieved successfully", items)
}
