package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/microtask/microtask_backend/controllers"
	"github.com/microtask/microtask_backend/middleware"
	"github.com/microtask/microtask_backend/models"
)

func RegisterPaymentRoutes(api *echo.Group, paymentController *controllers.PaymentController) {
	buyer := middleware.RequireRole(models.RoleBuyer)

	api.GET("/payments", paymentController.ListPayments)
	api.POST("/payments", paymentController.CreatePayment, buyer)
	api.POST("/create-payment-intent", paymentController.CreatePaymentIntent, buyer)
}
