package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/microtask/microtask_backend/controllers"
	"github.com/microtask/microtask_backend/websocket"
)

// Handlers bundles every controller the API exposes
type Handlers struct {
	Auth          *controllers.AuthController
	Users         *controllers.UserController
	Tasks         *controllers.TaskController
	Submissions   *controllers.SubmissionController
	Withdrawals   *controllers.WithdrawalController
	Notifications *controllers.NotificationController
	Payments      *controllers.PaymentController
	Uploads       *controllers.UploadController
	WebSocket     *websocket.Handler
}

// SetupRoutes configures all API routes by calling individual route registration functions.
// auth is the JWT middleware guarding /api.
func SetupRoutes(e *echo.Echo, h Handlers, auth echo.MiddlewareFunc) {
	RegisterAuthRoutes(e, h.Auth, h.Users)

	// registered before the guarded group; the socket authenticates via ?token=
	if h.WebSocket != nil {
		e.GET("/api/ws", h.WebSocket.HandleWebSocket)
	}

	api := e.Group("/api", auth)
	RegisterUserRoutes(api, h.Users)
	RegisterTaskRoutes(api, h.Tasks)
	RegisterSubmissionRoutes(api, h.Submissions)
	RegisterWithdrawalRoutes(api, h.Withdrawals)
	RegisterNotificationRoutes(api, h.Notifications)
	RegisterPaymentRoutes(api, h.Payments)
	RegisterFileRoutes(api, h.Uploads)
}
