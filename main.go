package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/config"
	"github.com/microtask/microtask_backend/controllers"
	"github.com/microtask/microtask_backend/metrics"
	"github.com/microtask/microtask_backend/middleware"
	"github.com/microtask/microtask_backend/models"
	"github.com/microtask/microtask_backend/repositories"
	"github.com/microtask/microtask_backend/repositories/memory"
	"github.com/microtask/microtask_backend/routes"
	"github.com/microtask/microtask_backend/services"
	"github.com/microtask/microtask_backend/websocket"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// backends are the outside systems the services talk to. Nil members fall
// back to in-process implementations.
type backends struct {
	stores   repositories.Stores
	locker   services.Locker
	verifier services.IdentityVerifier
	uploader services.BlobUploader
	gateway  services.PaymentIntentCreator
	payments services.PaymentVerifier
	pushers  []services.Pusher
	closers  []func(context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := connectBackends(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("failed to connect backends")
	}

	wsHub := websocket.NewHub()
	go wsHub.Run(ctx)
	b.pushers = append(b.pushers, wsHub)

	rateLimiter := middleware.NewRateLimiter()
	go rateLimiter.Cleanup(time.Minute, ctx.Done())

	e := newServer(cfg, logger, b, wsHub, rateLimiter)

	go func() {
		logger.WithField("port", cfg.Port).Info("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
	}
	for _, closeFn := range b.closers {
		if err := closeFn(shutdownCtx); err != nil {
			logger.WithError(err).Warn("backend close failed")
		}
	}
}

// connectBackends picks store, lock, identity, upload and push backends from cfg
func connectBackends(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*backends, error) {
	b := &backends{}

	switch cfg.StoreBackend {
	case "memory":
		logger.Warn("using in-memory stores; data is lost on restart")
		b.stores = memory.NewStores()
	case "mongo", "":
		client, err := config.ConnectDB(cfg, logger)
		if err != nil {
			return nil, err
		}
		b.stores = repositories.NewMongoStores(client.Database(cfg.DBName))
		b.closers = append(b.closers, client.Disconnect)
	default:
		return nil, errors.New("unknown STORE_BACKEND " + cfg.StoreBackend)
	}

	if rdb := config.ConnectRedis(cfg, logger); rdb != nil {
		b.locker = services.NewRedisLocker(rdb)
		b.closers = append(b.closers, func(context.Context) error { return rdb.Close() })
	} else {
		b.locker = services.NewLocalLocker()
	}

	app, err := config.InitFirebase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if app != nil {
		if fcm, err := app.Messaging(ctx); err != nil {
			logger.WithError(err).Warn("FCM unavailable")
		} else {
			b.pushers = append(b.pushers, services.NewFCMPusher(fcm, b.stores.Users))
		}

		if cfg.UploadBackend == "firebase" && cfg.StorageBucket != "" {
			storageClient, err := app.Storage(ctx)
			if err != nil {
				return nil, err
			}
			bucket, err := storageClient.Bucket(cfg.StorageBucket)
			if err != nil {
				return nil, err
			}
			b.uploader = services.NewFirebaseStorageUploader(bucket, cfg.StorageBucket)
		}
	}
	if b.uploader == nil {
		b.uploader = services.NewLocalUploader(cfg.UploadDir, strings.TrimRight(cfg.PublicBaseURL, "/"))
	}

	if cfg.SMTPHost != "" {
		b.pushers = append(b.pushers, services.NewEmailPusher(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.PublicBaseURL))
	}

	switch {
	case cfg.FirebaseProjectID != "":
		b.verifier = services.NewFirebaseVerifier(cfg.FirebaseProjectID)
	case cfg.IsDevelopment():
		logger.Warn("FIREBASE_PROJECT_ID not set; /jwt trusts bare email addresses")
		b.verifier = services.TrustedVerifier{}
	default:
		return nil, errors.New("FIREBASE_PROJECT_ID is required outside development")
	}

	whish := services.NewWhishService(services.WhishConfig{
		BaseURL:     cfg.WhishBaseURL,
		Channel:     cfg.WhishChannel,
		Secret:      cfg.WhishSecret,
		WebsiteURL:  cfg.WhishWebsiteURL,
		CallbackURL: strings.TrimRight(cfg.PublicBaseURL, "/") + "/api/payments",
		Debug:       cfg.WhishEnv != "production",
	}, logger)
	b.gateway = whish
	// config.Load refuses to start without merchant credentials outside development
	if cfg.WhishChannel != "" && cfg.WhishSecret != "" {
		b.payments = whish
	} else {
		logger.Warn("WHISH_CHANNEL/WHISH_SECRET not set; payments are checked against recorded intents only")
	}

	return b, nil
}

// newServer wires services, controllers and middleware onto a fresh echo instance
func newServer(cfg *config.Config, logger *logrus.Logger, b *backends, wsHub *websocket.Hub, rateLimiter *middleware.RateLimiter) *echo.Echo {
	tokens := middleware.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	notificationService := services.NewNotificationService(b.stores.Notifications, logger, b.pushers...)
	userService := services.NewUserService(b.stores.Users, logger)
	taskService := services.NewTaskService(b.stores.Tasks, b.stores.Users, logger)
	submissionService := services.NewSubmissionService(b.stores.Submissions, taskService, userService, notificationService, b.locker, logger)
	withdrawalService := services.NewWithdrawalService(b.stores.Withdrawals, userService, notificationService, b.locker, logger)
	uploadService := services.NewUploadService(b.uploader, logger)

	paymentService := services.NewPaymentService(b.stores.Payments, userService, b.gateway, b.payments, logger)

	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = jsonErrorHandler(logger)

	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(echoMiddleware.Recover())
	e.Use(metrics.Middleware())
	e.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	if rateLimiter != nil {
		e.Use(rateLimiter.RateLimit())
	}
	e.Use(middleware.SecurityHeaders(middleware.SecurityConfig{
		AllowedDomains: cfg.CORSAllowedOrigins,
		AllowInlineJS:  cfg.IsDevelopment(),
	}))
	e.Use(middleware.ContentTypeGuard())
	if !cfg.IsDevelopment() {
		e.Use(httpsRedirect())
	}

	e.Match([]string{http.MethodGet, http.MethodHead}, "/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "OK",
			"message": "Microtask Backend is running",
			"version": "1.0",
		})
	})
	e.Match([]string{http.MethodGet, http.MethodHead}, "/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
	})
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	e.Static("/uploads", cfg.UploadDir)

	var wsHandler *websocket.Handler
	if wsHub != nil {
		wsHandler = websocket.NewHandler(wsHub, tokens, cfg.CORSAllowedOrigins)
	}

	routes.SetupRoutes(e, routes.Handlers{
		Auth:          controllers.NewAuthController(b.verifier, userService, tokens, logger),
		Users:         controllers.NewUserController(userService, logger),
		Tasks:         controllers.NewTaskController(taskService, logger),
		Submissions:   controllers.NewSubmissionController(submissionService, logger),
		Withdrawals:   controllers.NewWithdrawalController(withdrawalService, logger),
		Notifications: controllers.NewNotificationController(notificationService, logger),
		Payments:      controllers.NewPaymentController(paymentService, logger),
		Uploads:       controllers.NewUploadController(uploadService, logger),
		WebSocket:     wsHandler,
	}, tokens.Middleware())

	return e
}

// jsonErrorHandler renders echo errors (404, 405, bind failures) in the
// same envelope the controllers use
func jsonErrorHandler(logger *logrus.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, message := http.StatusInternalServerError, "Internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(status)
			}
		} else {
			logger.WithError(err).Error("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, models.Response{Status: status, Message: message})
		}
		if err != nil {
			logger.WithError(err).Warn("failed to write error response")
		}
	}
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(http.StatusMovedPermanently, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
