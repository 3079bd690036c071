package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/security"
)

// RequestLogger writes one logrus entry per request
func RequestLogger(logger *logrus.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"remote_ip":  v.RemoteIP,
				"request_id": v.RequestID,
			}
			if id, ok := IdentityFromContext(c); ok {
				fields["email"] = id.Email
			}
			entry := logger.WithFields(fields)
			if logger.IsLevelEnabled(logrus.DebugLevel) {
				entry = entry.WithField("headers", security.SanitizeHeaders(c.Request().Header))
			}

			switch {
			case v.Error != nil || v.Status >= 500:
				entry.WithError(v.Error).Error("request failed")
			case v.Status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request")
			}
			return nil
		},
	})
}
