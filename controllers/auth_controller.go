// controllers/auth_controller.go
package controllers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/microtask/microtask_backend/services"
)

// TokenIssuer signs session tokens
type TokenIssuer interface {
	Generate(email, role string) (string, error)
}

// AuthController exchanges a provider ID token for a session token
type AuthController struct {
	verifier services.IdentityVerifier
	users    *services.UserService
	tokens   TokenIssuer
	logger   *logrus.Entry
}

func NewAuthController(verifier services.IdentityVerifier, users *services.UserService, tokens TokenIssuer, logger *logrus.Logger) *AuthController {
	return &AuthController{
		verifier: verifier,
		users:    users,
		tokens:   tokens,
		logger:   logger.WithField("controller", "auth"),
	}
}

// CreateTokenRequest carries the provider ID token. Email is only honoured
// by the development verifier.
type CreateTokenRequest struct {
	IDToken string `json:"idToken"`
	Email   string `json:"email"`
}

// CreateToken handles POST /jwt
func (ac *AuthController) CreateToken(c echo.Context) error {
	var req CreateTokenRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	raw := strings.TrimSpace(req.IDToken)
	if raw == "" {
		raw = strings.TrimSpace(req.Email)
	}
	if raw == "" {
		return badRequest(c, "idToken is required")
	}

	verified, err := ac.verifier.Verify(c.Request().Context(), raw)
	if err != nil {
		return respondError(c, ac.logger, err)
	}

	user, err := ac.users.FindByEmail(c.Request().Context(), verified.Email)
	if err != nil {
		return respondError(c, ac.logger, err)
	}

	token, err := ac.tokens.Generate(user.Email, user.Role)
	if err != nil {
		ac.logger.WithError(err).Error("failed to sign token")
		return respondError(c, ac.logger, err)
	}

	ac.logger.WithField("email", user.Email).Info("session token issued")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"token":   token,
	})
}
