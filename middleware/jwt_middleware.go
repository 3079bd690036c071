// middleware/jwt_middleware.go
package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/microtask/microtask_backend/models"
)

const identityKey = "identity"

// JwtCustomClaims for JWT token
type JwtCustomClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

// TokenManager issues and checks session tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs an HS256 token for email/role that expires after the TTL
func (m *TokenManager) Generate(email, role string) (string, error) {
	now := m.now()
	claims := &JwtCustomClaims{
		Email: email,
		Role:  role,
		StandardClaims: jwt.StandardClaims{
			Subject:   email,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Authenticate turns a raw token into an Identity
func (m *TokenManager) Authenticate(raw string) (models.Identity, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if raw == "" {
		return models.Identity{}, errors.New("missing token")
	}
	claims := &JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, m.keyFunc)
	if err != nil || !token.Valid {
		return models.Identity{}, errors.New("invalid or expired token")
	}
	if claims.Email == "" || !models.IsValidRole(claims.Role) {
		return models.Identity{}, errors.New("token carries no identity")
	}
	return models.Identity{Email: claims.Email, Role: claims.Role}, nil
}

func (m *TokenManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("unexpected signing method")
	}
	return m.secret, nil
}

// Middleware validates the bearer token and stores the Identity on the context
func (m *TokenManager) Middleware() echo.MiddlewareFunc {
	return middleware.JWTWithConfig(middleware.JWTConfig{
		Claims:        &JwtCustomClaims{},
		SigningKey:    m.secret,
		SigningMethod: middleware.AlgorithmHS256,
		SuccessHandler: func(c echo.Context) {
			user := c.Get("user").(*jwt.Token)
			claims := user.Claims.(*JwtCustomClaims)
			c.Set(identityKey, models.Identity{Email: claims.Email, Role: claims.Role})
		},
		ErrorHandlerWithContext: func(err error, c echo.Context) error {
			return c.JSON(http.StatusUnauthorized, models.Response{
				Status:  http.StatusUnauthorized,
				Message: "Invalid or expired token",
			})
		},
	})
}

// IdentityFromContext returns the authenticated caller, if any
func IdentityFromContext(c echo.Context) (models.Identity, bool) {
	id, ok := c.Get(identityKey).(models.Identity)
	return id, ok && id.Email != ""
}

// SetIdentity stores id on the context. Used by the websocket handshake and tests.
func SetIdentity(c echo.Context, id models.Identity) {
	c.Set(identityKey, id)
}
