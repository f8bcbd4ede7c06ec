package middleware

import (
	"net/http"
	"strings"

	"identity-service/pkg/jwtutil"
	"identity-service/pkg/logger"
	"identity-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Context keys written by AuthMiddleware
const (
	IdentityKey = "identity"
	EmailKey    = "email"
)

// AuthMiddleware validates the provider-issued JWT from the Authorization
// header and puts the caller's identity key in the request context. The
// store layer still evaluates ownership per row; this only establishes who
// is asking.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Store caller info in context for later use
		c.Set(IdentityKey, claims.Subject)
		c.Set(EmailKey, claims.Email)

		// Token is valid, proceed with the request
		return next(c)
	}
}

// CallerIdentity returns the authenticated identity key from the context,
// or "" when the request is unauthenticated.
func CallerIdentity(c echo.Context) string {
	identity, _ := c.Get(IdentityKey).(string)
	return identity
}
