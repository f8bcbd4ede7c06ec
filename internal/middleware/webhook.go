package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"identity-service/pkg/logger"
	"identity-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SignatureHeader carries the provider's HMAC-SHA256 of the request body,
// hex encoded.
const SignatureHeader = "X-Webhook-Signature"

// WebhookSignature rejects lifecycle events that are not signed with the
// shared webhook secret. The body is read for verification and restored for
// the handler.
func WebhookSignature(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			signature := c.Request().Header.Get(SignatureHeader)
			if signature == "" {
				log.Error("Missing webhook signature")
				prometheus.RecordWebhookError("missing_signature")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing webhook signature"})
			}

			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				log.Error("Failed to read webhook body", zap.Error(err))
				prometheus.RecordWebhookError("unreadable_body")
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
			}
			c.Request().Body = io.NopCloser(bytes.NewReader(body))

			mac := hmac.New(sha256.New, []byte(secret))
			mac.Write(body)
			expected := hex.EncodeToString(mac.Sum(nil))

			if !hmac.Equal([]byte(expected), []byte(signature)) {
				log.Error("Invalid webhook signature")
				prometheus.RecordWebhookError("invalid_signature")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid webhook signature"})
			}

			return next(c)
		}
	}
}
