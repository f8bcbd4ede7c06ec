package handler

import (
	"net/http"
	"time"

	"identity-service/internal/provision"
	"identity-service/pkg/database"
	"identity-service/pkg/logger"
	"identity-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Event types delivered by the identity provider
const (
	EventAccountCreated = "account.created"
	EventAccountDeleted = "account.deleted"
)

type accountPayload struct {
	ID          string  `json:"id"`
	Email       *string `json:"email,omitempty"`
	DisplayName *string `json:"display_name,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

type identityEvent struct {
	Type    string         `json:"type"`
	Account accountPayload `json:"account"`
}

// IdentityWebhook processes account lifecycle events from the identity
// provider. Delivery is at least once, so both event types are idempotent:
// a replayed event reports success without changing anything. Any failure
// returns non-2xx so the provider redelivers.
func IdentityWebhook(c echo.Context) error {
	log := logger.FromContext(c)

	var ev identityEvent
	if err := c.Bind(&ev); err != nil {
		log.Error("Failed to parse identity event", zap.Error(err))
		prometheus.RecordWebhookError("invalid_payload")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if ev.Account.ID == "" {
		log.Error("Identity event without identity key", zap.String("event", ev.Type))
		prometheus.RecordWebhookError("missing_identity_key")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event has no account id"})
	}

	prometheus.RecordWebhookEvent(ev.Type)
	prov := provision.New(database.GetDB())

	switch ev.Type {
	case EventAccountCreated:
		defer prometheus.TrackDBOperation("insert")(time.Now())
		err := prov.CreateAccount(c.Request().Context(), provision.AccountCreated{
			ID:          ev.Account.ID,
			Email:       ev.Account.Email,
			DisplayName: ev.Account.DisplayName,
			AvatarURL:   ev.Account.AvatarURL,
		})
		if err != nil {
			log.Error("Failed to mirror account creation", zap.String("identity", ev.Account.ID), zap.Error(err))
			prometheus.RecordWebhookError("db_error")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process event"})
		}

		prometheus.AccountCreatedCounter.Inc()
		log.Info("Account mirrored", zap.String("identity", ev.Account.ID))
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})

	case EventAccountDeleted:
		defer prometheus.TrackDBOperation("delete")(time.Now())
		if err := prov.DeleteAccount(c.Request().Context(), ev.Account.ID); err != nil {
			log.Error("Failed to mirror account deletion", zap.String("identity", ev.Account.ID), zap.Error(err))
			prometheus.RecordWebhookError("db_error")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to process event"})
		}

		prometheus.AccountDeletedCounter.Inc()
		log.Info("Account removed with its devices", zap.String("identity", ev.Account.ID))
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})

	default:
		log.Error("Unknown identity event type", zap.String("event", ev.Type))
		prometheus.RecordWebhookError("unknown_event")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown event type"})
	}
}
