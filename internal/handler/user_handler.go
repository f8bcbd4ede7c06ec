package handler

import (
	"errors"
	"net/http"
	"time"

	"identity-service/internal/middleware"
	"identity-service/internal/provider"
	"identity-service/internal/store"
	"identity-service/pkg/database"
	"identity-service/pkg/logger"
	"identity-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Protected is a smoke endpoint confirming the caller's token is valid
func Protected(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "You are authenticated!",
		"user_id": middleware.CallerIdentity(c),
	})
}

// GetProfile returns the caller's own user row
func GetProfile(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProfileOperation("get")

	defer prometheus.TrackDBOperation("query")(time.Now())
	st := store.ForCaller(database.GetDB(), middleware.CallerIdentity(c))
	user, err := st.GetUser(c.Request().Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			prometheus.RecordAccessDenied("user")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		log.Error("Failed to load profile", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load profile"})
	}

	return c.JSON(http.StatusOK, user)
}

// UpdateProfile applies profile edits to the caller's own row. The identity
// key, email, and timestamps are not editable here; email follows the
// provider and timestamps are stamped server-side.
func UpdateProfile(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProfileOperation("update")

	var req struct {
		DisplayName *string `json:"display_name"`
		AvatarURL   *string `json:"avatar_url"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse profile update", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	st := store.ForCaller(database.GetDB(), middleware.CallerIdentity(c))
	user, err := st.UpdateUser(c.Request().Context(), store.ProfileUpdate{
		DisplayName: req.DisplayName,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			prometheus.RecordAccessDenied("user")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		log.Error("Failed to update profile", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	log.Info("Profile updated", zap.String("identity", middleware.CallerIdentity(c)))
	return c.JSON(http.StatusOK, user)
}

// DeleteAccount deletes the caller's account at the identity provider and
// mirrors the deletion locally. The provider call comes first: if it fails,
// nothing local changes. The provider's own "account deleted" webhook may
// arrive later and finds nothing left to do.
func DeleteAccount(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordProfileOperation("delete")

	identity := middleware.CallerIdentity(c)

	if err := provider.GetClient().DeleteAccount(c.Request().Context(), identity); err != nil {
		log.Error("Provider account deletion failed", zap.String("identity", identity), zap.Error(err))
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "identity provider rejected the deletion"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	st := store.ForCaller(database.GetDB(), identity)
	err := st.DeleteUser(c.Request().Context())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		// The provider side is gone; its webhook redelivery will finish the
		// local cleanup.
		log.Error("Local account deletion failed", zap.String("identity", identity), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete account"})
	}

	log.Info("Account deleted", zap.String("identity", identity))
	return c.JSON(http.StatusOK, echo.Map{"deleted_user_id": identity})
}
