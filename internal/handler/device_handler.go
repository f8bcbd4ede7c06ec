package handler

import (
	"errors"
	"net/http"
	"time"

	"identity-service/internal/middleware"
	"identity-service/internal/store"
	"identity-service/pkg/database"
	"identity-service/pkg/logger"
	"identity-service/prometheus"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RegisterDevice registers a push token for the caller. Ownership is always
// the caller; the request cannot name another user.
func RegisterDevice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDeviceOperation("register")

	var req struct {
		PushToken string `json:"push_token"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse device registration", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.PushToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "push_token is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	st := store.ForCaller(database.GetDB(), middleware.CallerIdentity(c))
	device, err := st.RegisterDevice(c.Request().Context(), req.PushToken)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return c.JSON(http.StatusConflict, echo.Map{"error": "device token already registered"})
		case errors.Is(err, store.ErrNotFound):
			prometheus.RecordAccessDenied("device")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		default:
			log.Error("Failed to register device", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to register device"})
		}
	}

	prometheus.IncreaseRegisteredDevices()
	log.Info("Device registered",
		zap.String("identity", middleware.CallerIdentity(c)),
		zap.String("device_id", device.ID.String()))
	return c.JSON(http.StatusCreated, device)
}

// ListDevices returns the caller's devices
func ListDevices(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDeviceOperation("list")

	defer prometheus.TrackDBOperation("query")(time.Now())
	st := store.ForCaller(database.GetDB(), middleware.CallerIdentity(c))
	devices, err := st.ListDevices(c.Request().Context())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			prometheus.RecordAccessDenied("device")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		log.Error("Failed to list devices", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list devices"})
	}

	return c.JSON(http.StatusOK, echo.Map{"devices": devices})
}

// GetDevice returns one of the caller's devices
func GetDevice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDeviceOperation("get")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device id"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	st := store.ForCaller(database.GetDB(), middleware.CallerIdentity(c))
	device, err := st.GetDevice(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			prometheus.RecordAccessDenied("device")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		log.Error("Failed to load device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load device"})
	}

	return c.JSON(http.StatusOK, device)
}

// RefreshDevice replaces the push token of one of the caller's devices
func RefreshDevice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDeviceOperation("refresh")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device id"})
	}

	var req struct {
		PushToken string `json:"push_token"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse device refresh", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.PushToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "push_token is required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	st := store.ForCaller(database.GetDB(), middleware.CallerIdentity(c))
	device, err := st.UpdateDevice(c.Request().Context(), id, req.PushToken)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return c.JSON(http.StatusConflict, echo.Map{"error": "device token already registered"})
		case errors.Is(err, store.ErrNotFound):
			prometheus.RecordAccessDenied("device")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		default:
			log.Error("Failed to refresh device", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to refresh device"})
		}
	}

	log.Info("Device token refreshed", zap.String("device_id", id.String()))
	return c.JSON(http.StatusOK, device)
}

// DeleteDevice removes one of the caller's devices
func DeleteDevice(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordDeviceOperation("delete")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid device id"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	st := store.ForCaller(database.GetDB(), middleware.CallerIdentity(c))
	if err := st.DeleteDevice(c.Request().Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			prometheus.RecordAccessDenied("device")
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		}
		log.Error("Failed to delete device", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete device"})
	}

	prometheus.DecreaseRegisteredDevices()
	log.Info("Device deleted", zap.String("device_id", id.String()))
	return c.JSON(http.StatusOK, echo.Map{"message": "device deleted"})
}
