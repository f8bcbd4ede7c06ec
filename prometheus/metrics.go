package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Counter metrics
var (
	// Provider lifecycle events, by event type
	WebhookEventCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_webhook_events_total",
			Help: "Total number of identity provider lifecycle events received",
		},
		[]string{"event"}, // "account.created", "account.deleted"
	)

	// Accounts mirrored into the local users table
	AccountCreatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "identity_accounts_created_total",
			Help: "Total number of accounts mirrored from the identity provider",
		},
	)

	// Accounts removed, cascading to their devices
	AccountDeletedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "identity_accounts_deleted_total",
			Help: "Total number of accounts removed after provider deletion",
		},
	)

	// Device registry operations
	DeviceOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_device_operations_total",
			Help: "Total number of device registry operations",
		},
		[]string{"operation"}, // "register", "list", "get", "refresh", "delete"
	)

	// Profile operations
	ProfileOperationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_profile_operations_total",
			Help: "Total number of profile operations",
		},
		[]string{"operation"}, // "get", "update", "delete"
	)

	// HTTP request counter by endpoint and status
	HTTPRequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_http_requests_total",
			Help: "Total number of HTTP requests by endpoint and status",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Error counters
	AuthErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_auth_errors_total",
			Help: "Total number of authentication errors",
		},
		[]string{"type"}, // "missing_token", "invalid_token", etc.
	)

	WebhookErrorCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_webhook_errors_total",
			Help: "Total number of webhook processing errors",
		},
		[]string{"type"}, // "invalid_signature", "unknown_event", "db_error", etc.
	)

	AccessDeniedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_access_denied_total",
			Help: "Total number of operations denied by the ownership policy",
		},
		[]string{"entity"}, // "user", "device"
	)
)

// Histogram metrics
var (
	// Request duration
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "identity_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	// Database operation duration
	DBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "identity_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "query", "insert", "update", "delete"
	)
)

// Gauge metrics
var (
	// Registered devices
	RegisteredDevicesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "identity_registered_devices",
			Help: "Number of currently registered push devices",
		},
	)

	// System info
	InfoGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "identity_info",
			Help: "Information about the identity service",
		},
		[]string{"version"},
	)
)

func init() {
	// Register counters
	prometheus.MustRegister(WebhookEventCounter)
	prometheus.MustRegister(AccountCreatedCounter)
	prometheus.MustRegister(AccountDeletedCounter)
	prometheus.MustRegister(DeviceOperationCounter)
	prometheus.MustRegister(ProfileOperationCounter)
	prometheus.MustRegister(HTTPRequestCounter)
	prometheus.MustRegister(AuthErrorCounter)
	prometheus.MustRegister(WebhookErrorCounter)
	prometheus.MustRegister(AccessDeniedCounter)

	// Register histograms
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(DBOperationDuration)

	// Register gauges
	prometheus.MustRegister(RegisteredDevicesGauge)
	prometheus.MustRegister(InfoGauge)

	// Set initial service info
	InfoGauge.With(prometheus.Labels{"version": "1.0.0"}).Set(1)
}

// GetPrometheusHandler returns an HTTP handler for the Prometheus metrics
func GetPrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// TrackDBOperation measures database operation durations
func TrackDBOperation(operation string) func(time.Time) {
	startTime := time.Now()
	return func(endTime time.Time) {
		duration := time.Since(startTime).Seconds()
		DBOperationDuration.With(prometheus.Labels{
			"operation": operation,
		}).Observe(duration)
	}
}

// MetricsMiddleware creates a middleware function that captures metrics for each request
func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Execute the request handler
			err := next(c)

			// Record request duration
			duration := time.Since(start).Seconds()
			status := strconv.Itoa(c.Response().Status)
			endpoint := c.Path()
			method := c.Request().Method

			// Record metrics
			RequestDuration.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Observe(duration)

			HTTPRequestCounter.With(prometheus.Labels{
				"endpoint": endpoint,
				"method":   method,
				"status":   status,
			}).Inc()

			return err
		}
	}
}

// RecordWebhookEvent records a received provider lifecycle event
func RecordWebhookEvent(event string) {
	WebhookEventCounter.With(prometheus.Labels{"event": event}).Inc()
}

// RecordAuthError records an authentication error by type
func RecordAuthError(errorType string) {
	AuthErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordWebhookError records a webhook processing error by type
func RecordWebhookError(errorType string) {
	WebhookErrorCounter.With(prometheus.Labels{"type": errorType}).Inc()
}

// RecordAccessDenied records an operation denied by the ownership policy
func RecordAccessDenied(entity string) {
	AccessDeniedCounter.With(prometheus.Labels{"entity": entity}).Inc()
}

// RecordDeviceOperation records a device registry operation
func RecordDeviceOperation(operation string) {
	DeviceOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// RecordProfileOperation records a profile operation
func RecordProfileOperation(operation string) {
	ProfileOperationCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

// IncreaseRegisteredDevices increments the registered devices gauge
func IncreaseRegisteredDevices() {
	RegisteredDevicesGauge.Inc()
}

// DecreaseRegisteredDevices decrements the registered devices gauge
func DecreaseRegisteredDevices() {
	RegisteredDevicesGauge.Dec()
}
