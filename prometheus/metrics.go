package prometheus

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal   *prometheus.CounterVec
	HttpRequestDuration *prometheus.HistogramVec

	// Authentication metrics
	AuthAttemptsCounter *prometheus.CounterVec

	// Database operation metrics
	DbOperationDuration *prometheus.HistogramVec

	// Entity operation metrics, labelled by entity and operation
	EntityOperationsCounter *prometheus.CounterVec

	// Audit entries by outcome (recorded, failed)
	AuditEntriesCounter *prometheus.CounterVec

	// Archive sweep metrics
	SweepDeletedCounter *prometheus.CounterVec
	SweepFailedCounter  *prometheus.CounterVec

	// Alert evaluations by outcome (sent, no_alerts, cooldown, failed)
	AlertChecksCounter *prometheus.CounterVec
	LowStockGauge      prometheus.Gauge
	ExpiringGauge      prometheus.Gauge
)

// InitMetrics registers every metric under prefix. It must run once per process.
func InitMetrics(prefix string) {
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AuthAttemptsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_auth_attempts_total",
			Help: "Total number of authentication attempts by result",
		},
		[]string{"result"},
	)

	DbOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_db_operation_duration_seconds",
			Help:    "Duration of database operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation_type"},
	)

	EntityOperationsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_entity_operations_total",
			Help: "Total number of operations per entity",
		},
		[]string{"entity", "operation"},
	)

	AuditEntriesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_audit_entries_total",
			Help: "Audit entries by outcome",
		},
		[]string{"outcome"},
	)

	SweepDeletedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_archive_sweep_deleted_total",
			Help: "Archived records permanently deleted by the retention sweep",
		},
		[]string{"entity"},
	)

	SweepFailedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_archive_sweep_failed_total",
			Help: "Archived records the retention sweep failed to delete",
		},
		[]string{"entity"},
	)

	AlertChecksCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_alert_checks_total",
			Help: "Stock alert evaluations by outcome",
		},
		[]string{"outcome"},
	)

	LowStockGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: prefix + "_low_stock_products",
		Help: "Active products under the low stock threshold at the last check",
	})

	ExpiringGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: prefix + "_expiring_products",
		Help: "Active products inside the expiry window at the last check",
	})
}

// TrackDBOperation returns a function that records the duration of a database operation
func TrackDBOperation(operationType string) func(startTime time.Time) {
	return func(startTime time.Time) {
		if DbOperationDuration == nil {
			return
		}
		DbOperationDuration.WithLabelValues(operationType).Observe(time.Since(startTime).Seconds())
	}
}

// RecordEntityOperation increments the counter for entity operations
func RecordEntityOperation(entity, operation string) {
	if EntityOperationsCounter != nil {
		EntityOperationsCounter.WithLabelValues(entity, operation).Inc()
	}
}

// RecordAuthAttempt counts a login by result
func RecordAuthAttempt(result string) {
	if AuthAttemptsCounter != nil {
		AuthAttemptsCounter.WithLabelValues(result).Inc()
	}
}

// RecordAuditEntry counts an audit write by outcome
func RecordAuditEntry(outcome string) {
	if AuditEntriesCounter != nil {
		AuditEntriesCounter.WithLabelValues(outcome).Inc()
	}
}

// RecordSweep adds one sweep run's deleted and failed counts
func RecordSweep(entity string, deleted, failed int) {
	if SweepDeletedCounter == nil {
		return
	}
	SweepDeletedCounter.WithLabelValues(entity).Add(float64(deleted))
	SweepFailedCounter.WithLabelValues(entity).Add(float64(failed))
}

// RecordAlertCheck counts an alert evaluation and publishes the set sizes
func RecordAlertCheck(outcome string, lowStock, expiring int) {
	if AlertChecksCounter == nil {
		return
	}
	AlertChecksCounter.WithLabelValues(outcome).Inc()
	LowStockGauge.Set(float64(lowStock))
	ExpiringGauge.Set(float64(expiring))
}

// MetricsMiddleware adds prometheus metrics to track HTTP requests
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)
		if HttpRequestsTotal == nil {
			return err
		}

		method := c.Request().Method
		path := c.Path()
		status := strconv.Itoa(c.Response().Status)

		HttpRequestsTotal.WithLabelValues(method, path, status).Inc()
		HttpRequestDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())

		return err
	}
}
