package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bookshelf/catalog-service/internal/domain"
)

// Outcome labels recorded for catalog operations.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeInvalid  = "invalid"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Metrics contains all Prometheus metrics for the catalog service.
// Metrics are organized by subsystem: HTTP and catalog operations.
type Metrics struct {
	// HTTPRequestsTotal counts served requests, labeled by method, route pattern and status code.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration observes request latency in seconds, labeled by method and route pattern.
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRateLimited counts requests rejected by the rate limiter.
	HTTPRateLimited prometheus.Counter

	// OperationsTotal counts service operations, labeled by operation and outcome.
	OperationsTotal *prometheus.CounterVec

	// OperationDuration observes service operation latency in seconds, labeled by operation.
	OperationDuration *prometheus.HistogramVec

	// EntitiesCreated counts created categories and books, labeled by entity.
	EntitiesCreated *prometheus.CounterVec

	// EntitiesDeleted counts explicitly deleted categories and books, labeled by entity.
	EntitiesDeleted *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered with the default Prometheus registry.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWithRegistry(namespace, prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates a Metrics instance registered with reg.
func NewMetricsWithRegistry(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// HTTP
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		HTTPRateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_rate_limited_total",
			Help:      "Total number of HTTP requests rejected by the rate limiter",
		}),

		// Catalog
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_operations_total",
			Help:      "Total number of catalog operations by outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "catalog_operation_duration_seconds",
			Help:      "Duration of catalog operations in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		EntitiesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_entities_created_total",
			Help:      "Total number of catalog entities created",
		}, []string{"entity"}),
		EntitiesDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_entities_deleted_total",
			Help:      "Total number of catalog entities deleted",
		}, []string{"entity"}),
	}
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}

// RecordRateLimited records a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimited() {
	if m == nil {
		return
	}
	m.HTTPRateLimited.Inc()
}

// RecordOperation records a finished catalog operation. The outcome label is
// derived from err.
func (m *Metrics) RecordOperation(operation string, err error, durationSeconds float64) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation, OperationOutcome(err)).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(durationSeconds)
}

// RecordCreated records count newly created entities.
func (m *Metrics) RecordCreated(entity string, count int) {
	if m == nil {
		return
	}
	m.EntitiesCreated.WithLabelValues(entity).Add(float64(count))
}

// RecordDeleted records count deleted entities.
func (m *Metrics) RecordDeleted(entity string, count int) {
	if m == nil {
		return
	}
	m.EntitiesDeleted.WithLabelValues(entity).Add(float64(count))
}

// OperationOutcome classifies an operation error into an outcome label.
func OperationOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, domain.ErrSeedDataExists):
		return OutcomeConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return OutcomeInvalid
	default:
		return OutcomeError
	}
}
