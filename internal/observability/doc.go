// Package observability provides logging, metrics, and request context
// helpers for the catalog service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger = observability.WithComponent(logger, "http")
//
// # Metrics
//
//	metrics := observability.NewMetrics("catalog")
//	metrics.RecordOperation("create_book", err, time.Since(start).Seconds())
//	metrics.RecordCreated("book", 1)
//
// Operation outcomes are derived from the domain error taxonomy:
// success, not_found, invalid, conflict, error.
//
// # Standard Fields
//
//   - component: emitting subsystem (http, catalog, console, database)
//   - request_id: chi request identifier
//   - correlation_id: caller-supplied or generated correlation identifier
//   - entity, entity_id: catalog entity being handled
//
// All components are safe for concurrent use from multiple goroutines.
package observability
