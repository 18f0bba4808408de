// Package metrics exposes the motor state as Prometheus metrics.
//
// Collector subscribes to controller changes; Serve publishes the registry
// over HTTP for read-only scraping.
package metrics
