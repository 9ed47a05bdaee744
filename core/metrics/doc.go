// Package metrics defines the Prometheus metrics of a preprocessing job.
//
// Metrics live in a registry owned by the job rather than the global default
// registry, so the status server exposes exactly the job's series and tests
// can create as many instances as they need.
//
// # Usage
//
//	m := metrics.NewMetrics()
//	m.Merges.WithLabelValues("tp", "complete-24").Inc()
package metrics
