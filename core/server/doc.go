// Package server provides the optional HTTP status server of a running job.
//
// Batch nodes usually run the job without it. When an address is configured
// the coordinator starts it to expose:
//
//   - GET /health: liveness.
//   - GET /status: coordinator state and received reports, optionally
//     protected by an API key in the X-API-Key header.
//   - GET /metrics: the job's Prometheus registry.
//
// # Usage
//
//	srv := server.New(cfg.Server, coordinator, m.Registry, logger)
//	srv.Start()
//	defer srv.Shutdown()
package server
