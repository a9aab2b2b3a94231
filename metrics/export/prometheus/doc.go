// Package prometheus exposes the engine's in-process metrics as a
// prometheus.Collector.
//
// Register [Collector] on your own registry, or mount [Collector.Handler] which
// uses a private one. Counter names are portal_*_total; the one histogram is
// portal_gateway_latency_seconds.
//
// # What this package must NOT do
//
//   - Register anything on the global Prometheus registry.
//   - Mutate engine state.
package prometheus
