// Package metrics exposes Prometheus metrics for the contract mock server.
//
// A Registry owns its own prometheus.Registry so several servers (and tests)
// can run in one process without colliding on metric names.
//
// # Metrics
//
//   - contractmock_requests_total: responses written (labels: method, status)
//   - contractmock_request_duration_seconds: time to final response, delay included (labels: method)
//   - contractmock_exchange_outcomes_total: contract interceptor results (labels: outcome)
//   - contractmock_stub_matches_total: stub hits (labels: stub)
//   - contractmock_stub_misses_total: requests no stub matched
//   - contractmock_stubs_loaded: stubs in the table
//
// Go runtime and process collectors are registered as well.
//
// # Usage
//
//	reg := metrics.NewRegistry()
//	reg.ObserveOutcome("passed")
//	mux.Handle("/__contractmock/metrics", reg.Handler())
//
// All record methods are safe on a nil *Registry, which disables metrics.
package metrics
