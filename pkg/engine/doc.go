// Package engine serves stubs over HTTP and runs every exchange through the
// contract interceptor.
//
// # Request flow
//
//	client ──► Handler.ServeHTTP
//	             │
//	             ├─ /__contractmock/*  ──► admin routes (health, metrics, stubs, requests)
//	             │
//	             ├─ read body (MaxRequestBodySize, 413 when exceeded)
//	             ├─ StubTable.SelectBestMatch ──► candidate response
//	             │      (no match: 404 text candidate + near misses)
//	             ├─ transform.Transformer.Apply ──► final response
//	             ├─ wait for the stub delay (cancelled with the request)
//	             └─ write, then record in the Journal
//
// The engine package provides:
//   - StubTable: compiled stubs with score-based selection
//   - Handler: the HTTP handler tying table, fixtures and transformer together
//   - Journal: an in-memory ring of recent exchanges
//   - Server: listener lifecycle with graceful shutdown
package engine
