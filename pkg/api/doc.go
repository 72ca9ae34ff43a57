// Package api exposes assemblies over HTTP.
//
// The server keeps live assembly instances in memory, keyed by a generated
// ID. Each instance is guarded by its own mutex, so concurrent requests
// against one instance are serialised while different instances proceed in
// parallel. Persisted state goes through the runner's state store.
//
// # Routes
//
//	GET    /healthz
//	GET    /version
//	POST   /api/v1/reload
//	GET    /api/v1/parts
//	GET    /api/v1/parts/{part}
//	POST   /api/v1/instances
//	GET    /api/v1/instances
//	GET    /api/v1/instances/{id}
//	DELETE /api/v1/instances/{id}
//	GET    /api/v1/instances/{id}/fields
//	PATCH  /api/v1/instances/{id}/fields
//	PUT    /api/v1/instances/{id}/fields/{field}
//	GET    /api/v1/instances/{id}/state
//	POST   /api/v1/instances/{id}/save
//	GET    /api/v1/instances/{id}/mesh.stl
//	GET    /api/v1/instances/{id}/graph
//
// Errors are JSON objects with "error" and "code" members. The code is the
// [errors.Code] of the failure.
package api
