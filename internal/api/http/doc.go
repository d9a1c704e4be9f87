// Package http provides the REST API for sessions, rendering and the catalog.
//
// Endpoints:
//   - Health: /, /health, /metrics, /metrics/json
//   - Catalog: /catalog, /catalog/prompt, /catalog/schema[?type=]
//   - Sessions: POST /sessions, GET /sessions, GET /sessions/:id,
//     POST /sessions/:id/generate, POST /sessions/:id/cancel,
//     POST /sessions/:id/clear, DELETE /sessions/:id
//   - Rendering: GET /sessions/:id/render?format=html|text[&width=][&fragment=true]
//
// Generations outlive the request that starts them unless "wait" is set.
// Rendered output comes from reconciling renderers kept per session, so
// repeated renders of a growing tree only rebuild what changed.
//
// Example Usage:
//
//	handlers := http.NewHandlers(sessions, metrics, breaker, logger)
//	handlers.Register(router)
package http
