// Package middleware provides the HTTP middleware stack of the API.
//
// Middleware stack includes:
//   - CORS: Cross-origin resource sharing, websockets allowed
//   - RateLimit: Per-IP token bucket rate limiting with idle client cleanup
//   - GlobalRateLimit: One token bucket for all clients
//   - RequestID: req_ ULID per request, echoed in X-Request-ID
//   - Logger and Recovery: zap request logging and panic recovery
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Logger(logger), middleware.Recovery(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
