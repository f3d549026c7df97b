// Package middleware provides the Gin middleware shared by the HTTP API:
// CORS, request body limits, and per-IP or global rate limiting.
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.BodyLimit(utils.MaxJSONSize))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
