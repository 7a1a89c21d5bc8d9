// Package middleware holds the cross-cutting Gin handlers: CORS, request
// ids and access logging.
package middleware
