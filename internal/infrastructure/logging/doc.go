// Package logging provides structured logging using uber/zap.
//
// Two output modes:
//   - Production: JSON lines for machine parsing
//   - Development: coloured console output with debug level
//
// Components receive a *zap.Logger and add their own fields; the HTTP layer
// attaches a request id to every access log line.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	defer logger.Sync()
//	logger.Info("Server starting", zap.String("addr", ":8080"))
package logging
