// Package main is the entry point for the file manager backend.
//
// The server exposes one sandboxed directory tree over the action protocol
// at /api. All state except sessions lives on disk: the tree itself and the
// credential file.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Serve ./data on :8080
//	./server
//
//	# Serve another tree with coloured debug logs
//	./server --root /srv/files --port 9000 --dev
//
//	# Rotate a password offline
//	echo 'new-secret' | ./server passwd admin
//
// On first start a default admin account is created with the placeholder
// password "admin". Change it immediately.
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
