// Package server assembles the file manager: it builds the sandbox, the
// credential and session stores, the file and archive operations and the
// Gin router, then runs the HTTP server until its context ends.
package server
