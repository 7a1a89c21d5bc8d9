// Package http exposes the file manager's action protocol over Gin.
//
// Every request names exactly one action, either as the last path segment
// (/api/list) or as the action query parameter (/api?action=list). The
// dispatcher checks the session cookie before any non-public action runs,
// then answers with a JSON envelope whose success flag is always present.
// Failures carry the operator-facing message of the classified error and a
// status code derived from its kind.
//
// download is the one action that answers with a raw byte stream; logout
// answers with a redirect.
package http
