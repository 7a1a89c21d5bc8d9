/*
Package monitoring provides Prometheus metrics for the file manager.

# Overview

Metrics are registered on a per-instance registry so several servers (or
tests) can coexist in one process. The registry also carries the Go runtime
and process collectors.

# Metrics

  - filemanager_http_requests_total / _request_duration_seconds: per route template
  - filemanager_actions_total / _action_duration_seconds: per action and outcome
  - filemanager_auth_attempts_total: login results
  - filemanager_transfer_bytes_total: upload and download volume
  - filemanager_archive_operations_total: compress and extract by format
  - filemanager_sessions_active: live sessions, read on scrape

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "compress")
	// ... perform operation ...
	timer.Stop("success")
*/
package monitoring
