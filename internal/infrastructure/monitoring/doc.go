/*
Package monitoring provides Prometheus metrics for the server.

# Overview

Each Metrics value owns a private registry with the Go and process
collectors plus the server's own series:

- HTTP request metrics (latency, throughput, size) by route pattern
- Patches applied, and rejections by diagnostic kind
- Generations started and finished by terminal state, with durations
- Render duration and node outcomes (rendered, reused, skipped)
- WebSocket connections and messages
- Uptime

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	metrics.RecordPatchApplied()
	metrics.RecordGenerationFinished("complete", time.Since(start))
*/
package monitoring
