/*
Package monitoring provides performance monitoring and metrics collection.

# Overview

This package implements Prometheus-based metrics collection for the sortcall
service, tracking HTTP requests, syscalls, the service-owned arena, the
process table and the heartbeat.

# Features

- HTTP request metrics (latency, throughput, size)
- Syscall metrics by name and returned status
- Arena accounting (bytes in use, live blocks, refused allocations)
- Process and heartbeat counters
- WebSocket connection metrics

Each Metrics owns its registry, so several collectors can coexist in one
process.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "sort_descending")
	// ... run the call ...
	timer.Stop(status.String(), status.OK())
*/
package monitoring
