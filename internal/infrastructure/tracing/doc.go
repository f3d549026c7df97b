/*
Package tracing provides lightweight request tracing for debugging
production issues.

# Overview

Spans are created per HTTP request and per syscall, linked by trace and
parent span ids, and logged through zap when they finish. It follows
OpenTelemetry concepts with a minimal implementation.

# Features

- Trace context propagation via HTTP headers
- Span creation with parent-child relationships
- ULID trace and span ids (see package id)
- Gin middleware for automatic instrumentation
- Buffered span collection

# Usage

	tracer := tracing.New("sortcall", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "sort_descending")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

	span.SetTag("pid", "1000")
	span.Log("copied_in", map[string]interface{}{"bytes": 1024})

# Trace Format

- X-Trace-ID: Unique identifier for entire request flow
- X-Span-ID: Identifier for current operation
*/
package tracing
