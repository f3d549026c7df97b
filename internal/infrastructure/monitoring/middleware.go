package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Middleware creates a Gin middleware for metrics collection
func Middleware(metrics *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		method := c.Request.Method

		// Route templates keep label cardinality bounded
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		// Get request size
		reqSize := c.Request.ContentLength
		if reqSize < 0 {
			reqSize = 0
		}

		// Process request
		c.Next()

		// Get response data
		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		respSize := int64(c.Writer.Size())
		if respSize < 0 {
			respSize = 0
		}

		// Record metrics
		metrics.RecordHTTPRequest(method, path, status, duration, reqSize, respSize)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry:          m.registry,
		EnableOpenMetrics: true,
	})
}

// Timer measures syscall duration
type Timer struct {
	start   time.Time
	metrics *Metrics
	syscall string
}

// NewTimer creates a new timer
func NewTimer(metrics *Metrics, syscall string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		syscall: syscall,
	}
}

// Stop stops the timer and records the duration with the returned status
func (t *Timer) Stop(status string, ok bool) time.Duration {
	duration := time.Since(t.start)
	if t.metrics != nil {
		t.metrics.RecordSyscall(t.syscall, status, ok, duration)
	}
	return duration
}
