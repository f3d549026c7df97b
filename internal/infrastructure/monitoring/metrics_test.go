package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sortcall/internal/kernel/kmem"
)

func TestNewMetricsIndependentRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.IncHeartbeat()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.HeartbeatTicks))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.HeartbeatTicks))
}

func TestRecordSyscall(t *testing.T) {
	m := NewMetrics()

	m.RecordSyscall("sort_descending", "success", true, time.Millisecond)
	m.RecordSyscall("sort_descending", "invalid_argument", false, time.Millisecond)
	m.RecordSyscallError("unknown", "no_such_syscall")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyscallCalls.WithLabelValues("sort_descending", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyscallCalls.WithLabelValues("sort_descending", "invalid_argument")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyscallErrors.WithLabelValues("unknown", "no_such_syscall")))

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.TotalSyscalls)
	assert.Equal(t, int64(1), snap.FailedSyscalls)
}

func TestSetArenaStats(t *testing.T) {
	m := NewMetrics()
	m.SetArenaStats(kmem.Stats{Capacity: 4096, InUse: 256, Live: 1, FailedAllocs: 2})

	assert.Equal(t, 256.0, testutil.ToFloat64(m.ArenaInUse))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ArenaLive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ArenaFailedAllocs))
	assert.Equal(t, uint64(4096), m.Snapshot().Arena.Capacity)
}

func TestMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/processes/:pid", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	for _, path := range []string{"/processes/1000", "/processes/1001"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotFound, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/processes/:pid", "404")))
	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(2), snap.TotalErrors)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics()
	NewTimer(m, "sort_descending").Stop("success", true)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `sortcall_syscalls_total{status="success",syscall="sort_descending"} 1`)
	assert.Contains(t, w.Body.String(), "sortcall_uptime_seconds")
}

func TestWSConnectionsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.IncWSConnections()
	m.IncWSConnections()
	m.DecWSConnections()

	assert.Equal(t, int64(1), m.Snapshot().ActiveConnections)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSConnections))
}
