package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/GriffinCanCode/sortcall/internal/api/http"
	"github.com/GriffinCanCode/sortcall/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/sortcall/internal/kernel/kmem"
	"github.com/GriffinCanCode/sortcall/internal/kernel/proc"
	"github.com/GriffinCanCode/sortcall/internal/kernel/syscall"
)

func newService(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	procs := proc.NewTable(1<<20, 0)
	disp := syscall.NewDispatcher(procs, kmem.NewArena(1<<20), syscall.Options{})
	router := gin.New()
	api.NewHandlers(procs, disp, nil, nil, nil).Register(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func fastConfig(url string) Config {
	cfg := DefaultConfig(url)
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	return cfg
}

func TestRoundTrip(t *testing.T) {
	c := New(fastConfig(newService(t).URL))
	ctx := context.Background()

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)

	p, err := c.Spawn(ctx, "driver")
	require.NoError(t, err)
	assert.Equal(t, proc.FirstPID, p.PID)
	assert.NotEmpty(t, p.InstanceID)

	addr, err := c.Mmap(ctx, p.PID, 16, "rw")
	require.NoError(t, err)
	require.NoError(t, c.Store(ctx, p.PID, addr, []int32{1, 3, 2, 4}))

	res, err := c.Syscall(ctx, p.PID, int(syscall.SysSortDescending), int64(addr), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Ret)
	assert.NotEmpty(t, res.CallID)

	got, err := c.Load(ctx, p.PID, addr, 4)
	require.NoError(t, err)
	assert.Equal(t, []int32{4, 3, 2, 1}, got)

	// Failing status is data, not an error
	res, err = c.Syscall(ctx, p.PID, int(syscall.SysSortDescending), 0, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(22), res.Ret)

	require.NoError(t, c.Mprotect(ctx, p.PID, addr, "r"))
	res, err = c.Syscall(ctx, p.PID, int(syscall.SysSortDescending), int64(addr), 4)
	require.NoError(t, err)
	assert.Equal(t, int64(136), res.Ret)

	require.NoError(t, c.Kill(ctx, p.PID))
	err = c.Kill(ctx, p.PID)
	assert.True(t, IsNotFound(err))
}

func TestSort(t *testing.T) {
	c := New(fastConfig(newService(t).URL))

	res, err := c.Sort(context.Background(), []int32{7, -1, 7, 30})
	require.NoError(t, err)
	assert.Equal(t, "success", res.Status)
	assert.Equal(t, []int32{30, 7, 7, -1}, res.Values)

	res, err = c.Sort(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Ret)
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	cfg := fastConfig(newService(t).URL)
	cfg.BreakerFailures = 2
	c := New(cfg)

	for i := 0; i < 5; i++ {
		_, err := c.Syscall(context.Background(), 1, 333, 0, 0)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	}
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"healthy","processes":0}`))
	}))
	defer srv.Close()

	h, err := New(fastConfig(srv.URL)).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"boom"}`))
	}))
	defer srv.Close()

	cfg := fastConfig(srv.URL)
	cfg.RetryMax = 0
	cfg.BreakerFailures = 2
	c := New(cfg)

	for i := 0; i < 2; i++ {
		_, err := c.Health(context.Background())
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "boom", apiErr.Message)
	}

	_, err := c.Health(context.Background())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, resilience.StateOpen, c.BreakerState())
	assert.Equal(t, int32(2), calls.Load())
}

func TestRateLimitHonorsContext(t *testing.T) {
	cfg := fastConfig(newService(t).URL)
	cfg.RateLimit = 0.001
	cfg.Burst = 1
	c := New(cfg)

	_, err := c.Health(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = c.Health(ctx)
	assert.Error(t, err)
}
