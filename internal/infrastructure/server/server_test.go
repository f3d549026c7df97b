package server

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/sortcall/internal/infrastructure/config"
	"github.com/GriffinCanCode/sortcall/internal/infrastructure/logging"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Heartbeat.IntervalMS = 5
	return cfg
}

func TestNewServerRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Kernel.ArenaBytes = 0

	_, err := NewServer(cfg, logging.NewNop())
	assert.Error(t, err)
}

func TestServerRoutes(t *testing.T) {
	srv, err := NewServer(testConfig(), logging.NewNop())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	body, _ := json.Marshal(map[string][]int32{"values": {2, 9, 4}})
	req := httptest.NewRequest(http.MethodPost, "/sort", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Values []int32 `json:"values"`
		Status string  `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, []int32{9, 4, 2}, res.Values)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `sortcall_syscalls_total{status="success",syscall="sort_descending"} 1`)
}

func TestServerCompressesResponses(t *testing.T) {
	srv, err := NewServer(testConfig(), logging.NewNop())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(plain), "sortcall_uptime_seconds")
}

func TestServeAndShutdown(t *testing.T) {
	srv, err := NewServer(testConfig(), logging.NewNop())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(context.Background(), ln) }()

	url := "http://" + ln.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return srv.heartbeat.Count() > 0
	}, 2*time.Second, 5*time.Millisecond)

	_, err = srv.procs.Spawn("leftover")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	require.NoError(t, <-errCh)

	assert.False(t, srv.heartbeat.Running())
	assert.Zero(t, srv.procs.Len())
}
