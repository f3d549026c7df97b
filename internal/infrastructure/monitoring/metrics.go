package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/GriffinCanCode/sortcall/internal/kernel/kmem"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Syscall metrics
	SyscallCalls    *prometheus.CounterVec
	SyscallDuration *prometheus.HistogramVec
	SyscallErrors   *prometheus.CounterVec
	SortElements    prometheus.Histogram

	// Arena metrics
	ArenaInUse        prometheus.Gauge
	ArenaLive         prometheus.Gauge
	ArenaFailedAllocs prometheus.Gauge
	ArenaDoubleFrees  prometheus.Gauge

	// Process metrics
	ProcessesActive prometheus.Gauge
	ProcessesTotal  prometheus.Counter

	// Heartbeat metrics
	HeartbeatTicks prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API
type MetricsSnapshot struct {
	TotalRequests     int64      `json:"total_requests"`
	TotalErrors       int64      `json:"total_errors"`
	TotalSyscalls     int64      `json:"total_syscalls"`
	FailedSyscalls    int64      `json:"failed_syscalls"`
	ActiveProcesses   int64      `json:"active_processes"`
	ActiveConnections int64      `json:"active_connections"`
	HeartbeatTicks    int64      `json:"heartbeat_ticks"`
	TotalDuration     float64    `json:"-"` // sum of all request durations
	RequestCount      int64      `json:"-"` // count for averaging
	AvgLatencyMS      float64    `json:"avg_latency_ms"`
	UptimeSeconds     float64    `json:"uptime_seconds"`
	Arena             kmem.Stats `json:"arena"`
}

// NewMetrics creates a metrics collector with its own registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sortcall_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sortcall_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sortcall_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sortcall_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Syscall metrics
		SyscallCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sortcall_syscalls_total",
				Help: "Total number of syscalls by name and returned status",
			},
			[]string{"syscall", "status"},
		),
		SyscallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sortcall_syscall_duration_seconds",
				Help:    "Syscall duration in seconds",
				Buckets: []float64{.00001, .0001, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"syscall"},
		),
		SyscallErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sortcall_syscall_dispatch_errors_total",
				Help: "Total number of syscalls that could not be dispatched",
			},
			[]string{"syscall", "error_type"},
		),
		SortElements: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sortcall_sort_elements",
				Help:    "Number of elements per sort_descending call",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
		),

		// Arena metrics
		ArenaInUse: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sortcall_arena_in_use_bytes",
				Help: "Bytes of service-owned memory currently allocated",
			},
		),
		ArenaLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sortcall_arena_live_blocks",
				Help: "Number of working buffers not yet released",
			},
		),
		ArenaFailedAllocs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sortcall_arena_failed_allocs",
				Help: "Allocations refused by the arena",
			},
		),
		ArenaDoubleFrees: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sortcall_arena_double_frees",
				Help: "Releases of blocks that were already released",
			},
		),

		// Process metrics
		ProcessesActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sortcall_processes_active",
				Help: "Number of processes in the table",
			},
		),
		ProcessesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sortcall_processes_spawned_total",
				Help: "Total number of processes spawned",
			},
		),

		// Heartbeat metrics
		HeartbeatTicks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sortcall_heartbeat_ticks_total",
				Help: "Total number of heartbeat ticks",
			},
		),

		// WebSocket metrics
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sortcall_ws_connections",
				Help: "Number of active WebSocket connections",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sortcall_ws_messages_total",
				Help: "Total number of WebSocket messages",
			},
			[]string{"direction", "type"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "sortcall_uptime_seconds",
			Help: "Service uptime in seconds",
		},
		m.Uptime,
	)

	return m
}

// Registry returns the registry all metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Uptime returns seconds since the collector was created.
func (m *Metrics) Uptime() float64 {
	return time.Since(m.startTime).Seconds()
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordSyscall records a dispatched syscall and the status it returned.
func (m *Metrics) RecordSyscall(name, status string, ok bool, duration time.Duration) {
	m.SyscallCalls.WithLabelValues(name, status).Inc()
	m.SyscallDuration.WithLabelValues(name).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalSyscalls++
	if !ok {
		m.snapshot.FailedSyscalls++
	}
	m.mu.Unlock()
}

// RecordSyscallError records a syscall that never reached its handler.
func (m *Metrics) RecordSyscallError(name, errorType string) {
	m.SyscallErrors.WithLabelValues(name, errorType).Inc()
}

// ObserveSortSize records the element count of one sort request.
func (m *Metrics) ObserveSortSize(count int) {
	m.SortElements.Observe(float64(count))
}

// SetArenaStats publishes the allocator accounting.
func (m *Metrics) SetArenaStats(s kmem.Stats) {
	m.ArenaInUse.Set(float64(s.InUse))
	m.ArenaLive.Set(float64(s.Live))
	m.ArenaFailedAllocs.Set(float64(s.FailedAllocs))
	m.ArenaDoubleFrees.Set(float64(s.DoubleFrees))

	m.mu.Lock()
	m.snapshot.Arena = s
	m.mu.Unlock()
}

// SetProcessesActive sets the number of live processes
func (m *Metrics) SetProcessesActive(count int) {
	m.ProcessesActive.Set(float64(count))
	m.mu.Lock()
	m.snapshot.ActiveProcesses = int64(count)
	m.mu.Unlock()
}

// IncProcessesTotal increments the spawned process counter
func (m *Metrics) IncProcessesTotal() {
	m.ProcessesTotal.Inc()
}

// IncHeartbeat records one heartbeat tick
func (m *Metrics) IncHeartbeat() {
	m.HeartbeatTicks.Inc()
	m.mu.Lock()
	m.snapshot.HeartbeatTicks++
	m.mu.Unlock()
}

// RecordWSMessage records a WebSocket message
func (m *Metrics) RecordWSMessage(direction, msgType string) {
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// IncWSConnections increments WebSocket connections
func (m *Metrics) IncWSConnections() {
	m.WSConnections.Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecWSConnections decrements WebSocket connections
func (m *Metrics) DecWSConnections() {
	m.WSConnections.Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current values for the JSON API.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	s := m.snapshot
	m.mu.RUnlock()

	if s.RequestCount > 0 {
		s.AvgLatencyMS = s.TotalDuration / float64(s.RequestCount) * 1000
	}
	s.UptimeSeconds = m.Uptime()
	return s
}
