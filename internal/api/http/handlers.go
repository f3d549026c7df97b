package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sortcall/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sortcall/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/sortcall/internal/kernel/heartbeat"
	"github.com/GriffinCanCode/sortcall/internal/kernel/proc"
	"github.com/GriffinCanCode/sortcall/internal/kernel/syscall"
	"github.com/GriffinCanCode/sortcall/internal/kernel/usermem"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	procs     *proc.Table
	disp      *syscall.Dispatcher
	heartbeat *heartbeat.Timer
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

// NewHandlers creates a new handler set. heartbeat may be nil; a nil metrics
// gets a private collector.
func NewHandlers(
	procs *proc.Table,
	disp *syscall.Dispatcher,
	hb *heartbeat.Timer,
	metrics *monitoring.Metrics,
	logger *zap.Logger,
) *Handlers {
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}
	return &Handlers{
		procs:     procs,
		disp:      disp,
		heartbeat: hb,
		metrics:   metrics,
		logger:    logging.OrNop(logger).Named("http"),
	}
}

// Register mounts every route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	procs := r.Group("/processes")
	procs.POST("", h.SpawnProcess)
	procs.GET("", h.ListProcesses)
	procs.DELETE("/:pid", h.KillProcess)
	procs.POST("/:pid/mmap", h.Mmap)
	procs.POST("/:pid/mprotect", h.Mprotect)
	procs.PUT("/:pid/memory/:addr", h.StoreMemory)
	procs.GET("/:pid/memory/:addr", h.LoadMemory)

	r.GET("/syscalls", h.ListSyscalls)
	r.POST("/syscalls", h.ExecuteSyscall)
	r.POST("/sort", h.Sort)

	r.GET("/metrics/json", h.MetricsJSON)
	r.GET("/heartbeat", h.HeartbeatStatus)
	r.GET("/heartbeat/stream", h.HeartbeatStream)
}

// Health returns service health status
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"processes": h.procs.Len(),
		"arena":     h.disp.ArenaStats(),
		"heartbeat": gin.H{"running": h.heartbeat != nil && h.heartbeat.Running()},
	})
}

// fail answers with the status code matching err.
func (h *Handlers) fail(c *gin.Context, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(code, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   msg,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, proc.ErrNoSuchProcess), errors.Is(err, syscall.ErrNoSuchSyscall):
		return http.StatusNotFound
	case errors.Is(err, syscall.ErrArgCount),
		errors.Is(err, usermem.ErrFault),
		errors.Is(err, usermem.ErrInvalidMapping):
		return http.StatusBadRequest
	case errors.Is(err, usermem.ErrNoMemory):
		return http.StatusConflict
	case errors.Is(err, proc.ErrTableFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func parsePID(c *gin.Context) (uint32, bool) {
	pid, err := strconv.ParseUint(c.Param("pid"), 10, 32)
	if err != nil {
		badRequest(c, "Invalid pid: "+c.Param("pid"))
		return 0, false
	}
	return uint32(pid), true
}

func parseAddr(c *gin.Context) (usermem.Addr, bool) {
	addr, err := strconv.ParseUint(c.Param("addr"), 0, 64)
	if err != nil {
		badRequest(c, "Invalid address: "+c.Param("addr"))
		return 0, false
	}
	return usermem.Addr(addr), true
}

func (h *Handlers) process(c *gin.Context) (*proc.Process, bool) {
	pid, ok := parsePID(c)
	if !ok {
		return nil, false
	}
	p, err := h.procs.Get(pid)
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return p, true
}
