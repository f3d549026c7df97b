package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sortcall/internal/infrastructure/logging"
	"github.com/GriffinCanCode/sortcall/internal/kernel/usermem"
	"github.com/GriffinCanCode/sortcall/internal/shared/utils"
)

// SpawnProcess registers a new process with an empty address space
func (h *Handlers) SpawnProcess(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateProcessName(req.Name); err != nil {
		badRequest(c, err.Error())
		return
	}

	p, err := h.procs.Spawn(req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.IncProcessesTotal()
	h.metrics.SetProcessesActive(h.procs.Len())
	h.logger.Debug("process spawned", logging.PID(p.PID), zap.String("name", p.Name))

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"pid":         p.PID,
		"instance_id": p.InstanceID.String(),
	})
}

// ListProcesses lists all live processes
func (h *Handlers) ListProcesses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"processes": h.procs.List(),
	})
}

// KillProcess removes a process and unmaps its memory
func (h *Handlers) KillProcess(c *gin.Context) {
	pid, ok := parsePID(c)
	if !ok {
		return
	}
	if err := h.procs.Kill(pid); err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.SetProcessesActive(h.procs.Len())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"pid":     pid,
	})
}

// Mmap maps a new region into a process
func (h *Handlers) Mmap(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}

	var req struct {
		Length uint64 `json:"length" binding:"required"`
		Prot   string `json:"prot"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	prot := usermem.ProtReadWrite
	if req.Prot != "" {
		var err error
		if prot, err = usermem.ParseProt(req.Prot); err != nil {
			h.fail(c, err)
			return
		}
	}

	addr, err := p.Space.Map(req.Length, prot)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"addr":     uint64(addr),
		"addr_hex": addr.String(),
		"prot":     prot.String(),
	})
}

// Mprotect changes the protection of an existing mapping
func (h *Handlers) Mprotect(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}

	var req struct {
		Addr uint64 `json:"addr" binding:"required"`
		Prot string `json:"prot"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	prot, err := usermem.ParseProt(req.Prot)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := p.Space.Protect(usermem.Addr(req.Addr), prot); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"prot":    prot.String(),
	})
}

// StoreMemory writes values into the process's own memory
func (h *Handlers) StoreMemory(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}
	addr, ok := parseAddr(c)
	if !ok {
		return
	}

	var req struct {
		Values []int32 `json:"values" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateValueCount(len(req.Values), utils.MaxValuesPerStore); err != nil {
		badRequest(c, err.Error())
		return
	}
	if err := p.Space.Store(addr, req.Values); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(req.Values),
	})
}

// LoadMemory reads count values from the process's own memory
func (h *Handlers) LoadMemory(c *gin.Context) {
	p, ok := h.process(c)
	if !ok {
		return
	}
	addr, ok := parseAddr(c)
	if !ok {
		return
	}
	count, err := strconv.Atoi(c.Query("count"))
	if err != nil || count < 0 {
		badRequest(c, "Invalid count: "+c.Query("count"))
		return
	}

	values, err := p.Space.Load(addr, count)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"values":  values,
	})
}
