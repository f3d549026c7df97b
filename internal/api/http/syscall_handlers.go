package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/sortcall/internal/kernel/sortcall"
	"github.com/GriffinCanCode/sortcall/internal/kernel/syscall"
	"github.com/GriffinCanCode/sortcall/internal/kernel/usermem"
	"github.com/GriffinCanCode/sortcall/internal/shared/utils"
)

// ListSyscalls lists the registered syscalls
func (h *Handlers) ListSyscalls(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"syscalls": h.disp.Syscalls(),
	})
}

// ExecuteSyscall runs a syscall on behalf of a process
func (h *Handlers) ExecuteSyscall(c *gin.Context) {
	var req struct {
		PID  uint32  `json:"pid" binding:"required"`
		Nr   int     `json:"nr" binding:"required"`
		Args []int64 `json:"args"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	res, err := h.disp.Execute(c.Request.Context(), req.PID, syscall.Number(req.Nr), req.Args)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"call_id": res.CallID,
		"ret":     res.Ret,
		"status":  res.Status,
	})
}

// Sort runs sort_descending over values in a short-lived process: spawn,
// map, store, call, load, kill.
func (h *Handlers) Sort(c *gin.Context) {
	var req struct {
		Values []int32 `json:"values" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := utils.ValidateValueCount(len(req.Values), utils.MaxValuesPerSort); err != nil {
		badRequest(c, err.Error())
		return
	}

	p, err := h.procs.Spawn("sort-" + strconv.Itoa(len(req.Values)))
	if err != nil {
		h.fail(c, err)
		return
	}
	h.metrics.IncProcessesTotal()
	defer func() {
		if err := h.procs.Kill(p.PID); err != nil {
			h.logger.Warn("failed to reap sort process", zap.Uint32("pid", p.PID), zap.Error(err))
		}
	}()

	length := max(uint64(len(req.Values))*usermem.WordSize, usermem.WordSize)
	addr, err := p.Space.Map(length, usermem.ProtReadWrite)
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := p.Space.Store(addr, req.Values); err != nil {
		h.fail(c, err)
		return
	}

	args := []int64{int64(addr), int64(len(req.Values))}
	res, err := h.disp.Execute(c.Request.Context(), p.PID, syscall.SysSortDescending, args)
	if err != nil {
		h.fail(c, err)
		return
	}

	values, err := p.Space.Load(addr, len(req.Values))
	if err != nil {
		h.fail(c, err)
		return
	}

	status, _ := sortcall.StatusFromCode(res.Ret)
	c.JSON(http.StatusOK, gin.H{
		"success": status.OK(),
		"call_id": res.CallID,
		"ret":     res.Ret,
		"status":  res.Status,
		"values":  values,
	})
}
