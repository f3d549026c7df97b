package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MetricsJSON returns a JSON snapshot of service metrics
func (h *Handlers) MetricsJSON(c *gin.Context) {
	h.metrics.SetArenaStats(h.disp.ArenaStats())
	h.metrics.SetProcessesActive(h.procs.Len())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"metrics": h.metrics.Snapshot(),
	})
}
