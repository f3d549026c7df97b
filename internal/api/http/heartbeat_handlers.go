package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	wsWriteWait  = 5 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS middleware governs browser access
	},
}

// HeartbeatStatus reports the timer state
func (h *Handlers) HeartbeatStatus(c *gin.Context) {
	if h.heartbeat == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "running": false, "count": 0})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"running":     h.heartbeat.Running(),
		"count":       h.heartbeat.Count(),
		"interval_ms": h.heartbeat.Interval().Milliseconds(),
	})
}

// HeartbeatStream pushes every heartbeat tick over a WebSocket
func (h *Handlers) HeartbeatStream(c *gin.Context) {
	if h.heartbeat == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "heartbeat disabled",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	ticks, unsubscribe := h.heartbeat.Subscribe(16)
	defer unsubscribe()

	// Reader drains control frames and notices the client leaving
	closed := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			h.metrics.RecordWSMessage("in", "client")
		}
	}()

	if err := h.send(conn, gin.H{
		"type":        "system",
		"count":       h.heartbeat.Count(),
		"interval_ms": h.heartbeat.Interval().Milliseconds(),
	}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-closed:
			return
		case n, ok := <-ticks:
			if !ok {
				// Timer stopped
				msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "heartbeat stopped")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
				return
			}
			if err := h.send(conn, gin.H{
				"type":      "tick",
				"count":     n,
				"timestamp": time.Now().Unix(),
			}); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handlers) send(conn *websocket.Conn, msg gin.H) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	if err := conn.WriteJSON(msg); err != nil {
		h.logger.Debug("websocket write failed", zap.Error(err))
		return err
	}
	if t, ok := msg["type"].(string); ok {
		h.metrics.RecordWSMessage("out", t)
	}
	return nil
}
