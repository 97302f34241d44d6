package events

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"storefront/internal/logging"
)

const DefaultHeartbeat = 15 * time.Second

// Stream serves the server-sent event feed. The subscriber lives exactly as
// long as the request.
func Stream(bus *Bus, heartbeat time.Duration) gin.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return func(c *gin.Context) {
		w := c.Writer
		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		sub := bus.Subscribe()
		defer bus.Unsubscribe(sub)

		if _, err := io.WriteString(w, ": connected\n\n"); err != nil {
			return
		}
		w.Flush()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		ctx := c.Request.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case frame, ok := <-sub.C:
				if !ok {
					return
				}
				if err := sse.Encode(w, frame); err != nil {
					logging.Debug().Err(err).Str("subscriber", sub.ID).Msg("event write failed")
					return
				}
				w.Flush()
			case <-ticker.C:
				if _, err := io.WriteString(w, ": heartbeat\n\n"); err != nil {
					return
				}
				w.Flush()
			}
		}
	}
}

type activityRequest struct {
	Type string      `json:"type" binding:"required,max=100"`
	Data interface{} `json:"data"`
}

// Activity publishes a caller-supplied event to every subscriber.
func Activity(bus *Bus) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req activityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type is required"})
			return
		}

		delivered, err := bus.Broadcast(c.Request.Context(), Event{Type: req.Type, Data: req.Data})
		if err != nil {
			logging.Error().Err(err).Str("route", "POST /api/activity").Msg("broadcast failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "broadcast failed"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"ok": true, "delivered": delivered})
	}
}
