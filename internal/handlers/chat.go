package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/assistant"
	"storefront/internal/logging"
	"storefront/internal/metrics"
)

type chatRequest struct {
	Messages []assistant.Message `json:"messages" binding:"required,min=1,max=50,dive"`
}

// Chat runs one assistant turn. The responder is fixed at startup.
func Chat(responder assistant.Responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/chat"
		defer handlePanic(c, route)

		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		reply, err := responder.Respond(c.Request.Context(), req.Messages)
		if err != nil {
			metrics.ChatRequests.WithLabelValues(responder.Mode(), "error").Inc()
			respondServerError(c, route, err, "the assistant could not answer right now")
			return
		}

		metrics.ChatRequests.WithLabelValues(reply.Mode, "ok").Inc()
		logging.Debug().Str("route", route).Str("mode", reply.Mode).Int("tool_results", len(reply.ToolResults)).Msg("chat answered")
		c.JSON(http.StatusOK, reply)
	}
}
