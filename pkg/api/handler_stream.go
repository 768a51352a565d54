package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noesis-forge/noesis/pkg/events"
	"github.com/noesis-forge/noesis/pkg/models"
)

// streamSessionHandler handles GET /api/v1/sessions/:id/stream. It starts
// the session's first agent turn and streams its events over SSE until the
// turn finishes or the client disconnects.
func (s *Server) streamSessionHandler(c *gin.Context) {
	ch, err := s.sessions.Stream(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	serveSSE(c, ch)
}

// userInputHandler handles POST /api/v1/sessions/:id/user-input. It resumes
// a paused session with the submitted input and streams the continuation
// turn over SSE.
func (s *Server) userInputHandler(c *gin.Context) {
	var input models.UserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		writeError(c, http.StatusBadRequest, codeValidationError, "invalid request body", nil)
		return
	}

	ch, err := s.sessions.SubmitInput(c.Request.Context(), c.Param("id"), &input)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	serveSSE(c, ch)
}

// serveSSE writes every event from ch as an SSE data frame, flushing after
// each one. It drains until the channel closes; when the client goes away
// the request context cancels the turn and the runner closes the channel.
func serveSSE(c *gin.Context, ch <-chan events.Event) {
	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	for ev := range ch {
		payload, err := json.Marshal(ev)
		if err != nil {
			slog.Error("Failed to marshal stream event", "type", ev.Type, "error", err)
			continue
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
		c.Writer.Flush()
	}
}
