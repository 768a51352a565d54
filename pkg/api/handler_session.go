package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/models"
)

// createSessionHandler handles POST /api/v1/sessions.
func (s *Server) createSessionHandler(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeValidationError, "invalid request body", nil)
		return
	}

	sess, err := s.sessions.Create(c.Request.Context(), req.Problem)
	if err != nil {
		mapServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.SessionCreatedResponse{
		ID:      sess.ID,
		Problem: sess.Problem,
		Status:  sess.Status,
	})
}

// listSessionsHandler handles GET /api/v1/sessions.
func (s *Server) listSessionsHandler(c *gin.Context) {
	var f models.SessionFilters

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			writeError(c, http.StatusBadRequest, codeValidationError,
				"limit must be an integer between 1 and 100", nil)
			return
		}
		f.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(c, http.StatusBadRequest, codeValidationError,
				"offset must be a non-negative integer", nil)
			return
		}
		f.Offset = n
	}
	if v := c.Query("status"); v != "" {
		if !forge.SessionStatus(v).IsValid() {
			writeError(c, http.StatusBadRequest, codeValidationError,
				"invalid status: "+v, nil)
			return
		}
		f.Status = v
	}

	result, err := s.sessions.List(c.Request.Context(), f)
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// getSessionHandler handles GET /api/v1/sessions/:id.
func (s *Server) getSessionHandler(c *gin.Context) {
	sess, err := s.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

// cancelSessionHandler handles POST /api/v1/sessions/:id/cancel.
func (s *Server) cancelSessionHandler(c *gin.Context) {
	id := c.Param("id")
	if err := s.sessions.Cancel(c.Request.Context(), id); err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, CancelResponse{
		SessionID: id,
		Message:   "Session cancellation requested",
	})
}

// deleteSessionHandler handles DELETE /api/v1/sessions/:id. The cascade
// runs in the background, so the response is an acknowledgement.
func (s *Server) deleteSessionHandler(c *gin.Context) {
	id := c.Param("id")
	if err := s.sessions.Delete(c.Request.Context(), id); err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, DeleteResponse{
		SessionID: id,
		Message:   "Session deletion scheduled",
	})
}

// graphHandler handles GET /api/v1/sessions/:id/graph.
func (s *Server) graphHandler(c *gin.Context) {
	graph, err := s.sessions.Graph(c.Request.Context(), c.Param("id"))
	if err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, graph)
}

// researchDirectiveHandler handles POST /api/v1/sessions/:id/research-directive.
func (s *Server) researchDirectiveHandler(c *gin.Context) {
	var req models.ResearchDirectiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeValidationError, "invalid request body", nil)
		return
	}

	id := c.Param("id")
	if err := s.sessions.AddResearchDirective(c.Request.Context(), id, req); err != nil {
		mapServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, DirectiveResponse{
		SessionID: id,
		Message:   "Research directive queued for the next turn",
	})
}
