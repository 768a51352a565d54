package api

import (
	"github.com/noesis-forge/noesis/pkg/database"
	"github.com/noesis-forge/noesis/pkg/models"
	"github.com/noesis-forge/noesis/pkg/store"
)

// CancelResponse is returned by POST /api/v1/sessions/:id/cancel.
type CancelResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// DeleteResponse is returned by DELETE /api/v1/sessions/:id.
type DeleteResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// DirectiveResponse is returned by POST /api/v1/sessions/:id/research-directive.
type DirectiveResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string                 `json:"status"`
	Version  string                 `json:"version"`
	Database *database.HealthStatus `json:"database"`
}

// toSessionResponse projects the durable row into the detail payload. The
// history and snapshot blobs stay server-side.
func toSessionResponse(sess *store.Session) models.SessionResponse {
	return models.SessionResponse{
		ID:               sess.ID,
		Problem:          sess.Problem,
		CurrentPhase:     sess.CurrentPhase,
		CurrentRound:     sess.CurrentRound,
		Status:           sess.Status,
		Locale:           sess.Locale,
		LocaleConfidence: sess.LocaleConfidence,
		TokenUsage: models.TokenUsage{
			InputTokens:         sess.InputTokens,
			OutputTokens:        sess.OutputTokens,
			CacheCreationTokens: sess.CacheCreationTokens,
			CacheReadTokens:     sess.CacheReadTokens,
		},
		KnowledgeDocument: sess.KnowledgeDocument,
		CreatedAt:         sess.CreatedAt,
		ResolvedAt:        sess.ResolvedAt,
	}
}
