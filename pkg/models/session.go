package models

import "time"

// CreateSessionRequest starts a new knowledge session from a problem statement.
type CreateSessionRequest struct {
	Problem string `json:"problem"`
}

// SessionCreatedResponse is the 201 payload for session creation.
type SessionCreatedResponse struct {
	ID      string `json:"id"`
	Problem string `json:"problem"`
	Status  string `json:"status"`
}

// TokenUsage reports cumulative token counters for a session.
type TokenUsage struct {
	InputTokens         int64 `json:"input_tokens"`
	OutputTokens        int64 `json:"output_tokens"`
	CacheCreationTokens int64 `json:"cache_creation_tokens"`
	CacheReadTokens     int64 `json:"cache_read_tokens"`
}

// SessionResponse is the full session detail payload.
type SessionResponse struct {
	ID                string     `json:"id"`
	Problem           string     `json:"problem"`
	CurrentPhase      string     `json:"current_phase"`
	CurrentRound      int        `json:"current_round"`
	Status            string     `json:"status"`
	Locale            string     `json:"locale"`
	LocaleConfidence  float64    `json:"locale_confidence"`
	TokenUsage        TokenUsage `json:"token_usage"`
	KnowledgeDocument string     `json:"knowledge_document,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

// SessionSummary is the list-item payload; the knowledge document is
// omitted to keep list responses small.
type SessionSummary struct {
	ID           string     `json:"id"`
	Problem      string     `json:"problem"`
	CurrentPhase string     `json:"current_phase"`
	CurrentRound int        `json:"current_round"`
	Status       string     `json:"status"`
	Locale       string     `json:"locale"`
	TokenUsage   TokenUsage `json:"token_usage"`
	CreatedAt    time.Time  `json:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
}

// SessionFilters contains filtering options for listing sessions.
type SessionFilters struct {
	Status string `json:"status,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// SessionListResponse contains a paginated session list.
type SessionListResponse struct {
	Sessions   []SessionSummary `json:"sessions"`
	TotalCount int64            `json:"total_count"`
	Limit      int              `json:"limit"`
	Offset     int              `json:"offset"`
}

// ResearchDirectiveRequest enqueues a user-steering hint for the next
// agent turn.
type ResearchDirectiveRequest struct {
	DirectiveType string `json:"directive_type,omitempty"` // defaults to "search"
	Query         string `json:"query"`
	Domain        string `json:"domain,omitempty"`
}
