package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noesis-forge/noesis/pkg/agent/runner"
	"github.com/noesis-forge/noesis/pkg/agent/tools"
	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/metrics"
	"github.com/noesis-forge/noesis/pkg/models"
	"github.com/noesis-forge/noesis/pkg/store"
)

const (
	minProblemLen = 10
	maxProblemLen = 10000

	// localeMinConfidence gates locale detection at creation. Below it the
	// session runs in English rather than a guessed language.
	localeMinConfidence = 0.5

	// eventBuffer sizes the per-turn event channel so the agent is not
	// stalled by a slow SSE consumer on every delta.
	eventBuffer = 256

	// deleteTimeout bounds the background cascade delete.
	deleteTimeout = 30 * time.Second

	defaultListLimit = 50
)

// SessionStore is the durable session access the service needs. *store.Store
// satisfies it.
type SessionStore interface {
	CreateSession(ctx context.Context, sess *store.Session) error
	GetSession(ctx context.Context, id string) (*store.Session, error)
	ListSessions(ctx context.Context, f store.ListFilter) ([]store.Session, int64, error)
	UpdateSessionStatus(ctx context.Context, id, status string, markResolved bool) error
	DeleteSession(ctx context.Context, id string) error
	ListClaimsBySession(ctx context.Context, sessionID string) ([]store.Claim, error)
	ListClaimEdgesBySession(ctx context.Context, sessionID string) ([]store.ClaimEdge, error)
}

// Config wires a SessionService.
type Config struct {
	Store    SessionStore
	Runner   *runner.Runner
	Research tools.Researcher

	// Detector identifies the problem statement's language at creation.
	// Nil disables detection and every session runs in English.
	Detector runner.LangDetector

	// MaxRounds caps dialectical rounds for new sessions. Zero or negative
	// falls back to the engine default.
	MaxRounds int
}

// SessionService owns session lifecycle and turn orchestration: creation,
// listing, cancellation, deletion, the knowledge graph projection, and
// starting agent turns with single-flight admission per session.
type SessionService struct {
	store     SessionStore
	runner    *runner.Runner
	research  tools.Researcher
	detector  runner.LangDetector
	maxRounds int

	mu      sync.Mutex
	entries map[string]*StateEntry
}

// NewSessionService creates a new session service.
func NewSessionService(cfg Config) *SessionService {
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = forge.DefaultMaxRounds
	}
	return &SessionService{
		store:     cfg.Store,
		runner:    cfg.Runner,
		research:  cfg.Research,
		detector:  cfg.Detector,
		maxRounds: maxRounds,
		entries:   make(map[string]*StateEntry),
	}
}

// Create registers a new session for a problem statement. The statement's
// language is detected here so every later turn renders into the same
// locale.
func (s *SessionService) Create(ctx context.Context, problem string) (*store.Session, error) {
	problem = strings.TrimSpace(problem)
	if n := utf8.RuneCountInString(problem); n < minProblemLen || n > maxProblemLen {
		return nil, NewValidationError("problem",
			fmt.Sprintf("must be between %d and %d characters", minProblemLen, maxProblemLen))
	}

	locale := forge.LocaleEnglish
	confidence := 0.0
	if s.detector != nil {
		detected, c := s.detector.Detect(problem)
		confidence = c
		if c >= localeMinConfidence {
			locale = detected
		}
	}

	sess := &store.Session{
		ID:               uuid.New().String(),
		Problem:          problem,
		Locale:           string(locale),
		LocaleConfidence: confidence,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	st := forge.NewState(locale, confidence)
	st.MaxRounds = s.maxRounds
	s.mu.Lock()
	s.entries[sess.ID] = &StateEntry{state: st}
	s.mu.Unlock()

	metrics.SessionsCreated.WithLabelValues(string(locale)).Inc()
	slog.Info("Session created",
		"session_id", sess.ID,
		"locale", locale,
		"locale_confidence", confidence)
	return sess, nil
}

// Get returns a session by ID.
func (s *SessionService) Get(ctx context.Context, id string) (*store.Session, error) {
	return s.getSession(ctx, id)
}

// List returns a page of session summaries, newest first.
func (s *SessionService) List(ctx context.Context, f models.SessionFilters) (*models.SessionListResponse, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	sessions, total, err := s.store.ListSessions(ctx, store.ListFilter{
		Status: f.Status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	resp := &models.SessionListResponse{
		Sessions:   make([]models.SessionSummary, 0, len(sessions)),
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	}
	for i := range sessions {
		resp.Sessions = append(resp.Sessions, toSummary(&sessions[i]))
	}
	return resp, nil
}

// Cancel stops a session. A live turn is interrupted at its next checkpoint
// and commits the cancelled status itself; otherwise the status is written
// here.
func (s *SessionService) Cancel(ctx context.Context, id string) error {
	sess, err := s.getSession(ctx, id)
	if err != nil {
		return err
	}
	if forge.SessionStatus(sess.Status).IsTerminal() {
		return ErrNotCancellable
	}

	s.mu.Lock()
	entry := s.entries[id]
	var cancelTurn func()
	if entry != nil {
		cancelTurn = entry.cancelTurn
	}
	s.mu.Unlock()

	if entry != nil {
		// Flag first so a runner between checkpoints sees it before the
		// context fires.
		entry.state.Cancelled.Store(true)
	}
	if cancelTurn != nil {
		cancelTurn()
		slog.Info("Session cancel requested mid-turn", "session_id", id)
		return nil
	}

	if err := s.store.UpdateSessionStatus(ctx, id, string(forge.StatusCancelled), false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to cancel session: %w", err)
	}
	metrics.SessionsClosed.WithLabelValues(string(forge.StatusCancelled)).Inc()
	slog.Info("Session cancelled", "session_id", id)
	return nil
}

// Delete removes a session and everything hanging off it. The cascade runs
// in the background after any live turn unwinds; the caller gets an
// immediate acknowledgement.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if _, err := s.getSession(ctx, id); err != nil {
		return err
	}

	entry, cancelTurn := s.evict(id)
	if entry != nil {
		entry.state.Cancelled.Store(true)
	}
	if cancelTurn != nil {
		cancelTurn()
	}

	go func() {
		if entry != nil {
			// Take the run lock so the cascade waits for the interrupted
			// turn's final commit instead of racing staged claim writes.
			entry.mu.Lock()
			defer entry.mu.Unlock()
		}
		ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
		defer cancel()
		if err := s.store.DeleteSession(ctx, id); err != nil && !errors.Is(err, store.ErrNotFound) {
			slog.Error("Background session delete failed", "session_id", id, "error", err)
		}
	}()

	slog.Info("Session delete accepted", "session_id", id)
	return nil
}

// Graph projects the session's durable claims and edges into the knowledge
// graph response.
func (s *SessionService) Graph(ctx context.Context, id string) (*models.GraphResponse, error) {
	if _, err := s.getSession(ctx, id); err != nil {
		return nil, err
	}

	claims, err := s.store.ListClaimsBySession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load claims: %w", err)
	}
	edges, err := s.store.ListClaimEdgesBySession(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load claim edges: %w", err)
	}

	resp := &models.GraphResponse{
		SessionID: id,
		Nodes:     make([]models.GraphNode, 0, len(claims)),
		Edges:     make([]models.GraphEdge, 0, len(edges)),
	}
	for i := range claims {
		c := &claims[i]
		resp.Nodes = append(resp.Nodes, models.GraphNode{
			ID:        c.ID,
			ClaimText: c.ClaimText,
			Type:      nodeType(forge.ClaimStatus(c.Status)),
			Round:     c.RoundCreated,
		})
	}
	for i := range edges {
		e := &edges[i]
		resp.Edges = append(resp.Edges, models.GraphEdge{
			Source:   e.SourceClaimID,
			Target:   e.TargetClaimID,
			EdgeType: e.EdgeType,
		})
	}
	return resp, nil
}

// AddResearchDirective queues a steering directive for the session's
// research sub-agent. Directives land in the state at the next turn start,
// never mid-turn.
func (s *SessionService) AddResearchDirective(ctx context.Context, id string, req models.ResearchDirectiveRequest) error {
	sess, err := s.getSession(ctx, id)
	if err != nil {
		return err
	}
	if forge.SessionStatus(sess.Status).IsTerminal() {
		return ErrSessionClosed
	}

	query := strings.TrimSpace(req.Query)
	domain := strings.TrimSpace(req.Domain)
	if query == "" && domain == "" {
		return NewValidationError("query", "a query or domain is required")
	}
	directiveType := strings.TrimSpace(req.DirectiveType)
	if directiveType == "" {
		directiveType = "search"
	}

	entry, err := s.entry(sess)
	if err != nil {
		return err
	}
	s.mu.Lock()
	entry.pending = append(entry.pending, forge.Directive{
		DirectiveType: directiveType,
		Query:         query,
		Domain:        domain,
	})
	s.mu.Unlock()

	slog.Info("Research directive queued",
		"session_id", id,
		"directive_type", directiveType)
	return nil
}

func (s *SessionService) getSession(ctx context.Context, id string) (*store.Session, error) {
	sess, err := s.store.GetSession(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return sess, nil
}

func toSummary(sess *store.Session) models.SessionSummary {
	return models.SessionSummary{
		ID:           sess.ID,
		Problem:      sess.Problem,
		CurrentPhase: sess.CurrentPhase,
		CurrentRound: sess.CurrentRound,
		Status:       sess.Status,
		Locale:       sess.Locale,
		TokenUsage: models.TokenUsage{
			InputTokens:         sess.InputTokens,
			OutputTokens:        sess.OutputTokens,
			CacheCreationTokens: sess.CacheCreationTokens,
			CacheReadTokens:     sess.CacheReadTokens,
		},
		CreatedAt:  sess.CreatedAt,
		ResolvedAt: sess.ResolvedAt,
	}
}

// nodeType folds claim statuses into the four graph node types. Superseded
// claims surface as rejected so merge targets stay visible; user
// contributions enter as validated.
func nodeType(status forge.ClaimStatus) string {
	switch status {
	case forge.ClaimValidated, forge.ClaimUserContributed:
		return string(forge.ClaimValidated)
	case forge.ClaimQualified:
		return string(forge.ClaimQualified)
	case forge.ClaimRejected, forge.ClaimSuperseded:
		return string(forge.ClaimRejected)
	default:
		return string(forge.ClaimProposed)
	}
}
