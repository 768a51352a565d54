package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Session is the durable session row. MessageHistory and StateSnapshot are
// opaque JSONB blobs owned by the runner; the store never inspects them.
type Session struct {
	ID                  string
	Problem             string
	CurrentPhase        string
	CurrentRound        int
	Status              string
	Locale              string
	LocaleConfidence    float64
	InputTokens         int64
	OutputTokens        int64
	CacheCreationTokens int64
	CacheReadTokens     int64
	MessageHistory      []byte
	StateSnapshot       []byte
	KnowledgeDocument   string
	CreatedAt           time.Time
	ResolvedAt          *time.Time
}

// ListFilter narrows and pages ListSessions results.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// CreateSession inserts a new session row. The caller supplies the ID;
// phase, round, and status start at their column defaults.
func (s *Store) CreateSession(ctx context.Context, sess *Session) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (id, problem, locale, locale_confidence)
		 VALUES ($1, $2, $3, $4)
		 RETURNING current_phase, current_round, status, created_at`,
		sess.ID, sess.Problem, sess.Locale, sess.LocaleConfidence,
	).Scan(&sess.CurrentPhase, &sess.CurrentRound, &sess.Status, &sess.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSession loads a full session row including the history and snapshot blobs.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	var sess Session
	err := s.pool.QueryRow(ctx,
		`SELECT id::text, problem, current_phase, current_round, status,
		        locale, locale_confidence,
		        input_tokens, output_tokens, cache_creation_tokens, cache_read_tokens,
		        message_history, state_snapshot, knowledge_document,
		        created_at, resolved_at
		 FROM sessions WHERE id = $1`, id,
	).Scan(&sess.ID, &sess.Problem, &sess.CurrentPhase, &sess.CurrentRound, &sess.Status,
		&sess.Locale, &sess.LocaleConfidence,
		&sess.InputTokens, &sess.OutputTokens, &sess.CacheCreationTokens, &sess.CacheReadTokens,
		&sess.MessageHistory, &sess.StateSnapshot, &sess.KnowledgeDocument,
		&sess.CreatedAt, &sess.ResolvedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &sess, nil
}

// ListSessions returns summary rows (history and snapshot omitted) newest
// first, plus the total count matching the filter.
func (s *Store) ListSessions(ctx context.Context, f ListFilter) ([]Session, int64, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	where := ""
	countArgs := []any{}
	if f.Status != "" {
		where = " WHERE status = $1"
		countArgs = append(countArgs, f.Status)
	}

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM sessions`+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	args := append(countArgs, f.Limit, f.Offset)
	query := fmt.Sprintf(
		`SELECT id::text, problem, current_phase, current_round, status,
		        locale, locale_confidence,
		        input_tokens, output_tokens, cache_creation_tokens, cache_read_tokens,
		        knowledge_document, created_at, resolved_at
		 FROM sessions%s
		 ORDER BY created_at DESC
		 LIMIT $%d OFFSET $%d`, where, len(countArgs)+1, len(countArgs)+2)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Problem, &sess.CurrentPhase, &sess.CurrentRound, &sess.Status,
			&sess.Locale, &sess.LocaleConfidence,
			&sess.InputTokens, &sess.OutputTokens, &sess.CacheCreationTokens, &sess.CacheReadTokens,
			&sess.KnowledgeDocument, &sess.CreatedAt, &sess.ResolvedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read sessions: %w", err)
	}
	return sessions, total, nil
}

// UpdateSessionStatus sets the status and optionally stamps resolved_at.
func (s *Store) UpdateSessionStatus(ctx context.Context, id, status string, markResolved bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions
		 SET status = $2,
		     resolved_at = CASE WHEN $3 THEN now() ELSE resolved_at END
		 WHERE id = $1`, id, status, markResolved)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSession removes a session; claims, evidence, edges, and projections
// cascade at the database level.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSessionsBefore removes sessions created before the cutoff whose
// status is in the given set. Used by the retention sweeper.
func (s *Store) DeleteSessionsBefore(ctx context.Context, cutoff time.Time, statuses []string) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM sessions WHERE created_at < $1 AND status = ANY($2)`,
		cutoff, statuses)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
