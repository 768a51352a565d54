package store

import (
	"context"
	"fmt"
)

// SessionProgress carries the session-row fields the runner owns. Token
// counters are cumulative absolute values, not deltas.
type SessionProgress struct {
	CurrentPhase        string
	CurrentRound        int
	Status              string
	InputTokens         int64
	OutputTokens        int64
	CacheCreationTokens int64
	CacheReadTokens     int64
	MessageHistory      []byte
	StateSnapshot       []byte
	KnowledgeDocument   string
	Resolved            bool
}

// TurnCommit is everything one agent turn staged for persistence. The
// projection slices always replace the session's rows, so callers pass the
// full current lists (possibly empty), never deltas.
type TurnCommit struct {
	Progress       SessionProgress
	NewClaims      []Claim
	ClaimUpdates   []ClaimUpdate
	NewEvidence    []Evidence
	NewEdges       []ClaimEdge
	Reframings     []Reframing
	Analogies      []Analogy
	Contradictions []Contradiction
}

// CommitTurn applies a staged turn in a single transaction: session progress
// first, then claim writes, then projections. Either everything lands or
// nothing does, so a crash between turns never leaves a half-written pause
// point.
func (s *Store) CommitTurn(ctx context.Context, sessionID string, tc TurnCommit) error {
	history := tc.Progress.MessageHistory
	if history == nil {
		history = []byte("[]")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE sessions
		 SET current_phase = $2,
		     current_round = $3,
		     status = $4,
		     input_tokens = $5,
		     output_tokens = $6,
		     cache_creation_tokens = $7,
		     cache_read_tokens = $8,
		     message_history = $9,
		     state_snapshot = $10,
		     knowledge_document = $11,
		     resolved_at = CASE WHEN $12 THEN now() ELSE resolved_at END
		 WHERE id = $1`,
		sessionID,
		tc.Progress.CurrentPhase, tc.Progress.CurrentRound, tc.Progress.Status,
		tc.Progress.InputTokens, tc.Progress.OutputTokens,
		tc.Progress.CacheCreationTokens, tc.Progress.CacheReadTokens,
		history, tc.Progress.StateSnapshot, tc.Progress.KnowledgeDocument,
		tc.Progress.Resolved)
	if err != nil {
		return fmt.Errorf("failed to save session progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	for i := range tc.NewClaims {
		if err := insertClaim(ctx, tx, &tc.NewClaims[i]); err != nil {
			return err
		}
	}
	for _, u := range tc.ClaimUpdates {
		if err := updateClaim(ctx, tx, u); err != nil {
			return err
		}
	}
	for i := range tc.NewEvidence {
		if err := insertEvidence(ctx, tx, &tc.NewEvidence[i]); err != nil {
			return err
		}
	}
	for i := range tc.NewEdges {
		if err := insertClaimEdge(ctx, tx, &tc.NewEdges[i]); err != nil {
			return err
		}
	}

	if err := replaceReframings(ctx, tx, sessionID, tc.Reframings); err != nil {
		return err
	}
	if err := replaceAnalogies(ctx, tx, sessionID, tc.Analogies); err != nil {
		return err
	}
	if err := replaceContradictions(ctx, tx, sessionID, tc.Contradictions); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit turn: %w", err)
	}
	return nil
}
