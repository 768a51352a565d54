package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Claim is a durable knowledge claim row.
type Claim struct {
	ID                      string
	SessionID               string
	ClaimText               string
	ThesisText              string
	AntithesisText          string
	FalsifiabilityCondition string
	PhaseCreated            string
	RoundCreated            int
	Status                  string
	Confidence              string
	Qualification           string
	RejectionReason         string
	BuildsOnClaimID         *string
	NoveltyScore            *float64
	GroundednessScore       *float64
	FalsifiabilityScore     *float64
	SignificanceScore       *float64
	CreatedAt               time.Time
}

// ClaimUpdate applies a verdict or validation scores to an existing claim.
// Nil score fields leave the stored scores untouched.
type ClaimUpdate struct {
	ID                  string
	Status              string
	Qualification       string
	RejectionReason     string
	NoveltyScore        *float64
	GroundednessScore   *float64
	FalsifiabilityScore *float64
	SignificanceScore   *float64
}

// Evidence is an immutable source reference attached to a claim.
type Evidence struct {
	ID            string
	ClaimID       string
	SessionID     string
	URL           string
	Title         string
	Summary       string
	Type          string
	ContributedBy string
	CreatedAt     time.Time
}

// ClaimEdge links two claims in the knowledge graph. Endpoints are plain
// IDs; a target may be a superseded claim with no live row.
type ClaimEdge struct {
	ID            string
	SessionID     string
	SourceClaimID string
	TargetClaimID string
	EdgeType      string
	CreatedAt     time.Time
}

// GetClaim loads one claim row.
func (s *Store) GetClaim(ctx context.Context, id string) (*Claim, error) {
	row := s.pool.QueryRow(ctx, claimSelect+` WHERE id = $1`, id)
	c, err := scanClaim(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return c, nil
}

// ListClaimsBySession returns all claims for a session in creation order.
func (s *Store) ListClaimsBySession(ctx context.Context, sessionID string) ([]Claim, error) {
	rows, err := s.pool.Query(ctx, claimSelect+` WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read claims: %w", err)
	}
	return claims, nil
}

// ListClaimEdgesBySession returns all graph edges for a session.
func (s *Store) ListClaimEdgesBySession(ctx context.Context, sessionID string) ([]ClaimEdge, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, session_id::text, source_claim_id::text, target_claim_id::text,
		        edge_type, created_at
		 FROM claim_edges WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list claim edges: %w", err)
	}
	defer rows.Close()

	var edges []ClaimEdge
	for rows.Next() {
		var e ClaimEdge
		if err := rows.Scan(&e.ID, &e.SessionID, &e.SourceClaimID, &e.TargetClaimID,
			&e.EdgeType, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan claim edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read claim edges: %w", err)
	}
	return edges, nil
}

const claimSelect = `SELECT id::text, session_id::text, claim_text, thesis_text, antithesis_text,
	falsifiability_condition, phase_created, round_created, status, confidence,
	qualification, rejection_reason, builds_on_claim_id::text,
	novelty_score, groundedness_score, falsifiability_score, significance_score,
	created_at
 FROM claims`

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(&c.ID, &c.SessionID, &c.ClaimText, &c.ThesisText, &c.AntithesisText,
		&c.FalsifiabilityCondition, &c.PhaseCreated, &c.RoundCreated, &c.Status, &c.Confidence,
		&c.Qualification, &c.RejectionReason, &c.BuildsOnClaimID,
		&c.NoveltyScore, &c.GroundednessScore, &c.FalsifiabilityScore, &c.SignificanceScore,
		&c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func insertClaim(ctx context.Context, q querier, c *Claim) error {
	_, err := q.Exec(ctx,
		`INSERT INTO claims (id, session_id, claim_text, thesis_text, antithesis_text,
		                     falsifiability_condition, phase_created, round_created,
		                     status, confidence, qualification, rejection_reason,
		                     builds_on_claim_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.SessionID, c.ClaimText, c.ThesisText, c.AntithesisText,
		c.FalsifiabilityCondition, c.PhaseCreated, c.RoundCreated,
		c.Status, c.Confidence, c.Qualification, c.RejectionReason,
		c.BuildsOnClaimID)
	if err != nil {
		return fmt.Errorf("failed to insert claim: %w", err)
	}
	return nil
}

func updateClaim(ctx context.Context, q querier, u ClaimUpdate) error {
	tag, err := q.Exec(ctx,
		`UPDATE claims
		 SET status = $2,
		     qualification = $3,
		     rejection_reason = $4,
		     novelty_score = COALESCE($5, novelty_score),
		     groundedness_score = COALESCE($6, groundedness_score),
		     falsifiability_score = COALESCE($7, falsifiability_score),
		     significance_score = COALESCE($8, significance_score)
		 WHERE id = $1`,
		u.ID, u.Status, u.Qualification, u.RejectionReason,
		u.NoveltyScore, u.GroundednessScore, u.FalsifiabilityScore, u.SignificanceScore)
	if err != nil {
		return fmt.Errorf("failed to update claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func insertEvidence(ctx context.Context, q querier, e *Evidence) error {
	_, err := q.Exec(ctx,
		`INSERT INTO evidence (claim_id, session_id, url, title, summary, evidence_type, contributed_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ClaimID, e.SessionID, e.URL, e.Title, e.Summary, e.Type, e.ContributedBy)
	if err != nil {
		return fmt.Errorf("failed to insert evidence: %w", err)
	}
	return nil
}

func insertClaimEdge(ctx context.Context, q querier, e *ClaimEdge) error {
	_, err := q.Exec(ctx,
		`INSERT INTO claim_edges (session_id, source_claim_id, target_claim_id, edge_type)
		 VALUES ($1, $2, $3, $4)`,
		e.SessionID, e.SourceClaimID, e.TargetClaimID, e.EdgeType)
	if err != nil {
		return fmt.Errorf("failed to insert claim edge: %w", err)
	}
	return nil
}
