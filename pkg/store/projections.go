package store

import (
	"context"
	"fmt"
)

// Reframing mirrors a problem reframing for cross-session inspection.
type Reframing struct {
	Text      string
	Type      string
	Reasoning string
	Selected  bool
}

// Analogy mirrors a cross-domain analogy for cross-session inspection.
type Analogy struct {
	Domain           string
	Description      string
	SemanticDistance string
	Resonated        bool
}

// Contradiction mirrors a productive tension for cross-session inspection.
type Contradiction struct {
	PropertyA   string
	PropertyB   string
	Description string
}

// The projection tables mirror live state, so each sync replaces the
// session's rows wholesale.

func replaceReframings(ctx context.Context, q querier, sessionID string, items []Reframing) error {
	if _, err := q.Exec(ctx, `DELETE FROM reframings WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear reframings: %w", err)
	}
	for _, r := range items {
		_, err := q.Exec(ctx,
			`INSERT INTO reframings (session_id, text, reframing_type, reasoning, selected)
			 VALUES ($1, $2, $3, $4, $5)`,
			sessionID, r.Text, r.Type, r.Reasoning, r.Selected)
		if err != nil {
			return fmt.Errorf("failed to insert reframing: %w", err)
		}
	}
	return nil
}

func replaceAnalogies(ctx context.Context, q querier, sessionID string, items []Analogy) error {
	if _, err := q.Exec(ctx, `DELETE FROM analogies WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear analogies: %w", err)
	}
	for _, a := range items {
		_, err := q.Exec(ctx,
			`INSERT INTO analogies (session_id, domain, description, semantic_distance, resonated)
			 VALUES ($1, $2, $3, $4, $5)`,
			sessionID, a.Domain, a.Description, a.SemanticDistance, a.Resonated)
		if err != nil {
			return fmt.Errorf("failed to insert analogy: %w", err)
		}
	}
	return nil
}

func replaceContradictions(ctx context.Context, q querier, sessionID string, items []Contradiction) error {
	if _, err := q.Exec(ctx, `DELETE FROM contradictions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear contradictions: %w", err)
	}
	for _, c := range items {
		_, err := q.Exec(ctx,
			`INSERT INTO contradictions (session_id, property_a, property_b, description)
			 VALUES ($1, $2, $3, $4)`,
			sessionID, c.PropertyA, c.PropertyB, c.Description)
		if err != nil {
			return fmt.Errorf("failed to insert contradiction: %w", err)
		}
	}
	return nil
}
