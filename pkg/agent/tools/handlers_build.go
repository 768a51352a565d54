package tools

import (
	"context"
	"encoding/json"

	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/models"
	"github.com/noesis-forge/noesis/pkg/store"
)

func addToKnowledgeGraph(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		ClaimIndex int `json:"claim_index"`
		Edges      []struct {
			TargetClaimID string `json:"target_claim_id"`
			EdgeType      string `json:"edge_type"`
		} `json:"edges"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	for i, e := range args.Edges {
		if !forge.EdgeType(e.EdgeType).IsValid() {
			return fail(forge.CodeInvalidInput, "edges[%d] has unknown edge_type %q", i, e.EdgeType), nil
		}
		if e.TargetClaimID == "" {
			return fail(forge.CodeInvalidInput, "edges[%d] has no target_claim_id", i), nil
		}
	}
	if gate := forge.CanAddToGraph(env.State, args.ClaimIndex); gate != nil {
		return gate.Dict(), nil
	}

	claim := env.State.ClaimByIndex(args.ClaimIndex)
	if env.State.NodeByClaimID(claim.ClaimID) != nil {
		return fail(forge.CodeInvalidInput, "claim %s is already in the graph", claim.ClaimID), nil
	}

	status := forge.ClaimValidated
	if claim.Verdict == forge.VerdictQualify {
		status = forge.ClaimQualified
	}
	env.State.GraphNodes = append(env.State.GraphNodes, forge.GraphNode{
		ClaimID:   claim.ClaimID,
		ClaimText: claim.ClaimText,
		Status:    status,
		Round:     env.State.CurrentRound,
	})

	added := 0
	skipped := make([]string, 0)
	for _, e := range args.Edges {
		target := env.State.NodeByClaimID(e.TargetClaimID)
		if target == nil && !claimInRound(env.State, e.TargetClaimID) {
			skipped = append(skipped, e.TargetClaimID)
			continue
		}
		env.State.GraphEdges = append(env.State.GraphEdges, forge.GraphEdge{
			SourceClaimID: claim.ClaimID,
			TargetClaimID: e.TargetClaimID,
			Type:          forge.EdgeType(e.EdgeType),
		})
		env.Staged.NewEdges = append(env.Staged.NewEdges, store.ClaimEdge{
			SessionID:     env.SessionID,
			SourceClaimID: claim.ClaimID,
			TargetClaimID: e.TargetClaimID,
			EdgeType:      e.EdgeType,
		})
		added++
		// An edge into an earlier round's node is what makes the round
		// cumulative.
		if target != nil && target.Round < env.State.CurrentRound {
			env.State.PreviousClaimsReferenced = true
		}
	}

	result := map[string]any{
		"status":      "ok",
		"claim_id":    claim.ClaimID,
		"graph_nodes": len(env.State.GraphNodes),
		"edges_added": added,
	}
	if len(skipped) > 0 {
		result["unknown_targets"] = skipped
	}
	return result, nil
}

func claimInRound(st *forge.State, claimID string) bool {
	for _, c := range st.CurrentRoundClaims {
		if c.ClaimID == claimID {
			return true
		}
	}
	return false
}

func analyzeGaps(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Gaps             []string `json:"gaps"`
		ConvergenceLocks []string `json:"convergence_locks"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}

	env.State.Gaps = args.Gaps
	env.State.ConvergenceLocks = args.ConvergenceLocks
	return map[string]any{
		"status":            "ok",
		"gaps":              len(args.Gaps),
		"convergence_locks": len(args.ConvergenceLocks),
	}, nil
}

func getNegativeKnowledge(_ context.Context, env *Env, _ json.RawMessage) (map[string]any, error) {
	env.State.NegativeKnowledgeConsulted = true

	entries := make([]map[string]any, 0, len(env.State.NegativeKnowledge))
	for _, n := range env.State.NegativeKnowledge {
		entries = append(entries, map[string]any{
			"claim_text": n.ClaimText,
			"reason":     n.Reason,
			"round":      n.Round,
		})
	}
	return map[string]any{"status": "ok", "count": len(entries), "entries": entries}, nil
}

func presentBuildOptions(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Summary string `json:"summary"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if !env.State.DocumentUpdatedThisPhase {
		return fail(forge.CodeDocumentNotUpdated, "update_working_document must be called at least once before presenting the build options"), nil
	}

	env.State.AwaitingUserInput = true
	env.State.AwaitingInputType = models.InputBuildDecision
	return map[string]any{"status": "ok", "summary": args.Summary}, nil
}
