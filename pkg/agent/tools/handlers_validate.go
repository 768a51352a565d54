package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/models"
	"github.com/noesis-forge/noesis/pkg/store"
)

func attemptFalsification(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		ClaimIndex int           `json:"claim_index"`
		Approach   string        `json:"approach"`
		Result     string        `json:"result"`
		Falsified  bool          `json:"falsified"`
		Evidence   []evidenceArg `json:"evidence"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if args.Approach == "" || args.Result == "" {
		return fail(forge.CodeInvalidInput, "approach and result are required"), nil
	}
	refs, gateErr := toEvidenceRefs(args.Evidence, forge.EvidenceContradicting)
	if gateErr != nil {
		return gateErr.Dict(), nil
	}
	if gate := forge.CanAttemptFalsification(env.State, args.ClaimIndex); gate != nil {
		return gate.Dict(), nil
	}

	claim := env.State.ClaimByIndex(args.ClaimIndex)
	claim.Evidence = append(claim.Evidence, refs...)
	env.State.FalsificationAttempted[args.ClaimIndex] = true
	if args.Falsified {
		// A claim that falls to its own test enters negative knowledge even
		// before the user's verdict; the finding survives either way.
		env.State.NegativeKnowledge = append(env.State.NegativeKnowledge, forge.NegativeEntry{
			ClaimID:   claim.ClaimID,
			ClaimText: claim.ClaimText,
			Reason:    fmt.Sprintf("falsified: %s", args.Result),
			Round:     env.State.CurrentRound,
		})
	}
	for _, ref := range refs {
		env.Staged.NewEvidence = append(env.Staged.NewEvidence, store.Evidence{
			ClaimID:       claim.ClaimID,
			SessionID:     env.SessionID,
			URL:           ref.URL,
			Title:         ref.Title,
			Summary:       ref.Summary,
			Type:          string(ref.Type),
			ContributedBy: "agent",
		})
	}
	return map[string]any{
		"status":      "ok",
		"claim_index": args.ClaimIndex,
		"falsified":   args.Falsified,
	}, nil
}

func checkNovelty(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		ClaimIndex         int    `json:"claim_index"`
		ExistingKnowledge  string `json:"existing_knowledge"`
		IsNovel            bool   `json:"is_novel"`
		NoveltyExplanation string `json:"novelty_explanation"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if args.NoveltyExplanation == "" {
		return fail(forge.CodeInvalidInput, "novelty_explanation is required"), nil
	}
	if gate := forge.CanCheckNovelty(env.State, args.ClaimIndex); gate != nil {
		return gate.Dict(), nil
	}

	env.State.NoveltyChecked[args.ClaimIndex] = true
	return map[string]any{
		"status":      "ok",
		"claim_index": args.ClaimIndex,
		"is_novel":    args.IsNovel,
	}, nil
}

func scoreClaim(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		ClaimIndex     int     `json:"claim_index"`
		Novelty        float64 `json:"novelty"`
		Groundedness   float64 `json:"groundedness"`
		Falsifiability float64 `json:"falsifiability"`
		Significance   float64 `json:"significance"`
		Reasoning      string  `json:"reasoning"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	for name, v := range map[string]float64{
		"novelty":        args.Novelty,
		"groundedness":   args.Groundedness,
		"falsifiability": args.Falsifiability,
		"significance":   args.Significance,
	} {
		if v < 0 || v > 1 {
			return fail(forge.CodeInvalidInput, "%s must be in [0,1], got %v", name, v), nil
		}
	}
	if gate := forge.CanScoreClaim(env.State, args.ClaimIndex); gate != nil {
		return gate.Dict(), nil
	}

	claim := env.State.ClaimByIndex(args.ClaimIndex)
	claim.Scores = &forge.ClaimScores{
		Novelty:        args.Novelty,
		Groundedness:   args.Groundedness,
		Falsifiability: args.Falsifiability,
		Significance:   args.Significance,
	}
	env.Staged.ClaimUpdates = append(env.Staged.ClaimUpdates, store.ClaimUpdate{
		ID:                  claim.ClaimID,
		Status:              string(forge.ClaimProposed),
		NoveltyScore:        &args.Novelty,
		GroundednessScore:   &args.Groundedness,
		FalsifiabilityScore: &args.Falsifiability,
		SignificanceScore:   &args.Significance,
	})
	return map[string]any{
		"status":      "ok",
		"claim_index": args.ClaimIndex,
		"scores": map[string]float64{
			"novelty":        args.Novelty,
			"groundedness":   args.Groundedness,
			"falsifiability": args.Falsifiability,
			"significance":   args.Significance,
		},
	}, nil
}

func presentRound(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Summary string `json:"summary"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if gate := forge.CanPresentRound(env.State); gate != nil {
		return gate.Dict(), nil
	}
	if !env.State.DocumentUpdatedThisPhase {
		return fail(forge.CodeDocumentNotUpdated, "update_working_document must be called at least once before presenting the round"), nil
	}

	env.State.AwaitingUserInput = true
	env.State.AwaitingInputType = models.InputVerdicts
	return map[string]any{"status": "ok", "summary": args.Summary}, nil
}
