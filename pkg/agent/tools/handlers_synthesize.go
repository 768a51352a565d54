package tools

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/store"
)

func stateThesis(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		ThesisText         string        `json:"thesis_text"`
		Direction          string        `json:"direction"`
		SupportingEvidence []evidenceArg `json:"supporting_evidence"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if args.ThesisText == "" {
		return fail(forge.CodeInvalidInput, "thesis_text is required"), nil
	}
	if len(args.SupportingEvidence) == 0 {
		return fail(forge.CodeUngroundedClaim, "a thesis needs at least one supporting source"), nil
	}
	refs, gateErr := toEvidenceRefs(args.SupportingEvidence, forge.EvidenceSupporting)
	if gateErr != nil {
		return gateErr.Dict(), nil
	}
	if gate := forge.CanStateThesis(env.State); gate != nil {
		return gate.Dict(), nil
	}

	env.State.CurrentRoundClaims = append(env.State.CurrentRoundClaims, forge.RoundClaim{
		ThesisText: args.ThesisText,
		Evidence:   refs,
	})
	idx := len(env.State.CurrentRoundClaims) - 1
	return map[string]any{
		"status":           "ok",
		"claim_index":      idx,
		"claims_remaining": env.State.ClaimsRemaining(),
	}, nil
}

func findAntithesis(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		ClaimIndex            int           `json:"claim_index"`
		AntithesisText        string        `json:"antithesis_text"`
		ContradictingEvidence []evidenceArg `json:"contradicting_evidence"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if args.AntithesisText == "" {
		return fail(forge.CodeInvalidInput, "antithesis_text is required"), nil
	}
	if len(args.ContradictingEvidence) == 0 {
		return fail(forge.CodeUngroundedClaim, "an antithesis needs at least one contradicting source"), nil
	}
	refs, gateErr := toEvidenceRefs(args.ContradictingEvidence, forge.EvidenceContradicting)
	if gateErr != nil {
		return gateErr.Dict(), nil
	}
	if gate := forge.CanFindAntithesis(env.State, args.ClaimIndex); gate != nil {
		return gate.Dict(), nil
	}

	claim := env.State.ClaimByIndex(args.ClaimIndex)
	claim.AntithesisText = args.AntithesisText
	claim.Evidence = append(claim.Evidence, refs...)
	env.State.AntithesesSearched[args.ClaimIndex] = true
	return map[string]any{"status": "ok", "claim_index": args.ClaimIndex}, nil
}

func createSynthesis(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		ClaimIndex              int           `json:"claim_index"`
		ClaimText               string        `json:"claim_text"`
		ThesisText              string        `json:"thesis_text"`
		AntithesisText          string        `json:"antithesis_text"`
		FalsifiabilityCondition string        `json:"falsifiability_condition"`
		Confidence              string        `json:"confidence"`
		Evidence                []evidenceArg `json:"evidence"`
		BuildsOnClaimID         string        `json:"builds_on_claim_id"`
		ResonancePrompt         string        `json:"resonance_prompt"`
		ResonanceOptions        []string      `json:"resonance_options"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if args.ClaimText == "" {
		return fail(forge.CodeInvalidInput, "claim_text is required"), nil
	}
	if args.FalsifiabilityCondition == "" {
		return fail(forge.CodeInvalidInput, "falsifiability_condition is required"), nil
	}
	confidence := forge.Confidence(args.Confidence)
	if !confidence.IsValid() {
		return fail(forge.CodeInvalidInput, "confidence must be low, medium, or high"), nil
	}
	if gate := validResonanceOptions(args.ResonanceOptions); gate != nil {
		return gate.Dict(), nil
	}
	refs, gateErr := toEvidenceRefs(args.Evidence, forge.EvidenceSupporting)
	if gateErr != nil {
		return gateErr.Dict(), nil
	}
	if gate := forge.CanCreateSynthesis(env.State, args.ClaimIndex, len(refs), args.BuildsOnClaimID); gate != nil {
		return gate.Dict(), nil
	}

	claim := env.State.ClaimByIndex(args.ClaimIndex)
	claim.ClaimID = uuid.New().String()
	claim.ClaimText = args.ClaimText
	if args.ThesisText != "" {
		claim.ThesisText = args.ThesisText
	}
	if args.AntithesisText != "" {
		claim.AntithesisText = args.AntithesisText
	}
	claim.FalsifiabilityCondition = args.FalsifiabilityCondition
	claim.Confidence = confidence
	claim.Evidence = append(claim.Evidence, refs...)
	claim.BuildsOnClaimID = args.BuildsOnClaimID
	claim.ResonanceOptions = args.ResonanceOptions
	if args.BuildsOnClaimID != "" {
		env.State.PreviousClaimsReferenced = true
	}

	stageClaim(env, claim)
	return map[string]any{
		"status":           "ok",
		"claim_id":         claim.ClaimID,
		"claim_index":      args.ClaimIndex,
		"claims_remaining": forge.MaxClaimsPerRound - env.State.CompletedClaims(),
	}, nil
}

// stageClaim stages the durable claim row and one evidence row per
// reference. Committed by the runner at the next pause.
func stageClaim(env *Env, claim *forge.RoundClaim) {
	var buildsOn *string
	if claim.BuildsOnClaimID != "" {
		id := claim.BuildsOnClaimID
		buildsOn = &id
	}
	env.Staged.NewClaims = append(env.Staged.NewClaims, store.Claim{
		ID:                      claim.ClaimID,
		SessionID:               env.SessionID,
		ClaimText:               claim.ClaimText,
		ThesisText:              claim.ThesisText,
		AntithesisText:          claim.AntithesisText,
		FalsifiabilityCondition: claim.FalsifiabilityCondition,
		PhaseCreated:            string(env.State.CurrentPhase),
		RoundCreated:            env.State.CurrentRound,
		Status:                  string(forge.ClaimProposed),
		Confidence:              string(claim.Confidence),
		BuildsOnClaimID:         buildsOn,
	})
	for _, ref := range claim.Evidence {
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
}
