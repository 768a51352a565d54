package runner

import (
	"strings"

	"github.com/noesis-forge/noesis/pkg/agent/tools"
	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/models"
	"github.com/noesis-forge/noesis/pkg/store"
)

// applyInput folds a review answer into the state and clears the pause
// flags. It returns the phase the input transitioned into, or "" when the
// session stays where it was. Out-of-range indexes are skipped rather than
// rejected: the service validated admission, and a stale index must not
// strand a session that is otherwise fine.
func applyInput(st *forge.State, env *tools.Env, in *models.UserInput) forge.Phase {
	st.AwaitingUserInput = false
	st.AwaitingInputType = ""

	switch in.Type {
	case models.InputDecomposeReview:
		applyDecomposeReview(st, in.DecomposeReview)
	case models.InputExploreReview:
		applyExploreReview(st, in.ExploreReview)
	case models.InputClaimsReview:
		// Resonance feedback only; the model refines and presents again.
	case models.InputVerdicts:
		applyVerdicts(st, env, in.Verdicts)
		st.TransitionTo(forge.PhaseBuild)
		return forge.PhaseBuild
	case models.InputBuildDecision:
		return applyBuildDecision(st, in.BuildDecision)
	}
	return ""
}

func applyDecomposeReview(st *forge.State, in *models.DecomposeReview) {
	if in == nil {
		return
	}
	for _, resp := range in.AssumptionResponses {
		if resp.Index < 0 || resp.Index >= len(st.Assumptions) {
			continue
		}
		a := &st.Assumptions[resp.Index]
		if resp.SelectedOption < 0 || resp.SelectedOption >= len(a.Options) {
			continue
		}
		a.SelectedOption = resp.SelectedOption
	}
	for _, resp := range in.ReframingResponses {
		if resp.Index < 0 || resp.Index >= len(st.Reframings) {
			continue
		}
		rf := &st.Reframings[resp.Index]
		if resp.SelectedOption < 0 || resp.SelectedOption >= len(rf.ResonanceOptions) {
			continue
		}
		// Option 0 is always "no resonance" on the graduated scale.
		rf.Selected = resp.SelectedOption > 0
	}
	st.SuggestedDomains = appendDomains(st.SuggestedDomains, in.SuggestedDomains)
}

func applyExploreReview(st *forge.State, in *models.ExploreReview) {
	if in == nil {
		return
	}
	for _, resp := range in.AnalogyResponses {
		if resp.Index < 0 || resp.Index >= len(st.Analogies) {
			continue
		}
		a := &st.Analogies[resp.Index]
		if resp.SelectedOption < 0 || resp.SelectedOption >= len(a.ResonanceOptions) {
			continue
		}
		a.Resonated = resp.SelectedOption > 0
	}
	for _, c := range in.AddedContradictions {
		if strings.TrimSpace(c.PropertyA) == "" || strings.TrimSpace(c.PropertyB) == "" {
			continue
		}
		st.Contradictions = append(st.Contradictions, forge.Contradiction{
			PropertyA:   c.PropertyA,
			PropertyB:   c.PropertyB,
			Description: c.Description,
		})
	}
	st.SuggestedDomains = appendDomains(st.SuggestedDomains, in.SuggestedDomains)
}

// applyVerdicts records the user's rulings on the round claims and stages
// the matching durable status updates. Rejections enter negative knowledge;
// a merge supersedes the claim and records a merged_from edge from the
// surviving claim so both texts remain inspectable.
func applyVerdicts(st *forge.State, env *tools.Env, in *models.VerdictsInput) {
	if in == nil {
		return
	}
	for _, v := range in.Verdicts {
		claim := st.ClaimByIndex(v.ClaimIndex)
		if claim == nil || claim.ClaimID == "" {
			continue
		}
		verdict := forge.Verdict(v.Verdict)
		if !verdict.IsValid() {
			continue
		}

		claim.Verdict = verdict
		claim.Qualification = v.Qualification
		claim.RejectionReason = v.RejectionReason

		update := store.ClaimUpdate{ID: claim.ClaimID}
		switch verdict {
		case forge.VerdictAccept:
			update.Status = string(forge.ClaimValidated)
		case forge.VerdictQualify:
			update.Status = string(forge.ClaimQualified)
			update.Qualification = v.Qualification
		case forge.VerdictReject:
			reason := v.RejectionReason
			if reason == "" {
				reason = "rejected by user"
			}
			claim.RejectionReason = reason
			update.Status = string(forge.ClaimRejected)
			update.RejectionReason = reason
			st.NegativeKnowledge = append(st.NegativeKnowledge, forge.NegativeEntry{
				ClaimID:   claim.ClaimID,
				ClaimText: claim.ClaimText,
				Reason:    reason,
				Round:     st.CurrentRound,
			})
		case forge.VerdictMerge:
			update.Status = string(forge.ClaimSuperseded)
			if v.MergeWithClaimID != "" {
				env.Staged.NewEdges = append(env.Staged.NewEdges, store.ClaimEdge{
					SessionID:     env.SessionID,
					SourceClaimID: v.MergeWithClaimID,
					TargetClaimID: claim.ClaimID,
					EdgeType:      string(forge.EdgeMergedFrom),
				})
			}
		}
		env.Staged.ClaimUpdates = append(env.Staged.ClaimUpdates, update)
	}
}

// applyBuildDecision steers the session after the BUILD review. continue and
// deep_dive open a new round; resolve moves to CRYSTALLIZE; add_insight
// stays in BUILD so the model can absorb the contribution.
func applyBuildDecision(st *forge.State, in *models.BuildDecisionInput) forge.Phase {
	if in == nil {
		return ""
	}
	switch in.Decision {
	case "continue":
		st.DeepDiveActive = false
		st.DeepDiveTargetClaimID = ""
		st.ResetForNewRound()
		st.TransitionTo(forge.PhaseSynthesize)
		return forge.PhaseSynthesize
	case "deep_dive":
		st.DeepDiveActive = true
		st.DeepDiveTargetClaimID = in.DeepDiveClaimID
		st.ResetForNewRound()
		st.TransitionTo(forge.PhaseSynthesize)
		return forge.PhaseSynthesize
	case "resolve":
		st.TransitionTo(forge.PhaseCrystallize)
		return forge.PhaseCrystallize
	default:
		return ""
	}
}

// appendDomains merges user-suggested domains into the hint list without
// duplicates.
func appendDomains(existing, added []string) []string {
	for _, d := range added {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		dup := false
		for _, e := range existing {
			if strings.EqualFold(e, d) {
				dup = true
				break
			}
		}
		if !dup {
			existing = append(existing, d)
		}
	}
	return existing
}
