package runner

import (
	"github.com/noesis-forge/noesis/pkg/events"
	"github.com/noesis-forge/noesis/pkg/forge"
)

// The review payload builders project the live state into the client-facing
// pause events. They copy everything the user needs to answer the pause;
// nothing here mutates state.

func decomposeReview(st *forge.State, question, framing string) events.DecomposeReviewPayload {
	p := events.DecomposeReviewPayload{
		Question:     question,
		Context:      framing,
		Fundamentals: st.Fundamentals,
		Assumptions:  make([]events.ReviewAssumption, 0, len(st.Assumptions)),
		Reframings:   make([]events.ReviewReframing, 0, len(st.Reframings)),
	}
	for i, a := range st.Assumptions {
		p.Assumptions = append(p.Assumptions, events.ReviewAssumption{
			Index:   i,
			Text:    a.Text,
			Source:  a.Source,
			Options: a.Options,
		})
	}
	for i, rf := range st.Reframings {
		p.Reframings = append(p.Reframings, events.ReviewReframing{
			Index:            i,
			Text:             rf.Text,
			Type:             rf.Type,
			Reasoning:        rf.Reasoning,
			ResonanceOptions: rf.ResonanceOptions,
		})
	}
	return p
}

func exploreReview(st *forge.State, question, framing string) events.ExploreReviewPayload {
	p := events.ExploreReviewPayload{
		Question:         question,
		Context:          framing,
		MorphologicalBox: make([]events.ReviewBoxParameter, 0, len(st.MorphologicalBox)),
		Analogies:        make([]events.ReviewAnalogy, 0, len(st.Analogies)),
		Contradictions:   make([]events.ReviewContradiction, 0, len(st.Contradictions)),
		AdjacentPossible: st.AdjacentPossible,
	}
	for _, param := range st.MorphologicalBox {
		p.MorphologicalBox = append(p.MorphologicalBox, events.ReviewBoxParameter{
			Name:   param.Name,
			Values: param.Values,
		})
	}
	for i, a := range st.Analogies {
		p.Analogies = append(p.Analogies, events.ReviewAnalogy{
			Index:            i,
			Domain:           a.Domain,
			Description:      a.Description,
			SemanticDistance: a.SemanticDistance,
			ResonanceOptions: a.ResonanceOptions,
		})
	}
	for _, c := range st.Contradictions {
		p.Contradictions = append(p.Contradictions, events.ReviewContradiction{
			PropertyA:   c.PropertyA,
			PropertyB:   c.PropertyB,
			Description: c.Description,
		})
	}
	return p
}

// claimsReview carries the completed round claims to the verdict pause.
// Partial claims without a ClaimID never appear: present_round's gate
// guarantees none remain by the time this runs.
func claimsReview(st *forge.State, summary string) events.ClaimsReviewPayload {
	p := events.ClaimsReviewPayload{
		Summary: summary,
		Round:   st.CurrentRound,
		Claims:  make([]events.ReviewClaim, 0, len(st.CurrentRoundClaims)),
	}
	for i, c := range st.CurrentRoundClaims {
		if c.ClaimID == "" {
			continue
		}
		claim := events.ReviewClaim{
			Index:                   i,
			ClaimID:                 c.ClaimID,
			ClaimText:               c.ClaimText,
			ThesisText:              c.ThesisText,
			AntithesisText:          c.AntithesisText,
			FalsifiabilityCondition: c.FalsifiabilityCondition,
			Confidence:              string(c.Confidence),
			Evidence:                make([]events.ReviewEvidence, 0, len(c.Evidence)),
			BuildsOnClaimID:         c.BuildsOnClaimID,
			ResonanceOptions:        c.ResonanceOptions,
		}
		for _, ev := range c.Evidence {
			claim.Evidence = append(claim.Evidence, events.ReviewEvidence{
				URL:     ev.URL,
				Title:   ev.Title,
				Summary: ev.Summary,
				Type:    string(ev.Type),
			})
		}
		if c.Scores != nil {
			claim.Scores = &events.ReviewScores{
				Novelty:        c.Scores.Novelty,
				Groundedness:   c.Scores.Groundedness,
				Falsifiability: c.Scores.Falsifiability,
				Significance:   c.Scores.Significance,
			}
		}
		p.Claims = append(p.Claims, claim)
	}
	return p
}

func buildReview(st *forge.State, summary string) events.BuildReviewPayload {
	p := events.BuildReviewPayload{
		Summary:           summary,
		Nodes:             make([]events.ReviewGraphNode, 0, len(st.GraphNodes)),
		Edges:             make([]events.ReviewGraphEdge, 0, len(st.GraphEdges)),
		Gaps:              st.Gaps,
		NegativeKnowledge: make([]events.ReviewNegativeEntry, 0, len(st.NegativeKnowledge)),
		RoundsRemaining:   roundsRemaining(st),
		Options:           []string{"continue", "deep_dive", "resolve", "add_insight"},
	}
	for _, n := range st.GraphNodes {
		p.Nodes = append(p.Nodes, events.ReviewGraphNode{
			ClaimID:   n.ClaimID,
			ClaimText: n.ClaimText,
			Status:    string(n.Status),
			Round:     n.Round,
		})
	}
	for _, e := range st.GraphEdges {
		p.Edges = append(p.Edges, events.ReviewGraphEdge{
			Source:   e.SourceClaimID,
			Target:   e.TargetClaimID,
			EdgeType: string(e.Type),
		})
	}
	for _, n := range st.NegativeKnowledge {
		p.NegativeKnowledge = append(p.NegativeKnowledge, events.ReviewNegativeEntry{
			ClaimText: n.ClaimText,
			Reason:    n.Reason,
			Round:     n.Round,
		})
	}
	return p
}

// roundsRemaining counts the SYNTHESIZE rounds still available after the
// current one.
func roundsRemaining(st *forge.State) int {
	max := st.MaxRounds
	if max <= 0 {
		max = forge.DefaultMaxRounds
	}
	remaining := max - st.CurrentRound - 1
	if remaining < 0 {
		return 0
	}
	return remaining
}
