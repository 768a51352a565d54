package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/noesis-forge/noesis/pkg/agent/conversation"
	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/models"
	"github.com/noesis-forge/noesis/pkg/store"
)

const (
	archiveDefaultResults = 5
	archiveMaxResults     = 10

	// Conservative per-entry token estimate for archive hits, so the model
	// can budget before asking for full entries.
	archiveTokensPerEntry = 300
)

func getSessionStatus(_ context.Context, env *Env, _ json.RawMessage) (map[string]any, error) {
	st := env.State
	maxRounds := st.MaxRounds
	if maxRounds <= 0 {
		maxRounds = forge.DefaultMaxRounds
	}
	return map[string]any{
		"status":                  "ok",
		"phase":                   string(st.CurrentPhase),
		"round":                   st.CurrentRound,
		"max_rounds":              maxRounds,
		"claims_this_round":       st.ClaimsInRound(),
		"completed_claims":        st.CompletedClaims(),
		"claims_remaining":        st.ClaimsRemaining(),
		"graph_nodes":             len(st.GraphNodes),
		"graph_edges":             len(st.GraphEdges),
		"negative_knowledge":      len(st.NegativeKnowledge),
		"research_archive":        len(st.ResearchArchive),
		"research_tokens_used":    st.ResearchTokensUsed,
		"web_searches_this_phase": len(st.WebSearchesThisPhase),
		"document_updated":        st.DocumentUpdatedThisPhase,
	}, nil
}

func submitUserInsight(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		InsightText      string   `json:"insight_text"`
		EvidenceURLs     []string `json:"evidence_urls"`
		RelatesToClaimID string   `json:"relates_to_claim_id"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if strings.TrimSpace(args.InsightText) == "" {
		return fail(forge.CodeInvalidInput, "insight_text is required"), nil
	}

	// User contributions bypass the dialectic: they enter the graph directly
	// with user_contributed status and are never subject to verdicts.
	claimID := uuid.New().String()
	env.State.GraphNodes = append(env.State.GraphNodes, forge.GraphNode{
		ClaimID:   claimID,
		ClaimText: args.InsightText,
		Status:    forge.ClaimUserContributed,
		Round:     env.State.CurrentRound,
	})
	env.Staged.NewClaims = append(env.Staged.NewClaims, store.Claim{
		ID:           claimID,
		SessionID:    env.SessionID,
		ClaimText:    args.InsightText,
		PhaseCreated: string(env.State.CurrentPhase),
		RoundCreated: env.State.CurrentRound,
		Status:       string(forge.ClaimUserContributed),
		Confidence:   string(forge.ConfidenceHigh),
	})
	for _, u := range args.EvidenceURLs {
		if strings.TrimSpace(u) == "" {
			continue
		}
		env.Staged.NewEvidence = append(env.Staged.NewEvidence, store.Evidence{
			ClaimID:       claimID,
			SessionID:     env.SessionID,
			URL:           u,
			Type:          string(forge.EvidenceSupporting),
			ContributedBy: "user",
		})
	}

	linked := false
	if args.RelatesToClaimID != "" {
		if env.State.NodeByClaimID(args.RelatesToClaimID) != nil {
			env.State.GraphEdges = append(env.State.GraphEdges, forge.GraphEdge{
				SourceClaimID: claimID,
				TargetClaimID: args.RelatesToClaimID,
				Type:          forge.EdgeSupports,
			})
			env.Staged.NewEdges = append(env.Staged.NewEdges, store.ClaimEdge{
				SessionID:     env.SessionID,
				SourceClaimID: claimID,
				TargetClaimID: args.RelatesToClaimID,
				EdgeType:      string(forge.EdgeSupports),
			})
			linked = true
		}
	}

	result := map[string]any{"status": "ok", "claim_id": claimID}
	if args.RelatesToClaimID != "" && !linked {
		result["unknown_target"] = args.RelatesToClaimID
	}
	return result, nil
}

var phaseOrder = map[forge.Phase]int{
	forge.PhaseDecompose:   0,
	forge.PhaseExplore:     1,
	forge.PhaseSynthesize:  2,
	forge.PhaseValidate:    3,
	forge.PhaseBuild:       4,
	forge.PhaseCrystallize: 5,
}

var phaseArtifacts = map[forge.Phase][]string{
	forge.PhaseDecompose:  {"fundamentals", "assumptions", "reframings"},
	forge.PhaseExplore:    {"morphological_box", "analogies", "contradictions", "adjacent_possible"},
	forge.PhaseSynthesize: {"claims"},
	forge.PhaseValidate:   {"claims"},
	forge.PhaseBuild:      {"graph", "gaps", "negative_knowledge"},
}

func recallPhaseContext(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Phase    string `json:"phase"`
		Artifact string `json:"artifact"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	phase := forge.Phase(strings.ToUpper(args.Phase))
	if !phase.IsValid() || phase == forge.PhaseCrystallize {
		return fail(forge.CodeInvalidPhase, "cannot recall from phase %q", args.Phase), nil
	}
	if !phaseCompleted(env.State, phase) {
		return fail(forge.CodePhaseNotCompleted, "%s has not completed yet", phase), nil
	}

	content, known := artifactContent(env.State, phase, args.Artifact)
	if !known {
		return fail(forge.CodeArtifactNotFound, "%s has no artifact %q; it offers: %s",
			phase, args.Artifact, strings.Join(phaseArtifacts[phase], ", ")), nil
	}
	if content == nil {
		return fail(forge.CodeArtifactNotFound, "artifact %q is empty", args.Artifact), nil
	}
	return map[string]any{
		"status":   "ok",
		"phase":    string(phase),
		"artifact": args.Artifact,
		"content":  content,
	}, nil
}

// phaseCompleted reports whether phase has finished at least once. In round
// ≥ 1 the SYNTHESIZE→VALIDATE→BUILD loop phases all completed in an earlier
// round even when the pipeline ordinal says otherwise.
func phaseCompleted(st *forge.State, phase forge.Phase) bool {
	if phaseOrder[phase] < phaseOrder[st.CurrentPhase] {
		return true
	}
	if st.CurrentRound >= 1 {
		switch phase {
		case forge.PhaseSynthesize, forge.PhaseValidate, forge.PhaseBuild:
			return true
		}
	}
	return false
}

func artifactContent(st *forge.State, phase forge.Phase, artifact string) (any, bool) {
	switch phase {
	case forge.PhaseDecompose:
		switch artifact {
		case "fundamentals":
			if len(st.Fundamentals) == 0 {
				return nil, true
			}
			return map[string]any{"fundamentals": st.Fundamentals, "approach": st.DecomposeApproach}, true
		case "assumptions":
			if len(st.Assumptions) == 0 {
				return nil, true
			}
			return st.Assumptions, true
		case "reframings":
			if len(st.Reframings) == 0 {
				return nil, true
			}
			return st.Reframings, true
		}
	case forge.PhaseExplore:
		switch artifact {
		case "morphological_box":
			if len(st.MorphologicalBox) == 0 {
				return nil, true
			}
			return st.MorphologicalBox, true
		case "analogies":
			if len(st.Analogies) == 0 {
				return nil, true
			}
			return st.Analogies, true
		case "contradictions":
			if len(st.Contradictions) == 0 {
				return nil, true
			}
			return st.Contradictions, true
		case "adjacent_possible":
			if len(st.AdjacentPossible) == 0 {
				return nil, true
			}
			return st.AdjacentPossible, true
		}
	case forge.PhaseSynthesize, forge.PhaseValidate:
		if artifact == "claims" {
			if len(st.CurrentRoundClaims) == 0 {
				return nil, true
			}
			return st.CurrentRoundClaims, true
		}
	case forge.PhaseBuild:
		switch artifact {
		case "graph":
			if len(st.GraphNodes) == 0 {
				return nil, true
			}
			return map[string]any{"nodes": st.GraphNodes, "edges": st.GraphEdges}, true
		case "gaps":
			if len(st.Gaps) == 0 && len(st.ConvergenceLocks) == 0 {
				return nil, true
			}
			return map[string]any{"gaps": st.Gaps, "convergence_locks": st.ConvergenceLocks}, true
		case "negative_knowledge":
			if len(st.NegativeKnowledge) == 0 {
				return nil, true
			}
			return st.NegativeKnowledge, true
		}
	}
	return nil, false
}

func searchResearchArchive(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Keywords   []string `json:"keywords"`
		Phase      string   `json:"phase"`
		Purpose    string   `json:"purpose"`
		MaxResults int      `json:"max_results"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}

	keywords := make([]string, 0, len(args.Keywords))
	for _, k := range args.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, strings.ToLower(k))
		}
	}
	if len(keywords) == 0 {
		return fail(forge.CodeInvalidInput, "at least one keyword is required"), nil
	}

	limit := args.MaxResults
	if limit <= 0 {
		limit = archiveDefaultResults
	}
	if limit > archiveMaxResults {
		limit = archiveMaxResults
	}

	// The archive is append-only, so walking backwards yields newest first.
	matches := make([]map[string]any, 0, limit)
	for i := len(env.State.ResearchArchive) - 1; i >= 0 && len(matches) < limit; i-- {
		e := env.State.ResearchArchive[i]
		if args.Phase != "" && !strings.EqualFold(args.Phase, string(e.Phase)) {
			continue
		}
		if args.Purpose != "" && !strings.EqualFold(args.Purpose, string(e.Purpose)) {
			continue
		}
		if !matchesAll(strings.ToLower(e.Query+" "+e.Summary), keywords) {
			continue
		}
		matches = append(matches, map[string]any{
			"query":   e.Query,
			"purpose": string(e.Purpose),
			"phase":   string(e.Phase),
			"summary": e.Summary,
			"sources": e.Sources,
		})
	}

	return map[string]any{
		"status":           "ok",
		"count":            len(matches),
		"results":          matches,
		"estimated_tokens": len(matches) * archiveTokensPerEntry,
	}, nil
}

func matchesAll(haystack string, keywords []string) bool {
	for _, k := range keywords {
		if !strings.Contains(haystack, k) {
			return false
		}
	}
	return true
}

func updateWorkingDocument(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Section string `json:"section"`
		Content string `json:"content"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if !forge.IsDocumentSection(args.Section) {
		return fail(forge.CodeUnknownSection, "unknown section %q; canonical sections: %s",
			args.Section, strings.Join(forge.DocumentSections, ", ")), nil
	}
	if strings.TrimSpace(args.Content) == "" {
		return fail(forge.CodeInvalidInput, "content must not be empty"), nil
	}

	if env.State.WorkingDocument == nil {
		env.State.WorkingDocument = make(map[string]string)
	}
	env.State.WorkingDocument[args.Section] = args.Content
	env.State.DocumentUpdatedThisPhase = true
	return map[string]any{
		"status":  "ok",
		"section": args.Section,
		"words":   wordCount(args.Content),
	}, nil
}

func readWorkingDocument(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Section string `json:"section"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}

	if args.Section == "" {
		toc := make(map[string]int, len(forge.DocumentSections))
		for _, name := range forge.DocumentSections {
			toc[name] = wordCount(env.State.WorkingDocument[name])
		}
		return map[string]any{"status": "ok", "sections": toc}, nil
	}

	if !forge.IsDocumentSection(args.Section) {
		return fail(forge.CodeUnknownSection, "unknown section %q; canonical sections: %s",
			args.Section, strings.Join(forge.DocumentSections, ", ")), nil
	}
	return map[string]any{
		"status":  "ok",
		"section": args.Section,
		"content": env.State.WorkingDocument[args.Section],
	}, nil
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func askUser(_ context.Context, env *Env, input json.RawMessage) (map[string]any, error) {
	var args struct {
		Question string `json:"question"`
		Context  string `json:"context"`
	}
	if err := unmarshalArgs(input, &args); err != nil {
		return fail(forge.CodeInvalidInput, "bad arguments: %v", err), nil
	}
	if strings.TrimSpace(args.Question) == "" {
		return fail(forge.CodeInvalidInput, "question is required"), nil
	}

	var inputType string
	switch env.State.CurrentPhase {
	case forge.PhaseDecompose:
		inputType = models.InputDecomposeReview
	case forge.PhaseExplore:
		inputType = models.InputExploreReview
	default:
		return fail(forge.CodeInvalidPhase, "ask_user pauses only the DECOMPOSE and EXPLORE reviews"), nil
	}

	env.State.AwaitingUserInput = true
	env.State.AwaitingInputType = inputType
	return map[string]any{
		"status":   "ok",
		"question": args.Question,
		"context":  args.Context,
	}, nil
}

func completePhase(_ context.Context, env *Env, _ json.RawMessage) (map[string]any, error) {
	if gate := forge.CanCompletePhase(env.State); gate != nil {
		return gate.Dict(), nil
	}

	next := env.State.CurrentPhase.Next()
	env.State.TransitionTo(next)

	// The digest rides back inside the tool result so the model enters the
	// new phase anchored on what the user actually selected.
	return map[string]any{
		"status":  "ok",
		"phase":   string(next),
		"context": conversation.ForTransition(env.State, next),
	}, nil
}
