package tools

import (
	"context"
	"encoding/json"

	"github.com/noesis-forge/noesis/pkg/forge"
	"github.com/noesis-forge/noesis/pkg/metrics"
)

// Tool names the runner keys on.
const (
	ToolAskUser             = "ask_user"
	ToolPresentRound        = "present_round"
	ToolPresentBuildOptions = "present_build_options"
	ToolPresentDocument     = "present_document"
	ToolCompletePhase       = "complete_phase"
	ToolResearch            = "research"
)

// IsPauseTool reports whether a successful call to name ends the turn and
// hands control to the user.
func IsPauseTool(name string) bool {
	switch name {
	case ToolAskUser, ToolPresentRound, ToolPresentBuildOptions, ToolPresentDocument:
		return true
	default:
		return false
	}
}

var handlers = map[string]Handler{
	// DECOMPOSE
	"decompose_to_fundamentals": decomposeToFundamentals,
	"map_state_of_art":          mapStateOfArt,
	"extract_assumptions":       extractAssumptions,
	"reframe_problem":           reframeProblem,

	// EXPLORE
	"build_morphological_box":   buildMorphologicalBox,
	"search_cross_domain":       searchCrossDomain,
	"identify_contradictions":   identifyContradictions,
	"explore_adjacent_possible": exploreAdjacentPossible,

	// SYNTHESIZE
	"state_thesis":     stateThesis,
	"find_antithesis":  findAntithesis,
	"create_synthesis": createSynthesis,

	// VALIDATE
	"attempt_falsification": attemptFalsification,
	"check_novelty":         checkNovelty,
	"score_claim":           scoreClaim,
	ToolPresentRound:        presentRound,

	// BUILD
	"add_to_knowledge_graph": addToKnowledgeGraph,
	"analyze_gaps":           analyzeGaps,
	"get_negative_knowledge": getNegativeKnowledge,
	ToolPresentBuildOptions:  presentBuildOptions,

	// CRYSTALLIZE
	"generate_knowledge_document": generateKnowledgeDocument,
	ToolPresentDocument:           presentDocument,

	// Cross-cutting
	"get_session_status":      getSessionStatus,
	"submit_user_insight":     submitUserInsight,
	"recall_phase_context":    recallPhaseContext,
	"search_research_archive": searchResearchArchive,
	"update_working_document": updateWorkingDocument,
	"read_working_document":   readWorkingDocument,
	ToolAskUser:               askUser,
	ToolCompletePhase:         completePhase,

	// Research delegation
	ToolResearch: doResearch,
}

// Dispatch routes one tool call. Unknown names and calls for tools the
// current phase does not offer come back as error dicts, never Go errors:
// the model sees the rejection and corrects itself.
func Dispatch(ctx context.Context, env *Env, name string, input json.RawMessage) (map[string]any, error) {
	metrics.ToolCalls.WithLabelValues(name).Inc()
	h, ok := handlers[name]
	if !ok {
		return reject(fail(forge.CodeUnknownTool, "unknown tool %q", name)), nil
	}
	if !availableIn(name, env.State.CurrentPhase) {
		return reject(fail(forge.CodeInvalidPhase, "tool %q is not available in %s", name, env.State.CurrentPhase)), nil
	}
	res, err := h(ctx, env, input)
	if err == nil && res != nil {
		reject(res)
	}
	return res, err
}

// reject counts an enforcement rejection when the result carries the error
// envelope, and returns the result either way.
func reject(res map[string]any) map[string]any {
	if code, ok := res["error_code"].(string); ok {
		metrics.ToolRejections.WithLabelValues(code).Inc()
	}
	return res
}
