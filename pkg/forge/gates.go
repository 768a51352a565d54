package forge

import "fmt"

// Stable error codes returned to the model inside tool results. These are
// contract: clients and prompts reference them by name.
const (
	CodeDecomposeIncomplete      = "DECOMPOSE_INCOMPLETE"
	CodeExploreIncomplete        = "EXPLORE_INCOMPLETE"
	CodeSynthesizeIncomplete     = "SYNTHESIZE_INCOMPLETE"
	CodeAntithesisMissing        = "ANTITHESIS_MISSING"
	CodeClaimLimitExceeded       = "CLAIM_LIMIT_EXCEEDED"
	CodeNotCumulative            = "NOT_CUMULATIVE"
	CodeNegativeKnowledgeMissing = "NEGATIVE_KNOWLEDGE_MISSING"
	CodeMaxRoundsExceeded        = "MAX_ROUNDS_EXCEEDED"
	CodeStateOfArtNotResearched  = "STATE_OF_ART_NOT_RESEARCHED"
	CodeCrossDomainNotSearched   = "CROSS_DOMAIN_NOT_SEARCHED"
	CodeAntithesisNotSearched    = "ANTITHESIS_NOT_SEARCHED"
	CodeFalsificationNotSearched = "FALSIFICATION_NOT_SEARCHED"
	CodeNoveltyNotSearched       = "NOVELTY_NOT_SEARCHED"
	CodeScoringIncomplete        = "SCORING_INCOMPLETE"
	CodeUngroundedClaim          = "UNGROUNDED_CLAIM"
	CodeInvalidVerdict           = "INVALID_VERDICT"
	CodeVerdictMissing           = "VERDICT_MISSING"
	CodeClaimNotFound            = "CLAIM_NOT_FOUND"
	CodeInvalidPhase             = "INVALID_PHASE"
	CodePhaseNotCompleted        = "PHASE_NOT_COMPLETED"
	CodeArtifactNotFound         = "ARTIFACT_NOT_FOUND"
	CodeUnknownTool              = "UNKNOWN_TOOL"
	CodeUnknownSection           = "UNKNOWN_SECTION"
	CodeInvalidInput             = "INVALID_INPUT"
	CodeDocumentNotUpdated       = "DOCUMENT_NOT_UPDATED"
	CodeAgentLoopExceeded        = "AGENT_LOOP_EXCEEDED"
	CodeDatabaseError            = "DATABASE_ERROR"
	CodeInternalError            = "INTERNAL_ERROR"
)

// GateError is a rejected precondition. It is a value, not a Go error: the
// runner forwards it to the model as a tool result so the model can correct
// itself, closing the loop without surfacing a failure to the user.
type GateError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

// Error implements error for logging; gates are still passed around as values.
func (e *GateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Dict renders the uniform tool-result error envelope.
func (e *GateError) Dict() map[string]any {
	return map[string]any{
		"status":     "error",
		"error_code": e.Code,
		"message":    e.Message,
	}
}

func gatef(code, format string, args ...any) *GateError {
	return &GateError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CanCompletePhase gates the complete_phase tool: the current phase's exit
// criteria plus the working-document gate. VALIDATE and BUILD advance through
// their pause-tool reviews instead, and CRYSTALLIZE is terminal.
func CanCompletePhase(s *State) *GateError {
	switch s.CurrentPhase {
	case PhaseDecompose:
		if err := canLeaveDecompose(s); err != nil {
			return err
		}
	case PhaseExplore:
		if err := canLeaveExplore(s); err != nil {
			return err
		}
	case PhaseSynthesize:
		if err := CanLeaveSynthesize(s); err != nil {
			return err
		}
	case PhaseValidate:
		return gatef(CodeInvalidPhase, "VALIDATE completes through present_round and the user's verdicts, not complete_phase")
	case PhaseBuild:
		return gatef(CodeInvalidPhase, "BUILD completes through present_build_options and the user's decision, not complete_phase")
	case PhaseCrystallize:
		return gatef(CodeInvalidPhase, "CRYSTALLIZE is the final phase; present the document instead")
	}
	if !s.DocumentUpdatedThisPhase {
		return gatef(CodeDocumentNotUpdated, "update_working_document must be called at least once before completing %s", s.CurrentPhase)
	}
	return nil
}

func canLeaveDecompose(s *State) *GateError {
	if len(s.Fundamentals) == 0 {
		return gatef(CodeDecomposeIncomplete, "no fundamentals recorded; call decompose_to_fundamentals first")
	}
	if !s.StateOfArtResearched {
		return gatef(CodeDecomposeIncomplete, "state of the art not mapped; research it and call map_state_of_art")
	}
	if len(s.Assumptions) < 3 {
		return gatef(CodeDecomposeIncomplete, "only %d assumptions extracted; at least 3 required", len(s.Assumptions))
	}
	if len(s.Reframings) < 3 {
		return gatef(CodeDecomposeIncomplete, "only %d reframings proposed; at least 3 required", len(s.Reframings))
	}
	if len(s.SelectedReframings()) == 0 {
		return gatef(CodeDecomposeIncomplete, "no reframing selected by the user yet; await the decompose review")
	}
	return nil
}

func canLeaveExplore(s *State) *GateError {
	if len(s.MorphologicalBox) == 0 {
		return gatef(CodeExploreIncomplete, "morphological box not built")
	}
	if s.CrossDomainSearches < 2 {
		return gatef(CodeExploreIncomplete, "only %d cross-domain searches performed; at least 2 required", s.CrossDomainSearches)
	}
	if len(s.Contradictions) == 0 {
		return gatef(CodeExploreIncomplete, "no contradictions identified")
	}
	if len(s.ResonantAnalogies()) == 0 {
		return gatef(CodeExploreIncomplete, "no analogy resonated with the user yet; await the explore review")
	}
	return nil
}

// CanLeaveSynthesize requires at least one completed synthesis and an
// antithesis on every buffered claim.
func CanLeaveSynthesize(s *State) *GateError {
	if s.CompletedClaims() == 0 {
		return gatef(CodeSynthesizeIncomplete, "no synthesis created this round")
	}
	if !s.AllClaimsHaveAntithesis() {
		return gatef(CodeAntithesisMissing, "every claim needs an antithesis before validation")
	}
	return nil
}

// CanStartNewRound gates the BUILD → SYNTHESIZE transition. The cumulative
// flags bind from round 1: round 0 has no earlier claims to reference.
func CanStartNewRound(s *State) *GateError {
	if s.MaxRoundsReached() {
		return gatef(CodeMaxRoundsExceeded, "round %d is the last; resolve to CRYSTALLIZE instead", s.CurrentRound)
	}
	if s.CurrentRound >= 1 {
		if !s.PreviousClaimsReferenced {
			return gatef(CodeNotCumulative, "the knowledge graph was not extended with edges to existing claims this round")
		}
		if !s.NegativeKnowledgeConsulted {
			return gatef(CodeNegativeKnowledgeMissing, "consult get_negative_knowledge before starting a new round")
		}
	}
	return nil
}

// CanMapStateOfArt is the research-first gate for map_state_of_art.
func CanMapStateOfArt(s *State) *GateError {
	if !s.HasWebSearchThisPhase() {
		return gatef(CodeStateOfArtNotResearched, "research the state of the art before mapping it")
	}
	return nil
}

// CanSearchCrossDomain is the research-first gate for search_cross_domain.
func CanSearchCrossDomain(s *State) *GateError {
	if !s.HasWebSearchThisPhase() {
		return gatef(CodeCrossDomainNotSearched, "research the source domain before recording a cross-domain analogy")
	}
	return nil
}

// CanStateThesis bounds the claim buffer.
func CanStateThesis(s *State) *GateError {
	if s.ClaimsInRound() >= MaxClaimsPerRound {
		return gatef(CodeClaimLimitExceeded, "round %d already has %d claims; the limit is %d",
			s.CurrentRound, s.ClaimsInRound(), MaxClaimsPerRound)
	}
	return nil
}

// CanFindAntithesis requires research in this phase and a staged thesis at
// the index.
func CanFindAntithesis(s *State, claimIndex int) *GateError {
	if !s.HasWebSearchThisPhase() {
		return gatef(CodeAntithesisNotSearched, "search for contradicting evidence before stating an antithesis")
	}
	if s.ClaimByIndex(claimIndex) == nil {
		return gatef(CodeClaimNotFound, "no claim at index %d; state its thesis first", claimIndex)
	}
	return nil
}

// CanCreateSynthesis enforces the claim limit, antithesis-first discipline,
// evidence grounding, and the cumulative gates in round ≥ 1.
func CanCreateSynthesis(s *State, claimIndex, evidenceCount int, buildsOnClaimID string) *GateError {
	if s.CompletedClaims() >= MaxClaimsPerRound {
		return gatef(CodeClaimLimitExceeded, "round %d already has %d completed claims; present the round instead",
			s.CurrentRound, s.CompletedClaims())
	}
	claim := s.ClaimByIndex(claimIndex)
	if claim == nil {
		return gatef(CodeClaimNotFound, "no claim at index %d; state its thesis first", claimIndex)
	}
	if claim.ClaimID != "" {
		return gatef(CodeClaimLimitExceeded, "claim %d is already synthesized", claimIndex)
	}
	if !s.AntithesesSearched[claimIndex] {
		return gatef(CodeAntithesisMissing, "find an antithesis for claim %d before synthesizing it", claimIndex)
	}
	if evidenceCount < 1 {
		return gatef(CodeUngroundedClaim, "a synthesis needs at least one piece of evidence")
	}
	if s.CurrentRound >= 1 {
		if !s.NegativeKnowledgeConsulted {
			return gatef(CodeNegativeKnowledgeMissing, "consult get_negative_knowledge before synthesizing in round %d", s.CurrentRound)
		}
		if buildsOnClaimID == "" {
			return gatef(CodeNotCumulative, "claims in round %d must build on an existing claim; set builds_on_claim_id", s.CurrentRound)
		}
	}
	return nil
}

// CanAttemptFalsification is the research-first gate for attempt_falsification.
func CanAttemptFalsification(s *State, claimIndex int) *GateError {
	if !s.HasWebSearchThisPhase() {
		return gatef(CodeFalsificationNotSearched, "search for falsifying evidence before recording the attempt")
	}
	if c := s.ClaimByIndex(claimIndex); c == nil || c.ClaimID == "" {
		return gatef(CodeClaimNotFound, "no synthesized claim at index %d", claimIndex)
	}
	return nil
}

// CanCheckNovelty is the research-first gate for check_novelty.
func CanCheckNovelty(s *State, claimIndex int) *GateError {
	if !s.HasWebSearchThisPhase() {
		return gatef(CodeNoveltyNotSearched, "search existing knowledge before recording a novelty check")
	}
	if c := s.ClaimByIndex(claimIndex); c == nil || c.ClaimID == "" {
		return gatef(CodeClaimNotFound, "no synthesized claim at index %d", claimIndex)
	}
	return nil
}

// CanScoreClaim requires both falsification and novelty recorded first.
func CanScoreClaim(s *State, claimIndex int) *GateError {
	if c := s.ClaimByIndex(claimIndex); c == nil || c.ClaimID == "" {
		return gatef(CodeClaimNotFound, "no synthesized claim at index %d", claimIndex)
	}
	if !s.FalsificationAttempted[claimIndex] {
		return gatef(CodeScoringIncomplete, "attempt falsification of claim %d before scoring it", claimIndex)
	}
	if !s.NoveltyChecked[claimIndex] {
		return gatef(CodeScoringIncomplete, "check novelty of claim %d before scoring it", claimIndex)
	}
	return nil
}

// CanPresentRound requires a fully validated buffer: every completed claim
// falsification-tested, novelty-checked, and scored.
func CanPresentRound(s *State) *GateError {
	if s.CompletedClaims() == 0 {
		return gatef(CodeSynthesizeIncomplete, "no synthesized claims to present")
	}
	for i, c := range s.CurrentRoundClaims {
		if c.ClaimID == "" {
			continue
		}
		if !s.FalsificationAttempted[i] {
			return gatef(CodeScoringIncomplete, "claim %d has no falsification attempt", i)
		}
		if !s.NoveltyChecked[i] {
			return gatef(CodeScoringIncomplete, "claim %d has no novelty check", i)
		}
		if c.Scores == nil {
			return gatef(CodeScoringIncomplete, "claim %d is not scored", i)
		}
	}
	return nil
}

// CanAddToGraph requires a synthesized claim with an admitting user verdict.
func CanAddToGraph(s *State, claimIndex int) *GateError {
	claim := s.ClaimByIndex(claimIndex)
	if claim == nil || claim.ClaimID == "" {
		return gatef(CodeClaimNotFound, "no synthesized claim at index %d", claimIndex)
	}
	if claim.Verdict == "" {
		return gatef(CodeVerdictMissing, "claim %d has no user verdict yet", claimIndex)
	}
	if !claim.Verdict.AllowsGraphAddition() {
		return gatef(CodeInvalidVerdict, "claim %d was %sed and cannot join the graph", claimIndex, claim.Verdict)
	}
	return nil
}
